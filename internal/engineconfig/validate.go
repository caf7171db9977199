package engineconfig

import (
	"fmt"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// knownFamilies 등록 가능한 모델 계열
var knownFamilies = map[contracts.ModelFamily]bool{
	contracts.FamilySeasonal: true,
	contracts.FamilyGradient: true,
}

// Validate checks all required constraints.
// 실패 시 error 반환 (run 시작 전 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === Windows ===
	if cfg.Windows.TrainMonths <= 0 {
		return ValidationError{"windows.train_months", "must be > 0"}
	}
	if cfg.Windows.BacktestMonths <= 0 {
		return ValidationError{"windows.backtest_months", "must be > 0"}
	}
	if cfg.Windows.HorizonDays <= 0 {
		return ValidationError{"windows.horizon_days", "must be > 0"}
	}

	// === Tournament ===
	// precedence는 전체 순서여야 함: 동점 시 결정적 재현을 보장
	if len(cfg.Tournament.Precedence) == 0 {
		return ValidationError{"tournament.precedence", "required"}
	}
	seen := make(map[contracts.ModelFamily]bool)
	for _, family := range cfg.Tournament.Precedence {
		if !knownFamilies[family] {
			return ValidationError{"tournament.precedence", fmt.Sprintf("unknown model family %q", family)}
		}
		if seen[family] {
			return ValidationError{"tournament.precedence", fmt.Sprintf("duplicate model family %q", family)}
		}
		seen[family] = true
	}

	// === Risk ===
	if cfg.Risk.BreachThresholdPct <= 0 || cfg.Risk.BreachThresholdPct > 100 {
		return ValidationError{"risk.breach_threshold_pct", "must be in (0, 100]"}
	}
	if cfg.Risk.VolatilityThreshold < 0 {
		return ValidationError{"risk.volatility_threshold", "must be >= 0"}
	}
	if cfg.Risk.SeverePeakPct < cfg.Risk.BreachThresholdPct {
		return ValidationError{"risk.severe_peak_pct", "must be >= breach_threshold_pct"}
	}

	// === Execution ===
	if cfg.Execution.Workers < 0 {
		return ValidationError{"execution.workers", "must be >= 0 (0 = NumCPU)"}
	}

	return nil
}
