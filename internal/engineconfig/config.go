package engineconfig

import (
	"github.com/slgirgis/horizonscale/internal/contracts"
)

// Config는 한 번의 예측 run 전체를 결정하는 프로파일
// 불변 객체로 취급: run 시작 시 한 번 로드되어 값으로 전달된다.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Windows    Windows    `yaml:"windows" json:"windows"`
	Tournament Tournament `yaml:"tournament" json:"tournament"`
	Risk       Risk       `yaml:"risk" json:"risk"`
	Execution  Execution  `yaml:"execution" json:"execution"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Windows shared train/backtest/horizon contract (months/months/days)
type Windows struct {
	TrainMonths    int `yaml:"train_months" json:"train_months"`
	BacktestMonths int `yaml:"backtest_months" json:"backtest_months"`
	HorizonDays    int `yaml:"horizon_days" json:"horizon_days"`
}

// Tournament 챔피언 선정 규칙
type Tournament struct {
	// Precedence breaks exact metric ties deterministically.
	// 앞에 오는 계열이 동점 시 승리.
	Precedence []contracts.ModelFamily `yaml:"precedence" json:"precedence"`
}

// Risk 용량 위험 탐지 임계값
type Risk struct {
	BreachThresholdPct  float64 `yaml:"breach_threshold_pct" json:"breach_threshold_pct"`
	VolatilityThreshold float64 `yaml:"volatility_threshold" json:"volatility_threshold"`
	SeverePeakPct       float64 `yaml:"severe_peak_pct" json:"severe_peak_pct"`
}

// Execution 병렬 실행 설정
type Execution struct {
	// Workers is the pool size. 0 means runtime.NumCPU().
	Workers int `yaml:"workers" json:"workers"`
}

// ToWindows converts to the contracts type passed into work units.
func (c *Config) ToWindows() contracts.Windows {
	return contracts.Windows{
		TrainMonths:    c.Windows.TrainMonths,
		BacktestMonths: c.Windows.BacktestMonths,
		HorizonDays:    c.Windows.HorizonDays,
	}
}

// Default returns the stock fleet profile.
// 원본 HorizonScale 운영값: 32개월 학습 / 4개월 백테스트 / 180일 호라이즌,
// 95% 임계 / 변동성 2.0 / 심각 피크 105.
func Default() *Config {
	return &Config{
		Meta: Meta{
			ProfileID: "fleet_default",
			Version:   "v1",
		},
		Windows: Windows{
			TrainMonths:    32,
			BacktestMonths: 4,
			HorizonDays:    180,
		},
		Tournament: Tournament{
			Precedence: []contracts.ModelFamily{
				contracts.FamilySeasonal,
				contracts.FamilyGradient,
			},
		},
		Risk: Risk{
			BreachThresholdPct:  95,
			VolatilityThreshold: 2.0,
			SeverePeakPct:       105,
		},
		Execution: Execution{
			Workers: 0,
		},
	}
}
