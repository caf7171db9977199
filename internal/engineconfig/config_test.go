package engineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default profile should validate: %v", err)
	}

	// 원본 운영값 확인
	if cfg.Windows.TrainMonths != 32 {
		t.Errorf("expected train_months=32, got %d", cfg.Windows.TrainMonths)
	}
	if cfg.Windows.BacktestMonths != 4 {
		t.Errorf("expected backtest_months=4, got %d", cfg.Windows.BacktestMonths)
	}
	if cfg.Windows.HorizonDays != 180 {
		t.Errorf("expected horizon_days=180, got %d", cfg.Windows.HorizonDays)
	}
	if cfg.Risk.BreachThresholdPct != 95 {
		t.Errorf("expected breach=95, got %.1f", cfg.Risk.BreachThresholdPct)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	yamlDoc := `
meta:
  profile_id: test_profile
  version: v1
windows:
  train_months: 12
  backtest_months: 2
  horizon_days: 90
tournament:
  precedence: [gradient, seasonal]
risk:
  breach_threshold_pct: 90
  volatility_threshold: 1.5
  severe_peak_pct: 100
execution:
  workers: 4
`
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, raw, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected raw yaml bytes")
	}

	if cfg.Meta.ProfileID != "test_profile" {
		t.Errorf("expected profile_id=test_profile, got %s", cfg.Meta.ProfileID)
	}
	if cfg.Tournament.Precedence[0] != contracts.FamilyGradient {
		t.Errorf("expected gradient first in precedence, got %s", cfg.Tournament.Precedence[0])
	}
	if cfg.Execution.Workers != 4 {
		t.Errorf("expected workers=4, got %d", cfg.Execution.Workers)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	yamlDoc := `
meta:
  profile_id: test_profile
  version: v1
  typo_field: oops
windows:
  train_months: 12
  backtest_months: 2
  horizon_days: 90
tournament:
  precedence: [seasonal]
risk:
  breach_threshold_pct: 90
  volatility_threshold: 1.5
  severe_peak_pct: 100
execution:
  workers: 0
`
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Error("expected error for unknown field, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid default", func(c *Config) {}, true},
		{"missing profile id", func(c *Config) { c.Meta.ProfileID = "" }, false},
		{"zero train months", func(c *Config) { c.Windows.TrainMonths = 0 }, false},
		{"negative horizon", func(c *Config) { c.Windows.HorizonDays = -1 }, false},
		{"empty precedence", func(c *Config) { c.Tournament.Precedence = nil }, false},
		{"unknown family", func(c *Config) {
			c.Tournament.Precedence = []contracts.ModelFamily{"prophet"}
		}, false},
		{"duplicate family", func(c *Config) {
			c.Tournament.Precedence = []contracts.ModelFamily{
				contracts.FamilySeasonal, contracts.FamilySeasonal,
			}
		}, false},
		{"breach over 100", func(c *Config) { c.Risk.BreachThresholdPct = 101 }, false},
		{"severe below breach", func(c *Config) { c.Risk.SeverePeakPct = 90 }, false},
		{"negative workers", func(c *Config) { c.Execution.Workers = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantOK && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	cfg := Default()

	hash1, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash1) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash1))
	}

	// 동일 설정 → 동일 해시
	hash2, _ := Hash(cfg)
	if hash1 != hash2 {
		t.Error("hash not deterministic")
	}

	// 설정 변경 → 다른 해시
	cfg.Windows.HorizonDays = 90
	hash3, _ := Hash(cfg)
	if hash1 == hash3 {
		t.Error("expected different hash after config change")
	}
}
