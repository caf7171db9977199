package redis

import (
	"testing"

	"github.com/slgirgis/horizonscale/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := config.RedisConfig{Enabled: false}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := config.RedisConfig{Enabled: false}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(nil, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCache_SetDisabledIsNoop(t *testing.T) {
	cfg := config.RedisConfig{Enabled: false}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	if err := cache.Set(nil, "key", "value", TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
}

func TestCache_GetOrSetDisabledCallsFn(t *testing.T) {
	cfg := config.RedisConfig{Enabled: false}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// With Redis disabled every call is a miss, so fn must run and its
	// result must land in dest via the JSON roundtrip.
	var dest map[string]float64
	err := cache.GetOrSet(nil, "leaderboard:run-x", &dest, TTLMedium, func() (interface{}, error) {
		return map[string]float64{"seasonal": 4.1}, nil
	})
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if dest["seasonal"] != 4.1 {
		t.Errorf("Expected dest populated from fn, got %v", dest)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "LeaderboardKey",
			fn:       func() string { return LeaderboardKey("run-20260831") },
			expected: "leaderboard:run-20260831",
		},
		{
			name:     "RisksKey",
			fn:       func() string { return RisksKey("run-20260831") },
			expected: "risks:run-20260831",
		},
		{
			name:     "ChampionKey",
			fn:       func() string { return ChampionKey("run-20260831", "server-ab12cd34", "cpu") },
			expected: "champion:run-20260831:server-ab12cd34:cpu",
		},
		{
			name:     "SummaryKey",
			fn:       func() string { return SummaryKey("run-20260831") },
			expected: "summary:run-20260831",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
