package contracts

import (
	"time"
)

// ModelFamily 경쟁 모델 계열 식별자
type ModelFamily string

const (
	// FamilySeasonal trend + monthly seasonality decomposition engine
	FamilySeasonal ModelFamily = "seasonal"

	// FamilyGradient regression over engineered temporal features
	FamilyGradient ModelFamily = "gradient"
)

// Segment marks whether a prediction row falls in the held-out
// backtest window or the true forward horizon.
type Segment string

const (
	SegmentBacktest Segment = "backtest"
	SegmentForecast Segment = "forecast"
)

// Windows is the shared train/backtest/horizon contract.
// Every adapter must honor the same windowing so backtest scores
// are comparable across families.
// ⭐ SSOT: 윈도우 규약은 여기서만 정의
type Windows struct {
	TrainMonths    int `json:"train_months"`
	BacktestMonths int `json:"backtest_months"`
	HorizonDays    int `json:"horizon_days"`
}

// WorkUnit is one independent computation: one series, one model family.
// Units carry their windows so each is reproducible in isolation.
// No shared mutable state between units.
type WorkUnit struct {
	Key     SeriesKey   `json:"key"`
	Family  ModelFamily `json:"family"`
	Windows Windows     `json:"windows"`
}

// ModelResult is one predicted point with bounds.
// Invariant: 0 <= Lower <= Point <= Upper <= 100 after protocol clipping.
type ModelResult struct {
	Key     SeriesKey   `json:"key"`
	Family  ModelFamily `json:"family"`
	TS      time.Time   `json:"ts"`
	Point   float64     `json:"point"`
	Lower   float64     `json:"lower"`
	Upper   float64     `json:"upper"`
	Segment Segment     `json:"segment"`
}

// AccuracyRecord 백테스트 구간 정확도 (MAPE, %)
// Computed strictly over the backtest segment against withheld actuals.
type AccuracyRecord struct {
	Key    SeriesKey   `json:"key"`
	Family ModelFamily `json:"family"`
	MAPE   float64     `json:"mape"`
	// SampleCount is the number of backtest points that contributed
	// (zero-valued actuals are skipped).
	SampleCount int `json:"sample_count"`
}

// ChampionAssignment is the tournament outcome for one series.
// Exactly one per series that had at least one surviving family.
type ChampionAssignment struct {
	Key    SeriesKey   `json:"key"`
	Family ModelFamily `json:"family"`
	MAPE   float64     `json:"mape"`
	// ByDefault is true when only one family survived and no
	// comparison was possible.
	ByDefault bool `json:"by_default"`
}

// RiskRecord flags a series whose champion forecast breaches the
// capacity threshold within the horizon.
type RiskRecord struct {
	Key            SeriesKey   `json:"key"`
	Family         ModelFamily `json:"family"`
	EarliestBreach time.Time   `json:"earliest_breach"`
	ProjectedPeak  float64     `json:"projected_peak"`
	Volatility     float64     `json:"volatility"`
	Priority       bool        `json:"priority"`
}

// RunSummary is the user-visible outcome of a complete engine run.
type RunSummary struct {
	RunID           string              `json:"run_id"`
	ConfigHash      string              `json:"config_hash"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	TotalSeries     int                 `json:"total_series"`
	ExcludedSeries  int                 `json:"excluded_series"`
	FailedUnits     int                 `json:"failed_units"`
	NoChampion      int                 `json:"no_champion"`
	RiskCount       int                 `json:"risk_count"`
	WinCounts       map[ModelFamily]int `json:"win_counts"`
	AvgChampionMAPE float64             `json:"avg_champion_mape"`
}
