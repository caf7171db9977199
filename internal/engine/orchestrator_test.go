package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/internal/engineconfig"
	"github.com/slgirgis/horizonscale/internal/models"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// ---- in-memory stores ----

type memStores struct {
	series map[contracts.SeriesKey]contracts.Series

	purgedRuns  []string
	saved       map[string][]contracts.ModelResult
	leaderboard map[string][]contracts.AccuracyRecord
	champions   map[string][]contracts.ChampionAssignment
	risks       map[string][]contracts.RiskRecord
	summaries   []contracts.RunSummary

	failSaveResults bool
}

func newMemStores() *memStores {
	return &memStores{
		series:      map[contracts.SeriesKey]contracts.Series{},
		saved:       map[string][]contracts.ModelResult{},
		leaderboard: map[string][]contracts.AccuracyRecord{},
		champions:   map[string][]contracts.ChampionAssignment{},
		risks:       map[string][]contracts.RiskRecord{},
	}
}

func (m *memStores) add(s contracts.Series) { m.series[s.Key] = s }

func (m *memStores) ListSeries(_ context.Context) ([]contracts.SeriesMeta, error) {
	var metas []contracts.SeriesMeta
	for key, s := range m.series {
		first, last := s.Span()
		metas = append(metas, contracts.SeriesMeta{
			Key: key, ObsCount: len(s.History), First: first, Last: last,
		})
	}
	return metas, nil
}

func (m *memStores) LoadHistories(_ context.Context, keys []contracts.SeriesKey) (map[contracts.SeriesKey]contracts.Series, error) {
	out := map[contracts.SeriesKey]contracts.Series{}
	for _, k := range keys {
		if s, ok := m.series[k]; ok {
			out[k] = s
		}
	}
	return out, nil
}

func (m *memStores) PurgeRun(_ context.Context, runID string) error {
	m.purgedRuns = append(m.purgedRuns, runID)
	delete(m.saved, runID)
	return nil
}

func (m *memStores) SaveModelResults(_ context.Context, runID string, results []contracts.ModelResult) error {
	if m.failSaveResults {
		return errors.New("storage unavailable")
	}
	m.saved[runID] = append(m.saved[runID], results...)
	return nil
}

func (m *memStores) SaveLeaderboard(_ context.Context, runID string, records []contracts.AccuracyRecord, _ map[contracts.SeriesKey]map[contracts.ModelFamily]int) error {
	m.leaderboard[runID] = records
	return nil
}

func (m *memStores) SaveChampions(_ context.Context, runID string, champions []contracts.ChampionAssignment) error {
	m.champions[runID] = champions
	return nil
}

func (m *memStores) SaveRisks(_ context.Context, runID string, risks []contracts.RiskRecord) error {
	m.risks[runID] = risks
	return nil
}

func (m *memStores) SaveSummary(_ context.Context, summary contracts.RunSummary) error {
	m.summaries = append(m.summaries, summary)
	return nil
}

func (m *memStores) LatestRunID(_ context.Context) (string, error) {
	if len(m.summaries) == 0 {
		return "", errors.New("no runs")
	}
	return m.summaries[len(m.summaries)-1].RunID, nil
}

func (m *memStores) stores() Stores {
	return Stores{Catalog: m, Results: m, Tournament: m, Risks: m, Runs: m}
}

// ---- fixtures ----

func fleetSeries(entityID string, resource contracts.ResourceType, months int, fn func(ts time.Time, i int) float64) contracts.Series {
	if fn == nil {
		fn = func(ts time.Time, i int) float64 {
			trend := 40 + float64(i)*0.01
			season := 5 * math.Sin(2*math.Pi*float64(ts.YearDay())/365.25)
			return trend + season
		}
	}

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -months, 0)

	series := contracts.Series{Key: contracts.SeriesKey{EntityID: entityID, Resource: resource}}
	for i, ts := 0, start.AddDate(0, 0, 1); !ts.After(end); i, ts = i+1, ts.AddDate(0, 0, 1) {
		series.History = append(series.History, contracts.Observation{TS: ts, Value: fn(ts, i)})
	}
	return series
}

func testConfig() *engineconfig.Config {
	cfg := engineconfig.Default()
	cfg.Windows = engineconfig.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}
	cfg.Execution.Workers = 4
	return cfg
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func newTestOrchestrator(t *testing.T, stores *memStores, cfg *engineconfig.Config) *Orchestrator {
	t.Helper()
	return NewOrchestrator(cfg, stores.stores(), models.DefaultRegistry(), testLogger())
}

// ---- tests ----

func TestRunEndToEnd(t *testing.T) {
	stores := newMemStores()
	stores.add(fleetSeries("host-01", contracts.ResourceCPU, 16, nil))
	stores.add(fleetSeries("host-01", contracts.ResourceMemory, 16, nil))
	stores.add(fleetSeries("host-02", contracts.ResourceCPU, 16, nil))

	orch := newTestOrchestrator(t, stores, testConfig())
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalSeries)
	assert.Zero(t, summary.ExcludedSeries)
	assert.Zero(t, summary.FailedUnits)
	assert.Zero(t, summary.NoChampion)

	// exactly one champion per series
	require.Len(t, stores.champions[summary.RunID], 3)

	// both families scored on every series
	assert.Len(t, stores.leaderboard[summary.RunID], 6)

	// raw rows persisted, purge ran first
	assert.NotEmpty(t, stores.saved[summary.RunID])
	assert.Contains(t, stores.purgedRuns, summary.RunID)

	// summary persisted with win counts adding up
	require.Len(t, stores.summaries, 1)
	wins := 0
	for _, n := range summary.WinCounts {
		wins += n
	}
	assert.Equal(t, 3, wins)
	assert.Greater(t, summary.AvgChampionMAPE, 0.0)
}

func TestRunIsDeterministic(t *testing.T) {
	build := func() *memStores {
		stores := newMemStores()
		stores.add(fleetSeries("host-01", contracts.ResourceCPU, 16, nil))
		stores.add(fleetSeries("host-02", contracts.ResourceDisk, 16, func(ts time.Time, i int) float64 {
			return 55 + 8*math.Sin(2*math.Pi*float64(ts.YearDay())/365.25)
		}))
		return stores
	}

	first := build()
	second := build()

	s1, err := newTestOrchestrator(t, first, testConfig()).Run(context.Background())
	require.NoError(t, err)
	s2, err := newTestOrchestrator(t, second, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.champions[s1.RunID], second.champions[s2.RunID])
	assert.Equal(t, first.leaderboard[s1.RunID], second.leaderboard[s2.RunID])
	assert.Equal(t, s1.WinCounts, s2.WinCounts)
	assert.InDelta(t, s1.AvgChampionMAPE, s2.AvgChampionMAPE, 1e-12)
}

func TestRunExcludesShortHistories(t *testing.T) {
	stores := newMemStores()
	stores.add(fleetSeries("host-01", contracts.ResourceCPU, 16, nil))
	stores.add(fleetSeries("host-young", contracts.ResourceCPU, 3, nil)) // under train+backtest

	orch := newTestOrchestrator(t, stores, testConfig())
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalSeries)
	assert.Equal(t, 1, summary.ExcludedSeries)
	require.Len(t, stores.champions[summary.RunID], 1)
	assert.Equal(t, "host-01", stores.champions[summary.RunID][0].Key.EntityID)
}

func TestRunEmptyCatalog(t *testing.T) {
	stores := newMemStores()

	summary, err := newTestOrchestrator(t, stores, testConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.TotalSeries)
	assert.Empty(t, stores.saved)
	require.Len(t, stores.summaries, 1) // empty run still recorded
}

func TestRunPersistenceFailureIsFatal(t *testing.T) {
	stores := newMemStores()
	stores.add(fleetSeries("host-01", contracts.ResourceCPU, 16, nil))
	stores.failSaveResults = true

	_, err := newTestOrchestrator(t, stores, testConfig()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save model results")
	assert.Empty(t, stores.summaries)
}

func TestRunProgressCallback(t *testing.T) {
	stores := newMemStores()
	stores.add(fleetSeries("host-01", contracts.ResourceCPU, 16, nil))
	stores.add(fleetSeries("host-02", contracts.ResourceCPU, 16, nil))

	orch := newTestOrchestrator(t, stores, testConfig())

	// OnProgress is invoked from the pool's collector loop, never concurrently
	var events, finalDone, finalTotal int
	orch.OnProgress = func(done, total int) {
		events++
		finalDone, finalTotal = done, total
	}

	_, err := orch.Run(context.Background())
	require.NoError(t, err)

	// 2 series x 2 families = 4 units
	assert.Equal(t, 4, events)
	assert.Equal(t, 4, finalDone)
	assert.Equal(t, 4, finalTotal)
}

func TestRunCancelledContext(t *testing.T) {
	stores := newMemStores()
	stores.add(fleetSeries("host-01", contracts.ResourceCPU, 16, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOrchestrator(t, stores, testConfig()).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
