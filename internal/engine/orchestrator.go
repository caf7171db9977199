package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/internal/engineconfig"
	"github.com/slgirgis/horizonscale/internal/models"
	"github.com/slgirgis/horizonscale/internal/partition"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/internal/scheduler"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Stores bundles every persistence dependency of a run.
// 전부 contracts 인터페이스: 테스트에서는 인메모리 구현으로 대체
type Stores struct {
	Catalog    contracts.Catalog
	Results    contracts.ResultStore
	Tournament contracts.TournamentStore
	Risks      contracts.RiskStore
	Runs       contracts.RunStore
}

// Orchestrator drives one complete forecast run:
// catalog → partition → parallel fit → persist → tournament → risk → summary.
// ⭐ SSOT: run 파이프라인의 단계 순서는 여기서만 정의
type Orchestrator struct {
	cfg      *engineconfig.Config
	stores   Stores
	registry *models.Registry
	logger   *logger.Logger

	// OnProgress, when set, receives (done, total) after each work unit.
	OnProgress func(done, total int)
}

// NewOrchestrator 새 오케스트레이터 생성
func NewOrchestrator(cfg *engineconfig.Config, stores Stores, registry *models.Registry, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		stores:   stores,
		registry: registry,
		logger:   log.Component("engine"),
	}
}

// Run executes the full pipeline and returns the run summary.
// 규칙:
//   - 개별 unit 실패는 격리 (summary.FailedUnits로 집계)
//   - 저장소 오류는 치명적: 부분 저장된 run을 남기지 않기 위해 즉시 중단
//   - 동일 입력 + 동일 설정 → 동일 출력 (재실행 멱등)
func (o *Orchestrator) Run(ctx context.Context) (contracts.RunSummary, error) {
	started := time.Now().UTC()
	runID := fmt.Sprintf("%s-%s", o.cfg.Meta.ProfileID, started.Format("20060102T150405Z"))

	configHash, err := engineconfig.Hash(o.cfg)
	if err != nil {
		return contracts.RunSummary{}, fmt.Errorf("hash config: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      runID,
		"config_hash": configHash,
		"profile":     o.cfg.Meta.ProfileID,
	}).Info("Forecast run started")

	// 1. Catalog + partitioning
	metas, err := o.stores.Catalog.ListSeries(ctx)
	if err != nil {
		return contracts.RunSummary{}, fmt.Errorf("list series: %w", err)
	}

	part := partition.New(o.logger).Build(metas, o.registry.Families(), o.cfg.ToWindows())

	summary := contracts.RunSummary{
		RunID:          runID,
		ConfigHash:     configHash,
		StartedAt:      started,
		TotalSeries:    len(metas),
		ExcludedSeries: len(part.Excluded),
		WinCounts:      map[contracts.ModelFamily]int{},
	}

	if len(part.Units) == 0 {
		o.logger.WithField("run_id", runID).Warn("No runnable work units, finishing empty run")
		return o.finish(ctx, summary)
	}

	// 2. Bulk history load for the surviving series
	histories, err := o.stores.Catalog.LoadHistories(ctx, uniqueKeys(part.Units))
	if err != nil {
		return contracts.RunSummary{}, fmt.Errorf("load histories: %w", err)
	}

	// 3. Parallel fit + project
	pool := scheduler.NewPool(o.cfg.Execution.Workers, o.logger)
	pool.OnProgress = o.OnProgress

	outcomes := pool.Run(ctx, part.Units, func(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error) {
		adapter, ok := o.registry.Get(unit.Family)
		if !ok {
			return nil, fmt.Errorf("no adapter registered for family %q", unit.Family)
		}
		series, ok := histories[unit.Key]
		if !ok {
			return nil, fmt.Errorf("history missing for series %s", unit.Key)
		}
		return adapter.FitAndProject(series, unit.Windows)
	})

	if err := ctx.Err(); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("run aborted: %w", err)
	}

	var results []contracts.ModelResult
	for _, outcome := range outcomes {
		if outcome.Failed() {
			summary.FailedUnits++
			continue
		}
		results = append(results, outcome.Results...)
	}

	// 4. Persist raw model rows (clean slate per run_id)
	if err := o.stores.Results.PurgeRun(ctx, runID); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("purge run: %w", err)
	}
	if err := o.stores.Results.SaveModelResults(ctx, runID, results); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("save model results: %w", err)
	}

	// 5. Tournament
	tourney := tournament.NewEngine(o.cfg.Tournament.Precedence, o.logger)
	records := tourney.Score(results, histories)
	champions, ranks := tourney.SelectChampions(records)

	if err := o.stores.Tournament.SaveLeaderboard(ctx, runID, records, ranks); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("save leaderboard: %w", err)
	}
	if err := o.stores.Tournament.SaveChampions(ctx, runID, champions); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("save champions: %w", err)
	}

	merged := tourney.MergeChampionForecasts(champions, results)

	// 6. Capacity risk scan over champion horizons
	detector := risk.NewDetector(
		o.cfg.Risk.BreachThresholdPct,
		o.cfg.Risk.VolatilityThreshold,
		o.cfg.Risk.SeverePeakPct,
		o.logger,
	)
	risks := detector.Detect(champions, merged)
	if err := o.stores.Risks.SaveRisks(ctx, runID, risks); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("save risks: %w", err)
	}

	// 7. Summary
	standings := tourney.ComputeStandings(champions)
	summary.NoChampion = countSeries(part.Units) - len(champions)
	summary.RiskCount = len(risks)
	summary.WinCounts = standings.WinCounts
	summary.AvgChampionMAPE = standings.AvgChampionMAPE

	return o.finish(ctx, summary)
}

// finish stamps the end time, persists the summary and logs the outcome.
func (o *Orchestrator) finish(ctx context.Context, summary contracts.RunSummary) (contracts.RunSummary, error) {
	summary.FinishedAt = time.Now().UTC()

	if err := o.stores.Runs.SaveSummary(ctx, summary); err != nil {
		return contracts.RunSummary{}, fmt.Errorf("save run summary: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":       summary.RunID,
		"duration":     summary.FinishedAt.Sub(summary.StartedAt).String(),
		"series":       summary.TotalSeries,
		"excluded":     summary.ExcludedSeries,
		"failed_units": summary.FailedUnits,
		"risks":        summary.RiskCount,
	}).Info("Forecast run finished")

	return summary, nil
}

// uniqueKeys collects the distinct series keys across units, preserving
// first-seen order.
func uniqueKeys(units []contracts.WorkUnit) []contracts.SeriesKey {
	seen := make(map[contracts.SeriesKey]struct{}, len(units))
	var keys []contracts.SeriesKey
	for _, u := range units {
		if _, ok := seen[u.Key]; ok {
			continue
		}
		seen[u.Key] = struct{}{}
		keys = append(keys, u.Key)
	}
	return keys
}

func countSeries(units []contracts.WorkUnit) int {
	seen := make(map[contracts.SeriesKey]struct{}, len(units))
	for _, u := range units {
		seen[u.Key] = struct{}{}
	}
	return len(seen)
}
