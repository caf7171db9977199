package jobs

import (
	"context"
	"fmt"

	"github.com/slgirgis/horizonscale/internal/catalog"
	"github.com/slgirgis/horizonscale/internal/engine"
	"github.com/slgirgis/horizonscale/internal/engineconfig"
	"github.com/slgirgis/horizonscale/internal/models"
	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// ForecastJob runs the full forecast pipeline nightly, after the
// telemetry refinement upstream has landed the previous day.
// ⭐ SSOT: 야간 예측 run 스케줄은 이 Job에서만
type ForecastJob struct {
	db     *database.DB
	cfg    *engineconfig.Config
	logger *logger.Logger
}

// NewForecastJob creates a new forecast job
func NewForecastJob(db *database.DB, cfg *engineconfig.Config, log *logger.Logger) *ForecastJob {
	return &ForecastJob{
		db:     db,
		cfg:    cfg,
		logger: log,
	}
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "forecast_run"
}

// Schedule returns the cron schedule (2 AM daily, with seconds)
func (j *ForecastJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run executes one complete forecast run
func (j *ForecastJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled forecast run")

	stores := engine.Stores{
		Catalog:    catalog.NewRepository(j.db.Pool, j.logger),
		Results:    results.NewRepository(j.db, j.logger),
		Tournament: tournament.NewRepository(j.db.Pool),
		Risks:      risk.NewRepository(j.db.Pool),
		Runs:       results.NewRunRepository(j.db.Pool),
	}

	orch := engine.NewOrchestrator(j.cfg, stores, models.DefaultRegistry(), j.logger)
	summary, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("forecast run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   summary.RunID,
		"series":   summary.TotalSeries,
		"risks":    summary.RiskCount,
		"avg_mape": summary.AvgChampionMAPE,
	}).Info("Scheduled forecast run finished")

	return nil
}
