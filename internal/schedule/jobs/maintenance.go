package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// MaintenanceJob prunes run history past the retention window.
// 오래된 run의 model_results가 가장 큰 테이블이므로 주기적 정리 필수
type MaintenanceJob struct {
	db            *database.DB
	retentionDays int
	logger        *logger.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(db *database.DB, retentionDays int, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:            db,
		retentionDays: retentionDays,
		logger:        log,
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "run_retention"
}

// Schedule returns the cron schedule (Sunday 3 AM, with seconds)
func (j *MaintenanceJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run deletes runs older than the retention window
func (j *MaintenanceJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)

	runRepo := results.NewRunRepository(j.db.Pool)
	deleted, err := runRepo.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("run retention: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":  cutoff.Format("2006-01-02"),
		"deleted": deleted,
	}).Info("Run retention completed")

	return nil
}
