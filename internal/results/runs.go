package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// ErrNoRuns is returned when the runs table is empty.
var ErrNoRuns = errors.New("no completed runs")

// RunRepository 실행 이력 저장소
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository 새 실행 이력 저장소 생성
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveSummary upserts the summary row for a completed run.
func (r *RunRepository) SaveSummary(ctx context.Context, summary contracts.RunSummary) error {
	winCounts, err := json.Marshal(summary.WinCounts)
	if err != nil {
		return fmt.Errorf("marshal win counts: %w", err)
	}

	query := `
		INSERT INTO forecast.runs
			(run_id, config_hash, started_at, finished_at,
			 total_series, excluded_series, failed_units, no_champion,
			 risk_count, win_counts, avg_champion_mape)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO UPDATE SET
			config_hash = EXCLUDED.config_hash,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			total_series = EXCLUDED.total_series,
			excluded_series = EXCLUDED.excluded_series,
			failed_units = EXCLUDED.failed_units,
			no_champion = EXCLUDED.no_champion,
			risk_count = EXCLUDED.risk_count,
			win_counts = EXCLUDED.win_counts,
			avg_champion_mape = EXCLUDED.avg_champion_mape`

	_, err = r.pool.Exec(ctx, query,
		summary.RunID, summary.ConfigHash, summary.StartedAt, summary.FinishedAt,
		summary.TotalSeries, summary.ExcludedSeries, summary.FailedUnits, summary.NoChampion,
		summary.RiskCount, winCounts, summary.AvgChampionMAPE)
	if err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	return nil
}

// LatestRunID returns the run_id of the most recently finished run.
func (r *RunRepository) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := r.pool.QueryRow(ctx,
		`SELECT run_id FROM forecast.runs ORDER BY finished_at DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

// GetSummary 단일 실행 요약 조회
func (r *RunRepository) GetSummary(ctx context.Context, runID string) (contracts.RunSummary, error) {
	query := `
		SELECT run_id, config_hash, started_at, finished_at,
		       total_series, excluded_series, failed_units, no_champion,
		       risk_count, win_counts, avg_champion_mape
		FROM forecast.runs
		WHERE run_id = $1`

	var summary contracts.RunSummary
	var winCounts []byte
	err := r.pool.QueryRow(ctx, query, runID).Scan(
		&summary.RunID, &summary.ConfigHash, &summary.StartedAt, &summary.FinishedAt,
		&summary.TotalSeries, &summary.ExcludedSeries, &summary.FailedUnits, &summary.NoChampion,
		&summary.RiskCount, &winCounts, &summary.AvgChampionMAPE)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.RunSummary{}, ErrNoRuns
	}
	if err != nil {
		return contracts.RunSummary{}, err
	}

	if len(winCounts) > 0 {
		if err := json.Unmarshal(winCounts, &summary.WinCounts); err != nil {
			return contracts.RunSummary{}, fmt.Errorf("unmarshal win counts: %w", err)
		}
	}
	return summary, nil
}

// ListSummaries 최근 실행 목록 (최신 먼저)
func (r *RunRepository) ListSummaries(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	query := `
		SELECT run_id, config_hash, started_at, finished_at,
		       total_series, excluded_series, failed_units, no_champion,
		       risk_count, win_counts, avg_champion_mape
		FROM forecast.runs
		ORDER BY finished_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []contracts.RunSummary
	for rows.Next() {
		var summary contracts.RunSummary
		var winCounts []byte
		if err := rows.Scan(
			&summary.RunID, &summary.ConfigHash, &summary.StartedAt, &summary.FinishedAt,
			&summary.TotalSeries, &summary.ExcludedSeries, &summary.FailedUnits, &summary.NoChampion,
			&summary.RiskCount, &winCounts, &summary.AvgChampionMAPE); err != nil {
			return nil, err
		}
		if len(winCounts) > 0 {
			if err := json.Unmarshal(winCounts, &summary.WinCounts); err != nil {
				return nil, err
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// DeleteRunsBefore drops run summaries, and their dependent rows, for
// runs that finished before cutoff. Returns the number of runs removed.
func (r *RunRepository) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	tables := []string{
		"forecast.model_results",
		"forecast.leaderboard",
		"forecast.champions",
		"forecast.capacity_risks",
	}

	for _, table := range tables {
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE run_id IN (SELECT run_id FROM forecast.runs WHERE finished_at < $1)`, table)
		if _, err := r.pool.Exec(ctx, query, cutoff); err != nil {
			return 0, fmt.Errorf("cleanup %s: %w", table, err)
		}
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM forecast.runs WHERE finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup runs: %w", err)
	}
	deleted = tag.RowsAffected()

	return deleted, nil
}
