package results

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// insertChunk caps how many rows ride in one batch round trip.
const insertChunk = 1000

// Repository 모델 결과 저장소
// A run's rows are only visible complete: PurgeRun then SaveModelResults,
// both scoped by run_id, make re-runs idempotent.
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository 새 결과 저장소 생성
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, logger: log.Component("results")}
}

// PurgeRun deletes every model result previously written for runID.
func (r *Repository) PurgeRun(ctx context.Context, runID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM forecast.model_results WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("purge run %s: %w", runID, err)
	}

	if tag.RowsAffected() > 0 {
		r.logger.WithFields(map[string]interface{}{
			"run_id":  runID,
			"deleted": tag.RowsAffected(),
		}).Info("Previous run purged")
	}
	return nil
}

// SaveModelResults writes all prediction rows for runID inside one
// transaction, chunked into batches.
func (r *Repository) SaveModelResults(ctx context.Context, runID string, results []contracts.ModelResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO forecast.model_results
			(run_id, entity_id, resource, model, ds, point, lower_bound, upper_bound, segment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		for start := 0; start < len(results); start += insertChunk {
			end := start + insertChunk
			if end > len(results) {
				end = len(results)
			}

			batch := &pgx.Batch{}
			for _, res := range results[start:end] {
				batch.Queue(query, runID, res.Key.EntityID, string(res.Key.Resource),
					string(res.Family), res.TS, res.Point, res.Lower, res.Upper, string(res.Segment))
			}

			br := tx.SendBatch(ctx, batch)
			for i := start; i < end; i++ {
				if _, err := br.Exec(); err != nil {
					br.Close()
					return fmt.Errorf("insert model result: %w", err)
				}
			}
			if err := br.Close(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"rows":   len(results),
	}).Info("Model results saved")
	return nil
}

// GetChampionForecast returns the champion's forward horizon for one
// series, joined through the champion assignment for runID.
func (r *Repository) GetChampionForecast(ctx context.Context, runID string, key contracts.SeriesKey) ([]contracts.ModelResult, error) {
	query := `
		SELECT mr.entity_id, mr.resource, mr.model, mr.ds, mr.point, mr.lower_bound, mr.upper_bound
		FROM forecast.model_results mr
		JOIN forecast.champions c
		  ON c.run_id = mr.run_id
		 AND c.entity_id = mr.entity_id
		 AND c.resource = mr.resource
		 AND c.model = mr.model
		WHERE mr.run_id = $1
		  AND mr.entity_id = $2
		  AND mr.resource = $3
		  AND mr.segment = 'forecast'
		ORDER BY mr.ds`

	rows, err := r.db.Pool.Query(ctx, query, runID, key.EntityID, string(key.Resource))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []contracts.ModelResult
	for rows.Next() {
		var res contracts.ModelResult
		var resource, family string
		if err := rows.Scan(&res.Key.EntityID, &resource, &family,
			&res.TS, &res.Point, &res.Lower, &res.Upper); err != nil {
			return nil, err
		}
		res.Key.Resource = contracts.ResourceType(resource)
		res.Family = contracts.ModelFamily(family)
		res.Segment = contracts.SegmentForecast
		results = append(results, res)
	}

	return results, rows.Err()
}
