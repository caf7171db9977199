package risk

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// Repository 용량 위험 저장소
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRisks replaces the risk set for runID (clean and insert).
func (r *Repository) SaveRisks(ctx context.Context, runID string, records []contracts.RiskRecord) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM forecast.capacity_risks WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("purge capacity risks: %w", err)
	}

	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO forecast.capacity_risks
			(run_id, entity_id, resource, model, earliest_breach, projected_peak, volatility, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, rec := range records {
		batch.Queue(query, runID, rec.Key.EntityID, string(rec.Key.Resource),
			string(rec.Family), rec.EarliestBreach, rec.ProjectedPeak, rec.Volatility, rec.Priority)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert risk row: %w", err)
		}
	}

	return nil
}

// GetRisks 위험 목록 조회 (priority 먼저, 이후 breach 시점 순)
func (r *Repository) GetRisks(ctx context.Context, runID string) ([]contracts.RiskRecord, error) {
	query := `
		SELECT entity_id, resource, model, earliest_breach, projected_peak, volatility, priority
		FROM forecast.capacity_risks
		WHERE run_id = $1
		ORDER BY priority DESC, earliest_breach, entity_id, resource`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.RiskRecord
	for rows.Next() {
		var rec contracts.RiskRecord
		var resource, family string
		if err := rows.Scan(&rec.Key.EntityID, &resource, &family,
			&rec.EarliestBreach, &rec.ProjectedPeak, &rec.Volatility, &rec.Priority); err != nil {
			return nil, err
		}
		rec.Key.Resource = contracts.ResourceType(resource)
		rec.Family = contracts.ModelFamily(family)
		records = append(records, rec)
	}

	return records, rows.Err()
}
