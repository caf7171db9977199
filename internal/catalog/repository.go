package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Repository 텔레메트리 카탈로그 (읽기 전용)
// Serves the series inventory and bulk history loads for a run.
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewRepository 새 카탈로그 저장소 생성
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, logger: log.Component("catalog")}
}

// ListSeries returns one SeriesMeta per distinct (entity, resource)
// pair in telemetry, with observation counts and span. The partitioner
// screens on this without loading full histories.
func (r *Repository) ListSeries(ctx context.Context) ([]contracts.SeriesMeta, error) {
	query := `
		SELECT entity_id, resource, COUNT(*), MIN(ds), MAX(ds)
		FROM telemetry.observations
		GROUP BY entity_id, resource
		ORDER BY entity_id, resource`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var metas []contracts.SeriesMeta
	for rows.Next() {
		var m contracts.SeriesMeta
		var resource string
		if err := rows.Scan(&m.Key.EntityID, &resource, &m.ObsCount, &m.First, &m.Last); err != nil {
			return nil, err
		}
		m.Key.Resource = contracts.ResourceType(resource)
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.WithField("series", len(metas)).Info("Catalog listed")
	return metas, nil
}

// LoadHistories bulk-fetches the full chronological history for the
// given keys in one round trip. Keys absent from telemetry are simply
// missing from the result map.
func (r *Repository) LoadHistories(ctx context.Context, keys []contracts.SeriesKey) (map[contracts.SeriesKey]contracts.Series, error) {
	if len(keys) == 0 {
		return map[contracts.SeriesKey]contracts.Series{}, nil
	}

	entityIDs := make([]string, len(keys))
	resources := make([]string, len(keys))
	for i, k := range keys {
		entityIDs[i] = k.EntityID
		resources[i] = string(k.Resource)
	}

	query := `
		SELECT entity_id, resource, ds, value
		FROM telemetry.observations
		WHERE (entity_id, resource) IN (SELECT * FROM unnest($1::text[], $2::text[]))
		ORDER BY entity_id, resource, ds`

	rows, err := r.pool.Query(ctx, query, entityIDs, resources)
	if err != nil {
		return nil, fmt.Errorf("load histories: %w", err)
	}
	defer rows.Close()

	histories := make(map[contracts.SeriesKey]contracts.Series, len(keys))
	total := 0
	for rows.Next() {
		var key contracts.SeriesKey
		var resource string
		var obs contracts.Observation
		if err := rows.Scan(&key.EntityID, &resource, &obs.TS, &obs.Value); err != nil {
			return nil, err
		}
		key.Resource = contracts.ResourceType(resource)

		series := histories[key]
		series.Key = key
		series.History = append(series.History, obs)
		histories[key] = series
		total++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"series":       len(histories),
		"observations": total,
	}).Info("Histories loaded")
	return histories, nil
}
