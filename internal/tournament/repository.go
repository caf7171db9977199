package tournament

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// Repository 리더보드/챔피언 저장소
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LeaderboardRow is one persisted leaderboard entry.
type LeaderboardRow struct {
	Key         contracts.SeriesKey   `json:"key"`
	Family      contracts.ModelFamily `json:"family"`
	MAPE        float64               `json:"mape"`
	SampleCount int                   `json:"sample_count"`
	Rank        int                   `json:"rank"`
}

// SaveLeaderboard replaces the leaderboard for runID (clean and insert).
func (r *Repository) SaveLeaderboard(ctx context.Context, runID string, records []contracts.AccuracyRecord, ranks map[contracts.SeriesKey]map[contracts.ModelFamily]int) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM forecast.leaderboard WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("purge leaderboard: %w", err)
	}

	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO forecast.leaderboard
			(run_id, entity_id, resource, model, mape, sample_count, rank)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, rec := range records {
		batch.Queue(query, runID, rec.Key.EntityID, string(rec.Key.Resource),
			string(rec.Family), rec.MAPE, rec.SampleCount, ranks[rec.Key][rec.Family])
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert leaderboard row: %w", err)
		}
	}

	return nil
}

// SaveChampions replaces the champion set for runID (clean and insert).
func (r *Repository) SaveChampions(ctx context.Context, runID string, champions []contracts.ChampionAssignment) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM forecast.champions WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("purge champions: %w", err)
	}

	if len(champions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO forecast.champions
			(run_id, entity_id, resource, model, mape, by_default)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, c := range champions {
		batch.Queue(query, runID, c.Key.EntityID, string(c.Key.Resource),
			string(c.Family), c.MAPE, c.ByDefault)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range champions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert champion row: %w", err)
		}
	}

	return nil
}

// GetLeaderboard 리더보드 조회 (series → rank 순)
func (r *Repository) GetLeaderboard(ctx context.Context, runID string) ([]LeaderboardRow, error) {
	query := `
		SELECT entity_id, resource, model, mape, sample_count, rank
		FROM forecast.leaderboard
		WHERE run_id = $1
		ORDER BY entity_id, resource, rank`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var board []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		var resource, family string
		if err := rows.Scan(&row.Key.EntityID, &resource, &family,
			&row.MAPE, &row.SampleCount, &row.Rank); err != nil {
			return nil, err
		}
		row.Key.Resource = contracts.ResourceType(resource)
		row.Family = contracts.ModelFamily(family)
		board = append(board, row)
	}

	return board, rows.Err()
}

// GetChampions 챔피언 세트 조회
func (r *Repository) GetChampions(ctx context.Context, runID string) ([]contracts.ChampionAssignment, error) {
	query := `
		SELECT entity_id, resource, model, mape, by_default
		FROM forecast.champions
		WHERE run_id = $1
		ORDER BY entity_id, resource`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var champions []contracts.ChampionAssignment
	for rows.Next() {
		var c contracts.ChampionAssignment
		var resource, family string
		if err := rows.Scan(&c.Key.EntityID, &resource, &family, &c.MAPE, &c.ByDefault); err != nil {
			return nil, err
		}
		c.Key.Resource = contracts.ResourceType(resource)
		c.Family = contracts.ModelFamily(family)
		champions = append(champions, c)
	}

	return champions, rows.Err()
}

// WinCounts aggregates per-family wins for runID straight from storage.
func (r *Repository) WinCounts(ctx context.Context, runID string) (map[contracts.ModelFamily]int, error) {
	query := `
		SELECT model, COUNT(*)
		FROM forecast.champions
		WHERE run_id = $1
		GROUP BY model`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[contracts.ModelFamily]int)
	for rows.Next() {
		var family string
		var count int
		if err := rows.Scan(&family, &count); err != nil {
			return nil, err
		}
		counts[contracts.ModelFamily(family)] = count
	}

	return counts, rows.Err()
}
