package contracts

import (
	"context"
)

// 저장소 인터페이스 모음
// ⭐ SSOT: 엔진이 의존하는 저장소 계약은 여기서만 정의
// 구현은 각 도메인 패키지의 Repository (pgx 기반)

// Catalog enumerates forecastable series from the refined telemetry store.
type Catalog interface {
	// ListSeries returns every (entity, resource) pair with observation counts.
	ListSeries(ctx context.Context) ([]SeriesMeta, error)

	// LoadHistories bulk-loads chronologically ordered histories for keys.
	LoadHistories(ctx context.Context, keys []SeriesKey) (map[SeriesKey]Series, error)
}

// ResultStore persists per-model prediction rows.
type ResultStore interface {
	// PurgeRun removes every record scoped to runID (idempotent re-run).
	PurgeRun(ctx context.Context, runID string) error

	SaveModelResults(ctx context.Context, runID string, results []ModelResult) error
}

// TournamentStore persists the leaderboard and champion set.
type TournamentStore interface {
	SaveLeaderboard(ctx context.Context, runID string, records []AccuracyRecord, ranks map[SeriesKey]map[ModelFamily]int) error
	SaveChampions(ctx context.Context, runID string, champions []ChampionAssignment) error
}

// RiskStore persists capacity risk records.
type RiskStore interface {
	SaveRisks(ctx context.Context, runID string, risks []RiskRecord) error
}

// RunStore records run provenance and the final summary.
type RunStore interface {
	SaveSummary(ctx context.Context, summary RunSummary) error
	LatestRunID(ctx context.Context) (string, error)
}
