package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// initDBCmd represents the init-db command
var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "스키마/테이블 생성",
	Long: `telemetry와 forecast 스키마 및 모든 테이블을 생성합니다.

이 명령어는 멱등합니다: 이미 존재하는 객체는 건너뜁니다.

Example:
  go run ./cmd/horizon init-db`,
	RunE: runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

// schemaDDL is ordered: schemas first, then tables, then indexes.
var schemaDDL = []string{
	`CREATE SCHEMA IF NOT EXISTS telemetry`,
	`CREATE SCHEMA IF NOT EXISTS forecast`,

	`CREATE TABLE IF NOT EXISTS telemetry.observations (
		entity_id  TEXT             NOT NULL,
		resource   TEXT             NOT NULL,
		ds         DATE             NOT NULL,
		value      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (entity_id, resource, ds)
	)`,

	`CREATE TABLE IF NOT EXISTS forecast.model_results (
		run_id      TEXT             NOT NULL,
		entity_id   TEXT             NOT NULL,
		resource    TEXT             NOT NULL,
		model       TEXT             NOT NULL,
		ds          DATE             NOT NULL,
		point       DOUBLE PRECISION NOT NULL,
		lower_bound DOUBLE PRECISION NOT NULL,
		upper_bound DOUBLE PRECISION NOT NULL,
		segment     TEXT             NOT NULL,
		PRIMARY KEY (run_id, entity_id, resource, model, ds)
	)`,

	`CREATE TABLE IF NOT EXISTS forecast.leaderboard (
		run_id       TEXT             NOT NULL,
		entity_id    TEXT             NOT NULL,
		resource     TEXT             NOT NULL,
		model        TEXT             NOT NULL,
		mape         DOUBLE PRECISION NOT NULL,
		sample_count INTEGER          NOT NULL,
		rank         INTEGER          NOT NULL,
		PRIMARY KEY (run_id, entity_id, resource, model)
	)`,

	`CREATE TABLE IF NOT EXISTS forecast.champions (
		run_id     TEXT             NOT NULL,
		entity_id  TEXT             NOT NULL,
		resource   TEXT             NOT NULL,
		model      TEXT             NOT NULL,
		mape       DOUBLE PRECISION NOT NULL,
		by_default BOOLEAN          NOT NULL DEFAULT FALSE,
		PRIMARY KEY (run_id, entity_id, resource)
	)`,

	`CREATE TABLE IF NOT EXISTS forecast.capacity_risks (
		run_id          TEXT             NOT NULL,
		entity_id       TEXT             NOT NULL,
		resource        TEXT             NOT NULL,
		model           TEXT             NOT NULL,
		earliest_breach DATE             NOT NULL,
		projected_peak  DOUBLE PRECISION NOT NULL,
		volatility      DOUBLE PRECISION NOT NULL,
		priority        BOOLEAN          NOT NULL DEFAULT FALSE,
		PRIMARY KEY (run_id, entity_id, resource)
	)`,

	`CREATE TABLE IF NOT EXISTS forecast.runs (
		run_id            TEXT             PRIMARY KEY,
		config_hash       TEXT             NOT NULL,
		started_at        TIMESTAMPTZ      NOT NULL,
		finished_at       TIMESTAMPTZ      NOT NULL,
		total_series      INTEGER          NOT NULL,
		excluded_series   INTEGER          NOT NULL,
		failed_units      INTEGER          NOT NULL,
		no_champion       INTEGER          NOT NULL,
		risk_count        INTEGER          NOT NULL,
		win_counts        JSONB            NOT NULL DEFAULT '{}',
		avg_champion_mape DOUBLE PRECISION NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_observations_series
		ON telemetry.observations (entity_id, resource)`,
	`CREATE INDEX IF NOT EXISTS idx_model_results_forecast
		ON forecast.model_results (run_id, entity_id, resource, segment)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_finished
		ON forecast.runs (finished_at DESC)`,
}

func runInitDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== HorizonScale Schema Setup ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, ddl := range schemaDDL {
		if _, err := db.Pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
	}

	log.Info("Schema setup completed")
	fmt.Println("✅ telemetry and forecast schemas ready")
	return nil
}
