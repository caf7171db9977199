package commands

import (
	"fmt"

	"github.com/slgirgis/horizonscale/internal/catalog"
	"github.com/slgirgis/horizonscale/internal/engine"
	"github.com/slgirgis/horizonscale/internal/engineconfig"
	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// loadProfile resolves the forecast profile: the --profile YAML when
// given, the built-in fleet profile otherwise.
func loadProfile() (*engineconfig.Config, error) {
	if profilePath == "" {
		return engineconfig.Default(), nil
	}

	cfg, _, err := engineconfig.Load(profilePath)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", profilePath, err)
	}
	return cfg, nil
}

// buildStores wires the pgx-backed store set for a run.
func buildStores(db *database.DB, log *logger.Logger) engine.Stores {
	return engine.Stores{
		Catalog:    catalog.NewRepository(db.Pool, log),
		Results:    results.NewRepository(db, log),
		Tournament: tournament.NewRepository(db.Pool),
		Risks:      risk.NewRepository(db.Pool),
		Runs:       results.NewRunRepository(db.Pool),
	}
}
