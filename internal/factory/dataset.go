// Package factory builds driver-specific components from configuration.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/config"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset"
	dspg "github.com/Unknown-2829/Hitek-db-api-web/internal/dataset/postgres"
	dssqlite "github.com/Unknown-2829/Hitek-db-api-web/internal/dataset/sqlite"
)

// NewDataset opens the configured backend and wraps it with retry.
func NewDataset(cfg *config.Config, log zerolog.Logger) (*dataset.Accessor, error) {
	var backend dataset.Backend
	switch cfg.DatasetDriver {
	case config.DriverSQLite:
		b, err := dssqlite.OpenBackend(cfg.DatasetPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite dataset: %w", err)
		}
		backend = b
	case config.DriverPostgres:
		db, err := dspg.Open(cfg.DatasetDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres dataset: %w", err)
		}
		backend = dspg.New(db)
	default:
		return nil, fmt.Errorf("unknown DATASET_DRIVER: %s", cfg.DatasetDriver)
	}

	log.Info().Str("driver", cfg.DatasetDriver).Msg("dataset opened")
	return dataset.NewAccessor(backend, RetryPolicy(cfg), log.With().Str("component", "dataset").Logger()), nil
}

// RetryPolicy derives the contention policy from configuration.
func RetryPolicy(cfg *config.Config) dataset.RetryPolicy {
	return dataset.RetryPolicy{
		MaxAttempts:     cfg.RetryAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		Multiplier:      2,
		MaxElapsed:      cfg.RetryMaxElapsed,
	}
}
