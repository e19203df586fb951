package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/config"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset/datasettest"
	dssqlite "github.com/Unknown-2829/Hitek-db-api-web/internal/dataset/sqlite"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

func TestNewDataset_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	db, err := dssqlite.OpenWritable(path)
	require.NoError(t, err)
	require.NoError(t, dssqlite.EnsureSchema(db))
	require.NoError(t, dssqlite.Insert(context.Background(), db, datasettest.Fixture))
	require.NoError(t, db.Close())

	cfg := config.NewForTesting()
	cfg.DatasetPath = path
	acc, err := NewDataset(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = acc.Close() }()

	recs, err := acc.Lookup(context.Background(), model.KindIdentifier, "9988776655", 25)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestNewDataset_UnknownDriver(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DatasetDriver = "oracle"
	_, err := NewDataset(cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown DATASET_DRIVER")
}

func TestRetryPolicyFromConfig(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.RetryAttempts = 5
	cfg.RetryInitialInterval = 10 * time.Millisecond
	cfg.RetryMaxElapsed = time.Second
	p := RetryPolicy(cfg)
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 80*time.Millisecond, p.Delay(4))
}
