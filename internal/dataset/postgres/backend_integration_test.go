//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset/datasettest"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

func makePGBackend(t *testing.T, recs []model.Record) dataset.Backend {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("hitek_test"),
		tcpostgres.WithUsername("hitek"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := Insert(ctx, db, recs); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return New(db)
}

func TestPostgresBackend_Compliance(t *testing.T) {
	datasettest.Run(t, makePGBackend)
}
