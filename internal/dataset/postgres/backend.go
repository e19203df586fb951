// Package postgres implements the dataset backend on PostgreSQL via pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Backend serves lookups from a PostgreSQL users table.
type Backend struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Backend { return &Backend{db: db} }

var _ dataset.Backend = (*Backend)(nil)

// Lookup runs every query in a read-only transaction.
func (b *Backend) Lookup(ctx context.Context, kind model.FieldKind, value string, limit int) ([]model.Record, error) {
	col, err := dataset.Column(kind)
	if err != nil {
		return nil, err
	}

	var (
		query string
		arg   any
	)
	switch {
	case kind == model.KindIdentifier:
		query = fmt.Sprintf(`SELECT %s FROM users WHERE mobile = $1 LIMIT $2`, dataset.SelectColumns)
		arg = value
	case kind == model.KindEmail && strfmt.IsEmail(value):
		query = fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1) LIMIT $2`, dataset.SelectColumns)
		arg = value
	default:
		query = fmt.Sprintf(`SELECT %s FROM users WHERE %s LIKE $1 ESCAPE '\' LIMIT $2`, dataset.SelectColumns, col)
		arg = dataset.LikePattern(value)
	}

	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query, arg, limit)
	if err != nil {
		return nil, wrap(err)
	}
	recs, err := dataset.ScanRecords(rows)
	if err != nil {
		return nil, wrap(err)
	}
	return recs, nil
}

// Stats reports the planner row estimate and the database size.
func (b *Backend) Stats(ctx context.Context) (model.DatasetStats, error) {
	var rows, size int64
	err := b.db.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT GREATEST(reltuples, 0)::bigint FROM pg_class WHERE relname = 'users'), 0),
		       pg_database_size(current_database())`).Scan(&rows, &size)
	if err != nil {
		return model.DatasetStats{}, wrap(err)
	}
	return model.DatasetStats{ApproxRows: rows, SizeBytes: size, Driver: "postgres"}, nil
}

// HealthPing implements health.HealthPinger.
func (b *Backend) HealthPing(ctx context.Context) error { return b.db.PingContext(ctx) }

// Close closes the underlying handle.
func (b *Backend) Close() error { return b.db.Close() }

// EnsureSchema creates the users table for seeding and integration tests.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			mobile      TEXT,
			name        TEXT,
			fname       TEXT,
			address     TEXT,
			email       TEXT,
			circle      TEXT,
			operator_id TEXT,
			alt_mobile  TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_users_mobile ON users(mobile);`)
	return err
}

// Insert appends records and refreshes planner statistics.
func Insert(ctx context.Context, db *sql.DB, recs []model.Record) error {
	for _, r := range recs {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO users (mobile, alt_mobile, name, fname, address, email, circle, operator_id) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			r.Phone, r.AltPhone, r.Name, r.FatherName, r.Address, r.Email, r.Region, r.OperatorID); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `ANALYZE users`)
	return err
}

// Contention SQLSTATEs: lock_not_available, serialization_failure,
// deadlock_detected, too_many_connections.
var busyCodes = map[string]bool{
	"55P03": true,
	"40001": true,
	"40P01": true,
	"53300": true,
}

func wrap(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && busyCodes[pgErr.Code] {
		return fmt.Errorf("%w: %w", model.ErrBusy, err)
	}
	return err
}
