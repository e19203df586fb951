package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/dataset"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Backend serves lookups from a SQLite file.
type Backend struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Backend { return &Backend{db: db} }

// OpenBackend opens path read-only and returns a ready backend.
func OpenBackend(path string) (*Backend, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

var _ dataset.Backend = (*Backend)(nil)

// Lookup uses the phone index for identifiers and a capped substring scan otherwise.
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
		query = fmt.Sprintf(`SELECT %s FROM users WHERE mobile = ? LIMIT ?`, dataset.SelectColumns)
		arg = value
	case kind == model.KindEmail && strfmt.IsEmail(value):
		query = fmt.Sprintf(`SELECT %s FROM users WHERE email = ? COLLATE NOCASE LIMIT ?`, dataset.SelectColumns)
		arg = value
	default:
		query = fmt.Sprintf(`SELECT %s FROM users WHERE %s LIKE ? ESCAPE '\' LIMIT ?`, dataset.SelectColumns, col)
		arg = dataset.LikePattern(value)
	}

	rows, err := b.db.QueryContext(ctx, query, arg, limit)
	if err != nil {
		return nil, wrap(err)
	}
	recs, err := dataset.ScanRecords(rows)
	if err != nil {
		return nil, wrap(err)
	}
	return recs, nil
}

// Stats reports the highest rowid and the file size from page accounting.
func (b *Backend) Stats(ctx context.Context) (model.DatasetStats, error) {
	var rows sql.NullInt64
	if err := b.db.QueryRowContext(ctx, `SELECT MAX(rowid) FROM users`).Scan(&rows); err != nil {
		return model.DatasetStats{}, wrap(err)
	}
	var pageCount, pageSize int64
	if err := b.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err != nil {
		return model.DatasetStats{}, wrap(err)
	}
	if err := b.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err != nil {
		return model.DatasetStats{}, wrap(err)
	}
	return model.DatasetStats{ApproxRows: rows.Int64, SizeBytes: pageCount * pageSize, Driver: "sqlite"}, nil
}

// HealthPing implements health.HealthPinger.
func (b *Backend) HealthPing(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// Close closes the underlying handle.
func (b *Backend) Close() error { return b.db.Close() }

// wrap tags lock contention with model.ErrBusy.
func wrap(err error) error {
	if isBusy(err) {
		return fmt.Errorf("%w: %w", model.ErrBusy, err)
	}
	return err
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
