package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// EnsureSchema creates the users table and its phone index if missing.
// The production dataset is built elsewhere; this serves seeding and tests.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			mobile      TEXT,
			name        TEXT,
			fname       TEXT,
			address     TEXT,
			email       TEXT,
			circle      TEXT,
			operator_id TEXT,
			alt_mobile  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_mobile ON users(mobile)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Insert appends records in one transaction.
func Insert(ctx context.Context, db *sql.DB, recs []model.Record) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (mobile, alt_mobile, name, fname, address, email, circle, operator_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, r.Phone, r.AltPhone, r.Name, r.FatherName, r.Address, r.Email, r.Region, r.OperatorID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
