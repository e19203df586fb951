// Package state persists the caller registry, ban flags and settings.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Setting keys.
const (
	KeyAccessMode = "access_mode"
)

// Store is a SQLite-backed state store. Callers are never deleted; a ban is a flag.
type Store struct {
	db *sql.DB
}

// Open opens the state database at path, creating tables as needed.
func Open(path string) (*Store, error) {
	db, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state schema: %w", err)
	}
	return &Store{db: db}, nil
}

// TouchCaller registers id on first sight and refreshes last_seen afterwards.
func (s *Store) TouchCaller(ctx context.Context, id string, at time.Time) error {
	ts := at.UTC().UnixNano()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO callers (id, first_seen, last_seen, banned) VALUES (?, ?, ?, 0)
		ON CONFLICT(id) DO UPDATE SET last_seen = MAX(callers.last_seen, excluded.last_seen)`,
		id, ts, ts)
	return err
}

// SetBanned sets the ban flag, registering the caller if unknown.
// changed is false when the caller was already in the requested state.
func (s *Store) SetBanned(ctx context.Context, id string, banned bool, at time.Time) (changed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var cur bool
	err = tx.QueryRowContext(ctx, `SELECT banned FROM callers WHERE id = ?`, id).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ts := at.UTC().UnixNano()
		if _, err := tx.ExecContext(ctx, `INSERT INTO callers (id, first_seen, last_seen, banned) VALUES (?, ?, ?, ?)`, id, ts, ts, banned); err != nil {
			return false, err
		}
		return banned, tx.Commit()
	case err != nil:
		return false, err
	case cur == banned:
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE callers SET banned = ? WHERE id = ?`, banned, id); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// Callers lists every known caller in first-seen order.
func (s *Store) Callers(ctx context.Context) ([]model.CallerIdentity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, first_seen, last_seen, banned FROM callers ORDER BY first_seen, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.CallerIdentity
	for rows.Next() {
		var (
			c           model.CallerIdentity
			first, last int64
		)
		if err := rows.Scan(&c.ID, &first, &last, &c.Banned); err != nil {
			return nil, err
		}
		c.FirstSeen = time.Unix(0, first).UTC()
		c.LastSeen = time.Unix(0, last).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// CallerIDs lists the ids of every known caller, banned ones included.
func (s *Store) CallerIDs(ctx context.Context) ([]string, error) {
	callers, err := s.Callers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(callers))
	for i, c := range callers {
		ids[i] = c.ID
	}
	return ids, nil
}

// BannedIDs lists banned callers sorted by id.
func (s *Store) BannedIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM callers WHERE banned = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Population counts known and banned callers.
func (s *Store) Population(ctx context.Context) (model.Population, error) {
	var p model.Population
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(banned), 0) FROM callers`).Scan(&p.Total, &p.Banned)
	return p, err
}

// Setting reads a setting. ok is false when it was never written.
func (s *Store) Setting(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// PutSetting writes a setting.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
