// Package sqlite implements the dataset backend on a SQLite file.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	_ "modernc.org/sqlite"
)

// Pragmas applied to every reader connection. WAL keeps readers from
// blocking each other; query_only guards the dataset against writes.
// The busy timeout stays short so a held lock surfaces as SQLITE_BUSY and
// the accessor's retry policy and request deadline govern the wait.
var readerPragmas = []string{
	"busy_timeout(5)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"cache_size(-64000)",
	"mmap_size(2147483648)",
	"temp_store(MEMORY)",
	"query_only(1)",
}

// Open opens an existing dataset file for concurrent read-only access.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset file: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path, readerPragmas))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(max(4, runtime.NumCPU()*2))
	db.SetMaxIdleConns(max(4, runtime.NumCPU()*2))
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenWritable opens (or creates) a dataset file for seeding.
func OpenWritable(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn(path, []string{"busy_timeout(10000)", "journal_mode(WAL)"}))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(path string, pragmas []string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return fmt.Sprintf("file:%s?%s", path, q.Encode())
}
