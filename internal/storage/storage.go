// Package storage persists the two logical tables the control plane depends
// on: the config key-value table and the published-article ledger.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS config (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS published_articles (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    title         TEXT NOT NULL,
    summary       TEXT,
    workflow_type TEXT,
    platform      TEXT NOT NULL,
    url           TEXT NOT NULL,
    published_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_published_articles_published_at
    ON published_articles (published_at DESC);
`

// DB wraps the sqlite handle shared by the stores.
type DB struct {
	db *sql.DB
}

// Open opens (creating when absent) the sqlite database at path and applies
// the schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("storage: database path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// from concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
