package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trendpub/internal/faults"
)

// ConfigStore is a durable key-value store over the config table.
//
// Set is a read-check-then-write upsert, not a transaction. Concurrent
// writes to the same key can race at the read step; the final value is
// whichever update runs last. Configuration writes are infrequent and
// human-initiated, so last-writer-wins is acceptable here.
type ConfigStore struct {
	db *sql.DB
}

// NewConfigStore builds a ConfigStore backed by the shared database.
func NewConfigStore(d *DB) *ConfigStore {
	return &ConfigStore{db: d.db}
}

// Get returns the value for key. The second return is false when the key
// has never been written.
func (s *ConfigStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = ? LIMIT 1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, faults.Upstream(err, "读取配置失败")
	}
	return value, true, nil
}

// Set upserts key to value.
func (s *ConfigStore) Set(ctx context.Context, key, value string) error {
	_, exists, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		_, err = s.db.ExecContext(ctx,
			`UPDATE config SET value = ? WHERE key = ?`, value, key)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO config (key, value) VALUES (?, ?)`, key, value)
	}
	if err != nil {
		return faults.Upstream(fmt.Errorf("set %s: %w", key, err), "写入配置失败")
	}
	return nil
}
