package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// SetConfig stores a key/value pair in the database config table.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return wrapDBError("set config "+key, err)
	}
	return nil
}

// GetConfig retrieves a config value. Returns an empty string for missing
// keys.
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapDBError("get config "+key, err)
	}
	return value, nil
}
