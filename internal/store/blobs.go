package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// getBlob reads the blob at key into dest. Returns (false, nil) when the
// key is absent. A blob that fails to decode is deleted and reported as a
// Corrupt PersistenceError; callers treat the collection as empty.
func (s *Store) getBlob(ctx context.Context, key string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "load", Key: key, Err: err}
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.deleteBlob(ctx, key)
		return false, &PersistenceError{Op: "load", Key: key, Corrupt: true, Err: err}
	}
	return true, nil
}

func (s *Store) setBlob(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw))
	if err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}

func (s *Store) deleteBlob(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}
