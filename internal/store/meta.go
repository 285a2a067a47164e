package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	uerrors "github.com/unidocs/unidocs/internal/errors"
)

// SetMeta writes a key into the corpus metadata table.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corpus_meta (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return uerrors.StoreError("failed to write metadata", err)
	}
	return nil
}

// GetMeta reads a metadata key. Returns "" when the key is absent.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM corpus_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", uerrors.StoreError("failed to read metadata", err)
	}
	return value, nil
}

// AllMeta returns the full metadata table as a map.
func (s *Store) AllMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM corpus_meta`)
	if err != nil {
		return nil, uerrors.StoreError("failed to read metadata", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, uerrors.StoreError("failed to scan metadata row", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, uerrors.StoreError("failed to iterate metadata", err)
	}
	return out, nil
}
