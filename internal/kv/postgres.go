package kv

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store backed by a single
// kv_entries table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL key-value store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get returns the value for key and whether it exists.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`

	var value string
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return value, true, nil
}

// Set stores value under key, replacing any existing value.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query, key, value)
	return err
}

// Delete removes key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
	return err
}

// Keys returns all keys with the given prefix.
func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT key FROM kv_entries WHERE key LIKE $1 || '%'`

	rows, err := s.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
