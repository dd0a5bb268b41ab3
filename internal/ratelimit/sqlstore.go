package ratelimit

import (
	"context"
	"database/sql"
	"time"
)

// SQLStore keeps attempt entries in the rate_limit table. Entries are append
// only; the "attempts in window" figure is always derived, never stored.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over the shared Postgres pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Prune(ctx context.Context, identifier string, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM rate_limit WHERE identifier = $1 AND attempt_time < $2
	`, identifier, cutoff)
	return err
}

func (s *SQLStore) Count(ctx context.Context, identifier string, cutoff time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM rate_limit WHERE identifier = $1 AND attempt_time >= $2
	`, identifier, cutoff).Scan(&count)
	return count, err
}

func (s *SQLStore) Append(ctx context.Context, identifier string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_limit (identifier, attempt_time) VALUES ($1, $2)
	`, identifier, at)
	return err
}
