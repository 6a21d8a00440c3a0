package postgres

import (
	"context"
	"fmt"
)

// ControlStore holds the single-row crawl control flags.
type ControlStore struct {
	pool Querier
}

// NewControlStore constructs a store from an existing pool.
func NewControlStore(pool Querier) (*ControlStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ControlStore{pool: pool}, nil
}

// Paused reports the global pause flag. A missing control row means the
// crawl is not paused.
func (s *ControlStore) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := s.pool.QueryRow(ctx, `
SELECT COALESCE((SELECT paused FROM crawl_control WHERE id = 1), false)`).Scan(&paused)
	if err != nil {
		return false, fmt.Errorf("read pause flag: %w", err)
	}
	return paused, nil
}

// SetPaused sets the global pause flag, creating the control row on first use.
func (s *ControlStore) SetPaused(ctx context.Context, paused bool) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO crawl_control (id, paused) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET paused = EXCLUDED.paused, updated_at = now()`,
		paused)
	if err != nil {
		return fmt.Errorf("set pause flag: %w", err)
	}
	return nil
}
