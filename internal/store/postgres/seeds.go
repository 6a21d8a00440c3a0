package postgres

import (
	"context"
	"fmt"

	"github.com/uniwebdev/staffsearch/internal/crawl"
)

// SeedStore manages operator-provided crawl entry points.
type SeedStore struct {
	pool Querier
}

// NewSeedStore constructs a store from an existing pool.
func NewSeedStore(pool Querier) (*SeedStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &SeedStore{pool: pool}, nil
}

// ActiveSeeds returns enabled seeds in descending priority order.
func (s *SeedStore) ActiveSeeds(ctx context.Context) ([]crawl.Seed, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, url, priority, active FROM seed_urls
WHERE active ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []crawl.Seed
	for rows.Next() {
		var seed crawl.Seed
		if err := rows.Scan(&seed.ID, &seed.URL, &seed.Priority, &seed.Active); err != nil {
			return nil, fmt.Errorf("scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	return seeds, nil
}

// UpsertSeed creates or updates the seed row for a URL.
func (s *SeedStore) UpsertSeed(ctx context.Context, url string, priority int, active bool) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO seed_urls (url, priority, active)
VALUES ($1, $2, $3)
ON CONFLICT (url) DO UPDATE SET priority = EXCLUDED.priority, active = EXCLUDED.active`,
		url, priority, active)
	if err != nil {
		return fmt.Errorf("upsert seed %s: %w", url, err)
	}
	return nil
}

// DeleteSeed removes a seed row by id. Deleting a missing row is not an error.
func (s *SeedStore) DeleteSeed(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM seed_urls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete seed %d: %w", id, err)
	}
	return nil
}
