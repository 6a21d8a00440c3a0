package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
)

// ConfigSeedPriority ranks configured seed URLs above generic pages but
// below stored seeds that carry their own priority.
const ConfigSeedPriority = 10

// Seeder primes the frontier from stored seed rows and configured URLs.
type Seeder struct {
	frontier *crawl.Frontier
	seeds    crawl.SeedStore
	seedURLs []string
	seedURL  string
	logger   *zap.Logger
}

func NewSeeder(frontier *crawl.Frontier, seeds crawl.SeedStore, seedURLs []string, seedURL string, logger *zap.Logger) *Seeder {
	return &Seeder{frontier: frontier, seeds: seeds, seedURLs: seedURLs, seedURL: seedURL, logger: logger}
}

// Prime enqueues every crawl entry point at depth zero: stored active seeds
// at their own priority, configured seed URLs next, and the fallback seed
// URL at baseline. Enqueueing is idempotent, so priming an already-seeded
// frontier is harmless.
func (s *Seeder) Prime(ctx context.Context) error {
	stored, err := s.seeds.ActiveSeeds(ctx)
	if err != nil {
		return fmt.Errorf("load seeds: %w", err)
	}
	for _, seed := range stored {
		if err := s.frontier.Enqueue(ctx, seed.URL, 0, seed.Priority); err != nil {
			return err
		}
	}
	for _, u := range s.seedURLs {
		if err := s.frontier.Enqueue(ctx, u, 0, ConfigSeedPriority); err != nil {
			return err
		}
	}
	if s.seedURL != "" {
		if err := s.frontier.Enqueue(ctx, s.seedURL, 0, 0); err != nil {
			return err
		}
	}

	depth, err := s.frontier.QueueDepth(ctx)
	if err == nil {
		s.logger.Info("frontier primed", zap.Int("stored_seeds", len(stored)), zap.Int64("queued", depth))
	}
	return nil
}
