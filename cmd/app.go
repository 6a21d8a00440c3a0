package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/ai"
	"github.com/uniwebdev/staffsearch/internal/config"
	"github.com/uniwebdev/staffsearch/internal/crawl"
	"github.com/uniwebdev/staffsearch/internal/index"
	"github.com/uniwebdev/staffsearch/internal/search"
	"github.com/uniwebdev/staffsearch/internal/store/postgres"
	"github.com/uniwebdev/staffsearch/internal/worker"
)

// app wires the stores, crawler, indexer, and search stack for a command.
// Close releases the database pool.
type app struct {
	pool      *pgxpool.Pool
	tasks     *postgres.FrontierStore
	control   *postgres.ControlStore
	seeds     *postgres.SeedStore
	profiles  *postgres.ProfileStore
	chunks    *postgres.ChunkStore
	frontier  *crawl.Frontier
	processor *worker.Processor
	workers   *worker.Pool
	seeder    *worker.Seeder
	searcher  *search.Searcher
	chatter   *search.Chatter
	logger    *zap.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	tasks, err := postgres.NewFrontierStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	control, err := postgres.NewControlStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	seeds, err := postgres.NewSeedStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	profiles, err := postgres.NewProfileStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	chunks, err := postgres.NewChunkStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	rules, err := crawl.NewRules(cfg.Crawl.AllowDomain, cfg.Crawl.KeepPathRegex, cfg.Crawl.SkipHosts)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("crawl rules: %w", err)
	}
	frontier := crawl.NewFrontier(rules, tasks, control, logger)
	fetcher := crawl.NewCollyFetcher(crawl.FetcherConfig{
		UserAgent: cfg.Crawl.UserAgent,
		Timeout:   cfg.Crawl.Timeout(),
	}, crawl.NewFixedDelay(cfg.Crawl.Delay()), logger)

	tok, err := index.NewTokenizer()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	chunker := index.NewChunker(tok, cfg.Index.MaxTokens, cfg.Index.OverlapTokens)

	aiClient, err := ai.NewClient(ai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		EmbedModel: cfg.OpenAI.EmbedModel,
		ChatModel:  cfg.OpenAI.ChatModel,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("openai client: %w", err)
	}

	indexer := index.NewIndexer(chunker, aiClient, chunks, logger)
	searcher := search.NewSearcher(aiClient, chunks, logger)
	chatter := search.NewChatter(searcher, aiClient, logger)

	processor := worker.NewProcessor(frontier, fetcher, profiles, indexer, crawl.SystemClock{}, cfg.Crawl.MaxDepth, logger)
	workers := worker.NewPool(frontier, processor, cfg.Crawl.Concurrency, logger)
	seeder := worker.NewSeeder(frontier, seeds, cfg.Crawl.SeedURLs, cfg.Crawl.SeedURL, logger)

	return &app{
		pool:      pool,
		tasks:     tasks,
		control:   control,
		seeds:     seeds,
		profiles:  profiles,
		chunks:    chunks,
		frontier:  frontier,
		processor: processor,
		workers:   workers,
		seeder:    seeder,
		searcher:  searcher,
		chatter:   chatter,
		logger:    logger,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}
