package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/uniwebdev/staffsearch/internal/crawl"
)

// FrontierStore persists crawl frontier rows in the crawl_tasks table.
type FrontierStore struct {
	pool Querier
}

// NewFrontierStore constructs a store from an existing pool.
func NewFrontierStore(pool Querier) (*FrontierStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &FrontierStore{pool: pool}, nil
}

// InsertIfAbsent enqueues a URL unless a row for it already exists in any
// status. The first observed depth and priority win.
func (s *FrontierStore) InsertIfAbsent(ctx context.Context, url string, depth, priority int) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO crawl_tasks (url, depth, priority, status)
VALUES ($1, $2, $3, 'queued')
ON CONFLICT (url) DO NOTHING`,
		url, depth, priority)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", url, err)
	}
	return nil
}

// ClaimNext atomically claims the best queued row. Row locking with SKIP
// LOCKED guarantees two concurrent workers never claim the same task.
func (s *FrontierStore) ClaimNext(ctx context.Context) (crawl.Task, error) {
	var t crawl.Task
	err := s.pool.QueryRow(ctx, `
UPDATE crawl_tasks
SET status = 'fetched', last_fetched_at = now()
WHERE id = (
	SELECT id FROM crawl_tasks
	WHERE status = 'queued'
	ORDER BY priority DESC, id
	FOR UPDATE SKIP LOCKED
	LIMIT 1
)
RETURNING id, url, depth, priority, COALESCE(etag, ''), COALESCE(last_modified, ''), COALESCE(content_hash, '')`).
		Scan(&t.ID, &t.URL, &t.Depth, &t.Priority, &t.ETag, &t.LastModified, &t.ContentHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawl.Task{}, crawl.ErrNoTask
	}
	if err != nil {
		return crawl.Task{}, fmt.Errorf("claim task: %w", err)
	}
	t.Status = crawl.TaskStatusFetched
	return t, nil
}

// MarkFetched records a successful fetch with its caching validators.
func (s *FrontierStore) MarkFetched(ctx context.Context, id int64, httpStatus int, etag, lastModified string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
UPDATE crawl_tasks
SET status = 'fetched', http_status = $2, etag = NULLIF($3, ''), last_modified = NULLIF($4, ''),
    last_fetched_at = $5, error = NULL
WHERE id = $1`,
		id, httpStatus, etag, lastModified, at)
	if err != nil {
		return fmt.Errorf("mark task %d fetched: %w", id, err)
	}
	return nil
}

// MarkSkipped records a fetch that required no processing (not modified).
func (s *FrontierStore) MarkSkipped(ctx context.Context, id int64, httpStatus int, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
UPDATE crawl_tasks
SET status = 'skipped', http_status = $2, last_fetched_at = $3, error = NULL
WHERE id = $1`,
		id, httpStatus, at)
	if err != nil {
		return fmt.Errorf("mark task %d skipped: %w", id, err)
	}
	return nil
}

// MarkError records a failed fetch; httpStatus is zero for transport errors.
func (s *FrontierStore) MarkError(ctx context.Context, id int64, httpStatus int, message string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
UPDATE crawl_tasks
SET status = 'error', http_status = NULLIF($2, 0), last_fetched_at = $3, error = $4
WHERE id = $1`,
		id, httpStatus, at, message)
	if err != nil {
		return fmt.Errorf("mark task %d error: %w", id, err)
	}
	return nil
}

// Requeue resets all finished rows back to queued for a fresh crawl pass.
// Validators stay in place so the next pass fetches conditionally.
func (s *FrontierStore) Requeue(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE crawl_tasks SET status = 'queued', error = NULL
WHERE status IN ('fetched', 'skipped', 'error')`)
	if err != nil {
		return 0, fmt.Errorf("requeue tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QueueDepth returns the number of rows still awaiting fetch.
func (s *FrontierStore) QueueDepth(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM crawl_tasks WHERE status = 'queued'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}

// Stats summarizes the frontier for the admin surface.
func (s *FrontierStore) Stats(ctx context.Context) (crawl.FrontierStats, error) {
	var st crawl.FrontierStats
	err := s.pool.QueryRow(ctx, `
SELECT
	count(*) FILTER (WHERE status = 'queued'),
	count(*) FILTER (WHERE status = 'fetched'),
	count(*) FILTER (WHERE status = 'skipped'),
	count(*) FILTER (WHERE status = 'error'),
	count(*),
	count(*) FILTER (WHERE last_fetched_at > now() - interval '1 hour')
FROM crawl_tasks`).
		Scan(&st.Queued, &st.Fetched, &st.Skipped, &st.Errored, &st.Total, &st.RecentFetches)
	if err != nil {
		return crawl.FrontierStats{}, fmt.Errorf("frontier stats: %w", err)
	}
	return st, nil
}
