package crawl

import (
	"context"
	"errors"
	"time"
)

// ErrNoTask is returned by TaskStore.ClaimNext when no queued row exists.
var ErrNoTask = errors.New("no queued task")

// TaskStore persists frontier rows. ClaimNext must guarantee that two
// concurrent callers never receive the same row.
type TaskStore interface {
	// InsertIfAbsent creates a queued row for url unless one already exists.
	// The first observed depth/priority win; later inserts are no-ops.
	InsertIfAbsent(ctx context.Context, url string, depth, priority int) error

	// ClaimNext atomically selects the highest-priority queued row, marks it
	// fetched-in-progress, and returns it. Returns ErrNoTask when empty.
	ClaimNext(ctx context.Context) (Task, error)

	MarkFetched(ctx context.Context, id int64, httpStatus int, etag, lastModified string, at time.Time) error
	MarkSkipped(ctx context.Context, id int64, httpStatus int, at time.Time) error
	MarkError(ctx context.Context, id int64, httpStatus int, message string, at time.Time) error

	// Requeue resets fetched/error rows back to queued (external reset).
	Requeue(ctx context.Context) (int64, error)

	QueueDepth(ctx context.Context) (int64, error)
}

// ControlStore exposes the global pause flag.
type ControlStore interface {
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}

// SeedStore manages operator-provided crawl entry points.
type SeedStore interface {
	ActiveSeeds(ctx context.Context) ([]Seed, error)
	UpsertSeed(ctx context.Context, url string, priority int, active bool) error
	DeleteSeed(ctx context.Context, id int64) error
}

// ProfileStore persists staff profiles and their org units.
type ProfileStore interface {
	GetByURL(ctx context.Context, profileURL string) (Profile, bool, error)
	Upsert(ctx context.Context, profile Profile) (int64, error)

	// EnsureFaculty and friends are idempotent get-or-creates keyed by unique
	// name; concurrent creators converge to one row. A non-nil parent relinks
	// an existing row whose parent differs.
	EnsureFaculty(ctx context.Context, name string) (OrgUnit, error)
	EnsureInstitute(ctx context.Context, name string, facultyID *int64) (OrgUnit, error)
	EnsureDepartment(ctx context.Context, name string, instituteID *int64) (OrgUnit, error)
}

// Fetcher performs a polite, conditional GET.
type Fetcher interface {
	Fetch(ctx context.Context, url, etag, lastModified string) (FetchResult, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
