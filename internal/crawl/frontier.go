package crawl

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ProfilePriorityBoost is added to a parent task's priority when a discovered
// link is a staff-profile candidate, so profiles surface ahead of generic
// pages in the frontier.
const ProfilePriorityBoost = 5

// Frontier is the admission-filtered face of the persistent work queue.
// Enqueue drops inadmissible URLs silently; Claim honors the pause flag.
type Frontier struct {
	rules   *Rules
	tasks   TaskStore
	control ControlStore
	logger  *zap.Logger
}

// NewFrontier builds a Frontier over the given stores.
func NewFrontier(rules *Rules, tasks TaskStore, control ControlStore, logger *zap.Logger) *Frontier {
	return &Frontier{rules: rules, tasks: tasks, control: control, logger: logger}
}

// Enqueue normalizes url and inserts a queued task unless the URL fails
// admission or is already known. First-seen depth/priority win.
func (f *Frontier) Enqueue(ctx context.Context, rawURL string, depth, priority int) error {
	normalized, err := Normalize(rawURL)
	if err != nil {
		// Unparseable discovered links are dropped, same as inadmissible ones.
		f.logger.Debug("dropping unparseable url", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	if !f.rules.Admitted(normalized) {
		return nil
	}
	if err := f.tasks.InsertIfAbsent(ctx, normalized, depth, priority); err != nil {
		return fmt.Errorf("enqueue %s: %w", normalized, err)
	}
	return nil
}

// Claim returns the next queued task, or ErrNoTask when the queue is empty
// or the crawl is paused.
func (f *Frontier) Claim(ctx context.Context) (Task, error) {
	paused, err := f.control.Paused(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("read pause flag: %w", err)
	}
	if paused {
		return Task{}, ErrNoTask
	}
	return f.tasks.ClaimNext(ctx)
}

// Paused reports the global pause flag.
func (f *Frontier) Paused(ctx context.Context) (bool, error) {
	return f.control.Paused(ctx)
}

// QueueDepth reports the number of queued tasks.
func (f *Frontier) QueueDepth(ctx context.Context) (int64, error) {
	return f.tasks.QueueDepth(ctx)
}

// Rules exposes the admission rules shared with the link classifier.
func (f *Frontier) Rules() *Rules {
	return f.rules
}

// Tasks exposes the underlying store for status updates.
func (f *Frontier) Tasks() TaskStore {
	return f.tasks
}
