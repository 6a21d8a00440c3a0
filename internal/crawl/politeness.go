package crawl

import (
	"context"
	"time"
)

// Delayer waits out the politeness interval before a fetch.
type Delayer interface {
	Wait(ctx context.Context)
}

// FixedDelay enforces a fixed minimum delay, honoring context cancellation.
// The delay is local to the caller; aggregate request rate scales with the
// configured worker count.
type FixedDelay struct {
	d time.Duration
}

// NewFixedDelay builds a FixedDelay. A non-positive duration disables waiting.
func NewFixedDelay(d time.Duration) *FixedDelay {
	return &FixedDelay{d: d}
}

// Wait blocks for the configured delay or until ctx is done.
func (f *FixedDelay) Wait(ctx context.Context) {
	if f == nil || f.d <= 0 {
		return
	}
	timer := time.NewTimer(f.d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
