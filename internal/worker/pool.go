package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
	"github.com/uniwebdev/staffsearch/internal/metrics"
)

// Pool drains the frontier with a bounded set of workers. Each worker
// claims, processes, and re-checks the pause flag until the frontier is
// empty or paused, then exits; Run returns when all workers have exited.
type Pool struct {
	frontier  *crawl.Frontier
	processor *Processor
	workers   int
	logger    *zap.Logger

	running atomic.Bool
}

func NewPool(frontier *crawl.Frontier, processor *Processor, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{frontier: frontier, processor: processor, workers: workers, logger: logger}
}

// Run drains the frontier and returns when it is empty, paused, or the
// context is canceled. Only one drain runs at a time; a second call while
// one is in flight returns immediately.
func (p *Pool) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return nil
	}
	defer p.running.Store(false)

	p.logger.Info("crawl pass starting", zap.Int("workers", p.workers))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}
	wg.Wait()

	depth, err := p.frontier.QueueDepth(ctx)
	if err == nil {
		metrics.SetQueueDepth(depth)
	}
	p.logger.Info("crawl pass finished", zap.Int64("remaining", depth))
	return ctx.Err()
}

// Running reports whether a drain is currently in flight.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// Trigger starts a drain in the background if none is running.
func (p *Pool) Trigger(ctx context.Context) {
	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("crawl pass aborted", zap.Error(err))
		}
	}()
}

func (p *Pool) work(ctx context.Context, id int) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	logger := p.logger.With(zap.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := p.frontier.Claim(ctx)
		if errors.Is(err, crawl.ErrNoTask) {
			logger.Debug("frontier empty or paused, worker exiting")
			return
		}
		if err != nil {
			logger.Error("claim failed, worker exiting", zap.Error(err))
			return
		}

		p.processor.Process(ctx, task)

		if depth, err := p.frontier.QueueDepth(ctx); err == nil {
			metrics.SetQueueDepth(depth)
		}
	}
}
