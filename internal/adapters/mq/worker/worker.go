// Package worker runs commentary generation off the request path.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/fairway/internal/adapters/mq/queue"
	"github.com/okian/fairway/internal/domain/commentary"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
)

const defaultRatePerMinute = 6

// Commentator produces commentary for a roster. It must not fail.
type Commentator interface {
	Commentate(ctx context.Context, r model.Roster) commentary.Result
}

// Publisher receives finished commentary. more reports whether further
// requests are still outstanding.
type Publisher interface {
	Complete(res commentary.Result, rosterVersion uint64, more func() bool)
}

// Queue defines how workers receive jobs and report them finished.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
	Done(ctx context.Context)
	Outstanding(ctx context.Context) int
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for commentary jobs.
type InMemoryWorker struct {
	queue       Queue
	commentator Commentator
	publisher   Publisher
	limiter     *rate.Limiter
	name        string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, c Commentator, p Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		commentator: c,
		publisher:   p,
		limiter:     rate.NewLimiter(rate.Limit(defaultRatePerMinute/60.0), 1),
		name:        "commentary-worker",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Warn(ctx, "commentary job dropped", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	if err := w.limiter.Wait(ctx); err != nil {
		w.queue.Done(ctx)
		metrics.RecordErrorByComponent("worker", "rate_limit_wait")
		return fmt.Errorf("rate limit wait: %w", err)
	}
	start := time.Now()
	res := w.commentator.Commentate(ctx, job.Roster)
	w.queue.Done(ctx)
	w.publisher.Complete(res, job.RosterVersion, func() bool { return w.queue.Outstanding(ctx) > 0 })
	w.logger.Debug(ctx, "commentary published",
		logger.String("job_id", job.ID),
		logger.String("outcome", string(res.Outcome)),
		logger.Duration("latency", time.Since(start)),
		logger.Duration("queued", start.Sub(job.RequestedAt)),
	)
	return nil
}
