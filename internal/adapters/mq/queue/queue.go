// Package queue carries commentary generation requests to the worker.
//
// The queue is bounded and never blocks producers: a full queue rejects the
// job so the HTTP layer can answer with backpressure.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/metrics"
)

const defaultQueueCapacity = 8

// Job asks for commentary on a roster as it was at RosterVersion.
type Job struct {
	ID            string
	RosterVersion uint64
	Roster        model.Roster
	RequestedAt   time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull or ErrClosed when rejected.
	Enqueue(ctx context.Context, roster model.Roster, version uint64) (Job, error)

	// Dequeue returns a channel that receives jobs until the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Done marks one dequeued job as finished.
	Done(ctx context.Context)

	// Outstanding counts accepted jobs not yet marked Done, whether they
	// are still buffered or being processed.
	Outstanding(ctx context.Context) int

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Cap returns the queue bound.
	Cap() int

	// Close stops accepting jobs and closes the dequeue channel once drained.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs        chan Job
	capacity    int
	now         func() time.Time
	outstanding atomic.Int64

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateCommentaryQueue(0, q.capacity)
	return q
}

// Enqueue adds a job for roster. The roster is copied.
func (q *InMemoryQueue) Enqueue(ctx context.Context, roster model.Roster, version uint64) (Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordCommentaryEnqueueError("closed")
		metrics.RecordErrorByComponent("queue", "closed")
		return Job{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordCommentaryEnqueueError("context_cancelled")
		return Job{}, err
	}

	job := Job{
		ID:            uuid.NewString(),
		RosterVersion: version,
		Roster:        roster.Clone(),
		RequestedAt:   q.now(),
	}
	// counted before the send so a fast consumer never sees a negative count
	q.outstanding.Add(1)
	select {
	case q.jobs <- job:
		metrics.UpdateCommentaryQueue(len(q.jobs), q.capacity)
		return job, nil
	default:
		q.outstanding.Add(-1)
		metrics.RecordCommentaryEnqueueError("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return Job{}, ErrFull
	}
}

// Dequeue returns the job channel itself. A job stays in the buffer until
// the consumer receives it, so the bound holds exactly.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Done marks one received job as finished.
func (q *InMemoryQueue) Done(_ context.Context) {
	if q.outstanding.Add(-1) < 0 {
		q.outstanding.Store(0)
	}
	metrics.UpdateCommentaryQueue(len(q.jobs), q.capacity)
}

// Outstanding counts jobs accepted by Enqueue and not yet marked Done.
func (q *InMemoryQueue) Outstanding(_ context.Context) int {
	return int(q.outstanding.Load())
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateCommentaryQueue(size, q.capacity)
	return size
}

// Cap returns the queue bound.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
