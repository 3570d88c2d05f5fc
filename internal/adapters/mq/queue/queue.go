// Package queue buffers score reports between sessions and the scoring
// workers. Enqueue never blocks: a full queue rejects the report and the
// caller decides whether to retry.
package queue

import (
	"context"
	"sync"

	"github.com/okian/wordsort/internal/domain/model"
	"github.com/okian/wordsort/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Report is the payload flowing through the queue.
type Report = model.ScoreReport

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report. It returns false if the queue is closed or full.
	Enqueue(ctx context.Context, r Report) bool

	// Dequeue returns a channel of reports. It is closed once the queue is
	// closed and drained, or when ctx is done.
	Dequeue(ctx context.Context) <-chan Report

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	reports  chan Report
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.reports = make(chan Report, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds a report to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Report) bool { //nolint:gocritic // hugeParam: value semantics on the channel
	return q.TryEnqueue(ctx, r) == nil
}

// TryEnqueue is Enqueue reporting why a report was rejected.
func (q *InMemoryQueue) TryEnqueue(ctx context.Context, r Report) error { //nolint:gocritic // hugeParam: value semantics on the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.reject("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.reject("context_cancelled")
		return err
	}

	select {
	case q.reports <- r:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.reject("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) reject(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

// Dequeue returns a channel that receives reports as they become available.
// Several consumers may call it; each report is delivered to one of them.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Report {
	out := make(chan Report)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-q.reports:
				if !ok {
					return
				}
				select {
				case out <- r:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the number of buffered reports.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

func (q *InMemoryQueue) observe() int {
	size := len(q.reports)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close stops accepting reports. Buffered reports are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.reports)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
