// Package worker drains score reports from the queue, scores them and
// records best scores on the leaderboard.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wordsort/internal/adapters/repository"
	"github.com/okian/wordsort/internal/domain/model"
	"github.com/okian/wordsort/internal/domain/scoring"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/okian/wordsort/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Report is what workers read off the queue.
type Report = model.ScoreReport

// Updater records a best score on the leaderboard.
type Updater interface {
	UpdateBest(ctx context.Context, playerID string, score float64, meta repository.Meta) (bool, error)
}

// Queue defines how workers receive reports.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Report
}

// InMemoryWorker processes reports one at a time.
type InMemoryWorker struct {
	queue   Queue
	scorer  scoring.Scorer
	updater Updater
	name    string
	logger  logger.Logger

	onProcessed func(Report, bool)

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes reports until ctx is done, Shutdown is called or the queue
// is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	reports := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "error processing report", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the report in flight.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, r Report) error { //nolint:gocritic // hugeParam: value semantics on the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := r.Validate(); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "invalid_report")
		return fmt.Errorf("report %s: %w", r.ReportID, err)
	}

	res, err := w.scorer.Score(ctx, scoring.Input{
		PlayerID:  r.PlayerID,
		PuzzleID:  r.PuzzleID,
		Correct:   r.Correct,
		Incorrect: r.Incorrect,
	})
	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		metrics.RecordErrorByType("scoring_error", "high")
		return fmt.Errorf("score report %s: %w", r.ReportID, err)
	}

	updated, err := w.updater.UpdateBest(ctx, res.PlayerID, res.Score, repository.Meta{
		PuzzleID: r.PuzzleID,
		ReportID: r.ReportID,
	})
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "leaderboard_error")
		metrics.RecordErrorByType("leaderboard_error", "high")
		return fmt.Errorf("leaderboard update for report %s: %w", r.ReportID, err)
	}

	metrics.RecordReportProcessed()
	w.logger.Debug(ctx, "report processed",
		logger.String("report_id", r.ReportID),
		logger.String("player_id", r.PlayerID),
		logger.Float64("score", res.Score),
		logger.Bool("improved", updated),
	)
	if w.onProcessed != nil {
		w.onProcessed(r, updated)
	}
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	count   int
	logger  logger.Logger

	onProcessed func(Report, bool)
	processed   atomic.Int64
	started     atomic.Bool
}

// NewPool creates a worker pool. Workers start on Start.
func NewPool(q Queue, scorer scoring.Scorer, updater Updater, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:  q,
		count:  runtime.NumCPU(),
		logger: logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.workers = make([]*InMemoryWorker, p.count)
	for i := range p.workers {
		w := NewInMemoryWorker(q, scorer, updater, WithName("worker-"+strconv.Itoa(i)))
		w.onProcessed = p.recordProcessed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(p.count)
	return p
}

func (p *Pool) recordProcessed(r Report, updated bool) { //nolint:gocritic // hugeParam: value semantics on the channel
	p.processed.Add(1)
	if p.onProcessed != nil {
		p.onProcessed(r, updated)
	}
}

// Start launches every worker. Calling it twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.count))
}

// Size is the number of workers.
func (p *Pool) Size() int { return p.count }

// Processed is the number of reports that reached the leaderboard.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Shutdown closes the queue when it supports closing, lets the workers
// drain it and waits for them up to ctx or an internal timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
