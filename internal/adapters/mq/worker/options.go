package worker

import (
	"github.com/okian/wordsort/pkg/logger"
)

// Option applies a configuration option to an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// PoolOption applies a configuration option to a Pool.
type PoolOption func(*Pool)

// WithWorkerCount sets the number of workers. Non-positive values keep the
// default of one worker per CPU.
func WithWorkerCount(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithPoolLogger sets the logger used by the pool.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProcessedHook registers a callback run after every report that
// reached the leaderboard, whether or not it improved a best score.
func WithProcessedHook(fn func(Report, bool)) PoolOption {
	return func(p *Pool) {
		p.onProcessed = fn
	}
}
