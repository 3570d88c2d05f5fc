package service

import (
	"time"

	"github.com/okian/wordsort/internal/adapters/auth"
	"github.com/okian/wordsort/internal/adapters/catalog"
	"github.com/okian/wordsort/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the score report queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many report ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPuzzleWeights sets scoring weights. They override weights declared
// in the catalog.
func WithPuzzleWeights(weights map[string]float64, defaultWeight float64) Option {
	return func(s *Service) {
		s.puzzleWeights = weights
		if defaultWeight > 0 {
			s.defaultWeight = defaultWeight
		}
	}
}

// WithCatalog sets the puzzle catalog. The embedded one is used otherwise.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithStrings sets the label tables. The embedded ones are used otherwise.
func WithStrings(st *catalog.Strings) Option {
	return func(s *Service) { s.strings = st }
}

// WithIssuer enables player tokens.
func WithIssuer(i *auth.Issuer) Option {
	return func(s *Service) { s.issuer = i }
}

// WithMaxSessions caps the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL sets how long an idle session survives.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithShuffle shuffles words and categories of every new board.
func WithShuffle(enabled bool) Option {
	return func(s *Service) { s.shuffle = enabled }
}

// WithMaxLeaderboardLimit caps TopN requests.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithClock replaces time.Now for session bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
