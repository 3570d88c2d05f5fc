// Package service hosts sorting sessions and the score pipeline behind
// the HTTP API.
//
// Each session owns an in-memory document and a view. Checking a board
// emits a score report that is deduplicated, queued and scored by the
// worker pool into the leaderboard.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/wordsort/internal/adapters/auth"
	"github.com/okian/wordsort/internal/adapters/catalog"
	"github.com/okian/wordsort/internal/adapters/mq/queue"
	"github.com/okian/wordsort/internal/adapters/mq/worker"
	"github.com/okian/wordsort/internal/adapters/repository"
	"github.com/okian/wordsort/internal/domain/dedupe"
	"github.com/okian/wordsort/internal/domain/model"
	"github.com/okian/wordsort/internal/domain/scoring"
	"github.com/okian/wordsort/internal/domain/types"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/okian/wordsort/pkg/metrics"
)

const (
	defaultQueueSize           = 10_000
	defaultDedupeSize          = 50_000
	defaultMaxSessions         = 1_000
	defaultSessionTTL          = 30 * time.Minute
	defaultMaxLeaderboardLimit = 100
	minJanitorInterval         = time.Second
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	leaderboard repository.Store
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	scorer      *scoring.AccuracyScorer
	pool        *worker.Pool

	catalog *catalog.Catalog
	strings *catalog.Strings
	issuer  *auth.Issuer

	sessions map[string]*session

	workerCount         int
	queueSize           int
	dedupeSize          int
	maxSessions         int
	maxLeaderboardLimit int
	sessionTTL          time.Duration
	shuffle             bool
	puzzleWeights       map[string]float64
	defaultWeight       float64
	now                 func() time.Time

	started bool
	stopCh  chan struct{}
	stopped chan struct{}

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:            make(map[string]*session),
		workerCount:         runtime.NumCPU(),
		queueSize:           defaultQueueSize,
		dedupeSize:          defaultDedupeSize,
		maxSessions:         defaultMaxSessions,
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		sessionTTL:          defaultSessionTTL,
		defaultWeight:       1,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the pipeline, starts the workers and the session janitor.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting wordsort service...")

	if s.catalog == nil {
		c, err := catalog.Builtin()
		if err != nil {
			return fmt.Errorf("load builtin catalog: %w", err)
		}
		s.catalog = c
	}
	if s.strings == nil {
		st, err := catalog.BuiltinStrings(catalog.FallbackLocale)
		if err != nil {
			return fmt.Errorf("load builtin strings: %w", err)
		}
		s.strings = st
	}

	weights := s.catalog.Weights()
	for id, w := range s.puzzleWeights {
		weights[id] = w
	}

	s.leaderboard = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.scorer = scoring.NewAccuracyScorer(scoring.WithPuzzleWeights(weights, s.defaultWeight))
	s.pool = worker.NewPool(s.queue, s.scorer, s.leaderboard, worker.WithWorkerCount(s.workerCount))
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.janitor(s.stopCh, s.stopped)

	s.started = true
	s.logger.Info(ctx, "wordsort service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("puzzles", s.catalog.Len()),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop drains the score queue and stops the janitor.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopCh)
	stopped, pool := s.stopped, s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping wordsort service...")
	<-stopped
	err := pool.Shutdown(ctx)
	s.logger.Info(ctx, "wordsort service stopped")
	return err
}

// Started reports whether Start completed and Stop was not called.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Submit deduplicates a score report by id and queues it for scoring. A
// duplicate is accepted and dropped. A report the queue rejects is
// forgotten by the deduper so it can be submitted again.
func (s *Service) Submit(ctx context.Context, r model.ScoreReport) error { //nolint:gocritic // hugeParam: reports are values
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.RLock()
	started, d, q := s.started, s.deduper, s.queue
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if d.SeenAndRecord(ctx, r.ReportID) {
		metrics.RecordReportDuplicate()
		s.logger.Debug(ctx, "duplicate report skipped", logger.String("report_id", r.ReportID))
		return nil
	}
	if err := q.TryEnqueue(ctx, r); err != nil {
		d.Unrecord(ctx, r.ReportID)
		s.logger.Warn(ctx, "score report rejected",
			logger.String("report_id", r.ReportID),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	return nil
}

// TopN returns the top n leaderboard entries. n is capped at the
// configured maximum.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	lb, err := s.board()
	if err != nil {
		return nil, err
	}
	if n > s.maxLeaderboardLimit {
		n = s.maxLeaderboardLimit
	}
	entries, err := lb.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, PlayerID: e.PlayerID, Score: e.Score}
	}
	return out, nil
}

// Rank returns the rank and best score of one player.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	lb, err := s.board()
	if err != nil {
		return types.Entry{}, err
	}
	e, err := lb.Rank(ctx, playerID)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: e.Rank, PlayerID: e.PlayerID, Score: e.Score}, nil
}

func (s *Service) board() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.leaderboard == nil {
		return nil, ErrNotStarted
	}
	return s.leaderboard, nil
}

// Puzzles lists the catalog.
func (s *Service) Puzzles() []catalog.Summary {
	s.mu.RLock()
	c := s.catalog
	s.mu.RUnlock()
	if c == nil {
		return []catalog.Summary{}
	}
	return c.List()
}

// IssueToken creates a signed player token. An empty playerID gets a
// generated one.
func (s *Service) IssueToken(playerID, name string) (string, auth.Player, time.Time, error) {
	if s.issuer == nil {
		return "", auth.Player{}, time.Time{}, ErrAuthDisabled
	}
	return s.issuer.Issue(playerID, name)
}

// Issuer returns the token issuer, or nil when tokens are disabled.
func (s *Service) Issuer() *auth.Issuer { return s.issuer }

// Stats is a point-in-time view of the service.
type Stats struct {
	Started         bool  `json:"started"`
	Workers         int   `json:"workers"`
	QueueCapacity   int   `json:"queue_capacity"`
	QueueLength     int   `json:"queue_length"`
	DedupeSize      int   `json:"dedupe_size"`
	SeenReports     int64 `json:"seen_reports"`
	Processed       int64 `json:"processed"`
	Players         int   `json:"players"`
	Sessions        int   `json:"sessions"`
	MaxSessions     int   `json:"max_sessions"`
	Puzzles         int   `json:"puzzles"`
	SessionTTLSec   int   `json:"session_ttl_sec"`
	AuthEnabled     bool  `json:"auth_enabled"`
	ShuffleEnabled  bool  `json:"shuffle"`
	LeaderboardMaxN int   `json:"max_leaderboard_limit"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:         s.started,
		Workers:         s.workerCount,
		QueueCapacity:   s.queueSize,
		DedupeSize:      s.dedupeSize,
		Sessions:        len(s.sessions),
		MaxSessions:     s.maxSessions,
		SessionTTLSec:   int(s.sessionTTL / time.Second),
		AuthEnabled:     s.issuer != nil,
		ShuffleEnabled:  s.shuffle,
		LeaderboardMaxN: s.maxLeaderboardLimit,
	}
	if s.catalog != nil {
		st.Puzzles = s.catalog.Len()
	}
	if s.pool != nil {
		st.Workers = s.pool.Size()
		st.Processed = s.pool.Processed()
		st.QueueLength = s.queue.Len(ctx)
		st.SeenReports = s.deduper.Size()
		st.Players = s.leaderboard.Count(ctx)
		metrics.UpdateTotalPlayers(st.Players)
	}
	metrics.UpdateActiveSessions(st.Sessions)
	return st
}
