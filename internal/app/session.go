package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/adapters/dom/memdom"
	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/model"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/internal/view"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/okian/wordsort/pkg/metrics"
)

// InlinePuzzleID names boards created from request data.
const InlinePuzzleID = "inline"

const guestPrefix = "guest-"

// CreateRequest describes a new session. Exactly one of PuzzleID or Data
// is expected; PuzzleID wins when both are set.
type CreateRequest struct {
	PuzzleID string       `json:"puzzle_id,omitempty"`
	Data     *puzzle.Data `json:"data,omitempty"`
	Locale   string       `json:"locale,omitempty"`
	PlayerID string       `json:"player_id,omitempty"`
	Seed     *int64       `json:"seed,omitempty"`
}

// SessionState is what clients see of a session.
type SessionState struct {
	ID            string          `json:"id"`
	PlayerID      string          `json:"player_id"`
	PuzzleID      string          `json:"puzzle_id"`
	Locale        string          `json:"locale"`
	Checks        int             `json:"checks"`
	Complete      bool            `json:"complete"`
	MenuRequested bool            `json:"menu_requested"`
	LastScore     *evaluate.Score `json:"last_score,omitempty"`
	Board         view.Snapshot   `json:"board"`
}

// session is one hosted board. mu serializes every operation on doc and
// view, which are not safe for concurrent use.
type session struct {
	mu sync.Mutex

	id       string
	playerID string
	puzzleID string
	locale   string
	doc      *memdom.Document
	view     *view.View

	checks    int
	complete  bool
	menu      bool
	lastScore *evaluate.Score
	lastSeen  time.Time
}

func (ss *session) state() SessionState {
	return SessionState{
		ID:            ss.id,
		PlayerID:      ss.playerID,
		PuzzleID:      ss.puzzleID,
		Locale:        ss.locale,
		Checks:        ss.checks,
		Complete:      ss.complete,
		MenuRequested: ss.menu,
		LastScore:     ss.lastScore,
		Board:         ss.view.Snapshot(),
	}
}

// CreateSession builds a board from the catalog or inline data.
func (s *Service) CreateSession(ctx context.Context, req CreateRequest) (SessionState, error) {
	s.mu.RLock()
	started, cat, strs := s.started, s.catalog, s.strings
	shuffle := s.shuffle
	s.mu.RUnlock()
	if !started {
		return SessionState{}, ErrNotStarted
	}

	var (
		data     puzzle.Data
		puzzleID = req.PuzzleID
	)
	switch {
	case req.PuzzleID != "":
		e, err := cat.Get(req.PuzzleID)
		if err != nil {
			return SessionState{}, err
		}
		data = e.Data()
	case req.Data != nil:
		data, puzzleID = *req.Data, InlinePuzzleID
	default:
		return SessionState{}, ErrMissingPuzzle
	}

	ss := &session{
		id:       uuid.NewString(),
		puzzleID: puzzleID,
		doc:      memdom.New(),
		lastSeen: s.now(),
	}
	ss.playerID = req.PlayerID
	if ss.playerID == "" {
		ss.playerID = guestPrefix + ss.id
	}
	labels := strs.WithLocale(req.Locale)
	ss.locale = labels.Locale()

	opts := []view.Option{
		view.WithStrings(labels),
		view.WithScoreSink(s.scoreSink(ss)),
		view.WithCompletionSink(func(ctx context.Context, _ puzzle.Data) {
			ss.complete = true
			s.logger.Info(ctx, "board completed",
				logger.String("session_id", ss.id),
				logger.String("player_id", ss.playerID),
			)
		}),
		view.WithMenuSink(func(context.Context) { ss.menu = true }),
	}
	if shuffle || req.Seed != nil {
		seed := time.Now().UnixNano()
		if req.Seed != nil {
			seed = *req.Seed
		}
		opts = append(opts, view.WithShuffle(rand.New(rand.NewSource(seed)))) //nolint:gosec // board order only
	}
	ss.view = view.New(ss.doc, nil, opts...)
	if err := ss.view.Init(ctx, data); err != nil {
		return SessionState{}, err
	}
	// read while the session is still private to this call
	st := ss.state()

	s.mu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("service", "too_many_sessions")
		return SessionState{}, ErrTooManySessions
	}
	s.sessions[ss.id] = ss
	active := len(s.sessions)
	s.mu.Unlock()

	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(active)
	s.logger.Info(ctx, "session created",
		logger.String("session_id", ss.id),
		logger.String("puzzle_id", puzzleID),
		logger.String("locale", ss.locale),
	)
	return st, nil
}

// scoreSink turns every check into a score report.
func (s *Service) scoreSink(ss *session) view.ScoreSink {
	return func(ctx context.Context, score evaluate.Score) {
		ss.checks++
		ss.lastScore = &score
		r := model.ScoreReport{
			ReportID:  uuid.NewString(),
			SessionID: ss.id,
			PlayerID:  ss.playerID,
			PuzzleID:  ss.puzzleID,
			Correct:   score.Correct,
			Incorrect: score.Incorrect,
			Moves:     len(ss.view.History()),
			Complete:  evaluate.IsComplete(score, score.Total()),
			TS:        s.now(),
		}
		if err := s.Submit(ctx, r); err != nil {
			s.logger.Warn(ctx, "score report dropped",
				logger.String("session_id", ss.id),
				logger.Error(err),
			)
		}
	}
}

// withSession runs fn under the session lock and refreshes its idle timer.
func (s *Service) withSession(id string, fn func(ss *session) error) (SessionState, error) {
	s.mu.RLock()
	ss, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return SessionState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.lastSeen = s.now()
	if fn != nil {
		if err := fn(ss); err != nil {
			return SessionState{}, err
		}
	}
	return ss.state(), nil
}

// Session returns the current state of a session.
func (s *Service) Session(_ context.Context, id string) (SessionState, error) {
	return s.withSession(id, nil)
}

// CheckResult is the outcome of a check.
type CheckResult struct {
	Score    evaluate.Score `json:"score"`
	Complete bool           `json:"complete"`
	State    SessionState   `json:"state"`
}

// Check evaluates the board.
func (s *Service) Check(ctx context.Context, id string) (CheckResult, error) {
	var res CheckResult
	st, err := s.withSession(id, func(ss *session) error {
		res.Score, res.Complete = ss.view.CheckAnswers(ctx)
		return nil
	})
	res.State = st
	return res, err
}

// Undo reverts the last move of a session.
func (s *Service) Undo(ctx context.Context, id string) (SessionState, bool, error) {
	var undone bool
	st, err := s.withSession(id, func(ss *session) error {
		undone = ss.view.Undo(ctx)
		return nil
	})
	return st, undone, err
}

// Render re-renders a session board without mutating it.
func (s *Service) Render(_ context.Context, id string) (SessionState, error) {
	return s.withSession(id, func(ss *session) error {
		ss.view.Render()
		return nil
	})
}

// Scroll sets the page scroll offset of a session document.
func (s *Service) Scroll(_ context.Context, id string, to dom.Point) (SessionState, error) {
	return s.withSession(id, func(ss *session) error {
		ss.doc.ScrollTo(to.X, to.Y)
		return nil
	})
}

// RectUpdate assigns a page-space rectangle to an element.
type RectUpdate struct {
	ID   string   `json:"id"`
	Rect dom.Rect `json:"rect"`
}

// Layout mirrors client-side element geometry into the session document.
// Either every update applies or none does.
func (s *Service) Layout(_ context.Context, id string, updates []RectUpdate) (SessionState, error) {
	return s.withSession(id, func(ss *session) error {
		els := make([]dom.Element, len(updates))
		for i, u := range updates {
			el := ss.doc.GetElementByID(u.ID)
			if el == nil {
				return fmt.Errorf("%w: %s", ErrElementNotFound, u.ID)
			}
			els[i] = el
		}
		for i, u := range updates {
			ss.doc.SetRect(els[i], u.Rect)
		}
		return nil
	})
}

// Reset replays the session puzzle from scratch.
func (s *Service) Reset(ctx context.Context, id string) (SessionState, error) {
	return s.withSession(id, func(ss *session) error {
		if err := ss.view.Reset(ctx); err != nil {
			return err
		}
		ss.complete, ss.menu, ss.lastScore = false, false, nil
		return nil
	})
}

// DeleteSession discards a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	metrics.UpdateActiveSessions(active)
	s.logger.Info(ctx, "session deleted", logger.String("session_id", id))
	return nil
}

// EvictIdle removes sessions idle since before now minus the TTL and
// returns how many were removed.
func (s *Service) EvictIdle(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.sessionTTL)

	s.mu.RLock()
	var stale []*session
	for _, ss := range s.sessions {
		stale = append(stale, ss)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, ss := range stale {
		ss.mu.Lock()
		idle := ss.lastSeen.Before(cutoff)
		ss.mu.Unlock()
		if !idle {
			continue
		}
		s.mu.Lock()
		if cur, ok := s.sessions[ss.id]; ok && cur == ss {
			delete(s.sessions, ss.id)
			evicted++
			metrics.RecordSessionEvicted()
		}
		s.mu.Unlock()
	}
	if evicted > 0 {
		s.mu.RLock()
		metrics.UpdateActiveSessions(len(s.sessions))
		s.mu.RUnlock()
		s.logger.Info(ctx, "idle sessions evicted", logger.Int("count", evicted))
	}
	return evicted
}

func (s *Service) janitor(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := max(s.sessionTTL/2, minJanitorInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.EvictIdle(context.Background(), s.now())
		}
	}
}
