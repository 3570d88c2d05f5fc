// Package api exposes the sorting service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/okian/wordsort/internal/adapters/auth"
	"github.com/okian/wordsort/internal/adapters/catalog"
	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/adapters/http/swagger"
	"github.com/okian/wordsort/internal/adapters/repository"
	service "github.com/okian/wordsort/internal/app"
	"github.com/okian/wordsort/internal/domain/model"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/internal/domain/types"
	"github.com/okian/wordsort/pkg/logger"
)

const (
	defaultMaxLimit     = 100
	defaultLimit        = 10
	maxBodyBytes        = 1 << 20
	defaultHandlerLimit = 10 * time.Second
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, playerID string) (Entry, error)
	GetStats(ctx context.Context) service.Stats
	Puzzles() []catalog.Summary
	Issuer() *auth.Issuer
	IssueToken(playerID, name string) (string, auth.Player, time.Time, error)

	CreateSession(ctx context.Context, req service.CreateRequest) (service.SessionState, error)
	Session(ctx context.Context, id string) (service.SessionState, error)
	Dispatch(ctx context.Context, id string, req service.EventRequest) (service.DispatchResult, error)
	Check(ctx context.Context, id string) (service.CheckResult, error)
	Undo(ctx context.Context, id string) (service.SessionState, bool, error)
	Render(ctx context.Context, id string) (service.SessionState, error)
	Scroll(ctx context.Context, id string, to dom.Point) (service.SessionState, error)
	Layout(ctx context.Context, id string, updates []service.RectUpdate) (service.SessionState, error)
	Reset(ctx context.Context, id string) (service.SessionState, error)
	DeleteSession(ctx context.Context, id string) error
}

var _ Dependencies = (*service.Service)(nil)

// Server wires HTTP routes for the API.
type Server struct {
	deps     Dependencies
	maxLimit int
	timeout  time.Duration
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps GET /leaderboard?limit=.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithHandlerTimeout bounds every request.
func WithHandlerTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		maxLimit: defaultMaxLimit,
		timeout:  defaultHandlerLimit,
		logger:   logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(s.timeout))
	r.Use(RequestLogger(s.logger))
	r.Use(Metrics)
	if iss := s.deps.Issuer(); iss != nil {
		r.Use(iss.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusUnauthorized, "unauthorized", err)
		}))
	}

	r.Method(http.MethodGet, "/healthz", HandleHealth())
	r.Get("/stats", s.handleStats)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/rank/{player}", s.handleRank)
	r.Get("/puzzles", s.handlePuzzles)
	swagger.Register(r)
	if s.deps.Issuer() != nil {
		r.Post("/auth/token", s.handleToken)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/events", s.handleEvent)
			r.Post("/check", s.handleCheck)
			r.Post("/undo", s.handleUndo)
			r.Post("/render", s.handleRender)
			r.Post("/scroll", s.handleScroll)
			r.Put("/layout", s.handleLayout)
			r.Post("/reset", s.handleReset)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body. An empty body leaves v untouched when
// optional is set.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

var badRequestErrs = []error{ //nolint:gochecknoglobals // read-only lookup
	ErrBadRequest,
	service.ErrUnknownEvent,
	service.ErrMissingPuzzle,
	repository.ErrInvalidLimit,
	model.ErrInvalidReport,
	puzzle.ErrEmptyPuzzle,
	puzzle.ErrEmptyWord,
	puzzle.ErrDuplicateWord,
	puzzle.ErrEmptyCategory,
	puzzle.ErrDuplicateCategory,
	puzzle.ErrReservedCategory,
	puzzle.ErrUnknownCategory,
}

var notFoundErrs = []error{ //nolint:gochecknoglobals // read-only lookup
	service.ErrSessionNotFound,
	service.ErrElementNotFound,
	catalog.ErrPuzzleNotFound,
	repository.ErrNotFound,
	service.ErrAuthDisabled,
}

// fail maps an error to a status code and writes it.
func fail(w http.ResponseWriter, err error) {
	switch {
	case isAny(err, notFoundErrs):
		writeError(w, http.StatusNotFound, "not_found", err)
	case isAny(err, badRequestErrs):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrLimit):
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, service.ErrTooManySessions), errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrQueueUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
