package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/wordsort/internal/adapters/auth"
	"github.com/okian/wordsort/internal/adapters/dom"
	service "github.com/okian/wordsort/internal/app"
)

type undoResponse struct {
	Undone bool                 `json:"undone"`
	State  service.SessionState `json:"state"`
}

type layoutRequest struct {
	Rects []service.RectUpdate `json:"rects"`
}

// handleCreateSession handles POST /sessions. A verified token decides the
// player; the body player_id is only honored when tokens are disabled.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req service.CreateRequest
	if err := decode(w, r, &req, false); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if p, ok := auth.PlayerFrom(r.Context()); ok {
		req.PlayerID = p.ID
	} else if s.deps.Issuer() != nil {
		req.PlayerID = ""
	}

	st, err := s.deps.CreateSession(r.Context(), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, Wrap("api.delete_session", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent handles POST /sessions/{id}/events.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.dispatch_event"
	var req service.EventRequest
	if err := decode(w, r, &req, false); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := s.deps.Dispatch(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Check(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.check", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	st, undone, err := s.deps.Undo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.undo", err))
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Undone: undone, State: st})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Render(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.render", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	const op = "api.scroll"
	var to dom.Point
	if err := decode(w, r, &to, false); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := s.deps.Scroll(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.layout"
	var req layoutRequest
	if err := decode(w, r, &req, false); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := s.deps.Layout(r.Context(), chi.URLParam(r, "id"), req.Rects)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, Wrap("api.reset", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
