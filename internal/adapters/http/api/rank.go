package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleRank handles GET /rank/{player}.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	entry, err := s.deps.Rank(r.Context(), chi.URLParam(r, "player"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
