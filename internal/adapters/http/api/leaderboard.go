package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// handleLeaderboard handles GET /leaderboard?limit=N. A missing limit
// returns the top ten.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			fail(w, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer, got %q", raw)))
			return
		}
		n = v
	}
	if n > s.maxLimit {
		fail(w, WrapKind(op, ErrLimit, fmt.Errorf("max %d", s.maxLimit)))
		return
	}
	entries, err := s.deps.TopN(r.Context(), n)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
