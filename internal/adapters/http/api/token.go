package api

import (
	"net/http"
	"time"
)

type tokenRequest struct {
	PlayerID string `json:"player_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	PlayerID  string    `json:"player_id"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleToken handles POST /auth/token. An empty body issues a token for a
// generated player id.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	const op = "api.issue_token"
	var req tokenRequest
	if err := decode(w, r, &req, true); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	tok, p, exp, err := s.deps.IssueToken(req.PlayerID, req.Name)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: tok, PlayerID: p.ID, Name: p.Name, ExpiresAt: exp})
}
