package sortbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	service "github.com/okian/wordsort/internal/app"
	"github.com/okian/wordsort/internal/domain/types"
)

// errTokensDisabled is returned when the server does not route /auth/token.
var errTokensDisabled = errors.New("tokens disabled")

// APIError is a non-2xx reply.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to one wordsort server.
type Client struct {
	base  string
	http  *http.Client
	token string
}

func newClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// withToken returns a copy that authenticates as token.
func (c *Client) withToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Health hits /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Token asks for a player token. errTokensDisabled means the server runs
// without an issuer and trusts the body player id.
func (c *Client) Token(ctx context.Context, playerID string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/token", map[string]string{"player_id": playerID}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return "", errTokensDisabled
	}
	return out.Token, err
}

// CreateSession opens a board.
func (c *Client) CreateSession(ctx context.Context, req service.CreateRequest) (service.SessionState, error) {
	var st service.SessionState
	err := c.do(ctx, http.MethodPost, "/sessions", req, &st)
	return st, err
}

// Dispatch fires one event.
func (c *Client) Dispatch(ctx context.Context, id string, ev service.EventRequest) (service.DispatchResult, error) {
	var res service.DispatchResult
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/events", ev, &res)
	return res, err
}

// Layout reports element rectangles.
func (c *Client) Layout(ctx context.Context, id string, rects []service.RectUpdate) error {
	body := map[string]any{"rects": rects}
	return c.do(ctx, http.MethodPut, "/sessions/"+url.PathEscape(id)+"/layout", body, nil)
}

// Check evaluates the board.
func (c *Client) Check(ctx context.Context, id string) (service.CheckResult, error) {
	var res service.CheckResult
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/check", nil, &res)
	return res, err
}

// DeleteSession discards a board.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// Rank fetches one player's entry.
func (c *Client) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	var e types.Entry
	err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(playerID), nil, &e)
	return e, err
}

// Leaderboard fetches the top n entries.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	var out []types.Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", n), nil, &out)
	return out, err
}
