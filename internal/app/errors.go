package service

import "errors"

// Sentinel errors returned by Service. The HTTP layer maps them to status
// codes with errors.Is.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("too many sessions")
	ErrElementNotFound  = errors.New("element not found")
	ErrUnknownEvent     = errors.New("unknown event type")
	ErrMissingPuzzle    = errors.New("puzzle id or data required")
	ErrAuthDisabled     = errors.New("token issuing disabled")
	ErrQueueUnavailable = errors.New("score queue unavailable")
)
