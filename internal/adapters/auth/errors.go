package auth

import "errors"

// Sentinel kinds for token errors.
var (
	ErrNoSecret     = errors.New("signing secret not configured")
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)
