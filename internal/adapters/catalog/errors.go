package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrPuzzleNotFound  = errors.New("puzzle not found")
	ErrDuplicatePuzzle = errors.New("duplicate puzzle id")
	ErrInvalidPuzzle   = errors.New("invalid puzzle")
)
