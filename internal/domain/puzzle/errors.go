package puzzle

import "errors"

// Sentinel errors for malformed puzzle data.
var (
	ErrEmptyPuzzle       = errors.New("puzzle has no words or no categories")
	ErrEmptyWord         = errors.New("word text is empty")
	ErrDuplicateWord     = errors.New("duplicate word")
	ErrEmptyCategory     = errors.New("category id is empty")
	ErrDuplicateCategory = errors.New("duplicate category")
	ErrReservedCategory  = errors.New("category id is reserved")
	ErrUnknownCategory   = errors.New("unknown category")
)
