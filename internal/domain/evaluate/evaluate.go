// Package evaluate computes correctness of a board against its answer key.
// It holds no state; every call recomputes from the placement map.
package evaluate

import "github.com/okian/wordsort/internal/domain/puzzle"

// Mark is the feedback state of a single word.
type Mark int

// Feedback marks.
const (
	None Mark = iota
	Correct
	Incorrect
)

func (m Mark) String() string {
	switch m {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "none"
	}
}

// Feedback maps word id to its mark.
type Feedback map[string]Mark

// Score is the aggregate result of one check.
type Score struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Total is the number of words evaluated.
func (s Score) Total() int { return s.Correct + s.Incorrect }

// Evaluate marks every word. A word is correct iff its bucket equals its
// true category; words still in the word bank, or missing from the map,
// count as incorrect.
func Evaluate(placements map[string]puzzle.Bucket, words []puzzle.Word) (Feedback, Score) {
	fb := make(Feedback, len(words))
	var s Score
	for _, w := range words {
		b, ok := placements[w.ID]
		if ok && b != puzzle.WordBank && b == w.Category {
			fb[w.ID] = Correct
			s.Correct++
			continue
		}
		fb[w.ID] = Incorrect
		s.Incorrect++
	}
	return fb, s
}

// IsComplete reports whether every word is correctly placed.
func IsComplete(s Score, total int) bool {
	return total > 0 && s.Correct == total
}
