// Package placement holds the authoritative word -> bucket state of one
// puzzle session together with its undo history and check feedback.
//
// A Store is owned by exactly one view and is not safe for concurrent use;
// callers serialise access the same way a DOM event loop would.
package placement

import (
	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/puzzle"
)

// MoveRecord is one completed move.
type MoveRecord struct {
	WordID              string        `json:"word_id"`
	From                puzzle.Bucket `json:"from"`
	To                  puzzle.Bucket `json:"to"`
	WasCorrectPlacement bool          `json:"was_correct_placement"`
}

// Store maps every word to exactly one bucket.
type Store struct {
	puzzle     *puzzle.Puzzle
	placements map[string]puzzle.Bucket
	history    []MoveRecord

	feedback       evaluate.Feedback
	feedbackActive bool
}

// New creates a store with every word in the word bank.
func New(p *puzzle.Puzzle) *Store {
	s := &Store{puzzle: p}
	s.Reset()
	return s
}

// Move reassigns wordID from one bucket to another. It is a no-op, reported
// by ok == false, when from equals to, the word or target is unknown, or from
// no longer matches the word's current bucket.
func (s *Store) Move(wordID string, from, to puzzle.Bucket) (rec MoveRecord, ok bool) {
	if from == to || !s.puzzle.Valid(to) {
		return MoveRecord{}, false
	}
	w, known := s.puzzle.Word(wordID)
	if !known || s.placements[wordID] != from {
		return MoveRecord{}, false
	}

	s.placements[wordID] = to
	rec = MoveRecord{
		WordID:              wordID,
		From:                from,
		To:                  to,
		WasCorrectPlacement: to != puzzle.WordBank && to == w.Category,
	}
	s.history = append(s.history, rec)
	s.ClearFeedback()
	return rec, true
}

// Undo pops the last move and restores its source bucket.
func (s *Store) Undo() (MoveRecord, bool) {
	n := len(s.history)
	if n == 0 {
		return MoveRecord{}, false
	}
	rec := s.history[n-1]
	s.history = s.history[:n-1]
	s.placements[rec.WordID] = rec.From
	s.ClearFeedback()
	return rec, true
}

// Reset puts every word back in the word bank and forgets history and feedback.
func (s *Store) Reset() {
	words := s.puzzle.Words()
	s.placements = make(map[string]puzzle.Bucket, len(words))
	for _, w := range words {
		s.placements[w.ID] = puzzle.WordBank
	}
	s.history = nil
	s.ClearFeedback()
}

// Bucket returns the current bucket of wordID.
func (s *Store) Bucket(wordID string) (puzzle.Bucket, bool) {
	b, ok := s.placements[wordID]
	return b, ok
}

// Placements returns a copy of the placement map.
func (s *Store) Placements() map[string]puzzle.Bucket {
	out := make(map[string]puzzle.Bucket, len(s.placements))
	for k, v := range s.placements {
		out[k] = v
	}
	return out
}

// History returns a copy of the move history, oldest first.
func (s *Store) History() []MoveRecord {
	out := make([]MoveRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Len is the number of moves in the history.
func (s *Store) Len() int { return len(s.history) }

// Words returns the puzzle words in load order.
func (s *Store) Words() []puzzle.Word { return s.puzzle.Words() }

// Puzzle returns the puzzle the store was built for.
func (s *Store) Puzzle() *puzzle.Puzzle { return s.puzzle }

// SetFeedback activates check feedback. An empty map leaves feedback inactive.
func (s *Store) SetFeedback(fb evaluate.Feedback) {
	if len(fb) == 0 {
		s.ClearFeedback()
		return
	}
	s.feedback = make(evaluate.Feedback, len(fb))
	for k, v := range fb {
		s.feedback[k] = v
	}
	s.feedbackActive = true
}

// Feedback returns the mark of every word while feedback is active, or nil.
func (s *Store) Feedback() evaluate.Feedback {
	if !s.feedbackActive {
		return nil
	}
	out := make(evaluate.Feedback, len(s.feedback))
	for k, v := range s.feedback {
		out[k] = v
	}
	return out
}

// FeedbackActive reports whether a check result is currently shown.
func (s *Store) FeedbackActive() bool { return s.feedbackActive }

// ClearFeedback drops any check result.
func (s *Store) ClearFeedback() {
	s.feedback = nil
	s.feedbackActive = false
}
