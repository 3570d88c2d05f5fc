package view

import (
	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/puzzle"
)

// Render makes the document mirror the store: every token becomes a child
// of the container for its bucket and carries feedback classes only while
// feedback is active. Tokens already in place are not touched, so a second
// Render without a mutation in between changes nothing.
func (v *View) Render() {
	if v.store == nil {
		return
	}
	bank, hasBank := v.attached(puzzle.WordBank)
	fb := v.store.Feedback()

	for _, w := range v.puzzle.Words() {
		tok, ok := v.registry.Token(w.ID)
		if !ok {
			continue
		}
		b, _ := v.store.Bucket(w.ID)
		target, ok := v.attached(b)
		if !ok {
			// stale or renamed bucket
			if !hasBank {
				continue
			}
			target = bank
		}
		if tok.Parent() != target {
			target.AppendChild(tok)
		}

		switch fb[w.ID] {
		case evaluate.Correct:
			tok.RemoveClass(ClassIncorrect)
			tok.AddClass(ClassCorrect)
		case evaluate.Incorrect:
			tok.RemoveClass(ClassCorrect)
			tok.AddClass(ClassIncorrect)
		default:
			tok.RemoveClass(ClassCorrect, ClassIncorrect)
		}
	}

	if v.board != nil {
		if v.locked {
			v.board.AddClass(ClassLocked)
		} else {
			v.board.RemoveClass(ClassLocked)
		}
	}
}

// attached returns the container for b if it is still in the document.
func (v *View) attached(b puzzle.Bucket) (dom.Element, bool) {
	el, ok := v.registry.Container(b)
	if !ok || !dom.Contains(v.doc.Body(), el) {
		return nil, false
	}
	return el, true
}

// Snapshot is the board as read back from the document.
type Snapshot struct {
	Buckets        []BucketSnapshot `json:"buckets"`
	History        int              `json:"history"`
	FeedbackActive bool             `json:"feedback_active"`
	Locked         bool             `json:"locked"`
	Score          *evaluate.Score  `json:"score,omitempty"`
	Scroll         dom.Point        `json:"scroll"`
}

// BucketSnapshot lists the tokens rendered inside one container.
type BucketSnapshot struct {
	ID        puzzle.Bucket   `json:"id"`
	ElementID string          `json:"element_id"`
	Label     string          `json:"label"`
	Rect      dom.Rect        `json:"rect"`
	Attached  bool            `json:"attached"`
	Tokens    []TokenSnapshot `json:"tokens"`
}

// TokenSnapshot is one rendered word.
type TokenSnapshot struct {
	WordID    string   `json:"word_id"`
	ElementID string   `json:"element_id"`
	Text      string   `json:"text"`
	Mark      string   `json:"mark"`
	Rect      dom.Rect `json:"rect"`
}

// Snapshot reads bucket membership from the document in hit-test order.
func (v *View) Snapshot() Snapshot {
	s := Snapshot{
		Locked: v.locked,
		Scroll: v.doc.Scroll(),
	}
	if v.store == nil {
		return s
	}
	s.History = v.store.Len()
	s.FeedbackActive = v.store.FeedbackActive()
	if v.checked {
		score := v.score
		s.Score = &score
	}

	for _, c := range v.registry.Containers() {
		bs := BucketSnapshot{
			ID:        c.Bucket,
			ElementID: c.Element.ID(),
			Rect:      c.Element.BoundingClientRect(),
			Attached:  dom.Contains(v.doc.Body(), c.Element),
			Tokens:    []TokenSnapshot{},
		}
		for _, child := range c.Element.Children() {
			if child.HasClass(ClassLabel) {
				bs.Label = child.Text()
				continue
			}
			id, tok, ok := v.registry.TokenOf(child)
			if !ok || tok != child {
				continue
			}
			bs.Tokens = append(bs.Tokens, TokenSnapshot{
				WordID:    id,
				ElementID: tok.ID(),
				Text:      tok.Text(),
				Mark:      markOf(tok).String(),
				Rect:      tok.BoundingClientRect(),
			})
		}
		s.Buckets = append(s.Buckets, bs)
	}
	return s
}

func markOf(tok dom.Element) evaluate.Mark {
	switch {
	case tok.HasClass(ClassCorrect):
		return evaluate.Correct
	case tok.HasClass(ClassIncorrect):
		return evaluate.Incorrect
	default:
		return evaluate.None
	}
}

// Membership maps every rendered word to the bucket whose container holds it.
func (s Snapshot) Membership() map[string]puzzle.Bucket {
	out := make(map[string]puzzle.Bucket)
	for _, b := range s.Buckets {
		for _, t := range b.Tokens {
			out[t.WordID] = b.ID
		}
	}
	return out
}
