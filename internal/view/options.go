package view

import (
	"context"
	"math/rand"

	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/pkg/logger"
)

// ScoreSink receives the session score after every check.
type ScoreSink func(ctx context.Context, score evaluate.Score)

// CompletionSink receives the full puzzle once every word is placed correctly.
type CompletionSink func(ctx context.Context, data puzzle.Data)

// MenuSink returns the player to the outer application's menu.
type MenuSink func(ctx context.Context)

// Strings resolves label text. Implementations return the key itself when
// no translation exists.
type Strings interface {
	Get(key string) string
}

// Label keys looked up through Strings. Category headings are looked up by
// their label text.
const (
	KeyTitle    = "sort.title"
	KeyWordBank = "sort.word_bank"
	KeyCheck    = "sort.check"
	KeyUndo     = "sort.undo"
	KeyMenu     = "sort.menu"
)

type defaultStrings map[string]string

func (d defaultStrings) Get(key string) string {
	if s, ok := d[key]; ok {
		return s
	}
	return key
}

var english = defaultStrings{ //nolint:gochecknoglobals // read-only fallback table
	KeyTitle:    "Sort the words",
	KeyWordBank: "Words",
	KeyCheck:    "Check answers",
	KeyUndo:     "Undo",
	KeyMenu:     "Menu",
}

// Option configures a View.
type Option func(*View)

// WithScoreSink sets the callback invoked after every check.
func WithScoreSink(fn ScoreSink) Option {
	return func(v *View) { v.onScore = fn }
}

// WithCompletionSink sets the callback invoked when the board is solved.
func WithCompletionSink(fn CompletionSink) Option {
	return func(v *View) { v.onComplete = fn }
}

// WithMenuSink sets the callback used to leave the board.
func WithMenuSink(fn MenuSink) Option {
	return func(v *View) { v.onMenu = fn }
}

// WithStrings sets the label lookup.
func WithStrings(s Strings) Option {
	return func(v *View) {
		if s != nil {
			v.strings = s
		}
	}
}

// WithLogger sets the view logger.
func WithLogger(l logger.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithShuffle shuffles word order with rng on every Init.
func WithShuffle(rng *rand.Rand) Option {
	return func(v *View) { v.rng = rng }
}
