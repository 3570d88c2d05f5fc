// Package view renders a sorting board into a dom.Document and owns the
// event wiring that feeds the pointer and touch adapters.
//
// The placement store is the single source of truth. Every mutation goes
// through Propose or Undo and is followed by Render, which re-parents word
// tokens so the document mirrors the store. A View is not safe for
// concurrent use.
package view

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/adapters/input"
	"github.com/okian/wordsort/internal/adapters/input/pointer"
	"github.com/okian/wordsort/internal/adapters/input/touch"
	"github.com/okian/wordsort/internal/domain/evaluate"
	"github.com/okian/wordsort/internal/domain/placement"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/okian/wordsort/pkg/metrics"
)

// Element ids and classes of the rendered board.
const (
	BoardID       = "sorting-board"
	CheckButtonID = "check-answers"
	UndoButtonID  = "undo-move"
	MenuButtonID  = "back-to-menu"
	TokenPrefix   = "word-"
	BucketPrefix  = "bucket-"

	ClassToken     = "token"
	ClassBucket    = "bucket"
	ClassCorrect   = "correct"
	ClassIncorrect = "incorrect"
	ClassLocked    = "locked"
	ClassLabel     = "bucket-label"
)

// View is one sorting board.
type View struct {
	doc     dom.Document
	root    dom.Element
	logger  logger.Logger
	strings Strings
	rng     *rand.Rand

	onScore    ScoreSink
	onComplete CompletionSink
	onMenu     MenuSink

	puzzle   *puzzle.Puzzle
	store    *placement.Store
	registry *input.Registry
	pointer  *pointer.Adapter
	touch    *touch.Adapter
	board    dom.Element

	score   evaluate.Score
	checked bool
	locked  bool
}

var _ input.Proposer = (*View)(nil)

// New creates a view that renders under root.
func New(doc dom.Document, root dom.Element, opts ...Option) *View {
	v := &View{
		doc:      doc,
		root:     root,
		logger:   logger.Get().Named("view"),
		strings:  english,
		registry: input.NewRegistry(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.root == nil {
		v.root = doc.Body()
	}
	return v
}

// Init loads a puzzle and builds a fresh board, discarding any previous
// one. Malformed data leaves the previous board untouched, sends the
// player back to the menu and returns the validation error.
func (v *View) Init(ctx context.Context, data puzzle.Data) error {
	if v.rng != nil {
		data = puzzle.Shuffle(data, v.rng)
	}
	p, err := puzzle.New(data)
	if err != nil {
		metrics.RecordInitFailure()
		metrics.RecordErrorByComponent("view", "init")
		v.logger.Error(ctx, "invalid puzzle data", logger.Error(err))
		v.Menu(ctx)
		return fmt.Errorf("init board: %w", err)
	}

	if v.touch != nil {
		v.touch.TouchCancel(&dom.Event{Type: dom.EventTouchCancel})
	}
	if v.board != nil {
		v.board.Remove()
	}
	v.puzzle = p
	v.store = placement.New(p)
	v.registry.Reset()
	v.pointer = pointer.New(v.registry, v, pointer.WithLogger(v.logger.Named("pointer")))
	v.touch = touch.New(v.doc, v.registry, v, touch.WithLogger(v.logger.Named("touch")))
	v.score, v.checked, v.locked = evaluate.Score{}, false, false

	v.build()
	v.Render()
	v.logger.Info(ctx, "board ready",
		logger.Int("words", p.Len()),
		logger.Int("categories", len(p.Categories())),
	)
	return nil
}

func (v *View) build() {
	v.board = v.el("div", BoardID, "sorting-board")
	v.root.AppendChild(v.board)

	title := v.el("h2", "", "sorting-title")
	title.SetText(v.strings.Get(KeyTitle))
	v.board.AppendChild(title)

	bank := v.container(puzzle.WordBank, v.strings.Get(KeyWordBank))
	bank.AddClass("word-bank")
	v.board.AppendChild(bank)

	buckets := v.el("div", "", "buckets")
	v.board.AppendChild(buckets)
	for _, c := range v.puzzle.Categories() {
		buckets.AppendChild(v.container(c.ID, v.strings.Get(c.Label)))
	}

	for _, w := range v.puzzle.Words() {
		tok := v.el("span", TokenID(w.ID), ClassToken)
		tok.SetText(w.Text)
		tok.SetAttribute("data-word", w.ID)
		v.registry.RegisterToken(w.ID, tok)
		v.pointer.BindToken(tok)
		v.touch.BindToken(tok)
		bank.AppendChild(tok)
	}

	controls := v.el("div", "", "controls")
	v.board.AppendChild(controls)
	controls.AppendChild(v.button(CheckButtonID, KeyCheck, func(*dom.Event) {
		v.CheckAnswers(context.Background())
	}))
	controls.AppendChild(v.button(UndoButtonID, KeyUndo, func(*dom.Event) {
		v.Undo(context.Background())
	}))
	controls.AppendChild(v.button(MenuButtonID, KeyMenu, func(*dom.Event) {
		v.Menu(context.Background())
	}))
}

// ContainerID is the element id of the drop target for b. Containers and
// tokens use distinct prefixes so no word or category can shadow another
// element.
func ContainerID(b puzzle.Bucket) string { return BucketPrefix + string(b) }

// TokenID is the element id of the token for wordID.
func TokenID(wordID string) string { return TokenPrefix + wordID }

// container builds a drop target. Registration order is hit-test order:
// the word bank first, then categories.
func (v *View) container(b puzzle.Bucket, label string) dom.Element {
	el := v.el("div", ContainerID(b), ClassBucket)
	el.SetAttribute("data-bucket", string(b))
	heading := v.el("h3", "", ClassLabel)
	heading.SetText(label)
	el.AppendChild(heading)
	v.registry.RegisterContainer(b, el)
	v.pointer.BindContainer(el)
	return el
}

func (v *View) button(id, key string, fn dom.Listener) dom.Element {
	el := v.el("button", id, "control")
	el.SetText(v.strings.Get(key))
	el.AddEventListener(dom.EventClick, fn)
	return el
}

func (v *View) el(tag, id string, classes ...string) dom.Element {
	el := v.doc.CreateElement(tag)
	if id != "" {
		el.SetID(id)
	}
	el.AddClass(classes...)
	return el
}

// Propose applies a placement intent from either adapter. It reports false
// when the board is locked or the store rejected the move.
//
// A token whose bucket container left the document is rendered in the word
// bank while the store still records the old bucket. The adapters report
// the bank as the source in that case, so the recorded bucket is used
// instead.
func (v *View) Propose(in input.Intent) bool {
	if v.store == nil || v.locked {
		return false
	}
	from := in.From
	if cur, ok := v.store.Bucket(in.WordID); ok && cur != from {
		if _, live := v.attached(cur); !live {
			from = cur
		}
	}
	rec, ok := v.store.Move(in.WordID, from, in.To)
	if !ok {
		v.logger.Debug(context.Background(), "move ignored",
			logger.String("word", in.WordID),
			logger.String("from", string(from)),
			logger.String("to", string(in.To)),
		)
		return false
	}
	metrics.RecordMove(string(in.Source), rec.WasCorrectPlacement)
	v.Render()
	return true
}

// CheckAnswers evaluates the board, shows feedback and reports the score.
// A fully correct board is locked and handed to the completion sink. A
// locked board returns its final score without reporting again.
func (v *View) CheckAnswers(ctx context.Context) (evaluate.Score, bool) {
	if v.store == nil {
		return evaluate.Score{}, false
	}
	if v.locked {
		return v.score, true
	}

	fb, score := evaluate.Evaluate(v.store.Placements(), v.puzzle.Words())
	v.store.SetFeedback(fb)
	v.score, v.checked = score, true
	complete := evaluate.IsComplete(score, v.puzzle.Len())
	if complete {
		v.locked = true
	}
	v.Render()

	metrics.RecordCheck(score.Correct, score.Incorrect)
	v.logger.Info(ctx, "answers checked",
		logger.Int("correct", score.Correct),
		logger.Int("incorrect", score.Incorrect),
		logger.Bool("complete", complete),
	)
	if v.onScore != nil {
		v.onScore(ctx, score)
	}
	if complete {
		metrics.RecordCompletion()
		if v.onComplete != nil {
			v.onComplete(ctx, v.puzzle.Data())
		}
	}
	return score, complete
}

// Undo reverts the last move. Feedback styling is cleared even when there
// is nothing to undo.
func (v *View) Undo(ctx context.Context) bool {
	if v.store == nil || v.locked {
		return false
	}
	rec, ok := v.store.Undo()
	v.store.ClearFeedback()
	v.Render()
	if ok {
		metrics.RecordUndo()
		v.logger.Debug(ctx, "move undone",
			logger.String("word", rec.WordID),
			logger.String("to", string(rec.From)),
		)
	}
	return ok
}

// Menu hands control back to the outer application.
func (v *View) Menu(ctx context.Context) {
	if v.onMenu != nil {
		v.onMenu(ctx)
	}
}

// Reset replays the current puzzle from scratch.
func (v *View) Reset(ctx context.Context) error {
	if v.puzzle == nil {
		return puzzle.ErrEmptyPuzzle
	}
	return v.Init(ctx, v.puzzle.Data())
}

// Locked reports whether the board was completed.
func (v *View) Locked() bool { return v.locked }

// History returns the completed moves.
func (v *View) History() []placement.MoveRecord {
	if v.store == nil {
		return nil
	}
	return v.store.History()
}

// Data returns the loaded puzzle.
func (v *View) Data() puzzle.Data {
	if v.puzzle == nil {
		return puzzle.Data{}
	}
	return v.puzzle.Data()
}

// Pointer exposes the pointer adapter bound to this board.
func (v *View) Pointer() *pointer.Adapter { return v.pointer }

// Touch exposes the touch adapter bound to this board.
func (v *View) Touch() *touch.Adapter { return v.touch }
