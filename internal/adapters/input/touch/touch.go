// Package touch emulates drag-and-drop for touch input. A floating ghost
// clone follows the finger and the drop target is found by hit-testing the
// release point against every registered container's live rectangle.
package touch

import (
	"context"

	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/adapters/input"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/okian/wordsort/pkg/metrics"
)

// State of the drag gesture.
type State int

// Gesture states.
const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Defaults for the lifted token and its ghost.
const (
	GhostClass    = "ghost"
	LiftedOpacity = "0.5"
	ghostZIndex   = "1000"
)

// Adapter is the touch drag state machine for one board.
type Adapter struct {
	doc      dom.Document
	registry *input.Registry
	proposer input.Proposer
	logger   logger.Logger

	state   State
	wordID  string
	subject dom.Element
	ghost   dom.Element
	offset  dom.Point
	opacity string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates a touch adapter.
func New(doc dom.Document, registry *input.Registry, proposer input.Proposer, opts ...Option) *Adapter {
	a := &Adapter{
		doc:      doc,
		registry: registry,
		proposer: proposer,
		logger:   logger.Get().Named("touch"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current gesture state.
func (a *Adapter) State() State { return a.state }

// Ghost returns the floating clone while dragging.
func (a *Adapter) Ghost() dom.Element { return a.ghost }

// TouchStart lifts the token under the finger and creates its ghost.
func (a *Adapter) TouchStart(ev *dom.Event) {
	if a.state == Dragging {
		return
	}
	t, ok := ev.FirstTouch()
	if !ok {
		return
	}
	id, el, ok := a.registry.TokenOf(ev.Target)
	if !ok {
		return
	}
	ev.PreventDefault()

	rect := el.BoundingClientRect()
	a.offset = t.Client().Sub(rect.Origin())
	a.wordID, a.subject = id, el
	a.opacity = el.Style("opacity")

	g := el.CloneNode(true)
	g.SetID("")
	g.AddClass(GhostClass)
	g.SetAttribute("draggable", "")
	g.SetStyle("position", "absolute")
	g.SetStyle("pointer-events", "none")
	g.SetStyle("z-index", ghostZIndex)
	g.SetStyle("width", dom.Px(rect.Width))
	g.SetStyle("height", dom.Px(rect.Height))
	a.ghost = g
	a.place(t)
	a.doc.Body().AppendChild(g)

	el.SetStyle("opacity", LiftedOpacity)
	a.state = Dragging
}

// TouchMove keeps the ghost under the finger.
func (a *Adapter) TouchMove(ev *dom.Event) {
	if a.state != Dragging {
		return
	}
	ev.PreventDefault()
	if t, ok := ev.FirstTouch(); ok {
		a.place(t)
	}
}

// TouchEnd drops the lifted word on the container under the release point.
func (a *Adapter) TouchEnd(ev *dom.Event) {
	if a.state != Dragging {
		return
	}
	ev.PreventDefault()
	id, el := a.wordID, a.subject
	defer a.finish()

	t, ok := ev.ChangedTouch()
	if !ok {
		return
	}
	to, ok := a.Resolve(t.Client())
	if !ok {
		metrics.RecordTouchDrop("miss")
		return
	}
	from, ok := a.registry.ContainerOf(el.Parent())
	if !ok || from.Bucket == to.Bucket {
		metrics.RecordTouchDrop("same")
		metrics.RecordMoveNoop(string(input.SourceTouch))
		return
	}

	metrics.RecordTouchDrop("hit")
	a.logger.Debug(context.Background(), "touch drop",
		logger.String("word", id),
		logger.String("from", string(from.Bucket)),
		logger.String("to", string(to.Bucket)),
	)
	a.proposer.Propose(input.Intent{WordID: id, From: from.Bucket, To: to.Bucket, Source: input.SourceTouch})
}

// TouchCancel abandons the gesture without moving anything.
func (a *Adapter) TouchCancel(*dom.Event) {
	if a.state != Dragging {
		return
	}
	metrics.RecordTouchDrop("cancel")
	a.finish()
}

// Resolve hit-tests p (viewport coordinates) against the registered
// containers in registration order using their current rectangles.
// Containers removed from the document never match.
func (a *Adapter) Resolve(p dom.Point) (input.Container, bool) {
	return a.registry.HitTest(a.doc.Body(), p)
}

// BindToken wires the adapter onto a word token.
func (a *Adapter) BindToken(el dom.Element) {
	el.AddEventListener(dom.EventTouchStart, a.TouchStart)
	el.AddEventListener(dom.EventTouchMove, a.TouchMove)
	el.AddEventListener(dom.EventTouchEnd, a.TouchEnd)
	el.AddEventListener(dom.EventTouchCancel, a.TouchCancel)
}

// place positions the ghost in page coordinates so the finger keeps the
// offset it had inside the token when the drag began.
func (a *Adapter) place(t dom.Touch) {
	if a.ghost == nil {
		return
	}
	pos := t.Client().Sub(a.offset).Add(a.doc.Scroll())
	a.ghost.SetStyle("left", dom.Px(pos.X))
	a.ghost.SetStyle("top", dom.Px(pos.Y))
}

func (a *Adapter) finish() {
	if a.ghost != nil {
		a.ghost.Remove()
	}
	if a.subject != nil {
		a.subject.SetStyle("opacity", a.opacity)
	}
	a.wordID, a.subject, a.ghost = "", nil, nil
	a.offset, a.opacity = dom.Point{}, ""
	a.state = Idle
}
