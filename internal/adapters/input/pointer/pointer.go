// Package pointer turns native drag-and-drop events into placement intents.
package pointer

import (
	"context"

	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/adapters/input"
	"github.com/okian/wordsort/pkg/logger"
	"github.com/okian/wordsort/pkg/metrics"
)

// Adapter tracks one pending drag subject at a time.
type Adapter struct {
	registry *input.Registry
	proposer input.Proposer
	logger   logger.Logger

	pending    string
	pendingEl  dom.Element
	hasPending bool
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

// New creates a pointer adapter resolving against registry and emitting
// to proposer.
func New(registry *input.Registry, proposer input.Proposer, opts ...Option) *Adapter {
	a := &Adapter{
		registry: registry,
		proposer: proposer,
		logger:   logger.Get().Named("pointer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DragStart records the dragged token's word as the pending subject.
func (a *Adapter) DragStart(ev *dom.Event) {
	id, el, ok := a.registry.TokenOf(ev.Target)
	if !ok {
		return
	}
	a.pending, a.pendingEl, a.hasPending = id, el, true
}

// DragOver marks the container as a valid drop target.
func (a *Adapter) DragOver(ev *dom.Event) {
	ev.PreventDefault()
}

// Drop resolves the container under the event target and proposes a move
// for the pending subject. The subject is cleared whatever the outcome.
func (a *Adapter) Drop(ev *dom.Event) {
	ev.PreventDefault()
	if !a.hasPending {
		return
	}
	id, el := a.pending, a.pendingEl
	a.clear()

	to, ok := a.registry.ContainerOf(ev.Target)
	if !ok {
		return
	}
	from, ok := a.registry.ContainerOf(el.Parent())
	if !ok || from.Bucket == to.Bucket {
		metrics.RecordMoveNoop(string(input.SourcePointer))
		return
	}

	a.logger.Debug(context.Background(), "pointer drop",
		logger.String("word", id),
		logger.String("from", string(from.Bucket)),
		logger.String("to", string(to.Bucket)),
	)
	a.proposer.Propose(input.Intent{WordID: id, From: from.Bucket, To: to.Bucket, Source: input.SourcePointer})
}

// DragEnd clears the pending subject; a drag that ends without a drop
// changes nothing.
func (a *Adapter) DragEnd(*dom.Event) {
	a.clear()
}

// Pending returns the pending subject, if any.
func (a *Adapter) Pending() (string, bool) {
	return a.pending, a.hasPending
}

// BindToken wires the adapter onto a word token.
func (a *Adapter) BindToken(el dom.Element) {
	el.SetAttribute("draggable", "true")
	el.AddEventListener(dom.EventDragStart, a.DragStart)
	el.AddEventListener(dom.EventDragEnd, a.DragEnd)
}

// BindContainer wires the adapter onto a bucket container.
func (a *Adapter) BindContainer(el dom.Element) {
	el.AddEventListener(dom.EventDragOver, a.DragOver)
	el.AddEventListener(dom.EventDrop, a.Drop)
}

func (a *Adapter) clear() {
	a.pending, a.pendingEl, a.hasPending = "", nil, false
}
