package dom

// Event types the engine listens for.
const (
	EventDragStart   = "dragstart"
	EventDragOver    = "dragover"
	EventDrop        = "drop"
	EventDragEnd     = "dragend"
	EventTouchStart  = "touchstart"
	EventTouchMove   = "touchmove"
	EventTouchEnd    = "touchend"
	EventTouchCancel = "touchcancel"
	EventClick       = "click"
)

// Touch is a single contact point in viewport coordinates.
type Touch struct {
	Identifier int     `json:"identifier"`
	ClientX    float64 `json:"client_x"`
	ClientY    float64 `json:"client_y"`
}

// Client returns the touch position as a Point.
func (t Touch) Client() Point { return Point{X: t.ClientX, Y: t.ClientY} }

// Event is a dispatched DOM event. Target is the element the event was
// fired at; CurrentTarget is the element whose listener is running.
type Event struct {
	Type          string
	Target        Element
	CurrentTarget Element

	ClientX float64
	ClientY float64

	// Touches are the contacts still on the surface; ChangedTouches the
	// ones that triggered this event (the lifted finger on touchend).
	Touches        []Touch
	ChangedTouches []Touch

	defaultPrevented bool
	stopped          bool
}

// PreventDefault suppresses the platform default (no-drop cursor, touch
// scrolling).
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops bubbling after the current listener.
func (e *Event) StopPropagation() { e.stopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// FirstTouch returns Touches[0], falling back to ChangedTouches[0].
func (e *Event) FirstTouch() (Touch, bool) {
	if len(e.Touches) > 0 {
		return e.Touches[0], true
	}
	if len(e.ChangedTouches) > 0 {
		return e.ChangedTouches[0], true
	}
	return Touch{}, false
}

// ChangedTouch returns ChangedTouches[0], falling back to Touches[0].
func (e *Event) ChangedTouch() (Touch, bool) {
	if len(e.ChangedTouches) > 0 {
		return e.ChangedTouches[0], true
	}
	if len(e.Touches) > 0 {
		return e.Touches[0], true
	}
	return Touch{}, false
}
