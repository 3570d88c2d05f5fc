// Package dom is the narrow document model the sorting engine renders into
// and receives events from. It mirrors the browser DOM surface the engine
// needs: element tree, ids, classes, inline styles, client rectangles,
// page scroll and bubbling event listeners.
package dom

// Listener handles one dispatched event.
type Listener func(ev *Event)

// Element is a node in the document tree.
type Element interface {
	ID() string
	SetID(id string)
	Tag() string
	Text() string
	SetText(text string)

	Parent() Element
	Children() []Element
	// AppendChild moves child under this element, detaching it from any
	// previous parent first.
	AppendChild(child Element)
	// Remove detaches the element from its parent.
	Remove()
	CloneNode(deep bool) Element

	AddClass(names ...string)
	RemoveClass(names ...string)
	HasClass(name string) bool
	Classes() []string

	SetStyle(prop, value string)
	Style(prop string) string
	SetAttribute(name, value string)
	Attribute(name string) string

	// BoundingClientRect is the element's rectangle in viewport coordinates
	// at the moment of the call.
	BoundingClientRect() Rect

	AddEventListener(eventType string, fn Listener)
}

// Document owns the element tree.
type Document interface {
	CreateElement(tag string) Element
	// GetElementByID finds an element attached under Body; detached
	// elements are never returned.
	GetElementByID(id string) Element
	Body() Element
	// Scroll is the current page scroll offset (pageXOffset, pageYOffset).
	Scroll() Point
}

// Contains reports whether child is el or one of its descendants.
func Contains(el, child Element) bool {
	for n := child; n != nil; n = n.Parent() {
		if n == el {
			return true
		}
	}
	return false
}
