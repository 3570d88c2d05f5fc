// Package memdom is an in-memory implementation of the dom package used to
// host sorting sessions on the server and in tests.
//
// Layout is not computed: the host assigns page-space rectangles with
// SetRect (typically mirrored from the real client), and absolutely
// positioned elements derive theirs from their left/top/width/height styles.
package memdom

import (
	"slices"
	"strconv"
	"strings"

	"github.com/okian/wordsort/internal/adapters/dom"
)

// Document is an in-memory dom.Document.
type Document struct {
	body   *Node
	scroll dom.Point
}

// New creates an empty document with a body element.
func New() *Document {
	d := &Document{}
	d.body = d.newNode("body")
	return d
}

// Node is an in-memory dom.Element.
type Node struct {
	doc      *Document
	id       string
	tag      string
	text     string
	parent   *Node
	children []*Node
	classes  []string
	style    map[string]string
	attrs    map[string]string
	rect     dom.Rect

	listeners map[string][]dom.Listener
}

var (
	_ dom.Document = (*Document)(nil)
	_ dom.Element  = (*Node)(nil)
)

func (d *Document) newNode(tag string) *Node {
	return &Node{
		doc:       d,
		tag:       strings.ToLower(tag),
		style:     make(map[string]string),
		attrs:     make(map[string]string),
		listeners: make(map[string][]dom.Listener),
	}
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) dom.Element { return d.newNode(tag) }

// Body is the document root.
func (d *Document) Body() dom.Element { return d.body }

// Scroll returns the page scroll offset.
func (d *Document) Scroll() dom.Point { return d.scroll }

// ScrollTo sets the page scroll offset.
func (d *Document) ScrollTo(x, y float64) { d.scroll = dom.Point{X: x, Y: y} }

// GetElementByID does a depth-first search of the attached tree.
func (d *Document) GetElementByID(id string) dom.Element {
	if id == "" {
		return nil
	}
	if n := d.body.find(id); n != nil {
		return n
	}
	return nil
}

// SetRect assigns the page-space rectangle of el. It reports false for
// elements that do not belong to this document.
func (d *Document) SetRect(el dom.Element, r dom.Rect) bool {
	n, ok := el.(*Node)
	if !ok || n.doc != d {
		return false
	}
	n.rect = r
	return true
}

// Dispatch fires ev at target and bubbles it up to the body. It returns
// false if a listener called PreventDefault.
func (d *Document) Dispatch(target dom.Element, ev *dom.Event) bool {
	n, ok := target.(*Node)
	if !ok || n.doc != d {
		return true
	}
	ev.Target = target
	for cur := n; cur != nil; cur = cur.parent {
		ls := slices.Clone(cur.listeners[ev.Type])
		ev.CurrentTarget = cur
		for _, fn := range ls {
			fn(ev)
		}
		if ev.PropagationStopped() {
			break
		}
	}
	ev.CurrentTarget = nil
	return !ev.DefaultPrevented()
}

func (n *Node) find(id string) *Node {
	if n.id == id {
		return n
	}
	for _, c := range n.children {
		if f := c.find(id); f != nil {
			return f
		}
	}
	return nil
}

// ID returns the element id.
func (n *Node) ID() string { return n.id }

// SetID sets the element id.
func (n *Node) SetID(id string) { n.id = id }

// Tag returns the lower-case tag name.
func (n *Node) Tag() string { return n.tag }

// Text returns the element's own text.
func (n *Node) Text() string { return n.text }

// SetText sets the element's own text.
func (n *Node) SetText(text string) { n.text = text }

// Parent returns the parent or nil.
func (n *Node) Parent() dom.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []dom.Element {
	out := make([]dom.Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// AppendChild moves child to the end of n's children.
func (n *Node) AppendChild(child dom.Element) {
	c, ok := child.(*Node)
	if !ok || c == n || c.doc != n.doc {
		return
	}
	// refuse cycles
	for p := n; p != nil; p = p.parent {
		if p == c {
			return
		}
	}
	c.Remove()
	c.parent = n
	n.children = append(n.children, c)
}

// Remove detaches n.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// CloneNode copies n. Listeners are not copied, matching the browser.
func (n *Node) CloneNode(deep bool) dom.Element {
	c := n.doc.newNode(n.tag)
	c.id = n.id
	c.text = n.text
	c.rect = n.rect
	c.classes = slices.Clone(n.classes)
	for k, v := range n.style {
		c.style[k] = v
	}
	for k, v := range n.attrs {
		c.attrs[k] = v
	}
	if deep {
		for _, ch := range n.children {
			cc := ch.CloneNode(true).(*Node)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// AddClass adds names not already present.
func (n *Node) AddClass(names ...string) {
	for _, name := range names {
		if name != "" && !slices.Contains(n.classes, name) {
			n.classes = append(n.classes, name)
		}
	}
}

// RemoveClass removes names.
func (n *Node) RemoveClass(names ...string) {
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool {
		return slices.Contains(names, c)
	})
}

// HasClass reports whether name is set.
func (n *Node) HasClass(name string) bool { return slices.Contains(n.classes, name) }

// Classes returns a copy of the class list.
func (n *Node) Classes() []string { return slices.Clone(n.classes) }

// SetStyle sets an inline style; an empty value removes it.
func (n *Node) SetStyle(prop, value string) {
	if value == "" {
		delete(n.style, prop)
		return
	}
	n.style[prop] = value
}

// Style returns an inline style value.
func (n *Node) Style(prop string) string { return n.style[prop] }

// SetAttribute sets an attribute; an empty value removes it.
func (n *Node) SetAttribute(name, value string) {
	if value == "" {
		delete(n.attrs, name)
		return
	}
	n.attrs[name] = value
}

// Attribute returns an attribute value.
func (n *Node) Attribute(name string) string { return n.attrs[name] }

// AddEventListener registers fn for eventType.
func (n *Node) AddEventListener(eventType string, fn dom.Listener) {
	if fn == nil {
		return
	}
	n.listeners[eventType] = append(n.listeners[eventType], fn)
}

// BoundingClientRect converts the page rectangle to viewport coordinates
// using the document's current scroll offset.
func (n *Node) BoundingClientRect() dom.Rect {
	r := n.rect
	if n.style["position"] == "absolute" {
		if v, ok := px(n.style["left"]); ok {
			r.Left = v
		}
		if v, ok := px(n.style["top"]); ok {
			r.Top = v
		}
		if v, ok := px(n.style["width"]); ok {
			r.Width = v
		}
		if v, ok := px(n.style["height"]); ok {
			r.Height = v
		}
	}
	s := n.doc.scroll
	return r.Offset(dom.Point{X: -s.X, Y: -s.Y})
}

func px(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
