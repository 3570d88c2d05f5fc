// Package input holds what the pointer and touch adapters share: the
// placement intent they emit, the Proposer that consumes it, and the
// registry of bucket containers and word tokens they resolve against.
package input

import (
	"github.com/okian/wordsort/internal/adapters/dom"
	"github.com/okian/wordsort/internal/domain/puzzle"
)

// Source names the device an intent came from.
type Source string

// Intent sources.
const (
	SourcePointer Source = "pointer"
	SourceTouch   Source = "touch"
)

// Intent asks for one word to move between buckets.
type Intent struct {
	WordID string
	From   puzzle.Bucket
	To     puzzle.Bucket
	Source Source
}

// Proposer applies placement intents. It returns false when the intent
// was ignored.
type Proposer interface {
	Propose(in Intent) bool
}

// ProposerFunc adapts a function to Proposer.
type ProposerFunc func(Intent) bool

// Propose calls f.
func (f ProposerFunc) Propose(in Intent) bool { return f(in) }

// Container is a registered drop target.
type Container struct {
	Bucket  puzzle.Bucket
	Element dom.Element
}

// Registry maps DOM elements to buckets and words. Containers keep their
// registration order, which is the hit-test order.
type Registry struct {
	containers []Container
	byElement  map[dom.Element]puzzle.Bucket
	tokens     map[dom.Element]string
	byWord     map[string]dom.Element
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset forgets every registration.
func (r *Registry) Reset() {
	r.containers = nil
	r.byElement = make(map[dom.Element]puzzle.Bucket)
	r.tokens = make(map[dom.Element]string)
	r.byWord = make(map[string]dom.Element)
}

// RegisterContainer adds el as the drop target for b.
func (r *Registry) RegisterContainer(b puzzle.Bucket, el dom.Element) {
	if el == nil {
		return
	}
	if _, dup := r.byElement[el]; dup {
		return
	}
	r.byElement[el] = b
	r.containers = append(r.containers, Container{Bucket: b, Element: el})
}

// RegisterToken associates el with wordID.
func (r *Registry) RegisterToken(wordID string, el dom.Element) {
	if el == nil {
		return
	}
	r.tokens[el] = wordID
	r.byWord[wordID] = el
}

// Containers returns the registered containers in registration order.
func (r *Registry) Containers() []Container {
	out := make([]Container, len(r.containers))
	copy(out, r.containers)
	return out
}

// Container returns the container registered for b.
func (r *Registry) Container(b puzzle.Bucket) (dom.Element, bool) {
	for _, c := range r.containers {
		if c.Bucket == b {
			return c.Element, true
		}
	}
	return nil, false
}

// ContainerOf walks up from el to the nearest registered container.
func (r *Registry) ContainerOf(el dom.Element) (Container, bool) {
	for n := el; n != nil; n = n.Parent() {
		if b, ok := r.byElement[n]; ok {
			return Container{Bucket: b, Element: n}, true
		}
	}
	return Container{}, false
}

// TokenOf walks up from el to the nearest registered word token.
func (r *Registry) TokenOf(el dom.Element) (string, dom.Element, bool) {
	for n := el; n != nil; n = n.Parent() {
		if id, ok := r.tokens[n]; ok {
			return id, n, true
		}
	}
	return "", nil, false
}

// Token returns the token element for wordID.
func (r *Registry) Token(wordID string) (dom.Element, bool) {
	el, ok := r.byWord[wordID]
	return el, ok
}

// HitTest returns the first container, in registration order, that is
// attached under root and whose current client rectangle contains p. A nil
// root skips the attachment check.
func (r *Registry) HitTest(root dom.Element, p dom.Point) (Container, bool) {
	for _, c := range r.containers {
		if root != nil && !dom.Contains(root, c.Element) {
			continue
		}
		if c.Element.BoundingClientRect().Contains(p) {
			return c, true
		}
	}
	return Container{}, false
}
