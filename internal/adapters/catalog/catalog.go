// Package catalog loads named sorting puzzles and localized label tables
// from YAML. A built-in catalog is embedded for when no file is configured.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/okian/wordsort/internal/domain/puzzle"
	"gopkg.in/yaml.v3"
)

//go:embed puzzles.yaml
var builtinPuzzles []byte

// Entry is one named puzzle.
type Entry struct {
	ID         string                 `yaml:"id" json:"id"`
	Title      string                 `yaml:"title" json:"title"`
	Weight     float64                `yaml:"weight,omitempty" json:"weight,omitempty"`
	Categories []puzzle.CategoryEntry `yaml:"categories" json:"categories"`
	Words      []puzzle.Entry         `yaml:"words" json:"words"`
}

// Data returns the puzzle data handed to the view.
func (e Entry) Data() puzzle.Data {
	return puzzle.Data{Words: e.Words, Categories: e.Categories}
}

// Summary describes a puzzle without its answer key.
type Summary struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Words      int     `json:"words"`
	Categories int     `json:"categories"`
	Weight     float64 `json:"weight,omitempty"`
}

type document struct {
	Puzzles []Entry `yaml:"puzzles"`
}

// Catalog is a read-mostly set of validated puzzles.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
	order   []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Builtin returns the embedded catalog.
func Builtin() (*Catalog, error) {
	return Load(bytes.NewReader(builtinPuzzles))
}

// LoadFile reads a catalog from path, or the built-in one when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog and validates every puzzle in it.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := New()
	for _, e := range doc.Puzzles {
		if err := c.Add(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add validates e and stores it under its id.
func (c *Catalog) Add(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPuzzle)
	}
	if _, err := puzzle.New(e.Data()); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPuzzle, e.ID, err)
	}
	if e.Weight < 0 {
		return fmt.Errorf("%w %q: negative weight", ErrInvalidPuzzle, e.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.entries[e.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicatePuzzle, e.ID)
	}
	c.entries[e.ID] = e
	c.order = append(c.order, e.ID)
	return nil
}

// Get returns the puzzle with the given id.
func (c *Catalog) Get(id string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrPuzzleNotFound, id)
	}
	return e, nil
}

// List returns summaries in load order.
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Summary, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		out = append(out, Summary{
			ID:         e.ID,
			Title:      e.Title,
			Words:      len(e.Words),
			Categories: len(e.Categories),
			Weight:     e.Weight,
		})
	}
	return out
}

// Weights returns the per-puzzle weights declared in the catalog.
func (c *Catalog) Weights() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64)
	for id, e := range c.entries {
		if e.Weight > 0 {
			out[id] = e.Weight
		}
	}
	return out
}

// Len is the number of puzzles.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IDs returns the puzzle ids sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
