// Package puzzle defines the immutable word-sorting puzzle model: words,
// categories and the buckets a word can be placed into.
package puzzle

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

// WordBank is the bucket holding every unassigned word.
const WordBank Bucket = "word-bank"

// Bucket is a placement target: the word bank or a category id.
type Bucket string

// Word is a single token to sort. ID is derived from Text with Slug.
type Word struct {
	ID       string
	Text     string
	Category Bucket
}

// Category is a scoring bucket shown to the player.
type Category struct {
	ID    Bucket
	Label string
}

// Entry is one raw {word, category} pair as supplied by the puzzle source.
type Entry struct {
	Word     string `json:"word" yaml:"word"`
	Category string `json:"category" yaml:"category"`
}

// CategoryEntry is one raw {categoryId, categoryLabel} pair.
type CategoryEntry struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Data is the raw puzzle payload handed to the engine at init.
type Data struct {
	Words      []Entry         `json:"words" yaml:"words"`
	Categories []CategoryEntry `json:"categories" yaml:"categories"`
}

// Puzzle is a validated, immutable puzzle.
type Puzzle struct {
	words      []Word
	categories []Category
	byID       map[string]int
	buckets    map[Bucket]struct{}
	data       Data
}

// Slug normalises text into a stable identifier: lower case, letters and
// digits kept, every other run of characters collapsed into a single dash.
func Slug(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// New validates data and builds a Puzzle.
func New(data Data) (*Puzzle, error) {
	if len(data.Words) == 0 || len(data.Categories) == 0 {
		return nil, ErrEmptyPuzzle
	}

	p := &Puzzle{
		words:      make([]Word, 0, len(data.Words)),
		categories: make([]Category, 0, len(data.Categories)),
		byID:       make(map[string]int, len(data.Words)),
		buckets:    map[Bucket]struct{}{WordBank: {}},
		data:       cloneData(data),
	}

	for _, c := range data.Categories {
		id := Bucket(Slug(c.ID))
		switch {
		case id == "":
			return nil, fmt.Errorf("category %q: %w", c.ID, ErrEmptyCategory)
		case id == WordBank:
			return nil, fmt.Errorf("category %q: %w", c.ID, ErrReservedCategory)
		}
		if _, dup := p.buckets[id]; dup {
			return nil, fmt.Errorf("category %q: %w", c.ID, ErrDuplicateCategory)
		}
		label := c.Label
		if strings.TrimSpace(label) == "" {
			label = c.ID
		}
		p.buckets[id] = struct{}{}
		p.categories = append(p.categories, Category{ID: id, Label: label})
	}

	for _, e := range data.Words {
		id := Slug(e.Word)
		if id == "" {
			return nil, fmt.Errorf("word %q: %w", e.Word, ErrEmptyWord)
		}
		if _, dup := p.byID[id]; dup {
			return nil, fmt.Errorf("word %q: %w", e.Word, ErrDuplicateWord)
		}
		cat := Bucket(Slug(e.Category))
		if _, ok := p.buckets[cat]; !ok || cat == WordBank {
			return nil, fmt.Errorf("word %q category %q: %w", e.Word, e.Category, ErrUnknownCategory)
		}
		p.byID[id] = len(p.words)
		p.words = append(p.words, Word{ID: id, Text: strings.TrimSpace(e.Word), Category: cat})
	}

	return p, nil
}

// Shuffle returns a copy of data with the word order permuted by rng.
// Categories keep their order so bucket registration stays stable.
func Shuffle(data Data, rng *rand.Rand) Data {
	out := cloneData(data)
	if rng == nil {
		return out
	}
	rng.Shuffle(len(out.Words), func(i, j int) {
		out.Words[i], out.Words[j] = out.Words[j], out.Words[i]
	})
	return out
}

// Words returns the words in load order.
func (p *Puzzle) Words() []Word {
	out := make([]Word, len(p.words))
	copy(out, p.words)
	return out
}

// Categories returns the categories in load order.
func (p *Puzzle) Categories() []Category {
	out := make([]Category, len(p.categories))
	copy(out, p.categories)
	return out
}

// Word looks a word up by id.
func (p *Puzzle) Word(id string) (Word, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Word{}, false
	}
	return p.words[i], true
}

// Valid reports whether b is the word bank or a known category.
func (p *Puzzle) Valid(b Bucket) bool {
	_, ok := p.buckets[b]
	return ok
}

// Data returns a copy of the raw payload the puzzle was built from.
func (p *Puzzle) Data() Data {
	return cloneData(p.data)
}

// Len is the number of words.
func (p *Puzzle) Len() int { return len(p.words) }

func cloneData(d Data) Data {
	out := Data{
		Words:      make([]Entry, len(d.Words)),
		Categories: make([]CategoryEntry, len(d.Categories)),
	}
	copy(out.Words, d.Words)
	copy(out.Categories, d.Categories)
	return out
}
