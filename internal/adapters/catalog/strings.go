package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed strings.yaml
var builtinStrings []byte

// FallbackLocale is consulted when a key is missing in the selected locale.
const FallbackLocale = "en"

// Strings is a locale-keyed label table. Get never fails: a missing key
// resolves to the key itself.
type Strings struct {
	tables map[string]map[string]string
	locale string
}

// BuiltinStrings returns the embedded table.
func BuiltinStrings(locale string) (*Strings, error) {
	return LoadStrings(bytes.NewReader(builtinStrings), locale)
}

// LoadStringsFile reads a table from path, or the built-in one when path
// is empty.
func LoadStringsFile(path, locale string) (*Strings, error) {
	if path == "" {
		return BuiltinStrings(locale)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open strings: %w", err)
	}
	defer f.Close()
	return LoadStrings(f, locale)
}

// LoadStrings decodes a YAML document of the form locale -> key -> text.
func LoadStrings(r io.Reader, locale string) (*Strings, error) {
	tables := make(map[string]map[string]string)
	if err := yaml.NewDecoder(r).Decode(&tables); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode strings: %w", err)
	}
	s := &Strings{tables: make(map[string]map[string]string, len(tables))}
	for loc, t := range tables {
		s.tables[normalizeLocale(loc)] = t
	}
	s.locale = normalizeLocale(locale)
	return s, nil
}

// Get resolves key in the selected locale, then the fallback locale.
func (s *Strings) Get(key string) string {
	if s == nil {
		return key
	}
	if v, ok := s.tables[s.locale][key]; ok {
		return v
	}
	if v, ok := s.tables[FallbackLocale][key]; ok {
		return v
	}
	return key
}

// Locale returns the selected locale.
func (s *Strings) Locale() string { return s.locale }

// Locales lists the loaded locales.
func (s *Strings) Locales() []string {
	out := make([]string, 0, len(s.tables))
	for loc := range s.tables {
		out = append(out, loc)
	}
	return out
}

// WithLocale returns a view of the same tables for another locale. Unknown
// locales resolve through the fallback.
func (s *Strings) WithLocale(locale string) *Strings {
	if locale == "" {
		return s
	}
	return &Strings{tables: s.tables, locale: normalizeLocale(locale)}
}

// normalizeLocale maps "de-DE", "de_DE" and "DE" to "de".
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if locale == "" {
		return FallbackLocale
	}
	return locale
}
