package asset

import (
	"fmt"

	"minipack/internal/source"
)

// ID identifies an asset inside one graph. IDs are dense, the entry is 0.
type ID uint32

// Import is one specifier exactly as written in the module source.
type Import struct {
	Specifier string
	Span      source.Span // the string literal, quotes included
}

// Asset is one loaded and transformed module occurrence.
type Asset struct {
	ID      ID
	Path    string // canonical absolute path, read from disk as is
	Key     string // dedupe key, see Key
	File    source.FileID
	Hash    [32]byte
	Imports []Import // source order, duplicates preserved
	Code    string   // CommonJS-shaped body, no import/export syntax
	Mapping *Mapping // nil until Link
}

// Specifiers returns the raw import specifiers in source order.
func (a *Asset) Specifiers() []string {
	out := make([]string, len(a.Imports))
	for i, imp := range a.Imports {
		out[i] = imp.Specifier
	}
	return out
}

// Link attaches the specifier mapping. A mapping is attached exactly once.
func (a *Asset) Link(m *Mapping) {
	if a.Mapping != nil {
		panic(fmt.Sprintf("asset %d (%s): mapping already attached", a.ID, a.Path))
	}
	if m == nil {
		m = NewMapping(0)
	}
	a.Mapping = m
}

// Linked reports whether Link was called.
func (a *Asset) Linked() bool {
	return a.Mapping != nil
}

func (a *Asset) String() string {
	return fmt.Sprintf("#%d %s", a.ID, a.Path)
}
