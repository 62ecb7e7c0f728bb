// Package metafile describes a finished bundle: which modules went in, what
// each one imported and how large the result is.
package metafile

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"minipack/internal/graph"
)

// SchemaVersion is bumped whenever the Metafile layout changes.
const SchemaVersion uint16 = 1

// Metafile is the machine-readable record of one build.
type Metafile struct {
	Schema  uint16   `json:"schema" msgpack:"schema"`
	Entry   string   `json:"entry" msgpack:"entry"`
	Policy  string   `json:"policy" msgpack:"policy"`
	Memoize bool     `json:"memoize" msgpack:"memoize"`
	Digest  string   `json:"digest" msgpack:"digest"` // graph fingerprint
	Modules []Module `json:"modules" msgpack:"modules"`
	Output  *Output  `json:"output,omitempty" msgpack:"output,omitempty"`
}

// Module is one entry of the module table.
type Module struct {
	ID        uint32   `json:"id" msgpack:"id"`
	Path      string   `json:"path" msgpack:"path"`
	Bytes     int      `json:"bytes" msgpack:"bytes"`          // source size
	CodeBytes int      `json:"codeBytes" msgpack:"code_bytes"` // lowered size
	SHA256    string   `json:"sha256" msgpack:"sha256"`
	Imports   []Import `json:"imports" msgpack:"imports"`
}

// Import is one resolved specifier.
type Import struct {
	Specifier string `json:"specifier" msgpack:"specifier"`
	ID        uint32 `json:"id" msgpack:"id"`
	Path      string `json:"path" msgpack:"path"`
}

// Output describes the written artifact.
type Output struct {
	Path  string `json:"path" msgpack:"path"`
	Bytes int    `json:"bytes" msgpack:"bytes"`
}

// SizeFunc reports the source size of an asset's file.
type SizeFunc func(path string) int

// FromGraph records g. size may be nil, in which case source sizes are 0.
func FromGraph(g *graph.Graph, memoize bool, size SizeFunc) *Metafile {
	m := &Metafile{
		Schema:  SchemaVersion,
		Entry:   g.Entry,
		Policy:  g.Policy.String(),
		Memoize: memoize,
		Digest:  g.DigestHex(),
		Modules: make([]Module, 0, g.Len()),
	}
	for _, a := range g.Assets {
		mod := Module{
			ID:        uint32(a.ID),
			Path:      a.Path,
			CodeBytes: len(a.Code),
			SHA256:    hex.EncodeToString(a.Hash[:]),
			Imports:   make([]Import, 0, a.Mapping.Len()),
		}
		if size != nil {
			mod.Bytes = size(a.Path)
		}
		for _, e := range a.Mapping.Entries() {
			mod.Imports = append(mod.Imports, Import{
				Specifier: e.Specifier,
				ID:        uint32(e.ID),
				Path:      g.Assets[e.ID].Path,
			})
		}
		m.Modules = append(m.Modules, mod)
	}
	return m
}

// Format selects the metafile encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

func (f Format) String() string {
	if f == FormatMsgpack {
		return "msgpack"
	}
	return "json"
}

// Ext returns the conventional file extension.
func (f Format) Ext() string {
	if f == FormatMsgpack {
		return ".meta.mp"
	}
	return ".meta.json"
}

// ParseFormat accepts "json" and "msgpack".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return FormatJSON, fmt.Errorf("unknown metafile format %q (expected json|msgpack)", s)
	}
}

// Encode writes m to w.
func Encode(w io.Writer, m *Metafile, format Format) error {
	if format == FormatMsgpack {
		return msgpack.NewEncoder(w).Encode(m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Decode reads a metafile and rejects unknown schema versions.
func Decode(r io.Reader, format Format) (*Metafile, error) {
	var m Metafile
	var err error
	if format == FormatMsgpack {
		err = msgpack.NewDecoder(r).Decode(&m)
	} else {
		err = json.NewDecoder(r).Decode(&m)
	}
	if err != nil {
		return nil, fmt.Errorf("decode metafile: %w", err)
	}
	if m.Schema != SchemaVersion {
		return nil, fmt.Errorf("metafile schema %d, expected %d", m.Schema, SchemaVersion)
	}
	return &m, nil
}
