package testkit

import (
	"fmt"
	"strconv"

	"minipack/internal/graph"
	"minipack/internal/source"
)

// CheckGraph runs the structural invariants every built graph must satisfy:
// 1) ids are dense, Assets[i].ID == i, and the entry is asset 0
// 2) every asset is linked and every mapping value names an existing asset
// 3) every written specifier has a binding in its asset's mapping
func CheckGraph(g *graph.Graph) error {
	if g == nil || g.Len() == 0 {
		return fmt.Errorf("empty graph")
	}
	if g.Assets[0].Path != g.Entry {
		return fmt.Errorf("asset 0 is %s, entry is %s", g.Assets[0].Path, g.Entry)
	}
	for i, a := range g.Assets {
		if int(a.ID) != i {
			return fmt.Errorf("asset at %d has id %d", i, a.ID)
		}
		if !a.Linked() {
			return fmt.Errorf("asset %d (%s) is not linked", i, a.Path)
		}
		for _, e := range a.Mapping.Entries() {
			if int(e.ID) >= g.Len() {
				return fmt.Errorf("asset %d maps %q to %d, only %d assets", i, e.Specifier, e.ID, g.Len())
			}
		}
		for _, spec := range a.Specifiers() {
			if _, ok := a.Mapping.Get(spec); !ok {
				return fmt.Errorf("asset %d: specifier %q has no binding", i, spec)
			}
		}
	}
	return nil
}

// CheckImportSpans verifies that each import span of every asset lies inside
// its file and covers the quoted specifier.
func CheckImportSpans(g *graph.Graph, files *source.FileSet) error {
	for _, a := range g.Assets {
		f := files.Get(a.File)
		for _, imp := range a.Imports {
			sp := imp.Span
			if sp.File != f.ID {
				return fmt.Errorf("%s: span of %q points to file %d", a.Path, imp.Specifier, sp.File)
			}
			if sp.End <= sp.Start || int(sp.End) > len(f.Content) {
				return fmt.Errorf("%s: span %v of %q out of bounds", a.Path, sp, imp.Specifier)
			}
			lit := string(f.Content[sp.Start:sp.End])
			got, err := strconv.Unquote(`"` + lit[1:len(lit)-1] + `"`)
			if err != nil || got != imp.Specifier {
				return fmt.Errorf("%s: span covers %s, want %q", a.Path, lit, imp.Specifier)
			}
		}
	}
	return nil
}
