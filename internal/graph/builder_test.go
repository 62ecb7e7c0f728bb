package graph

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"strings"
	"testing"

	"minipack/internal/asset"
	"minipack/internal/diag"
)

// memLoader serves modules from an in-memory path -> specifiers table.
type memLoader struct {
	files map[string][]string
	loads map[string]int
}

func newMemLoader(files map[string][]string) *memLoader {
	return &memLoader{files: files, loads: make(map[string]int)}
}

func (l *memLoader) Load(_ context.Context, path string) (*asset.Asset, error) {
	canon, err := asset.Canonical(path)
	if err != nil {
		return nil, err
	}
	specs, ok := l.files[canon]
	if !ok {
		cause := &fs.PathError{Op: "open", Path: canon, Err: fs.ErrNotExist}
		return nil, diag.Errorf(diag.BundleUnreadableSource, canon, cause, "cannot read module")
	}
	l.loads[canon]++
	a := &asset.Asset{Path: canon, Code: "// " + canon}
	for _, s := range specs {
		a.Imports = append(a.Imports, asset.Import{Specifier: s})
	}
	return a, nil
}

var diamond = map[string][]string{
	"/app/a.js": {"./b.js", "./c.js"},
	"/app/b.js": {"./d.js"},
	"/app/c.js": {"./d.js"},
	"/app/d.js": nil,
}

var cycle = map[string][]string{
	"/app/a.js": {"./b.js"},
	"/app/b.js": {"./a.js"},
}

func paths(g *Graph) []string {
	out := make([]string, g.Len())
	for i, a := range g.Assets {
		out[i] = a.Path
	}
	return out
}

func checkDense(t *testing.T, g *Graph) {
	t.Helper()
	for i, a := range g.Assets {
		if int(a.ID) != i {
			t.Fatalf("asset %d has id %d", i, a.ID)
		}
		if !a.Linked() {
			t.Fatalf("asset %d has no mapping", i)
		}
		for _, e := range a.Mapping.Entries() {
			if int(e.ID) >= g.Len() {
				t.Fatalf("asset %d maps %q to out-of-range id %d", i, e.Specifier, e.ID)
			}
		}
	}
}

func TestDiamond(t *testing.T) {
	tests := []struct {
		policy Policy
		want   []string
	}{
		{PolicyLiteral, []string{"/app/a.js", "/app/b.js", "/app/c.js", "/app/d.js", "/app/d.js"}},
		{PolicyDedupe, []string{"/app/a.js", "/app/b.js", "/app/c.js", "/app/d.js"}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			loader := newMemLoader(diamond)
			opts := DefaultOptions()
			opts.Policy = tt.policy
			g, err := NewBuilder(loader, opts).Build(context.Background(), "/app/a.js")
			if err != nil {
				t.Fatal(err)
			}
			checkDense(t, g)
			if got := paths(g); !slices.Equal(got, tt.want) {
				t.Errorf("assets = %v, want %v", got, tt.want)
			}
			if g.Assets[0].Path != "/app/a.js" {
				t.Errorf("entry is not id 0")
			}
			b, _ := g.Assets[1].Mapping.Get("./d.js")
			c, _ := g.Assets[2].Mapping.Get("./d.js")
			if tt.policy == PolicyDedupe && b != c {
				t.Errorf("dedupe: b and c should share d, got %d and %d", b, c)
			}
			if tt.policy == PolicyLiteral && b == c {
				t.Errorf("literal: b and c should get distinct copies of d")
			}
		})
	}
}

func TestSharedDependencyLoadedOnce(t *testing.T) {
	// c re-imports b; b must be loaded once
	loader := newMemLoader(map[string][]string{
		"/app/a.js": {"./b.js", "./c.js"},
		"/app/b.js": {"./d.js"},
		"/app/c.js": {"./b.js"},
		"/app/d.js": nil,
	})
	g, err := NewBuilder(loader, DefaultOptions()).Build(context.Background(), "/app/a.js")
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 4 {
		t.Errorf("dedupe graph has %d assets, want 4", g.Len())
	}
	if loader.loads["/app/b.js"] != 1 {
		t.Errorf("b.js loaded %d times, want once", loader.loads["/app/b.js"])
	}
}

func TestBreadthFirstOrder(t *testing.T) {
	loader := newMemLoader(map[string][]string{
		"/app/main.js":   {"./a.js", "./b.js"},
		"/app/a.js":      {"./deep/x.js"},
		"/app/b.js":      {"./deep/y.js"},
		"/app/deep/x.js": {"../b.js"},
		"/app/deep/y.js": nil,
	})
	g, err := NewBuilder(loader, DefaultOptions()).Build(context.Background(), "/app/main.js")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/app/main.js", "/app/a.js", "/app/b.js", "/app/deep/x.js", "/app/deep/y.js"}
	if got := paths(g); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if id, _ := g.Assets[3].Mapping.Get("../b.js"); id != 2 {
		t.Errorf("x.js maps ../b.js to %d, want 2", id)
	}
	if a, ok := g.Lookup("/app/deep/../b.js"); !ok || a.ID != 2 {
		t.Errorf("Lookup failed: %v %v", a, ok)
	}
	edges := g.Edges()
	if !slices.Equal(edges[0], []asset.ID{1, 2}) {
		t.Errorf("edges[0] = %v", edges[0])
	}
}

func TestCycles(t *testing.T) {
	t.Run("dedupe terminates and warns", func(t *testing.T) {
		bag := diag.NewBag(10)
		opts := DefaultOptions()
		opts.Reporter = diag.BagReporter{Bag: bag}
		g, err := NewBuilder(newMemLoader(cycle), opts).Build(context.Background(), "/app/a.js")
		if err != nil {
			t.Fatal(err)
		}
		if g.Len() != 2 {
			t.Fatalf("got %d assets, want 2", g.Len())
		}
		if id, _ := g.Assets[1].Mapping.Get("./a.js"); id != 0 {
			t.Errorf("b.js maps ./a.js to %d, want 0", id)
		}
		items := bag.Items()
		if len(items) != 1 || items[0].Code != diag.ProjImportCycle {
			t.Errorf("expected one cycle warning, got %v", items)
		}
	})

	t.Run("warning names only cycle members", func(t *testing.T) {
		bag := diag.NewBag(10)
		opts := DefaultOptions()
		opts.Reporter = diag.BagReporter{Bag: bag}
		twoCycles := map[string][]string{
			"/app/a.js":      {"./b.js"},
			"/app/b.js":      {"./a.js", "./bridge.js"},
			"/app/bridge.js": {"./c.js"},
			"/app/c.js":      {"./d.js"},
			"/app/d.js":      {"./c.js"},
		}
		if _, err := NewBuilder(newMemLoader(twoCycles), opts).Build(context.Background(), "/app/a.js"); err != nil {
			t.Fatal(err)
		}
		items := bag.Items()
		if len(items) != 1 {
			t.Fatalf("diagnostics = %v, want one cycle warning", items)
		}
		msg := items[0].Message
		if strings.Contains(msg, "bridge.js") {
			t.Errorf("warning %q names a module outside every cycle", msg)
		}
		for _, p := range []string{"/app/a.js", "/app/b.js", "/app/c.js", "/app/d.js"} {
			if !strings.Contains(msg, p) {
				t.Errorf("warning %q does not name %s", msg, p)
			}
		}
	})

	t.Run("dedupe without memoize fails", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Memoize = false
		_, err := NewBuilder(newMemLoader(cycle), opts).Build(context.Background(), "/app/a.js")
		if !errors.Is(err, diag.ErrCyclicGraphOverflow) {
			t.Fatalf("err = %v, want cyclic graph overflow", err)
		}
	})

	t.Run("literal fails", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Policy = PolicyLiteral
		_, err := NewBuilder(newMemLoader(cycle), opts).Build(context.Background(), "/app/a.js")
		if !errors.Is(err, diag.ErrCyclicGraphOverflow) {
			t.Fatalf("err = %v, want cyclic graph overflow", err)
		}
	})

	t.Run("self import", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Policy = PolicyLiteral
		loader := newMemLoader(map[string][]string{"/app/a.js": {"./a.js"}})
		_, err := NewBuilder(loader, opts).Build(context.Background(), "/app/a.js")
		if !errors.Is(err, diag.ErrCyclicGraphOverflow) {
			t.Fatalf("err = %v, want cyclic graph overflow", err)
		}
	})
}

func TestMaxModules(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = PolicyLiteral
	opts.MaxModules = 3
	_, err := NewBuilder(newMemLoader(diamond), opts).Build(context.Background(), "/app/a.js")
	if !errors.Is(err, diag.ErrCyclicGraphOverflow) {
		t.Fatalf("err = %v, want cyclic graph overflow", err)
	}
}

func TestMissingImport(t *testing.T) {
	loader := newMemLoader(map[string][]string{
		"/app/a.js": {"./b.js"},
		"/app/b.js": {"./missing.js"},
	})
	_, err := NewBuilder(loader, DefaultOptions()).Build(context.Background(), "/app/a.js")
	if !errors.Is(err, diag.ErrUnresolvedSpecifier) {
		t.Fatalf("err = %v, want unresolved specifier", err)
	}
	if !errors.Is(err, diag.ErrUnreadableSource) {
		t.Error("unresolved specifier should also match unreadable source")
	}
	de, _ := diag.AsError(err)
	if de.Path != "/app/b.js" {
		t.Errorf("error path = %q, want the importer", de.Path)
	}
}

func TestMissingEntry(t *testing.T) {
	_, err := NewBuilder(newMemLoader(nil), DefaultOptions()).Build(context.Background(), "/app/none.js")
	if !errors.Is(err, diag.ErrUnreadableSource) || errors.Is(err, diag.ErrUnresolvedSpecifier) {
		t.Fatalf("err = %v, want plain unreadable source", err)
	}
}

func TestDuplicateSpecifiers(t *testing.T) {
	files := map[string][]string{
		"/app/a.js": {"./b.js", "./c.js", "./b.js"},
		"/app/b.js": nil,
		"/app/c.js": nil,
	}

	t.Run("dedupe", func(t *testing.T) {
		bag := diag.NewBag(10)
		opts := DefaultOptions()
		opts.Reporter = diag.BagReporter{Bag: bag}
		g, err := NewBuilder(newMemLoader(files), opts).Build(context.Background(), "/app/a.js")
		if err != nil {
			t.Fatal(err)
		}
		if g.Len() != 3 || g.Assets[0].Mapping.Len() != 2 {
			t.Fatalf("len = %d, mapping = %v", g.Len(), g.Assets[0].Mapping.Keys())
		}
		if items := bag.Items(); len(items) != 1 || items[0].Code != diag.ProjDuplicateSpecifier {
			t.Errorf("expected a duplicate specifier note, got %v", items)
		}
	})

	t.Run("literal", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Policy = PolicyLiteral
		g, err := NewBuilder(newMemLoader(files), opts).Build(context.Background(), "/app/a.js")
		if err != nil {
			t.Fatal(err)
		}
		if g.Len() != 4 {
			t.Fatalf("got %d assets, want 4", g.Len())
		}
		m := g.Assets[0].Mapping
		if keys := m.Keys(); !slices.Equal(keys, []string{"./b.js", "./c.js"}) {
			t.Errorf("keys = %v", keys)
		}
		if id, _ := m.Get("./b.js"); id != 3 {
			t.Errorf("./b.js -> %d, want the last occurrence 3", id)
		}
	})
}

func TestNormalizationVariantsShareAsset(t *testing.T) {
	// only the decomposed spelling exists; the composed one must not be read
	files := map[string][]string{
		"/app/a.js":          {"./cafe\u0301.js", "./caf\u00e9.js"},
		"/app/cafe\u0301.js": nil,
	}
	l := newMemLoader(files)
	g, err := NewBuilder(l, DefaultOptions()).Build(context.Background(), "/app/a.js")
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Fatalf("assets = %v, want a.js and one café.js", paths(g))
	}
	if got := g.Assets[1].Path; got != "/app/cafe\u0301.js" {
		t.Errorf("asset 1 path = %q, want the on-disk spelling", got)
	}
	m := g.Assets[0].Mapping
	for _, spec := range []string{"./cafe\u0301.js", "./caf\u00e9.js"} {
		if id, _ := m.Get(spec); id != 1 {
			t.Errorf("%q -> %d, want 1", spec, id)
		}
	}
	if a, ok := g.Lookup("/app/caf\u00e9.js"); !ok || a.ID != 1 {
		t.Errorf("Lookup by composed spelling = %v, %v", a, ok)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(newMemLoader(diamond), DefaultOptions()).Build(ctx, "/app/a.js")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCycleMembers(t *testing.T) {
	tests := []struct {
		name  string
		edges [][]asset.ID
		want  []asset.ID
	}{
		{"acyclic", [][]asset.ID{{1, 2}, {2}, nil}, nil},
		{"two cycle", [][]asset.ID{{1}, {0}}, []asset.ID{0, 1}},
		{"tail into cycle", [][]asset.ID{{1}, {2}, {1}}, []asset.ID{1, 2}},
		{"cycle with leaf", [][]asset.ID{{1}, {0, 2}, nil}, []asset.ID{0, 1}},
		{"bridge between cycles", [][]asset.ID{{1}, {0, 2}, {3}, {4}, {3}}, []asset.ID{0, 1, 3, 4}},
		{"self import", [][]asset.ID{{1}, {1}}, []asset.ID{1}},
		{"diamond into cycle", [][]asset.ID{{1, 2}, {3}, {3}, {4}, {3}}, []asset.ID{3, 4}},
		{"one big cycle", [][]asset.ID{{1}, {2}, {3}, {0}}, []asset.ID{0, 1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cycleMembers(tt.edges); !slices.Equal(got, tt.want) {
				t.Errorf("cycleMembers = %v, want %v", got, tt.want)
			}
		})
	}
}
