package graph

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"minipack/internal/asset"
	"minipack/internal/diag"
	"minipack/internal/trace"
)

// DefaultMaxModules bounds PolicyLiteral graphs.
const DefaultMaxModules = 10000

// Loader produces one asset per call. *asset.Loader implements it.
type Loader interface {
	Load(ctx context.Context, path string) (*asset.Asset, error)
}

// Options configure a Builder.
type Options struct {
	Policy     Policy
	MaxModules int  // 0 means DefaultMaxModules
	Memoize    bool // whether the emitted runtime caches module exports
	Reporter   diag.Reporter
}

// DefaultOptions returns the dedupe policy with a memoizing runtime.
func DefaultOptions() Options {
	return Options{Policy: PolicyDedupe, MaxModules: DefaultMaxModules, Memoize: true}
}

// Builder runs graph discovery. A Builder holds no per-run state and may be
// reused, but each Build call is sequential.
type Builder struct {
	loader Loader
	opts   Options
}

// NewBuilder creates a Builder.
func NewBuilder(loader Loader, opts Options) *Builder {
	if opts.MaxModules <= 0 {
		opts.MaxModules = DefaultMaxModules
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	return &Builder{loader: loader, opts: opts}
}

// run is the state of one Build call.
type run struct {
	*Builder
	tracer trace.Tracer
	span   uint64

	assets []*asset.Asset
	byPath map[string]asset.ID
	parent map[asset.ID]asset.ID // literal policy: importer of each non-entry asset
}

// Build discovers every module reachable from entry.
// Any failure aborts the run and no partial graph is returned.
func (b *Builder) Build(ctx context.Context, entry string) (g *Graph, err error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "graph", trace.ParentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)
	defer func() {
		if err != nil {
			span.End("failed")
			return
		}
		span.WithExtra("policy", g.Policy.String())
		span.End(strconv.Itoa(g.Len()) + " assets")
	}()

	r := &run{
		Builder: b,
		tracer:  tracer,
		span:    span.ID(),
		byPath:  make(map[string]asset.ID),
		parent:  make(map[asset.ID]asset.ID),
	}

	root, err := b.loader.Load(ctx, entry)
	if err != nil {
		return nil, err
	}
	r.add(root)

	// FIFO: ids are handed out in the order modules are reached
	for next := 0; next < len(r.assets); next++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := r.assets[next]
		var m *asset.Mapping
		if b.opts.Policy == PolicyLiteral {
			m, err = r.expandLiteral(ctx, a)
		} else {
			m, err = r.expandDedupe(ctx, a)
		}
		if err != nil {
			return nil, err
		}
		a.Link(m)
	}

	g = &Graph{
		Entry:  root.Path,
		Policy: b.opts.Policy,
		Assets: r.assets,
		byPath: r.byPath,
	}
	if b.opts.Policy == PolicyDedupe {
		if err := r.checkCycles(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (r *run) add(a *asset.Asset) {
	id, err := safecast.Conv[asset.ID](len(r.assets))
	if err != nil {
		panic(fmt.Errorf("asset id overflow: %w", err))
	}
	a.ID = id
	r.assets = append(r.assets, a)
	key := a.Key
	if key == "" {
		key = asset.Key(a.Path)
	}
	if _, seen := r.byPath[key]; !seen {
		r.byPath[key] = id
	}
}

func (r *run) expandDedupe(ctx context.Context, a *asset.Asset) (*asset.Mapping, error) {
	m := asset.NewMapping(len(a.Imports))
	for _, imp := range a.Imports {
		if _, dup := m.Get(imp.Specifier); dup {
			d := diag.New(diag.SevInfo, diag.ProjDuplicateSpecifier, a.Path,
				fmt.Sprintf("%q is imported more than once", imp.Specifier))
			if hasSpan(imp) {
				d = d.At(imp.Span)
			}
			r.opts.Reporter.Report(d)
			continue
		}
		p, err := r.resolve(a, imp)
		if err != nil {
			return nil, err
		}
		if id, seen := r.byPath[asset.Key(p)]; seen {
			m.Set(imp.Specifier, id)
			continue
		}
		child, err := r.load(ctx, a, imp, p)
		if err != nil {
			return nil, err
		}
		r.add(child)
		m.Set(imp.Specifier, child.ID)
	}
	return m, nil
}

func (r *run) expandLiteral(ctx context.Context, a *asset.Asset) (*asset.Mapping, error) {
	m := asset.NewMapping(len(a.Imports))
	for _, imp := range a.Imports {
		p, err := r.resolve(a, imp)
		if err != nil {
			return nil, err
		}
		if chain, cyclic := r.ancestry(a, p); cyclic {
			e := diag.Errorf(diag.BundleCyclicGraphOverflow, a.Path, nil,
				"import cycle cannot be bundled without deduplication: %s", chain)
			if hasSpan(imp) {
				e.Diagnostic = e.At(imp.Span)
			}
			return nil, e
		}
		if len(r.assets) >= r.opts.MaxModules {
			return nil, diag.Errorf(diag.BundleCyclicGraphOverflow, a.Path, nil,
				"graph exceeds %d modules", r.opts.MaxModules)
		}
		child, err := r.load(ctx, a, imp, p)
		if err != nil {
			return nil, err
		}
		r.add(child)
		r.parent[child.ID] = a.ID
		// как у объекта JS: ключ остаётся на месте, значение последнее
		m.Put(imp.Specifier, child.ID)
	}
	return m, nil
}

func (r *run) resolve(a *asset.Asset, imp asset.Import) (string, error) {
	p, err := asset.Resolve(a.Path, imp.Specifier)
	if err != nil {
		return "", unresolved(a, imp, err)
	}
	trace.Point(r.tracer, trace.ScopeImport, "import:"+imp.Specifier, p, r.span)
	return p, nil
}

func (r *run) load(ctx context.Context, importer *asset.Asset, imp asset.Import, p string) (*asset.Asset, error) {
	child, err := r.loader.Load(ctx, p)
	if err == nil {
		return child, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, unresolved(importer, imp, err)
	}
	if de, ok := diag.AsError(err); ok && hasSpan(imp) {
		de.Diagnostic = de.WithNote(imp.Span, fmt.Sprintf("imported from %s", importer.Path))
	}
	return nil, err
}

// ancestry reports whether p is already on the import chain leading to a.
func (r *run) ancestry(a *asset.Asset, p string) (string, bool) {
	chain := []string{p}
	key := asset.Key(p)
	cur := a.ID
	for {
		path := r.assets[cur].Path
		chain = append(chain, path)
		if asset.Key(path) == key {
			// печатаем от корня к повтору
			for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
				chain[i], chain[j] = chain[j], chain[i]
			}
			return strings.Join(chain, " -> "), true
		}
		parent, ok := r.parent[cur]
		if !ok {
			return "", false
		}
		cur = parent
	}
}

func (r *run) checkCycles(g *Graph) error {
	members := cycleMembers(g.Edges())
	if len(members) == 0 {
		return nil
	}
	names := make([]string, len(members))
	for i, id := range members {
		names[i] = g.Assets[id].Path
	}
	summary := strings.Join(names, ", ")
	first := g.Assets[members[0]].Path

	if !r.opts.Memoize {
		return diag.Errorf(diag.BundleCyclicGraphOverflow, first, nil,
			"import cycle would recurse forever without runtime memoization: %s", summary)
	}
	r.opts.Reporter.Report(diag.New(diag.SevWarning, diag.ProjImportCycle, first,
		"modules participate in an import cycle: "+summary))
	return nil
}

func unresolved(importer *asset.Asset, imp asset.Import, cause error) *diag.Error {
	e := diag.Errorf(diag.BundleUnresolvedSpecifier, importer.Path, cause, "cannot resolve %q", imp.Specifier)
	if hasSpan(imp) {
		e.Diagnostic = e.At(imp.Span)
	}
	return e
}

func hasSpan(imp asset.Import) bool {
	return imp.Span.End > imp.Span.Start
}
