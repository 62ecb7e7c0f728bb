package graph

import (
	"context"
	"testing"

	"minipack/internal/asset"
)

func TestDigest(t *testing.T) {
	build := func(files map[string][]string, policy Policy) *Graph {
		t.Helper()
		opts := DefaultOptions()
		opts.Policy = policy
		g, err := NewBuilder(newMemLoader(files), opts).Build(context.Background(), "/app/a.js")
		if err != nil {
			t.Fatal(err)
		}
		return g
	}

	first := build(diamond, PolicyDedupe)
	if first.Digest() != build(diamond, PolicyDedupe).Digest() {
		t.Error("rebuilding the same tree changed the digest")
	}
	if first.Digest() == build(diamond, PolicyLiteral).Digest() {
		t.Error("literal and dedupe graphs of a diamond must differ")
	}
	if len(first.DigestHex()) != 64 {
		t.Errorf("DigestHex = %q", first.DigestHex())
	}

	changed := map[string][]string{
		"/app/a.js": {"./c.js", "./b.js"},
		"/app/b.js": {"./d.js"},
		"/app/c.js": {"./d.js"},
		"/app/d.js": nil,
	}
	if first.Digest() == build(changed, PolicyDedupe).Digest() {
		t.Error("import order is part of the digest")
	}
}

func TestDigestMappingBoundaries(t *testing.T) {
	// same specifiers, different owners
	linked := func(specs ...[]string) *Graph {
		g := &Graph{}
		for i, ss := range specs {
			a := &asset.Asset{ID: asset.ID(i), Path: "/app/m.js", Code: "x"}
			m := asset.NewMapping(len(ss))
			for _, s := range ss {
				m.Set(s, 0)
			}
			a.Link(m)
			g.Assets = append(g.Assets, a)
		}
		return g
	}
	first := linked([]string{"./a.js"}, nil)
	second := linked(nil, []string{"./a.js"})
	if first.Digest() == second.Digest() {
		t.Error("moving a mapping entry to the next module must change the digest")
	}
	if linked(nil).Digest() == linked(nil, nil).Digest() {
		t.Error("asset count is part of the digest")
	}
}
