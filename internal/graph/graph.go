// Package graph discovers the static import graph of an entry module.
//
// Discovery is breadth-first: the entry is asset 0 and every newly reached
// module takes the next id, so ids are dense and equal the discovery order.
package graph

import (
	"fmt"

	"minipack/internal/asset"
)

// Policy selects how repeated paths are handled during discovery.
type Policy uint8

const (
	// PolicyDedupe loads every distinct canonical path once and reuses its id.
	PolicyDedupe Policy = iota
	// PolicyLiteral loads a fresh asset for every import occurrence.
	PolicyLiteral
)

func (p Policy) String() string {
	switch p {
	case PolicyDedupe:
		return "dedupe"
	case PolicyLiteral:
		return "literal"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// Graph is the result of one Build.
type Graph struct {
	Entry  string // canonical entry path
	Policy Policy
	Assets []*asset.Asset // Assets[i].ID == i

	byPath map[string]asset.ID // first asset per asset.Key
}

// Len returns the number of assets.
func (g *Graph) Len() int { return len(g.Assets) }

// Lookup returns the first asset discovered for path.
func (g *Graph) Lookup(path string) (*asset.Asset, bool) {
	canon, err := asset.Canonical(path)
	if err != nil {
		return nil, false
	}
	id, ok := g.byPath[asset.Key(canon)]
	if !ok {
		return nil, false
	}
	return g.Assets[id], true
}

// Edges returns, per asset, the distinct ids it depends on in specifier order.
func (g *Graph) Edges() [][]asset.ID {
	edges := make([][]asset.ID, len(g.Assets))
	for i, a := range g.Assets {
		seen := make(map[asset.ID]struct{}, a.Mapping.Len())
		for _, e := range a.Mapping.Entries() {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			edges[i] = append(edges[i], e.ID)
		}
	}
	return edges
}
