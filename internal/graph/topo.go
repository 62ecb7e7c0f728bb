package graph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"minipack/internal/asset"
)

// cycleMembers returns the ids that sit on an import cycle, sorted: members
// of a strongly connected component with more than one module, or modules
// that import themselves. A module that only connects two cycles is not
// reported.
//
// Tarjan's algorithm with an explicit call stack, so deep import chains do
// not grow the goroutine stack.
func cycleMembers(edges [][]asset.ID) []asset.ID {
	n := len(edges)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	type frame struct{ v, next int }
	var (
		stack   []int
		counter int
		out     []asset.ID
	)
	visit := func(v int) {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		visit(root)
		calls := []frame{{v: root}}
		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			if top.next < len(edges[top.v]) {
				w := int(edges[top.v][top.next])
				top.next++
				switch {
				case index[w] == -1:
					visit(w)
					calls = append(calls, frame{v: w})
				case onStack[w]:
					low[top.v] = min(low[top.v], index[w])
				}
				continue
			}

			v := top.v
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				p := calls[len(calls)-1].v
				low[p] = min(low[p], low[v])
			}
			if low[v] != index[v] {
				continue
			}
			// v — корень компоненты, снимаем её со стека
			start := len(stack) - 1
			for stack[start] != v {
				start--
			}
			comp := stack[start:]
			stack = stack[:start]
			for _, w := range comp {
				onStack[w] = false
			}
			if len(comp) > 1 || importsItself(edges, v) {
				for _, w := range comp {
					out = append(out, toID(w))
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

func importsItself(edges [][]asset.ID, v int) bool {
	for _, to := range edges[v] {
		if int(to) == v {
			return true
		}
	}
	return false
}

func toID(i int) asset.ID {
	id, err := safecast.Conv[asset.ID](i)
	if err != nil {
		panic(fmt.Errorf("asset id overflow: %w", err))
	}
	return id
}
