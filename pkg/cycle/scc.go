// Package cycle implements stage S3: finding every strongly-connected
// component of the S2 reference graph and boxing the slots needed to break
// it (spec.md §4.3).
package cycle

import (
	"sort"

	"github.com/blockberries/astgen/pkg/graph"
)

// tarjan runs Tarjan's strongly-connected-components algorithm over a
// graph.Graph. Traversal order is fixed (vertex IDs and, at each vertex,
// outgoing edges are visited in sorted order) so that the component list
// does not depend on Go's randomized map iteration.
type tarjan struct {
	g       *graph.Graph
	indices map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	result  [][]string
}

// SCCs returns every strongly-connected component of g, including trivial
// (single-vertex, no self-loop) ones. Each component is a vertex-ID slice
// in sorted order; the component list itself is in a deterministic, but
// otherwise unspecified, order.
func SCCs(g *graph.Graph) [][]string {
	ids := make([]string, 0, len(g.Vertices))
	for id := range g.Vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	t := &tarjan{
		g:       g,
		indices: make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, id := range ids {
		if _, visited := t.indices[id]; !visited {
			t.strongconnect(id)
		}
	}
	return t.result
}

func (t *tarjan) strongconnect(v string) {
	t.indices[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	edges := append([]*graph.Edge(nil), t.g.Out[v]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })

	for _, e := range edges {
		w := e.To
		if _, visited := t.indices[w]; !visited {
			t.strongconnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.indices[w] < t.lowlink[v] {
				t.lowlink[v] = t.indices[w]
			}
		}
	}

	if t.lowlink[v] != t.indices[v] {
		return
	}

	var component []string
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		component = append(component, w)
		if w == v {
			break
		}
	}
	sort.Strings(component)
	t.result = append(t.result, component)
}

// hasSelfLoop reports whether v has an edge to itself.
func hasSelfLoop(g *graph.Graph, v string) bool {
	for _, e := range g.Out[v] {
		if e.To == v {
			return true
		}
	}
	return false
}
