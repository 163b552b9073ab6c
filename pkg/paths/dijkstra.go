// Package paths implements stage S4: all-pairs shortest paths over the
// non-array reference graph, canonicalized into cast-hop chains and
// classified lossless/lossy (spec.md §4.4).
package paths

import (
	"container/heap"
	"sort"

	"github.com/blockberries/astgen/pkg/graph"
)

// shortestPaths runs Dijkstra (uniform edge weight 1, since pkg/graph
// never builds an array edge) from source over g, returning the distance
// and predecessor of every vertex source can reach. Ties are broken by
// vertex name so the result does not depend on map iteration order
// (spec.md §8 invariant 7: determinism).
func shortestPaths(g *graph.Graph, source string) (dist map[string]int, prev map[string]string) {
	dist = map[string]int{source: 0}
	prev = map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{vertex: source, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		v := item.vertex
		if visited[v] {
			continue
		}
		visited[v] = true

		edges := append([]*graph.Edge(nil), g.Out[v]...)
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })

		for _, e := range edges {
			nd := dist[v] + 1
			if d, ok := dist[e.To]; !ok || nd < d {
				dist[e.To] = nd
				prev[e.To] = v
				heap.Push(pq, pqItem{vertex: e.To, dist: nd})
			}
		}
	}
	return dist, prev
}

// reconstructPath walks prev backward from target to source, returning
// the vertex chain source ... target inclusive.
func reconstructPath(prev map[string]string, source, target string) []string {
	chain := []string{target}
	cur := target
	for cur != source {
		p, ok := prev[cur]
		if !ok {
			return nil
		}
		chain = append(chain, p)
		cur = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

type pqItem struct {
	vertex string
	dist   int
}

// priorityQueue is a container/heap min-heap ordered by distance, then by
// vertex name to keep pop order deterministic on ties.
type priorityQueue []pqItem

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].vertex < q[j].vertex
}
func (q priorityQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *priorityQueue) Push(x any) {
	*q = append(*q, x.(pqItem))
}

func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
