package paths

import (
	"sort"

	"github.com/blockberries/astgen/pkg/graph"
	"github.com/blockberries/astgen/pkg/model"
)

// CastHop is one case-operand step of a cast path: entering case CaseName
// of sum SumName, carrying the operand's original TypeRef so the emitter
// can tell whether the payload crosses a Box/Array/Option boundary at
// this hop (spec.md §4.4 canonicalization).
type CastHop struct {
	SumName     string
	CaseName    string
	PayloadType *model.TypeRef
}

// CastPath is the canonical chain of hops embedding To inside From.
type CastPath struct {
	From, To string
	Hops     []CastHop

	// TerminalIsStr is set when To is the unsized str primitive: the
	// emitted payload type at the last hop must be the boxed form
	// (Box<str>), not the leaf itself (spec.md §4.4 "Edge case — str").
	TerminalIsStr bool
}

// Table holds every (From, To) cast path the schema admits, plus the
// lossless/lossy classification of each pair.
type Table struct {
	paths map[[2]string]*CastPath
}

// Get returns the canonical path from -> to, if S4 found and retained one.
func (t *Table) Get(from, to string) (*CastPath, bool) {
	p, ok := t.paths[[2]string{from, to}]
	return p, ok
}

// IsLossless reports whether both (from,to) and (to,from) paths exist:
// per spec.md §4.4, such a pair only needs the injection emitted, never
// the (infallible, so redundant) extraction.
func (t *Table) IsLossless(from, to string) bool {
	_, fwd := t.Get(from, to)
	_, back := t.Get(to, from)
	return fwd && back
}

// Pairs returns every (From, To) pair with a retained path, sorted for
// deterministic iteration by callers (the emitter).
func (t *Table) Pairs() [][2]string {
	pairs := make([][2]string, 0, len(t.paths))
	for k := range t.paths {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// Build runs S4 over g: all-pairs shortest paths from every type vertex,
// filtered and canonicalized into the retained Table.
func Build(g *graph.Graph) *Table {
	table := &Table{paths: make(map[[2]string]*CastPath)}

	sources := make([]string, 0)
	for id, v := range g.Vertices {
		if v.Kind == graph.VertexType {
			sources = append(sources, id)
		}
	}
	sort.Strings(sources)

	for _, s := range sources {
		dist, prev := shortestPaths(g, s)

		targets := make([]string, 0, len(dist))
		for id := range dist {
			if id == s {
				continue
			}
			if g.Vertices[id].Kind != graph.VertexType {
				continue
			}
			targets = append(targets, id)
		}
		sort.Strings(targets)

		for _, to := range targets {
			chain := reconstructPath(prev, s, to)
			if chain == nil {
				continue
			}
			hops, ok := canonicalize(g, chain)
			if !ok {
				continue
			}
			table.paths[[2]string{s, to}] = &CastPath{
				From:          s,
				To:            to,
				Hops:          hops,
				TerminalIsStr: to == "str",
			}
		}
	}

	return table
}

// canonicalize walks a vertex chain source, slot, type, slot, type, ...
// pairing each slot with the type vertex that follows it into a CastHop,
// and applies the path-filtering rules of spec.md §4.4:
//
//   - a field vertex anywhere on the path rejects the whole path;
//   - a case-operand vertex with CaseArity != 1 rejects the whole path.
//
// The chain's terminal vertex is always a type vertex (callers only
// reconstruct chains toward type-vertex targets), so that filtering rule
// is enforced by construction rather than checked here.
func canonicalize(g *graph.Graph, chain []string) ([]CastHop, bool) {
	var hops []CastHop
	for i := 1; i+1 < len(chain); i += 2 {
		slot := g.Vertices[chain[i]]
		switch slot.Kind {
		case graph.VertexField:
			return nil, false
		case graph.VertexCaseOperand:
			if slot.CaseArity != 1 {
				return nil, false
			}
		}
		hops = append(hops, CastHop{
			SumName:     slot.TypeName,
			CaseName:    slot.CaseName,
			PayloadType: slot.Ref,
		})
	}
	return hops, true
}
