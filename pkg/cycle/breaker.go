package cycle

import (
	"sort"

	"github.com/blockberries/astgen/pkg/graph"
	"github.com/blockberries/astgen/pkg/model"
)

// Report summarizes what Break did, for diagnostics and tests: the vertex
// IDs it boxed to break a cycle, and the vertex IDs where it boxed an
// otherwise-bare unsized str leaf.
type Report struct {
	CycleBoxed   []string
	UnsizedBoxed []string
}

// Break runs S3 against g, mutating the TypeRef of every field and
// case-operand vertex that needs boxing:
//
//   - every operand or field vertex belonging to a non-trivial
//     strongly-connected component (size > 1, or a self-loop) gets
//     IsBoxed = true (spec.md §4.3: box every cycle-participating slot,
//     not a minimum feedback-arc set, so the result is independent of
//     traversal order);
//   - every operand or field vertex whose ultimate leaf is the unsized
//     `str` primitive gets IsSized = false, and — unless it is already
//     reachable through a box or an array — also gets IsBoxed = true
//     (spec.md §4.3: an unsized leaf must be reachable only through a
//     box or an array).
//
// Array slots never contribute graph edges (pkg/graph), so they can
// never be cycle-breaking candidates themselves; Break still walks their
// nested TypeRef to apply the str rule to the element type.
func Break(g *graph.Graph) Report {
	var rep Report

	for _, comp := range SCCs(g) {
		nontrivial := len(comp) > 1 || hasSelfLoop(g, comp[0])
		if !nontrivial {
			continue
		}
		for _, vid := range comp {
			v := g.Vertices[vid]
			if v.Kind == graph.VertexType || v.Ref == nil {
				continue
			}
			if !v.Ref.IsBoxed {
				v.Ref.IsBoxed = true
				rep.CycleBoxed = append(rep.CycleBoxed, vid)
			}
		}
	}

	ids := make([]string, 0, len(g.Vertices))
	for id := range g.Vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		v := g.Vertices[id]
		if v.Kind == graph.VertexType || v.Ref == nil {
			continue
		}
		if forceUnsizedLeaf(v.Ref) {
			rep.UnsizedBoxed = append(rep.UnsizedBoxed, id)
		}
	}

	sort.Strings(rep.CycleBoxed)
	return rep
}

// forceUnsizedLeaf walks ref's Nested chain to the innermost TypeRef. If
// that leaf names the unsized str primitive, it forces IsSized = false,
// and — if no TypeRef along the chain (including the leaf itself) is
// already an array or a box — forces IsBoxed = true on the leaf itself.
// Reports whether it inserted a box.
func forceUnsizedLeaf(ref *model.TypeRef) bool {
	wrapped := false
	cur := ref
	for cur != nil {
		if cur.IsArray || cur.IsBoxed {
			wrapped = true
		}
		if cur.Nested == nil {
			break
		}
		cur = cur.Nested
	}
	if cur == nil || cur.IsUnit || cur.Target != "str" {
		return false
	}

	cur.IsSized = false
	if wrapped {
		return false
	}
	cur.IsBoxed = true
	return true
}
