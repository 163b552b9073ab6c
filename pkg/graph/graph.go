// Package graph builds the directed reference graph over a parsed schema
// (spec.md §4.2, stage S2). Vertices are labeled strings; three vertex
// families exist: type vertices, field vertices, and case-operand
// vertices. The graph is used both for cycle detection (pkg/cycle) and
// cast-path search (pkg/paths) — spec.md observes these need the exact
// same edge set, since an array slot breaks both a sizing cycle and a
// cast chain, so this package builds only one graph.
package graph

import (
	"strconv"

	"github.com/blockberries/astgen/pkg/model"
)

// VertexKind discriminates the three vertex families spec.md §4.2 names.
type VertexKind int

const (
	VertexType VertexKind = iota
	VertexField
	VertexCaseOperand
)

// Vertex carries enough context to drive S3 (which slot to box) and S4
// (which hops are legal) without re-walking the schema.
type Vertex struct {
	ID   string
	Kind VertexKind

	// TypeName is the owning top-level spec for every vertex kind.
	TypeName string

	// FieldName is set for VertexField (a record field name, or the
	// decimal string "0" for a newtype's sole operand).
	FieldName string

	// CaseName and Index identify a VertexCaseOperand: the case it
	// belongs to and its 1-based position among that case's operands.
	// CaseArity is the total operand count of the owning case — S4
	// rejects any path through a vertex where CaseArity != 1.
	CaseName  string
	Index     int
	CaseArity int

	// Ref is the operand's own TypeRef, set for VertexField and
	// VertexCaseOperand vertices. S3 mutates it in place (IsBoxed,
	// IsSized); S4 reads it to recover box/array/optional information.
	Ref *model.TypeRef
}

// Edge connects two vertices. Ref is set on operand/field -> type edges:
// it is the TypeRef that produced the edge, carried along so S4 can
// recover payload box/array/optional information at each hop.
type Edge struct {
	From string
	To   string
	Ref  *model.TypeRef
}

// Graph is the S2 output: every vertex the schema mentions, and the
// outgoing edges of each.
type Graph struct {
	Vertices map[string]*Vertex
	Out      map[string][]*Edge
}

func newGraph() *Graph {
	return &Graph{
		Vertices: make(map[string]*Vertex),
		Out:      make(map[string][]*Edge),
	}
}

func fieldVertexID(typeName, fieldName string) string {
	return typeName + "." + fieldName
}

func caseOperandVertexID(typeName, caseName string, index int) string {
	return typeName + "::" + caseName + "#" + strconv.Itoa(index)
}

func (g *Graph) addVertex(v *Vertex) {
	if _, ok := g.Vertices[v.ID]; !ok {
		g.Vertices[v.ID] = v
	}
}

func (g *Graph) addEdge(from, to string, ref *model.TypeRef) {
	g.Out[from] = append(g.Out[from], &Edge{From: from, To: to, Ref: ref})
}

// typeVertex ensures a type vertex exists for name (including leaf names
// that are primitives or dangling references — spec.md accepts those
// silently, so the graph must still have somewhere to point an edge).
func (g *Graph) typeVertex(name string) {
	g.addVertex(&Vertex{ID: name, Kind: VertexType, TypeName: name})
}

// Build constructs the reference graph for schema (spec.md §4.2).
func Build(schema *model.Schema) *Graph {
	g := newGraph()

	for _, spec := range schema.Specs {
		g.typeVertex(spec.Name)
	}

	for _, spec := range schema.Specs {
		switch spec.Kind {
		case model.SpecNewtype:
			g.buildNewtype(spec.Newtype)
		case model.SpecRecord:
			g.buildRecord(spec.Record)
		case model.SpecSum:
			g.buildSum(spec.Sum)
		}
	}

	return g
}

func (g *Graph) buildNewtype(n *model.NewtypeSpec) {
	if len(n.Operands) == 0 {
		return
	}
	ref := n.Operands[0]
	vid := fieldVertexID(n.Name, "0")
	g.addVertex(&Vertex{ID: vid, Kind: VertexField, TypeName: n.Name, FieldName: "0", Ref: ref})
	g.addEdge(n.Name, vid, ref)
	g.linkOperandTarget(vid, ref)
}

func (g *Graph) buildRecord(r *model.RecordSpec) {
	for _, f := range r.Fields {
		vid := fieldVertexID(r.Name, f.Name)
		g.addVertex(&Vertex{ID: vid, Kind: VertexField, TypeName: r.Name, FieldName: f.Name, Ref: f.Type})
		g.addEdge(r.Name, vid, f.Type)
		g.linkOperandTarget(vid, f.Type)
	}
}

func (g *Graph) buildSum(s *model.SumSpec) {
	for _, c := range s.Cases {
		arity := len(c.Operands)
		for i, ref := range c.Operands {
			index := i + 1
			vid := caseOperandVertexID(s.Name, c.Name, index)
			g.addVertex(&Vertex{
				ID: vid, Kind: VertexCaseOperand,
				TypeName: s.Name, CaseName: c.Name, Index: index, CaseArity: arity,
				Ref: ref,
			})
			g.addEdge(s.Name, vid, ref)
			g.linkOperandTarget(vid, ref)
		}
	}
}

// linkOperandTarget creates the target type's vertex and, unless the slot
// is an array (spec.md §4.2: "Array operand slots do not contribute
// edges"), adds the slot -> target-type edge. The vertex is created either
// way, since the array's element type is still a type the schema names and
// other slots may reference directly.
func (g *Graph) linkOperandTarget(vid string, ref *model.TypeRef) {
	if ref == nil {
		return
	}
	leaf, ok := ref.Leaf()
	if !ok {
		return
	}
	g.typeVertex(leaf)
	if ref.IsArray {
		return
	}
	g.addEdge(vid, leaf, ref)
}
