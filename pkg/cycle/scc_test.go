package cycle

import (
	"sort"
	"testing"

	"github.com/blockberries/astgen/pkg/graph"
	"github.com/blockberries/astgen/pkg/model"
)

func ref(target string) *model.TypeRef {
	return &model.TypeRef{Target: target, IsSized: true}
}

func TestSCCsAcyclicSchema(t *testing.T) {
	schema := &model.Schema{
		Specs: []*model.Spec{
			{Name: "Leaf", Kind: model.SpecNewtype, Newtype: &model.NewtypeSpec{
				Name: "Leaf", Operands: []*model.TypeRef{ref("u8")},
			}},
			{Name: "Root", Kind: model.SpecRecord, Record: &model.RecordSpec{
				Name:   "Root",
				Fields: []*model.Field{{Name: "leaf", Type: ref("Leaf")}},
			}},
		},
	}
	g := graph.Build(schema)

	for _, comp := range SCCs(g) {
		if len(comp) > 1 {
			t.Errorf("unexpected multi-vertex component in acyclic schema: %v", comp)
		}
		if len(comp) == 1 && hasSelfLoop(g, comp[0]) {
			t.Errorf("unexpected self-loop on %s in acyclic schema", comp[0])
		}
	}
}

func TestSCCsDirectCycle(t *testing.T) {
	// Datum: ... | Quotation Datum
	schema := &model.Schema{
		Specs: []*model.Spec{
			{Name: "Datum", Kind: model.SpecSum, Sum: &model.SumSpec{
				Name: "Datum",
				Cases: []*model.CaseSpec{
					{Name: "Quotation", Operands: []*model.TypeRef{ref("Datum")}},
				},
			}},
		},
	}
	g := graph.Build(schema)

	comps := SCCs(g)
	var nontrivial [][]string
	for _, comp := range comps {
		if len(comp) > 1 || (len(comp) == 1 && hasSelfLoop(g, comp[0])) {
			nontrivial = append(nontrivial, comp)
		}
	}
	if len(nontrivial) != 1 {
		t.Fatalf("nontrivial components = %v, want exactly 1", nontrivial)
	}
	got := append([]string(nil), nontrivial[0]...)
	sort.Strings(got)
	want := []string{"Datum", "Datum::Quotation#1"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("component = %v, want %v", got, want)
	}
}

func TestSCCsMutualCycle(t *testing.T) {
	// Expr -> Stmt -> Expr via single-operand fields
	schema := &model.Schema{
		Specs: []*model.Spec{
			{Name: "Expr", Kind: model.SpecNewtype, Newtype: &model.NewtypeSpec{
				Name: "Expr", Operands: []*model.TypeRef{ref("Stmt")},
			}},
			{Name: "Stmt", Kind: model.SpecNewtype, Newtype: &model.NewtypeSpec{
				Name: "Stmt", Operands: []*model.TypeRef{ref("Expr")},
			}},
		},
	}
	g := graph.Build(schema)

	found := false
	for _, comp := range SCCs(g) {
		if len(comp) > 1 {
			found = true
			for _, want := range []string{"Expr", "Expr.0", "Stmt", "Stmt.0"} {
				present := false
				for _, v := range comp {
					if v == want {
						present = true
						break
					}
				}
				if !present {
					t.Errorf("mutual-cycle component %v missing %s", comp, want)
				}
			}
		}
	}
	if !found {
		t.Error("expected a nontrivial component for the mutual Expr/Stmt cycle")
	}
}
