package model

import (
	"testing"
)

func parse(t *testing.T, input string) (*Schema, []error) {
	t.Helper()
	p := NewParser("test.yaml")
	schema, errs := p.Parse([]byte(input))
	return schema, errs
}

func TestParseNewtypeFromScalar(t *testing.T) {
	schema, errs := parse(t, `
models:
  Identifier: String
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, ok := schema.Lookup("Identifier")
	if !ok {
		t.Fatal("expected Identifier spec")
	}
	if spec.Kind != SpecNewtype {
		t.Fatalf("kind = %s, want newtype", spec.Kind)
	}
	if len(spec.Newtype.Operands) != 1 || spec.Newtype.Operands[0].Target != "String" {
		t.Errorf("operands = %+v, want one operand targeting String", spec.Newtype.Operands)
	}
}

func TestParseNewtypeFromEmptySequence(t *testing.T) {
	schema, errs := parse(t, `
models:
  Unit: []
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, _ := schema.Lookup("Unit")
	if len(spec.Newtype.Operands) != 0 {
		t.Errorf("operands = %+v, want none", spec.Newtype.Operands)
	}
}

func TestParseNewtypeFromSingletonSequence(t *testing.T) {
	schema, errs := parse(t, `
models:
  Identifiers: [String]
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, _ := schema.Lookup("Identifiers")
	if len(spec.Newtype.Operands) != 1 || !spec.Newtype.Operands[0].IsArray {
		t.Errorf("operands = %+v, want a single array operand", spec.Newtype.Operands)
	}
	if spec.Newtype.Operands[0].Nested.Target != "String" {
		t.Errorf("nested target = %q, want String", spec.Newtype.Operands[0].Nested.Target)
	}
}

func TestParseRecordFromMapping(t *testing.T) {
	schema, errs := parse(t, `
models:
  Point:
    x: usize
    y: usize
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, _ := schema.Lookup("Point")
	if spec.Kind != SpecRecord {
		t.Fatalf("kind = %s, want record", spec.Kind)
	}
	if len(spec.Record.Fields) != 2 {
		t.Fatalf("fields = %+v, want 2", spec.Record.Fields)
	}
	if spec.Record.Fields[0].Name != "x" || spec.Record.Fields[1].Name != "y" {
		t.Errorf("field order = [%s %s], want [x y]", spec.Record.Fields[0].Name, spec.Record.Fields[1].Name)
	}
}

func TestParseSumFromMultiElementSequence(t *testing.T) {
	schema, errs := parse(t, `
models:
  Record:
    - EmptyList: []
    - List
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, _ := schema.Lookup("Record")
	if spec.Kind != SpecSum {
		t.Fatalf("kind = %s, want sum", spec.Kind)
	}
	if len(spec.Sum.Cases) != 2 {
		t.Fatalf("cases = %+v, want 2", spec.Sum.Cases)
	}
	if spec.Sum.Cases[0].Name != "EmptyList" || len(spec.Sum.Cases[0].Operands) != 0 {
		t.Errorf("case 0 = %+v, want unit case EmptyList", spec.Sum.Cases[0])
	}
	if spec.Sum.Cases[1].Name != "List" || len(spec.Sum.Cases[1].Operands) != 1 || spec.Sum.Cases[1].Operands[0].Target != "List" {
		t.Errorf("case 1 = %+v, want self-named List case", spec.Sum.Cases[1])
	}
}

func TestParseSumSelfCycle(t *testing.T) {
	schema, errs := parse(t, `
models:
  Datum:
    - Quotation: Datum
    - EmptyList: []
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, _ := schema.Lookup("Datum")
	if spec.Sum.Cases[0].Name != "Quotation" || spec.Sum.Cases[0].Operands[0].Target != "Datum" {
		t.Errorf("Quotation case = %+v, want operand targeting Datum", spec.Sum.Cases[0])
	}
}

func TestParseMultiArityCase(t *testing.T) {
	schema, errs := parse(t, `
models:
  Pair:
    - Both: [X, Y]
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	spec, _ := schema.Lookup("Pair")
	if len(spec.Sum.Cases[0].Operands) != 2 {
		t.Fatalf("operands = %+v, want 2", spec.Sum.Cases[0].Operands)
	}
	if spec.Sum.Cases[0].Operands[0].Target != "X" || spec.Sum.Cases[0].Operands[1].Target != "Y" {
		t.Errorf("operands = %+v, want [X Y]", spec.Sum.Cases[0].Operands)
	}
}

func TestParseDecoratorGrammar(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTarget string
		wantBoxed  bool
		wantOpt    bool
	}{
		{"plain", "Foo", "Foo", false, false},
		{"boxed", "~Foo", "Foo", true, false},
		{"optional", "Foo?", "Foo", false, true},
		{"boxed optional", "~Foo?", "Foo", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, errs := parse(t, "models:\n  Wrapper: "+tt.raw+"\n")
			if len(errs) > 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			ref := schema.ByName["Wrapper"].Newtype.Operands[0]
			if ref.Target != tt.wantTarget || ref.IsBoxed != tt.wantBoxed || ref.IsOptional != tt.wantOpt {
				t.Errorf("parseDecoratedName(%q) = %+v, want target=%s boxed=%v opt=%v", tt.raw, ref, tt.wantTarget, tt.wantBoxed, tt.wantOpt)
			}
		})
	}
}

func TestParseInvalidDecoratorResidual(t *testing.T) {
	_, errs := parse(t, "models:\n  Wrapper: \"~?\"\n")
	if len(errs) == 0 {
		t.Fatal("expected an error for an empty residual name")
	}
	if pe, ok := errs[0].(*ParseError); !ok || pe.Kind != ErrInvalidDecorator {
		t.Errorf("errs[0] = %v, want ErrInvalidDecorator", errs[0])
	}
}

func TestParseTupleInDisallowedPosition(t *testing.T) {
	_, errs := parse(t, `
models:
  Bad:
    field: [A, B, C]
`)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly 1", errs)
	}
	if pe, ok := errs[0].(*ParseError); !ok || pe.Kind != ErrTupleInDisallowedPosition {
		t.Errorf("errs[0] = %v, want ErrTupleInDisallowedPosition", errs[0])
	}
}

func TestParseDuplicateTypeName(t *testing.T) {
	_, errs := parse(t, `
models:
  Foo: String
  Foo: usize
`)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly 1", errs)
	}
	if pe, ok := errs[0].(*ParseError); !ok || pe.Kind != ErrDuplicateName {
		t.Errorf("errs[0] = %v, want ErrDuplicateName", errs[0])
	}
}

func TestParseDuplicateCaseName(t *testing.T) {
	_, errs := parse(t, `
models:
  Shape:
    - Circle: usize
    - Circle: usize
    - Square: usize
`)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly 1", errs)
	}
	if pe, ok := errs[0].(*ParseError); !ok || pe.Kind != ErrDuplicateCase {
		t.Errorf("errs[0] = %v, want ErrDuplicateCase", errs[0])
	}
}

func TestParseDuplicateFieldName(t *testing.T) {
	_, errs := parse(t, `
models:
  Bad:
    x: usize
    x: bool
`)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly 1", errs)
	}
	if pe, ok := errs[0].(*ParseError); !ok || pe.Kind != ErrDuplicateName {
		t.Errorf("errs[0] = %v, want ErrDuplicateName", errs[0])
	}
}

func TestParseMissingModelsKey(t *testing.T) {
	_, errs := parse(t, `config: {}`)
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly 1", errs)
	}
	if pe, ok := errs[0].(*ParseError); !ok || pe.Kind != ErrUnsupportedShape {
		t.Errorf("errs[0] = %v, want ErrUnsupportedShape", errs[0])
	}
}

func TestParseUnknownTopLevelKeyWarns(t *testing.T) {
	p := NewParser("test.yaml")
	_, errs := p.Parse([]byte(`
models:
  Foo: String
extra: true
`))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(p.Warnings()) != 1 {
		t.Fatalf("warnings = %v, want exactly 1", p.Warnings())
	}
}

func TestParseConfigDeriveAndVisibility(t *testing.T) {
	schema, errs := parse(t, `
models:
  Foo: String
config:
  derive: [Debug, Clone, PartialEq]
  visibility: pub
`)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(schema.Config.Derive) != 3 || schema.Config.Derive[0] != "Debug" {
		t.Errorf("derive = %v, want [Debug Clone PartialEq]", schema.Config.Derive)
	}
	if schema.Config.Visibility != "pub" {
		t.Errorf("visibility = %q, want pub", schema.Config.Visibility)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	schema, errs := parse(t, ``)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(schema.Specs) != 0 {
		t.Errorf("specs = %v, want none", schema.Specs)
	}
}
