package model

import "testing"

func TestValidatorWarnsOnDanglingReference(t *testing.T) {
	p := NewParser("test.yaml")
	schema, errs := p.Parse([]byte(`
models:
  Wrapper: Ghost
`))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	v := NewValidator(schema)
	issues := v.Validate()

	if v.HasErrors() {
		t.Errorf("dangling reference must not be fatal, got errors: %v", v.Errors())
	}
	if len(v.Warnings()) != 1 {
		t.Fatalf("warnings = %v, want exactly 1", v.Warnings())
	}
	if len(issues) != len(v.Warnings()) {
		t.Errorf("Validate() returned %d issues but Warnings() returned %d", len(issues), len(v.Warnings()))
	}
}

func TestValidatorAcceptsPrimitiveLeaves(t *testing.T) {
	p := NewParser("test.yaml")
	schema, errs := p.Parse([]byte(`
models:
  Flag: bool
  Count: usize
  Name: str
`))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	v := NewValidator(schema)
	v.Validate()
	if len(v.Warnings()) != 0 {
		t.Errorf("warnings = %v, want none for primitive-only leaves", v.Warnings())
	}
}

func TestValidatorAcceptsDefinedReference(t *testing.T) {
	p := NewParser("test.yaml")
	schema, errs := p.Parse([]byte(`
models:
  Leaf: u8
  Root:
    leaf: Leaf
`))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	v := NewValidator(schema)
	v.Validate()
	if len(v.Warnings()) != 0 {
		t.Errorf("warnings = %v, want none when the reference resolves", v.Warnings())
	}
}

func TestValidatorIgnoresUnitOperand(t *testing.T) {
	p := NewParser("test.yaml")
	schema, errs := p.Parse([]byte(`
models:
  Empty: []
  Holder:
    nothing: []
`))
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	v := NewValidator(schema)
	v.Validate()
	if len(v.Warnings()) != 0 {
		t.Errorf("warnings = %v, want none for a unit operand", v.Warnings())
	}
}
