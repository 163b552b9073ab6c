package model

import (
	"fmt"
	"sort"
)

// ValidationError is one issue found by a Validator pass: either fatal
// (SeverityError) or advisory (SeverityWarning).
type ValidationError struct {
	Position Position
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Position, e.Severity, e.Message)
}

// Validator checks a parsed Schema for issues that require seeing the
// whole schema at once — chiefly, whether every leaf TypeRef resolves to
// either a primitive or a defined top-level spec.
type Validator struct {
	schema *Schema
	issues []ValidationError
}

// NewValidator creates a validator for schema.
func NewValidator(schema *Schema) *Validator {
	return &Validator{schema: schema}
}

// Validate runs the pass and returns every issue found, sorted by
// position for stable diagnostic output.
func (v *Validator) Validate() []ValidationError {
	v.issues = nil

	for _, spec := range v.schema.Specs {
		switch spec.Kind {
		case SpecNewtype:
			for _, ref := range spec.Newtype.Operands {
				v.checkRef(ref, spec.Name)
			}
		case SpecRecord:
			for _, f := range spec.Record.Fields {
				v.checkRef(f.Type, spec.Name)
			}
		case SpecSum:
			for _, c := range spec.Sum.Cases {
				for _, ref := range c.Operands {
					v.checkRef(ref, spec.Name)
				}
			}
		}
	}

	sort.Slice(v.issues, func(i, j int) bool {
		if v.issues[i].Position.Line != v.issues[j].Position.Line {
			return v.issues[i].Position.Line < v.issues[j].Position.Line
		}
		return v.issues[i].Position.Column < v.issues[j].Position.Column
	})

	return v.issues
}

// checkRef walks a TypeRef to its leaf and warns if the leaf names
// neither a primitive nor a defined top-level spec. Per spec.md §3, a
// dangling reference is accepted silently — this is a warning, not a
// fatal error (DESIGN.md Open Question 2).
func (v *Validator) checkRef(ref *TypeRef, ownerName string) {
	leaf, ok := ref.Leaf()
	if !ok {
		return
	}
	if IsPrimitive(leaf) {
		return
	}
	if _, ok := v.schema.Lookup(leaf); ok {
		return
	}
	v.addWarning(ref.Position, "%s references undefined type %q", ownerName, leaf)
}

func (v *Validator) addWarning(pos Position, format string, args ...any) {
	v.issues = append(v.issues, ValidationError{Position: pos, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// HasErrors reports whether any issue found is fatal.
func (v *Validator) HasErrors() bool {
	for _, issue := range v.issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the fatal issues.
func (v *Validator) Errors() []ValidationError {
	var out []ValidationError
	for _, issue := range v.issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns only the advisory issues.
func (v *Validator) Warnings() []ValidationError {
	var out []ValidationError
	for _, issue := range v.issues {
		if issue.Severity == SeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}
