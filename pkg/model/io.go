package model

import (
	"fmt"
	"os"
)

// Loader reads and fully resolves a single schema file: parse (S1) then
// validate. Unlike the teacher's Loader, there is no import graph to
// walk — spec.md §6 fixes the input to a single document — so LoadFile
// is a straight read-parse-validate pipeline with no caching.
type Loader struct{}

// NewLoader creates a schema loader.
func NewLoader() *Loader { return &Loader{} }

// LoadFile reads path, parses it, and validates the result. The returned
// error slice is fatal errors only (S1 parse errors; S1 never reaches
// validation if it already failed). Advisory diagnostics — unknown
// top-level/config keys from S1, dangling references from the
// whole-schema validation pass — are returned together as warnings.
func (l *Loader) LoadFile(path string) (*Schema, []error, []Warning) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("reading schema file %s: %w", path, err)}, nil
	}

	parser := NewParser(path)
	schema, errs := parser.Parse(content)
	if len(errs) > 0 {
		return schema, errs, parser.Warnings()
	}

	validator := NewValidator(schema)
	validator.Validate()

	warnings := append([]Warning(nil), parser.Warnings()...)
	for _, issue := range validator.Warnings() {
		warnings = append(warnings, Warning{Position: issue.Position, Message: issue.Message})
	}

	return schema, nil, warnings
}

// LoadAndValidate is a convenience wrapper mirroring the teacher's
// package-level helper: load path and return every diagnostic produced.
func LoadAndValidate(path string) (*Schema, []error, []Warning) {
	return NewLoader().LoadFile(path)
}
