package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parser reads a raw YAML schema tree into a *Schema, applying the
// shape-directed decoding rules of spec.md §4.1. It collects every fatal
// error it finds rather than stopping at the first one, mirroring the
// teacher's validator: a single bad top-level entry should not hide
// errors in its siblings.
type Parser struct {
	filename string
	errors   []error
	warnings []Warning
}

// NewParser creates a parser that attributes positions to filename.
func NewParser(filename string) *Parser {
	return &Parser{filename: filename}
}

// Parse decodes data (a YAML 1.1 document) into a Schema.
func (p *Parser) Parse(data []byte) (*Schema, []error) {
	p.errors = nil
	p.warnings = nil

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, []error{err}
	}

	schema := &Schema{ByName: make(map[string]*Spec)}

	if len(root.Content) == 0 {
		return schema, nil
	}
	doc := root.Content[0]

	if classify(doc) != shapeMapping {
		p.addError(ErrUnsupportedShape, posOf(p.filename, doc), "schema document must be a mapping, got %s", classify(doc))
		return schema, p.errors
	}

	var modelsNode, configNode *yaml.Node
	for _, pair := range mappingPairs(doc) {
		key, value := pair[0], pair[1]
		switch key.Value {
		case "models":
			modelsNode = value
		case "config":
			configNode = value
		default:
			p.addWarning(posOf(p.filename, key), "unknown top-level key %q", key.Value)
		}
	}

	if modelsNode == nil {
		p.addError(ErrUnsupportedShape, posOf(p.filename, doc), "missing required top-level key %q", "models")
		return schema, p.errors
	}
	if classify(modelsNode) != shapeMapping {
		p.addError(ErrUnsupportedShape, posOf(p.filename, modelsNode), "%q must be a mapping, got %s", "models", classify(modelsNode))
		return schema, p.errors
	}

	p.parseModels(schema, modelsNode)

	if configNode != nil {
		p.parseConfig(schema, configNode)
	}

	return schema, p.errors
}

// Warnings returns the non-fatal diagnostics collected by the last Parse.
func (p *Parser) Warnings() []Warning { return p.warnings }

func (p *Parser) addError(kind ErrorKind, pos Position, format string, args ...any) {
	p.errors = append(p.errors, newParseError(kind, pos, format, args...))
}

func (p *Parser) addWarning(pos Position, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Position: pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) parseModels(schema *Schema, modelsNode *yaml.Node) {
	for _, pair := range mappingPairs(modelsNode) {
		nameNode, valueNode := pair[0], pair[1]
		name := nameNode.Value
		pos := posOf(p.filename, nameNode)

		spec := p.parseSpec(name, pos, valueNode)
		if spec == nil {
			continue
		}

		if existing, ok := schema.ByName[name]; ok {
			p.addError(ErrDuplicateName, pos, "duplicate type name %q (previously defined at %s)", name, existing.Position())
			continue
		}

		schema.ByName[name] = spec
		schema.Specs = append(schema.Specs, spec)
	}
}

// parseSpec applies the top-level shape-to-spec rule (spec.md §4.1 table).
func (p *Parser) parseSpec(name string, pos Position, valueNode *yaml.Node) *Spec {
	switch classify(valueNode) {
	case shapeScalar:
		ref, err := p.parseType(valueNode)
		if err != nil {
			return nil
		}
		return &Spec{Name: name, Kind: SpecNewtype, Newtype: &NewtypeSpec{Position: pos, Name: name, Operands: []*TypeRef{ref}}}

	case shapeSequence:
		switch len(valueNode.Content) {
		case 0:
			return &Spec{Name: name, Kind: SpecNewtype, Newtype: &NewtypeSpec{Position: pos, Name: name}}
		case 1:
			ref, err := p.parseType(valueNode)
			if err != nil {
				return nil
			}
			return &Spec{Name: name, Kind: SpecNewtype, Newtype: &NewtypeSpec{Position: pos, Name: name, Operands: []*TypeRef{ref}}}
		default:
			cases := p.parseCases(name, valueNode)
			return &Spec{Name: name, Kind: SpecSum, Sum: &SumSpec{Position: pos, Name: name, Cases: cases}}
		}

	case shapeMapping:
		fields := p.parseFields(name, valueNode)
		return &Spec{Name: name, Kind: SpecRecord, Record: &RecordSpec{Position: pos, Name: name, Fields: fields}}

	default:
		p.addError(ErrUnsupportedShape, pos, "type %q has unsupported shape %s", name, classify(valueNode))
		return nil
	}
}

// parseType parses a TypeRef out of a scalar (decorator grammar) or
// sequence (array wrapping) node. It is the single recursive helper used
// for record field values, sum case operand positions, and the
// scalar/singleton-sequence top-level newtype rules.
func (p *Parser) parseType(n *yaml.Node) (*TypeRef, error) {
	pos := posOf(p.filename, n)

	switch classify(n) {
	case shapeScalar:
		return p.parseDecoratedName(n.Value, pos)

	case shapeSequence:
		switch len(n.Content) {
		case 0:
			return &TypeRef{Position: pos, IsUnit: true, IsSized: true}, nil
		case 1:
			inner, err := p.parseType(n.Content[0])
			if err != nil {
				return nil, err
			}
			return &TypeRef{Position: pos, Nested: inner, IsArray: true, IsSized: true}, nil
		default:
			p.addError(ErrTupleInDisallowedPosition, pos, "a multi-element list is not a valid type reference")
			return nil, newParseError(ErrTupleInDisallowedPosition, pos, "multi-element list in operand position")
		}

	default:
		p.addError(ErrUnsupportedShape, pos, "type reference has unsupported shape %s", classify(n))
		return nil, newParseError(ErrUnsupportedShape, pos, "unsupported type reference shape")
	}
}

// parseDecoratedName applies the ref grammar: "~"? name "?"? — box prefix
// stripped first, then optional suffix (spec.md §6).
func (p *Parser) parseDecoratedName(raw string, pos Position) (*TypeRef, error) {
	s := raw
	boxed := false
	if strings.HasPrefix(s, "~") {
		boxed = true
		s = s[1:]
	}
	optional := false
	if strings.HasSuffix(s, "?") {
		optional = true
		s = s[:len(s)-1]
	}
	if s == "" {
		p.addError(ErrInvalidDecorator, pos, "decorated type reference %q has no residual name", raw)
		return nil, newParseError(ErrInvalidDecorator, pos, "empty residual name")
	}
	if strings.ContainsAny(s, "~?") {
		p.addError(ErrInvalidDecorator, pos, "decorated type reference %q carries decorators in the wrong position", raw)
		return nil, newParseError(ErrInvalidDecorator, pos, "malformed decorator")
	}
	return &TypeRef{
		Position:   pos,
		Target:     s,
		IsBoxed:    boxed,
		IsOptional: optional,
		IsSized:    true,
	}, nil
}

// parseFields decodes a mapping's entries as record fields (spec.md §4.1
// parseFields).
func (p *Parser) parseFields(recordName string, mappingNode *yaml.Node) []*Field {
	var fields []*Field
	seen := make(map[string]bool)

	for _, pair := range mappingPairs(mappingNode) {
		nameNode, valueNode := pair[0], pair[1]
		pos := posOf(p.filename, nameNode)

		if classify(valueNode) == shapeSequence && len(valueNode.Content) > 1 {
			p.addError(ErrTupleInDisallowedPosition, pos, "field %s.%s: a multi-element list is not a valid field type", recordName, nameNode.Value)
			continue
		}

		ref, err := p.parseType(valueNode)
		if err != nil {
			continue
		}

		if seen[nameNode.Value] {
			p.addError(ErrDuplicateName, pos, "duplicate field name %q in record %q", nameNode.Value, recordName)
			continue
		}
		seen[nameNode.Value] = true

		fields = append(fields, &Field{Position: pos, Name: nameNode.Value, Type: ref})
	}
	return fields
}

// parseCases decodes a sequence's alternatives as sum cases (spec.md §4.1
// parseCases).
func (p *Parser) parseCases(sumName string, seqNode *yaml.Node) []*CaseSpec {
	var cases []*CaseSpec
	seen := make(map[string]bool)

	for _, alt := range seqNode.Content {
		pos := posOf(p.filename, alt)

		switch classify(alt) {
		case shapeScalar:
			name := alt.Value
			ref, err := p.parseDecoratedName(alt.Value, pos)
			if err != nil {
				continue
			}
			if !p.registerCase(sumName, name, pos, seen) {
				continue
			}
			cases = append(cases, &CaseSpec{Position: pos, Name: name, Operands: []*TypeRef{ref}})

		case shapeMapping:
			pairs := mappingPairs(alt)
			if len(pairs) != 1 {
				p.addError(ErrUnsupportedShape, pos, "sum %q alternative must be a single-entry mapping from case name to payload", sumName)
				continue
			}
			nameNode, payloadNode := pairs[0][0], pairs[0][1]
			name := nameNode.Value
			if !p.registerCase(sumName, name, pos, seen) {
				continue
			}
			operands := p.parseCaseOperands(sumName, name, payloadNode)
			cases = append(cases, &CaseSpec{Position: pos, Name: name, Operands: operands})

		default:
			p.addError(ErrUnsupportedShape, pos, "sum %q alternative has unsupported shape %s", sumName, classify(alt))
		}
	}
	return cases
}

func (p *Parser) registerCase(sumName, caseName string, pos Position, seen map[string]bool) bool {
	if seen[caseName] {
		p.addError(ErrDuplicateCase, pos, "duplicate case %q in sum %q", caseName, sumName)
		return false
	}
	seen[caseName] = true
	return true
}

// parseCaseOperands decodes a case's payload shape into its operand list.
func (p *Parser) parseCaseOperands(sumName, caseName string, payloadNode *yaml.Node) []*TypeRef {
	switch classify(payloadNode) {
	case shapeScalar:
		ref, err := p.parseType(payloadNode)
		if err != nil {
			return nil
		}
		return []*TypeRef{ref}

	case shapeSequence:
		switch len(payloadNode.Content) {
		case 0:
			return nil
		case 1:
			ref, err := p.parseType(payloadNode)
			if err != nil {
				return nil
			}
			return []*TypeRef{ref}
		default:
			operands := make([]*TypeRef, 0, len(payloadNode.Content))
			for _, elem := range payloadNode.Content {
				ref, err := p.parseType(elem)
				if err != nil {
					continue
				}
				operands = append(operands, ref)
			}
			return operands
		}

	default:
		p.addError(ErrUnsupportedShape, posOf(p.filename, payloadNode), "case %q of sum %q has unsupported payload shape %s", caseName, sumName, classify(payloadNode))
		return nil
	}
}

// parseConfig decodes the optional `config:` section (spec.md §6).
func (p *Parser) parseConfig(schema *Schema, configNode *yaml.Node) {
	if classify(configNode) != shapeMapping {
		p.addError(ErrUnsupportedShape, posOf(p.filename, configNode), "%q must be a mapping, got %s", "config", classify(configNode))
		return
	}

	for _, pair := range mappingPairs(configNode) {
		key, value := pair[0], pair[1]
		switch key.Value {
		case "derive":
			if classify(value) != shapeSequence {
				p.addError(ErrUnsupportedShape, posOf(p.filename, value), "config %q must be a list of identifiers", "derive")
				continue
			}
			for _, elem := range value.Content {
				if classify(elem) != shapeScalar {
					p.addError(ErrUnsupportedShape, posOf(p.filename, elem), "config %q entries must be identifiers", "derive")
					continue
				}
				schema.Config.Derive = append(schema.Config.Derive, elem.Value)
			}

		case "visibility":
			if classify(value) != shapeScalar {
				p.addError(ErrUnsupportedShape, posOf(p.filename, value), "config %q must be a single identifier", "visibility")
				continue
			}
			schema.Config.Visibility = value.Value

		default:
			p.addWarning(posOf(p.filename, key), "unknown config key %q", key.Value)
		}
	}
}
