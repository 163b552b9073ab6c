package model

import "gopkg.in/yaml.v3"

// shapeKind is the closed discriminator spec.md §9 calls for: the kind of
// a raw YAML node is read off its shape, not a tag, so the parser can
// dispatch on it through a small table instead of a type switch scattered
// across every call site.
type shapeKind int

const (
	shapeNull shapeKind = iota
	shapeScalar
	shapeSequence
	shapeMapping
)

func (k shapeKind) String() string {
	switch k {
	case shapeScalar:
		return "scalar"
	case shapeSequence:
		return "sequence"
	case shapeMapping:
		return "mapping"
	default:
		return "null"
	}
}

// classify computes the shape of a node, resolving aliases transparently.
func classify(n *yaml.Node) shapeKind {
	if n == nil {
		return shapeNull
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return shapeNull
		}
		return shapeScalar
	case yaml.SequenceNode:
		return shapeSequence
	case yaml.MappingNode:
		return shapeMapping
	case yaml.AliasNode:
		return classify(n.Alias)
	default:
		return shapeNull
	}
}

func posOf(filename string, n *yaml.Node) Position {
	return Position{Filename: filename, Line: n.Line, Column: n.Column}
}

// mappingPairs returns a mapping node's (key, value) pairs in document
// order. yaml.v3 stores both in a single flat Content slice.
func mappingPairs(n *yaml.Node) [][2]*yaml.Node {
	pairs := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return pairs
}
