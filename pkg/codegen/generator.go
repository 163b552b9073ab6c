// Package codegen turns a finalized schema (post S1-S4) into source text.
// The emitter is a thin formatter over the analysis core in pkg/model,
// pkg/graph, pkg/cycle, and pkg/paths — it reads the model, it never
// decides cycle-breaking or cast-path shape itself.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/blockberries/astgen/pkg/model"
	"github.com/blockberries/astgen/pkg/paths"
)

// Language represents a target code generation language.
type Language string

const (
	LanguageRust Language = "rust"
)

// Generator is the interface for code generators. It takes the finalized
// S1-S3 schema and the S4 cast-path table together — a generator must not
// rerun the analysis core itself.
type Generator interface {
	Generate(w io.Writer, schema *model.Schema, castPaths *paths.Table, options Options) error
	Language() Language
	FileExtension() string
}

// Options configures code generation. Derive and Visibility default to
// the schema's own config section (§6) when left zero; setting them here
// overrides the schema, mirroring the teacher's Options.Package override
// of schema.Package.
type Options struct {
	// Derive overrides the schema's config.derive list when non-empty.
	Derive []string

	// Visibility overrides the schema's config.visibility when non-empty.
	Visibility string

	// GenerateComments includes doc comments carried from the schema
	// (kept for parity with the teacher; this model carries no comments
	// today, so this currently has no effect).
	GenerateComments bool

	// TypePrefix adds a prefix to all type names.
	TypePrefix string

	// TypeSuffix adds a suffix to all type names.
	TypeSuffix string
}

// DefaultOptions returns the default code generation options.
func DefaultOptions() Options {
	return Options{GenerateComments: true}
}

// registry holds registered generators by language.
var registry = make(map[Language]Generator)

// Register registers a generator for a language.
func Register(gen Generator) {
	registry[gen.Language()] = gen
}

// Get returns the generator for a language.
func Get(lang Language) (Generator, bool) {
	gen, ok := registry[lang]
	return gen, ok
}

// Languages returns all registered languages.
func Languages() []Language {
	langs := make([]Language, 0, len(registry))
	for lang := range registry {
		langs = append(langs, lang)
	}
	return langs
}

// titleCaser is used for converting strings to title case.
var titleCaser = cases.Title(language.English)

// ToPascalCase converts a string to PascalCase.
func ToPascalCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = titleCaser.String(strings.ToLower(p))
	}
	return strings.Join(parts, "")
}

// ToCamelCase converts a string to camelCase.
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return ""
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// ToSnakeCase converts a string to snake_case.
func ToSnakeCase(s string) string {
	parts := splitName(s)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, "_")
}

// splitName splits a name into parts based on underscores and case transitions.
func splitName(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	for i, r := range s {
		if r == '_' || r == '-' {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			continue
		}

		if i > 0 && isUpper(r) && !isUpper(rune(s[i-1])) {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// Indent indents each line of s by the given number of tabs.
func Indent(s string, tabs int) string {
	indent := strings.Repeat("\t", tabs)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// Comment wraps text as a Rust doc comment.
func Comment(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "/// " + line
	}
	return strings.Join(lines, "\n")
}

// GeneratorError represents a code generation error.
type GeneratorError struct {
	Message  string
	Position model.Position
}

func (e *GeneratorError) Error() string {
	if e.Position.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Position, e.Message)
	}
	return e.Message
}
