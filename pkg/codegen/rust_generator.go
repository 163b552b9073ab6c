package codegen

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/blockberries/astgen/pkg/model"
	"github.com/blockberries/astgen/pkg/paths"
)

func init() {
	Register(NewRustGenerator())
}

// RustGenerator emits a Rust module for a finalized schema: type
// declarations, sum reflection tables, GC trace methods, and cast impls
// (spec.md §4.5, §6).
type RustGenerator struct{}

// NewRustGenerator returns a new Rust code generator.
func NewRustGenerator() *RustGenerator {
	return &RustGenerator{}
}

func (g *RustGenerator) Language() Language    { return LanguageRust }
func (g *RustGenerator) FileExtension() string { return ".rs" }

// rustContext carries everything the template funcs need: the schema, the
// cast-path table S4 produced, and the resolved options.
type rustContext struct {
	Schema  *model.Schema
	Paths   *paths.Table
	Options Options
}

func (c *rustContext) derive() []string {
	if len(c.Options.Derive) > 0 {
		return c.Options.Derive
	}
	if len(c.Schema.Config.Derive) > 0 {
		return c.Schema.Config.Derive
	}
	return nil
}

func (c *rustContext) visibility() string {
	if c.Options.Visibility != "" {
		return c.Options.Visibility
	}
	return c.Schema.Config.Visibility
}

// vis returns the visibility keyword followed by a trailing space, or the
// empty string when the schema declares no visibility.
func (c *rustContext) vis() string {
	v := c.visibility()
	if v == "" {
		return ""
	}
	return v + " "
}

func (c *rustContext) typeName(name string) string {
	if model.IsPrimitive(name) {
		return name
	}
	return c.Options.TypePrefix + ToPascalCase(name) + c.Options.TypeSuffix
}

// rustType renders the Rust type of ref, composing Array/Option/Box in
// nesting order (spec.md §3's attribute bundle, §4.5 emission).
func (c *rustContext) rustType(ref *model.TypeRef) string {
	if ref == nil || ref.IsUnit {
		return "()"
	}
	if ref.IsArray {
		t := "Vec<" + c.rustType(ref.Nested) + ">"
		if ref.IsOptional {
			t = "Option<" + t + ">"
		}
		if ref.IsBoxed {
			t = "Box<" + t + ">"
		}
		return t
	}

	t := c.typeName(ref.Target)
	if ref.IsBoxed {
		t = "Box<" + t + ">"
	}
	if ref.IsOptional {
		t = "Option<" + t + ">"
	}
	return t
}

func (c *rustContext) funcMap() template.FuncMap {
	return template.FuncMap{
		"typeDecl":       c.typeDecl,
		"reflectionImpl": c.reflectionImpl,
		"traceImpl":      c.traceImpl,
		"castImpl":       c.castImpl,
		"deriveAttr":     c.deriveAttr,
		"vis":            c.vis,
		"typeName":       c.typeName,
		"pairs":          c.Paths.Pairs,
		"isLossless":     c.Paths.IsLossless,
		"toPascal":       ToPascalCase,
		"toSnake":        ToSnakeCase,
	}
}

func (c *rustContext) deriveAttr() string {
	seen := map[string]bool{"Debug": true, "Clone": true}
	list := []string{"Debug", "Clone"}
	for _, d := range c.derive() {
		if !seen[d] {
			seen[d] = true
			list = append(list, d)
		}
	}
	return "#[derive(" + strings.Join(list, ", ") + ")]"
}

// typeDecl renders the Rust type declaration for one spec: a struct for a
// newtype or record, a #[repr(u8)] enum for a sum (spec.md §3, §6).
func (c *rustContext) typeDecl(s *model.Spec) string {
	name := c.typeName(s.Name)
	var b strings.Builder

	switch s.Kind {
	case model.SpecNewtype:
		fmt.Fprintln(&b, c.deriveAttr())
		if len(s.Newtype.Operands) == 0 {
			fmt.Fprintf(&b, "%sstruct %s;\n", c.vis(), name)
		} else {
			fmt.Fprintf(&b, "%sstruct %s(pub %s);\n", c.vis(), name, c.rustType(s.Newtype.Operands[0]))
		}

	case model.SpecRecord:
		fmt.Fprintln(&b, c.deriveAttr())
		fmt.Fprintf(&b, "%sstruct %s {\n", c.vis(), name)
		for _, f := range s.Record.Fields {
			fmt.Fprintf(&b, "    %spub %s: %s,\n", c.vis(), ToSnakeCase(f.Name), c.rustType(f.Type))
		}
		fmt.Fprintln(&b, "}")

	case model.SpecSum:
		fmt.Fprintln(&b, c.deriveAttr())
		fmt.Fprintln(&b, "#[repr(u8)]")
		fmt.Fprintf(&b, "%senum %s {\n", c.vis(), name)
		for _, cs := range s.Sum.Cases {
			switch len(cs.Operands) {
			case 0:
				fmt.Fprintf(&b, "    %s,\n", ToPascalCase(cs.Name))
			case 1:
				fmt.Fprintf(&b, "    %s(%s),\n", ToPascalCase(cs.Name), c.rustType(cs.Operands[0]))
			default:
				types := make([]string, len(cs.Operands))
				for i, op := range cs.Operands {
					types[i] = c.rustType(op)
				}
				fmt.Fprintf(&b, "    %s(%s),\n", ToPascalCase(cs.Name), strings.Join(types, ", "))
			}
		}
		fmt.Fprintln(&b, "}")
	}

	return b.String()
}

// reflectionImpl emits the constant-time tag -> payload-type-name lookup
// for a sum (spec.md §4.5, §9 "tagged union reflection table"). Cases of
// arity other than 1 are sentinel-absent (None): a cast path can never
// terminate on them (pkg/paths §4.4), so reflection has nothing to name.
func (c *rustContext) reflectionImpl(s *model.Spec) string {
	if s.Kind != model.SpecSum {
		return ""
	}
	name := c.typeName(s.Name)
	var b strings.Builder

	fmt.Fprintf(&b, "impl %s {\n", name)
	fmt.Fprintln(&b, "    pub fn tag(&self) -> u8 {")
	fmt.Fprintln(&b, "        match self {")
	for i, cs := range s.Sum.Cases {
		pat := ToPascalCase(cs.Name)
		switch len(cs.Operands) {
		case 0:
			fmt.Fprintf(&b, "            %s::%s => %d,\n", name, pat, i)
		case 1:
			fmt.Fprintf(&b, "            %s::%s(_) => %d,\n", name, pat, i)
		default:
			fmt.Fprintf(&b, "            %s::%s(..) => %d,\n", name, pat, i)
		}
	}
	fmt.Fprintln(&b, "        }")
	fmt.Fprintln(&b, "    }")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "    pub fn payload_type_name(tag: u8) -> Option<&'static str> {")
	fmt.Fprintln(&b, "        match tag {")
	for i, cs := range s.Sum.Cases {
		if len(cs.Operands) == 1 {
			if leaf, ok := cs.Operands[0].Leaf(); ok {
				fmt.Fprintf(&b, "            %d => Some(%q),\n", i, leaf)
				continue
			}
		}
		fmt.Fprintf(&b, "            %d => None,\n", i)
	}
	fmt.Fprintln(&b, "            _ => None,")
	fmt.Fprintln(&b, "        }")
	fmt.Fprintln(&b, "    }")
	fmt.Fprintln(&b, "}")

	return b.String()
}

// traceStmt renders the statement that hands every owned, non-primitive
// descendant reachable through ref to marker, unwrapping Array/Option/Box
// along the way. Returns "" when ref has nothing a collector needs to see
// (a primitive leaf, or the unit sentinel).
func (c *rustContext) traceStmt(ref *model.TypeRef, expr string) string {
	if ref == nil || ref.IsUnit {
		return ""
	}
	if ref.IsArray {
		inner := c.traceStmt(ref.Nested, "item")
		if inner == "" {
			return ""
		}
		if ref.IsOptional {
			return fmt.Sprintf("if let Some(items) = &%s {\n    for item in items.iter() {\n        %s\n    }\n}", expr, inner)
		}
		return fmt.Sprintf("for item in %s.iter() {\n    %s\n}", expr, inner)
	}

	leaf, ok := ref.Leaf()
	if !ok || model.IsPrimitive(leaf) {
		return ""
	}

	if ref.IsOptional {
		access := "v"
		if !ref.IsBoxed {
			access = "&v"
		}
		return fmt.Sprintf("if let Some(v) = &%s {\n    marker(%s);\n}", expr, accessRef(ref.IsBoxed, access))
	}
	if ref.IsBoxed {
		return fmt.Sprintf("marker(%s.as_ref());", expr)
	}
	return fmt.Sprintf("marker(&%s);", expr)
}

func accessRef(boxed bool, expr string) string {
	if boxed {
		return expr + ".as_ref()"
	}
	return expr
}

// traceImpl emits the Trace impl for one spec: a straight descent for a
// newtype/record, a match over cases for a sum (spec.md §9 "Recursive tree
// walk for GC").
func (c *rustContext) traceImpl(s *model.Spec) string {
	name := c.typeName(s.Name)
	var body strings.Builder

	switch s.Kind {
	case model.SpecNewtype:
		if len(s.Newtype.Operands) == 1 {
			if stmt := c.traceStmt(s.Newtype.Operands[0], "self.0"); stmt != "" {
				fmt.Fprintln(&body, "        "+strings.ReplaceAll(stmt, "\n", "\n        "))
			}
		}

	case model.SpecRecord:
		for _, f := range s.Record.Fields {
			field := ToSnakeCase(f.Name)
			if stmt := c.traceStmt(f.Type, "self."+field); stmt != "" {
				fmt.Fprintln(&body, "        "+strings.ReplaceAll(stmt, "\n", "\n        "))
			}
		}

	case model.SpecSum:
		fmt.Fprintln(&body, "        match self {")
		for _, cs := range s.Sum.Cases {
			pat := ToPascalCase(cs.Name)
			switch len(cs.Operands) {
			case 0:
				fmt.Fprintf(&body, "            %s::%s => {}\n", name, pat)
			case 1:
				stmt := c.traceStmt(cs.Operands[0], "v0")
				if stmt == "" {
					fmt.Fprintf(&body, "            %s::%s(_v0) => {}\n", name, pat)
				} else {
					fmt.Fprintf(&body, "            %s::%s(v0) => {\n                %s\n            }\n",
						name, pat, strings.ReplaceAll(stmt, "\n", "\n                "))
				}
			default:
				names := make([]string, len(cs.Operands))
				var stmts []string
				for i, op := range cs.Operands {
					vn := fmt.Sprintf("v%d", i)
					names[i] = vn
					if stmt := c.traceStmt(op, vn); stmt != "" {
						stmts = append(stmts, stmt)
					}
				}
				fmt.Fprintf(&body, "            %s::%s(%s) => {\n", name, pat, strings.Join(names, ", "))
				for _, stmt := range stmts {
					fmt.Fprintf(&body, "                %s\n", strings.ReplaceAll(stmt, "\n", "\n                "))
				}
				fmt.Fprintln(&body, "            }")
			}
		}
		fmt.Fprintln(&body, "        }")
	}

	return fmt.Sprintf("impl Trace for %s {\n    fn trace(&self, marker: &mut dyn FnMut(&dyn Trace)) {\n%s    }\n}",
		name, body.String())
}

// payloadWrap wraps expr in Box::new(...) when hop's payload crosses a
// Box boundary that is not itself an array (spec.md §4.4's construction
// state machine: "wrap in a fresh heap allocation").
func payloadWrap(hop paths.CastHop, expr string) string {
	if hop.PayloadType != nil && hop.PayloadType.IsBoxed && !hop.PayloadType.IsArray {
		return "Box::new(" + expr + ")"
	}
	return expr
}

// payloadDeref is the matching extraction-side counterpart: dereference a
// boxed, non-array payload before binding it (§4.4's extraction state
// machine: "dereference before matching when the preceding hop was boxed").
func payloadDeref(hop paths.CastHop, bound string) string {
	if hop.PayloadType != nil && hop.PayloadType.IsBoxed && !hop.PayloadType.IsArray {
		return "*" + bound
	}
	return bound
}

// castImpl emits the conversion impl(s) for one retained cast path. An
// injection (`From<To> for From`) is always emitted; the lossy extraction
// (`TryFrom<From> for To`) is only added when the reverse path does not
// also exist (spec.md §4.4: a lossless pair needs only the injection).
func (c *rustContext) castImpl(pair [2]string) string {
	from, to := pair[0], pair[1]
	path, ok := c.Paths.Get(from, to)
	if !ok {
		return ""
	}
	fromType := c.typeName(from)
	toType := c.typeName(to)
	if path.TerminalIsStr {
		// str is unsized (!Sized); the last hop's payload is boxed to
		// hold it (pkg/cycle's forceUnsizedLeaf), so the impls below
		// must spell the boxed form, not the bare `str` leaf.
		toType = c.rustType(path.Hops[len(path.Hops)-1].PayloadType)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "impl From<%s> for %s {\n", toType, fromType)
	fmt.Fprintf(&b, "    fn from(value: %s) -> Self {\n", toType)
	expr := "value"
	last := len(path.Hops) - 1
	for i := last; i >= 0; i-- {
		hop := path.Hops[i]
		wrapped := expr
		// The terminal hop into a str path already receives value at
		// its boxed type (toType above) — wrapping it again would
		// produce Box<Box<str>>, not the Box<str> the case holds.
		if i != last || !path.TerminalIsStr {
			wrapped = payloadWrap(hop, expr)
		}
		expr = fmt.Sprintf("%s::%s(%s)", c.typeName(hop.SumName), ToPascalCase(hop.CaseName), wrapped)
	}
	fmt.Fprintf(&b, "        %s\n", expr)
	fmt.Fprintln(&b, "    }")
	fmt.Fprintln(&b, "}")

	if c.Paths.IsLossless(from, to) {
		return b.String()
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "impl TryFrom<%s> for %s {\n", fromType, toType)
	fmt.Fprintln(&b, "    type Error = CastError;")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "    fn try_from(value: %s) -> Result<Self, Self::Error> {\n", fromType)
	fmt.Fprint(&b, renderExtraction(path.Hops, 0, "value", from, to, path.TerminalIsStr, 2))
	fmt.Fprintln(&b, "    }")
	fmt.Fprintln(&b, "}")

	return b.String()
}

// renderExtraction builds the nested match that unwinds hops[i:] out of
// valueExpr, emitting Ok(...) once every hop has been matched and Err at
// every mismatched arm (spec.md §4.4 extraction state machine).
func renderExtraction(hops []paths.CastHop, i int, valueExpr, from, to string, terminalIsStr bool, depth int) string {
	pad := strings.Repeat("    ", depth)
	if i == len(hops) {
		return fmt.Sprintf("%sOk(%s)\n", pad, valueExpr)
	}

	hop := hops[i]
	bound := fmt.Sprintf("inner%d", i)
	var b strings.Builder
	fmt.Fprintf(&b, "%smatch %s {\n", pad, valueExpr)
	fmt.Fprintf(&b, "%s    %s::%s(%s) => {\n", pad, hop.SumName, ToPascalCase(hop.CaseName), bound)
	next := bound
	// Same asymmetry as the injection side: the terminal str hop's
	// binding is already Box<str>, the type Self expects — dereferencing
	// it here would try to produce an unsized `str` value.
	if i != len(hops)-1 || !terminalIsStr {
		next = payloadDeref(hop, bound)
	}
	fmt.Fprint(&b, renderExtraction(hops, i+1, next, from, to, terminalIsStr, depth+2))
	fmt.Fprintf(&b, "%s    }\n", pad)
	fmt.Fprintf(&b, "%s    _ => Err(CastError { from: %q, to: %q }),\n", pad, from, to)
	fmt.Fprintf(&b, "%s}\n", pad)
	return b.String()
}

const rustPreamble = `// Generated source. Do not edit by hand.
#![allow(dead_code)]

#[derive(Debug)]
pub struct CastError {
    pub from: &'static str,
    pub to: &'static str,
}

impl std::fmt::Display for CastError {
    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {
        write!(f, "cannot cast {} into {}", self.from, self.to)
    }
}

impl std::error::Error for CastError {}

pub trait Trace {
    fn trace(&self, marker: &mut dyn FnMut(&dyn Trace));
}
`

const rustSizeFixture = `
#[cfg(test)]
mod generated_size_check {
    use super::*;

    #[test]
    fn sizes_are_printed() {
{{- range .Schema.Specs }}
        println!("{{ typeName .Name }}: {}", std::mem::size_of::<{{ typeName .Name }}>());
{{- end }}
    }
}
`

const rustTemplate = `{{ preamble }}
{{ range .Schema.Specs }}
{{ typeDecl . }}
{{ reflectionImpl . }}
{{ traceImpl . }}
{{ end }}
{{ range pairs }}
{{ castImpl . }}
{{ end }}
` + rustSizeFixture

// Generate renders schema and its S4 cast-path table castPaths as Rust
// source into w.
func (g *RustGenerator) Generate(w io.Writer, schema *model.Schema, castPaths *paths.Table, options Options) error {
	ctx := &rustContext{Schema: schema, Paths: castPaths, Options: options}

	funcs := ctx.funcMap()
	funcs["preamble"] = func() string { return rustPreamble }

	tmpl, err := template.New("rust").Funcs(funcs).Parse(rustTemplate)
	if err != nil {
		return &GeneratorError{Message: fmt.Sprintf("parsing rust template: %v", err)}
	}

	return tmpl.Execute(w, ctx)
}
