// Command astgen reads ./ast.yaml, runs the four analysis stages over it
// (schema parsing, reference-graph construction, cycle breaking, and
// cast-path inference), and writes the generated Rust source to stdout.
//
// There are no flags: the schema path and output stream are fixed.
package main

import (
	"fmt"
	"os"

	"github.com/blockberries/astgen/pkg/codegen"
	"github.com/blockberries/astgen/pkg/cycle"
	"github.com/blockberries/astgen/pkg/graph"
	"github.com/blockberries/astgen/pkg/model"
	"github.com/blockberries/astgen/pkg/paths"
)

const schemaPath = "./ast.yaml"

func main() {
	schema, errs, warnings := model.LoadAndValidate(schemaPath)
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	g := graph.Build(schema)
	cycle.Break(g)
	castPaths := paths.Build(g)

	gen, ok := codegen.Get(codegen.LanguageRust)
	if !ok {
		fmt.Fprintln(os.Stderr, "no rust generator registered")
		os.Exit(1)
	}

	if err := gen.Generate(os.Stdout, schema, castPaths, codegen.DefaultOptions()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
