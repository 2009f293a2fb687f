// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"testing"

	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/source"
)

func TestParseIsLossless(t *testing.T) {
	src := []byte("fn add(x :: Int, y :: Int) -> Int do\n  x + y\nend\n")

	root, lexErrs, diags := Parse(src)
	if len(lexErrs) != 0 || len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: lex=%v parse=%v", lexErrs, diags)
	}

	got := root.Text(source.NewFile("test.snow", src))
	want := string(src)

	if got != want {
		t.Fatalf("lossless round-trip failed:\n got: %q\nwant: %q", got, want)
	}
}

func TestParseStructDefWithDeriving(t *testing.T) {
	src := []byte("struct Point do\n  x :: Int\n  y :: Int\nend deriving(Eq, Display)\n")

	root, _, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	structs := root.ChildNodes(cst.StructDef)
	if len(structs) != 1 {
		t.Fatalf("expected 1 struct def, got %d", len(structs))
	}

	sd, ok := cst.AsStructDef(structs[0])
	if !ok {
		t.Fatalf("expected StructDef view")
	}

	if d := sd.Deriving(); d == nil {
		t.Fatalf("expected a deriving clause")
	} else if names := cst.DerivingNames(d); len(names) != 2 {
		t.Fatalf("expected 2 deriving names, got %d", len(names))
	}
}

func TestParserRecoversFromMissingEnd(t *testing.T) {
	src := []byte("fn broken(x) do\n  x\n")

	_, _, diags := Parse(src)
	if len(diags) == 0 {
		t.Fatalf("expected a recovered parse_error diagnostic")
	}
}

func TestStringCaseExpressionParses(t *testing.T) {
	// Parsing alone doesn't reject non-exhaustive matches (that's the
	// checker's job, spec §4.4/E0012); this only asserts the case
	// expression with string patterns parses cleanly, arms included.
	src := []byte(`fn describe(name :: String) -> String do
  case name do
    "alice" -> "Alice"
    "bob" -> "Bob"
    _ -> "Other"
  end
end
`)

	root, _, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	fns := root.ChildNodes(cst.FnDef)
	if len(fns) != 1 {
		t.Fatalf("expected 1 fn def")
	}
}
