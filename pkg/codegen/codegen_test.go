// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package codegen

import (
	"strings"
	"testing"

	"github.com/mesh-lang/mesh/pkg/mir"
)

func TestEmitIdentityFunction(t *testing.T) {
	mod := &mir.Module{
		Functions: []mir.MirFunction{
			{
				Name:   "identity",
				Params: []mir.MirParam{{Name: "x", Ty: mir.TyInt{}}},
				Ret:    mir.TyInt{},
				Body:   mir.Var{Name: "x"},
			},
		},
	}

	g := NewGenerator("test")
	defer g.Dispose()

	if err := g.Emit(mod, "identity"); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	ir := g.Module().String()
	if !strings.Contains(ir, "define") {
		t.Fatalf("expected emitted IR to contain a function definition, got:\n%s", ir)
	}

	if !strings.Contains(ir, "@main") {
		t.Fatalf("expected the canonical entry to be wired as @main, got:\n%s", ir)
	}
}

func TestMapBuiltinName(t *testing.T) {
	cases := map[string]string{
		"list_zip":   "mesh_list_zip",
		"ws_serve_tls": "mesh_ws_serve_tls",
		"my_user_fn": "my_user_fn",
	}

	for in, want := range cases {
		if got := mapBuiltinName(in); got != want {
			t.Errorf("mapBuiltinName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStringConcatLowering(t *testing.T) {
	mod := &mir.Module{
		Functions: []mir.MirFunction{
			{
				Name: "greet",
				Ret:  mir.TyString{},
				Body: mir.StringConcat{Parts: []mir.MirExpr{
					mir.Lit{Kind: mir.LitString, Text: "hello "},
					mir.Lit{Kind: mir.LitString, Text: "world"},
				}},
			},
		},
	}

	g := NewGenerator("test")
	defer g.Dispose()
	g.DeclareExtern("string_concat", []mir.MirType{mir.TyString{}, mir.TyString{}}, mir.TyString{})

	if err := g.Emit(mod, "greet"); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	ir := g.Module().String()
	if !strings.Contains(ir, "mesh_string_concat") {
		t.Fatalf("expected lowering to call mesh_string_concat, got:\n%s", ir)
	}
}
