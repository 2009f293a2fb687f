// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package mir

import "fmt"

// SynthesizeStructDerives generates one MirFunction per derived trait for a
// struct, named via the same Trait__Method__Type convention as a
// hand-written impl so dispatch doesn't need to distinguish the two (spec
// §4.5's auto-derive synthesis).
func SynthesizeStructDerives(sd MirStructDef) []MirFunction {
	var out []MirFunction

	self := MirParam{Name: "self", Ty: TyStruct{Name: sd.Name}}
	other := MirParam{Name: "other", Ty: TyStruct{Name: sd.Name}}

	for _, trait := range sd.Derives {
		switch trait {
		case "Debug":
			out = append(out, MirFunction{
				Name:   fnName(trait, "debug_string", sd.Name),
				Params: []MirParam{self},
				Ret:    TyString{},
				Body:   debugBodyForFields(sd.Name, sd.Fields),
			})
		case "Display":
			out = append(out, MirFunction{
				Name:   fnName(trait, "to_string", sd.Name),
				Params: []MirParam{self},
				Ret:    TyString{},
				Body:   displayBodyForFields(sd.Name, sd.Fields),
			})
		case "Eq":
			out = append(out, MirFunction{
				Name:   fnName(trait, "eq", sd.Name),
				Params: []MirParam{self, other},
				Ret:    TyBool{},
				Body:   fieldwiseBoolFold(sd.Fields, "mesh_eq", "mesh_and", true),
			})
		case "Ord":
			out = append(out, MirFunction{
				Name:   fnName(trait, "compare", sd.Name),
				Params: []MirParam{self, other},
				Ret:    TyInt{},
				Body:   lexicographicCompare(sd.Fields),
			})
		case "Hash":
			out = append(out, MirFunction{
				Name:   fnName(trait, "hash", sd.Name),
				Params: []MirParam{self},
				Ret:    TyInt{},
				Body:   fieldwiseHashFold(sd.Fields),
			})
		}
	}

	return out
}

// SynthesizeSumDerives generates one MirFunction per derived trait for a
// sum type, covering Debug, Display, Eq and Ord. Sum types do not derive
// Hash by default (spec §4.4); a Hash entry from an explicit
// deriving(Hash) clause passes types.ResolveDerives but produces no
// function here.
func SynthesizeSumDerives(st MirSumTypeDef) []MirFunction {
	var out []MirFunction

	self := MirParam{Name: "self", Ty: TyStruct{Name: st.Name}}
	other := MirParam{Name: "other", Ty: TyStruct{Name: st.Name}}

	for _, trait := range st.Derives {
		switch trait {
		case "Debug":
			out = append(out, MirFunction{
				Name:   fnName(trait, "debug_string", st.Name),
				Params: []MirParam{self},
				Ret:    TyString{},
				Body:   debugBodyForVariants(st.Name, st.Variants),
			})
		case "Display":
			out = append(out, MirFunction{
				Name:   fnName(trait, "to_string", st.Name),
				Params: []MirParam{self},
				Ret:    TyString{},
				Body:   displayBodyForVariants(st.Name, st.Variants),
			})
		case "Eq":
			out = append(out, MirFunction{
				Name:   fnName(trait, "eq", st.Name),
				Params: []MirParam{self, other},
				Ret:    TyBool{},
				Body: Call{
					Callee: Var{Name: "mesh_variant_eq"},
					Args:   []MirExpr{Var{Name: "self"}, Var{Name: "other"}},
				},
			})
		case "Ord":
			out = append(out, MirFunction{
				Name:   fnName(trait, "compare", st.Name),
				Params: []MirParam{self, other},
				Ret:    TyInt{},
				Body: Call{
					Callee: Var{Name: "mesh_variant_compare"},
					Args:   []MirExpr{Var{Name: "self"}, Var{Name: "other"}},
				},
			})
		}
	}

	return out
}

func fnName(trait, method, implType string) string {
	return fmt.Sprintf("%s__%s__%s", trait, method, implType)
}

func debugBodyForFields(typeName string, fields []MirParam) MirExpr {
	parts := []MirExpr{Lit{Kind: LitString, Text: typeName + " { "}}

	for i, f := range fields {
		prefix := f.Name + ": "
		if i > 0 {
			prefix = ", " + prefix
		}

		parts = append(parts,
			Lit{Kind: LitString, Text: prefix},
			Call{Callee: Var{Name: "to_string"}, Args: []MirExpr{FieldAccess{Base: Var{Name: "self"}, Field: f.Name}}},
		)
	}

	parts = append(parts, Lit{Kind: LitString, Text: " }"})

	return StringConcat{Parts: parts}
}

func debugBodyForVariants(typeName string, variants []MirVariant) MirExpr {
	var arms []MatchArm

	for _, v := range variants {
		label := Lit{Kind: LitString, Text: typeName + "." + v.Name}
		test := Call{
			Callee: Var{Name: "mesh_variant_tag_eq"},
			Args:   []MirExpr{Var{Name: "self"}, Lit{Kind: LitString, Text: v.Name}},
		}
		arms = append(arms, MatchArm{Test: test, Body: label})
	}

	return Match{Scrutinee: Var{Name: "self"}, Arms: arms}
}

// displayBodyForFields builds the positional "Name(f0, f1, …)" form spec
// §4.5 assigns to a struct's derived Display (as opposed to Debug's named
// "Name { f: v }" form).
func displayBodyForFields(typeName string, fields []MirParam) MirExpr {
	parts := []MirExpr{Lit{Kind: LitString, Text: typeName + "("}}

	for i, f := range fields {
		if i > 0 {
			parts = append(parts, Lit{Kind: LitString, Text: ", "})
		}

		parts = append(parts, Call{
			Callee: Var{Name: "to_string"},
			Args:   []MirExpr{FieldAccess{Base: Var{Name: "self"}, Field: f.Name}},
		})
	}

	parts = append(parts, Lit{Kind: LitString, Text: ")"})

	return StringConcat{Parts: parts}
}

// displayBodyForVariants builds a sum type's derived Display: a nullary
// variant prints its bare name, a non-nullary variant prints
// "Variant(v0, v1, …)" with its payload bound via a Constructor pattern
// (spec §4.5).
func displayBodyForVariants(typeName string, variants []MirVariant) MirExpr {
	var arms []MatchArm

	for _, v := range variants {
		test := Call{
			Callee: Var{Name: "mesh_variant_tag_eq"},
			Args:   []MirExpr{Var{Name: "self"}, Lit{Kind: LitString, Text: v.Name}},
		}

		if len(v.Payload) == 0 {
			arms = append(arms, MatchArm{Test: test, Body: Lit{Kind: LitString, Text: v.Name}})
			continue
		}

		var bindings []Binding

		parts := []MirExpr{Lit{Kind: LitString, Text: v.Name + "("}}

		for i := range v.Payload {
			name := fmt.Sprintf("v%d", i)
			bindings = append(bindings, Binding{Name: name, PayloadIndex: i})

			if i > 0 {
				parts = append(parts, Lit{Kind: LitString, Text: ", "})
			}

			parts = append(parts, Call{Callee: Var{Name: "to_string"}, Args: []MirExpr{Var{Name: name}}})
		}

		parts = append(parts, Lit{Kind: LitString, Text: ")"})

		arms = append(arms, MatchArm{Test: test, Bindings: bindings, Body: StringConcat{Parts: parts}})
	}

	return Match{Scrutinee: Var{Name: "self"}, Arms: arms}
}

// fieldwiseBoolFold folds a per-field binary predicate over every field,
// combining results with combineOp; identity is the fold's seed value
// (true for Eq's implicit AND-of-equalities).
func fieldwiseBoolFold(fields []MirParam, predicate, combineOp string, identity bool) MirExpr {
	seed := MirExpr(Lit{Kind: LitBool, Text: fmt.Sprintf("%v", identity)})

	acc := seed

	for _, f := range fields {
		cmp := Call{
			Callee: Var{Name: predicate},
			Args: []MirExpr{
				FieldAccess{Base: Var{Name: "self"}, Field: f.Name},
				FieldAccess{Base: Var{Name: "other"}, Field: f.Name},
			},
		}

		acc = Call{Callee: Var{Name: combineOp}, Args: []MirExpr{acc, cmp}}
	}

	return acc
}

// lexicographicCompare chains mesh_compare calls field by field: the first
// non-zero result short-circuits via mesh_compare_chain, matching spec
// §4.4's default Ord derive (lexicographic over declaration order).
func lexicographicCompare(fields []MirParam) MirExpr {
	var perField []MirExpr

	for _, f := range fields {
		perField = append(perField, Call{
			Callee: Var{Name: "mesh_compare"},
			Args: []MirExpr{
				FieldAccess{Base: Var{Name: "self"}, Field: f.Name},
				FieldAccess{Base: Var{Name: "other"}, Field: f.Name},
			},
		})
	}

	return Call{Callee: Var{Name: "mesh_compare_chain"}, Args: perField}
}

func fieldwiseHashFold(fields []MirParam) MirExpr {
	var perField []MirExpr

	for _, f := range fields {
		perField = append(perField, Call{
			Callee: Var{Name: "mesh_hash"},
			Args:   []MirExpr{FieldAccess{Base: Var{Name: "self"}, Field: f.Name}},
		})
	}

	return Call{Callee: Var{Name: "mesh_hash_combine"}, Args: perField}
}
