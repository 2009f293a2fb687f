// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package types implements the Hindley-Milner checker from spec §4.4:
// unification over a union-find substitution table, let-generalization,
// user-defined interfaces with associated types, method-dot resolution,
// and the cross-module visibility/export system. Grounded on the
// scope/environment/resolver split in the teacher's
// pkg/corset/compiler/{scope.go,resolver.go,typing.go}, generalized from a
// single-pass constraint-system checker to full HM inference.
package types

import "fmt"

// Ty is a type as spec §3 defines it: a closed sum of five shapes.
type Ty interface{ isTy() }

// Var is an unbound (or substituted, via TyCtx) type variable.
type Var struct{ ID uint32 }

// Con is a nullary type constructor (Int, Bool, String, a struct/sum name).
type Con struct{ Name string }

// App is a type constructor applied to arguments (e.g. List<Int>).
type App struct {
	Ctor string
	Args []Ty
}

// Fun is a function type.
type Fun struct {
	Params []Ty
	Ret    Ty
}

// Tuple is a fixed-arity product type.
type Tuple struct{ Items []Ty }

func (Var) isTy()   {}
func (Con) isTy()   {}
func (App) isTy()   {}
func (Fun) isTy()   {}
func (Tuple) isTy() {}

// Scheme binds a type's free variables for let-generalization.
type Scheme struct {
	Vars []uint32
	Ty   Ty
}

// Monotype wraps a concrete type with no free variables to bind.
func Monotype(t Ty) Scheme { return Scheme{Ty: t} }

func (s Scheme) String() string {
	return fmt.Sprintf("forall %v. %s", s.Vars, Format(s.Ty))
}

// Format renders a Ty for diagnostics.
func Format(t Ty) string {
	switch v := t.(type) {
	case Var:
		return fmt.Sprintf("t%d", v.ID)
	case Con:
		return v.Name
	case App:
		s := v.Ctor + "<"
		for i, a := range v.Args {
			if i > 0 {
				s += ", "
			}

			s += Format(a)
		}

		return s + ">"
	case Fun:
		s := "("
		for i, p := range v.Params {
			if i > 0 {
				s += ", "
			}

			s += Format(p)
		}

		return s + ") -> " + Format(v.Ret)
	case Tuple:
		s := "("
		for i, item := range v.Items {
			if i > 0 {
				s += ", "
			}

			s += Format(item)
		}

		return s + ")"
	}

	return "?"
}

// Well-known primitive constructors.
var (
	TyInt    = Con{Name: "Int"}
	TyFloat  = Con{Name: "Float"}
	TyBool   = Con{Name: "Bool"}
	TyString = Con{Name: "String"}
	TyUnit   = Con{Name: "Unit"}
)
