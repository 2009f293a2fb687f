// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"fmt"
	"sort"

	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
)

// Derivable is the closed set of traits the compiler can synthesize (spec
// §4.4's auto-derive). Anything outside this set in a deriving(...) clause
// is an UnsupportedDerive error.
var Derivable = map[string]bool{
	"Debug":   true,
	"Display": true,
	"Eq":      true,
	"Ord":     true,
	"Hash":    true,
}

// defaultStructDerives is the implicit set applied to a struct with no
// explicit deriving(...) clause.
var defaultStructDerives = []string{"Debug", "Eq", "Ord", "Hash"}

// defaultSumDerives is the implicit set applied to a sum type with no
// explicit deriving(...) clause. Sum types don't auto-derive Hash: spec
// §4.4 scopes default Hash synthesis to product types only, since a
// variant's payload may itself be non-hashable without an explicit opt-in.
var defaultSumDerives = []string{"Debug", "Eq", "Ord"}

// DeriveError reports a deriving(...) clause the compiler rejects.
type DeriveError struct {
	Kind  DeriveErrorKind
	Trait string
	Type  string
}

// DeriveErrorKind distinguishes why a derive request was rejected.
type DeriveErrorKind uint8

const (
	UnsupportedDerive DeriveErrorKind = iota
	GenericDerive
)

func (e *DeriveError) Error() string {
	switch e.Kind {
	case GenericDerive:
		return fmt.Sprintf("E0021: cannot derive %s for generic type %s", e.Trait, e.Type)
	default:
		return fmt.Sprintf("E0020: %s is not a derivable trait", e.Trait)
	}
}

// ResolveDerives computes the final set of traits to synthesize for a
// struct or sum type, given its explicit deriving clause (nil meaning
// absent, in which case the type-kind default set applies) and whether the
// type declares any type parameters (generic types cannot derive anything,
// spec §4.4: a generic's auto-derived method bodies would need per-
// instantiation monomorphization the compiler doesn't perform).
func ResolveDerives(contents []byte, deriving *cst.Node, isSumType, isGeneric bool) ([]string, error) {
	if deriving == nil {
		if isGeneric {
			return nil, nil
		}

		if isSumType {
			return append([]string(nil), defaultSumDerives...), nil
		}

		return append([]string(nil), defaultStructDerives...), nil
	}

	names := cst.DerivingNames(deriving)
	out := make([]string, 0, len(names))

	for _, tok := range names {
		name := string(contents[tok.Span.Start():tok.Span.End()])

		if !Derivable[name] {
			return nil, &DeriveError{Kind: UnsupportedDerive, Trait: name}
		}

		if isGeneric {
			return nil, &DeriveError{Kind: GenericDerive, Trait: name}
		}

		out = append(out, name)
	}

	return out, nil
}

// IsGeneric reports whether a TypeRef node carries any `<...>` type
// argument list of its own bare identifiers (spec's type-parameter syntax
// reuses TypeRef's angle-bracket list; a struct/sum type declares type
// parameters the same way a reference instantiates them).
func IsGeneric(n *cst.Node) bool {
	if n == nil {
		return false
	}

	_, ok := n.FirstChildToken(lexer.Lt)

	return ok
}

// sortedDeriveNames returns a sorted copy of names, for deterministic
// iteration over a synthesized set; nothing in this module calls it.
func sortedDeriveNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)

	return out
}
