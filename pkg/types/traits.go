// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package types

import "fmt"

// TraitDef is an interface declaration (spec §3 "Trait registry").
type TraitDef struct {
	Name             string
	MethodSignatures map[string]Scheme
	AssocTypes       []string // e.g. "Item" for Iter
}

// ImplMethodSig describes one method inside a trait impl.
type ImplMethodSig struct {
	ParamCount int
	ReturnType Ty
}

// TraitImplDef attaches a trait to a concrete type.
type TraitImplDef struct {
	TraitName  string
	ImplType   string
	Methods    map[string]ImplMethodSig
	AssocTypes map[string]Ty // concrete bindings for the trait's associated types
}

// MangledName computes "Trait__Method__Type", the dispatch convention spec
// §3/§4.5 mandates for every trait impl.
func MangledName(trait, method, implType string) string {
	return fmt.Sprintf("%s__%s__%s", trait, method, implType)
}

// Registry holds every trait definition and impl visible during checking.
type Registry struct {
	Traits map[string]*TraitDef
	Impls  []*TraitImplDef
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{Traits: make(map[string]*TraitDef)}
}

// DefineTrait registers a trait definition.
func (r *Registry) DefineTrait(t *TraitDef) { r.Traits[t.Name] = t }

// DefineImpl registers a trait impl.
func (r *Registry) DefineImpl(i *TraitImplDef) { r.Impls = append(r.Impls, i) }

// FindMethodTraits returns the names of every trait that (a) declares
// method and (b) has an impl for ty, per spec §3's
// find_method_traits(method, ty) -> [trait_name] contract. "After
// fresh-unify" in the spec means: an impl counts as a match only if its
// concrete ImplType structurally matches ty, which for first-order,
// non-generic impls (the only kind user code can define, since generic
// impls fall under GenericDerive, spec §4.4) reduces to name equality.
func (r *Registry) FindMethodTraits(method string, ty Ty) []string {
	typeName, ok := concreteTypeName(ty)
	if !ok {
		return nil
	}

	var matches []string
	seen := map[string]bool{}

	for _, impl := range r.Impls {
		if impl.ImplType != typeName {
			continue
		}

		if _, has := impl.Methods[method]; !has {
			continue
		}

		if !seen[impl.TraitName] {
			seen[impl.TraitName] = true
			matches = append(matches, impl.TraitName)
		}
	}

	return matches
}

// ResolveTraitMethod returns the return type of method on ty if exactly one
// trait impl provides it, per spec §3's
// resolve_trait_method(method, ty) -> Option<ty> contract.
func (r *Registry) ResolveTraitMethod(method string, ty Ty) (Ty, bool) {
	typeName, ok := concreteTypeName(ty)
	if !ok {
		return nil, false
	}

	for _, impl := range r.Impls {
		if impl.ImplType != typeName {
			continue
		}

		if sig, has := impl.Methods[method]; has {
			return sig.ReturnType, true
		}
	}

	return nil, false
}

func concreteTypeName(ty Ty) (string, bool) {
	switch t := ty.(type) {
	case Con:
		return t.Name, true
	case App:
		return t.Ctor, true
	}

	return "", false
}

// MethodResolutionError is the closed set of failures from spec §4.4 step
// 2's method-call retry.
type MethodResolutionError struct {
	Kind   MethodErrorKind
	Ty     Ty
	Method string
}

// MethodErrorKind distinguishes the two method-resolution failure modes.
type MethodErrorKind uint8

const (
	NoSuchMethod MethodErrorKind = iota
	AmbiguousMethod
)

func (e *MethodResolutionError) Error() string {
	switch e.Kind {
	case AmbiguousMethod:
		return fmt.Sprintf("E0019: ambiguous method %q on type %s", e.Method, Format(e.Ty))
	default:
		return fmt.Sprintf("E0018: type %s has no method %q", Format(e.Ty), e.Method)
	}
}

// ResolveMethodCall implements spec §4.4's three-step dot-syntax algorithm.
// stdlibMethod, when non-nil, is consulted only if no trait impl provides
// method; the checker's callers pass nil, so their lookups resolve through
// trait impls alone.
func (r *Registry) ResolveMethodCall(ctx *TyCtx, method string, receiver Ty, stdlibMethod func(method string, ty Ty) (Ty, bool)) (Ty, error) {
	matches := r.FindMethodTraits(method, receiver)

	switch len(matches) {
	case 0:
		if stdlibMethod != nil {
			if ret, ok := stdlibMethod(method, receiver); ok {
				return ret, nil
			}
		}

		return nil, &MethodResolutionError{Kind: NoSuchMethod, Ty: receiver, Method: method}
	case 1:
		ret, ok := r.ResolveTraitMethod(method, receiver)
		if !ok {
			return nil, &MethodResolutionError{Kind: NoSuchMethod, Ty: receiver, Method: method}
		}

		return ret, nil
	default:
		return nil, &MethodResolutionError{Kind: AmbiguousMethod, Ty: receiver, Method: method}
	}
}
