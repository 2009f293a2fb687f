// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package types

import "fmt"

// TyCtx holds the union-find substitution table used during unification,
// plus the fresh-variable counter. One TyCtx is threaded through an entire
// module's inference pass.
type TyCtx struct {
	subst map[uint32]Ty
	next  uint32
}

// NewTyCtx constructs an empty context.
func NewTyCtx() *TyCtx {
	return &TyCtx{subst: make(map[uint32]Ty)}
}

// Fresh allocates a new, unbound type variable.
func (c *TyCtx) Fresh() Ty {
	v := Var{ID: c.next}
	c.next++

	return v
}

// Resolve follows the substitution chain for t until it reaches an unbound
// variable or a non-variable type (path compression is not performed here
// since chains are shallow in practice; correctness doesn't require it).
func (c *TyCtx) Resolve(t Ty) Ty {
	for {
		v, ok := t.(Var)
		if !ok {
			return t
		}

		next, bound := c.subst[v.ID]
		if !bound {
			return v
		}

		t = next
	}
}

// TypeMismatchError is E-class for unify failures.
type TypeMismatchError struct {
	Left, Right Ty
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s vs %s", Format(e.Left), Format(e.Right))
}

// Unify unifies a and b in-place against c's substitution table.
func (c *TyCtx) Unify(a, b Ty) error {
	a = c.Resolve(a)
	b = c.Resolve(b)

	if av, ok := a.(Var); ok {
		return c.bind(av, b)
	}

	if bv, ok := b.(Var); ok {
		return c.bind(bv, a)
	}

	switch at := a.(type) {
	case Con:
		bt, ok := b.(Con)
		if !ok || at.Name != bt.Name {
			return &TypeMismatchError{a, b}
		}

		return nil
	case App:
		bt, ok := b.(App)
		if !ok || at.Ctor != bt.Ctor || len(at.Args) != len(bt.Args) {
			return &TypeMismatchError{a, b}
		}

		for i := range at.Args {
			if err := c.Unify(at.Args[i], bt.Args[i]); err != nil {
				return err
			}
		}

		return nil
	case Fun:
		bt, ok := b.(Fun)
		if !ok || len(at.Params) != len(bt.Params) {
			return &TypeMismatchError{a, b}
		}

		for i := range at.Params {
			if err := c.Unify(at.Params[i], bt.Params[i]); err != nil {
				return err
			}
		}

		return c.Unify(at.Ret, bt.Ret)
	case Tuple:
		bt, ok := b.(Tuple)
		if !ok || len(at.Items) != len(bt.Items) {
			return &TypeMismatchError{a, b}
		}

		for i := range at.Items {
			if err := c.Unify(at.Items[i], bt.Items[i]); err != nil {
				return err
			}
		}

		return nil
	}

	return &TypeMismatchError{a, b}
}

func (c *TyCtx) bind(v Var, t Ty) error {
	if tv, ok := t.(Var); ok && tv.ID == v.ID {
		return nil
	}

	if occurs(c, v.ID, t) {
		return &TypeMismatchError{v, t}
	}

	c.subst[v.ID] = t

	return nil
}

func occurs(c *TyCtx, id uint32, t Ty) bool {
	t = c.Resolve(t)

	switch v := t.(type) {
	case Var:
		return v.ID == id
	case App:
		for _, a := range v.Args {
			if occurs(c, id, a) {
				return true
			}
		}
	case Fun:
		for _, p := range v.Params {
			if occurs(c, id, p) {
				return true
			}
		}

		return occurs(c, id, v.Ret)
	case Tuple:
		for _, item := range v.Items {
			if occurs(c, id, item) {
				return true
			}
		}
	}

	return false
}

// Instantiate replaces a scheme's bound variables with fresh ones,
// producing a monomorphic type usable at a single call site.
func (c *TyCtx) Instantiate(s Scheme) Ty {
	if len(s.Vars) == 0 {
		return s.Ty
	}

	mapping := make(map[uint32]Ty, len(s.Vars))
	for _, v := range s.Vars {
		mapping[v] = c.Fresh()
	}

	return substitute(s.Ty, mapping)
}

func substitute(t Ty, mapping map[uint32]Ty) Ty {
	switch v := t.(type) {
	case Var:
		if repl, ok := mapping[v.ID]; ok {
			return repl
		}

		return v
	case App:
		args := make([]Ty, len(v.Args))
		for i, a := range v.Args {
			args[i] = substitute(a, mapping)
		}

		return App{Ctor: v.Ctor, Args: args}
	case Fun:
		params := make([]Ty, len(v.Params))
		for i, p := range v.Params {
			params[i] = substitute(p, mapping)
		}

		return Fun{Params: params, Ret: substitute(v.Ret, mapping)}
	case Tuple:
		items := make([]Ty, len(v.Items))
		for i, item := range v.Items {
			items[i] = substitute(item, mapping)
		}

		return Tuple{Items: items}
	default:
		return t
	}
}

// Generalize produces a Scheme binding every free variable in t that is not
// already free in the enclosing environment (env), implementing
// let-generalization.
func Generalize(c *TyCtx, env map[string]Scheme, t Ty) Scheme {
	envFree := map[uint32]bool{}
	for _, s := range env {
		for _, v := range freeVars(c, s.Ty) {
			envFree[v] = true
		}
	}

	var vars []uint32
	for _, v := range freeVars(c, t) {
		if !envFree[v] {
			vars = append(vars, v)
		}
	}

	return Scheme{Vars: vars, Ty: t}
}

func freeVars(c *TyCtx, t Ty) []uint32 {
	seen := map[uint32]bool{}
	collectFreeVars(c, t, seen)

	out := make([]uint32, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}

	return out
}

func collectFreeVars(c *TyCtx, t Ty, seen map[uint32]bool) {
	t = c.Resolve(t)

	switch v := t.(type) {
	case Var:
		seen[v.ID] = true
	case App:
		for _, a := range v.Args {
			collectFreeVars(c, a, seen)
		}
	case Fun:
		for _, p := range v.Params {
			collectFreeVars(c, p, seen)
		}

		collectFreeVars(c, v.Ret, seen)
	case Tuple:
		for _, item := range v.Items {
			collectFreeVars(c, item, seen)
		}
	}
}
