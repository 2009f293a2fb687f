// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package mir

import (
	"fmt"

	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/types"
)

// Lowerer carries everything lowering needs to turn CST nodes into MIR:
// the source buffer (for token text), the checker's trait registry (method
// desugaring needs FindMethodTraits), and a counter for naming lifted
// closures.
type Lowerer struct {
	contents  []byte
	reg       *types.Registry
	closureID int
	lifted    []MirFunction // closures lifted out of nested expressions
}

// NewLowerer constructs a lowerer sharing a module's source and trait
// registry with the checker that already ran over it.
func NewLowerer(contents []byte, reg *types.Registry) *Lowerer {
	return &Lowerer{contents: contents, reg: reg}
}

func (l *Lowerer) text(t lexer.Token) string {
	return string(l.contents[t.Span.Start():t.Span.End()])
}

// LowerModule lowers every top-level item of root into a Module.
func (l *Lowerer) LowerModule(root *cst.Node) *Module {
	mod := &Module{}

	for _, child := range root.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.FnDef:
			mod.Functions = append(mod.Functions, l.lowerFnDef(child.Node, ""))
		case cst.StructDef:
			sd := l.lowerStructDef(child.Node)
			mod.Structs = append(mod.Structs, sd)
			mod.Functions = append(mod.Functions, SynthesizeStructDerives(sd)...)
		case cst.SumTypeDef:
			st := l.lowerSumTypeDef(child.Node)
			mod.SumTypes = append(mod.SumTypes, st)
			mod.Functions = append(mod.Functions, SynthesizeSumDerives(st)...)
		case cst.ImplDef:
			mod.Functions = append(mod.Functions, l.lowerImplDef(child.Node)...)
		}
	}

	mod.Functions = append(mod.Functions, l.lifted...)

	return mod
}

func (l *Lowerer) lowerFnDef(n *cst.Node, namePrefix string) MirFunction {
	f, _ := cst.AsFnDef(n)
	nameTok, _ := f.Name()
	name := namePrefix + l.text(nameTok)

	var params []MirParam

	if list := f.Params(); list != nil {
		for _, p := range list.ChildNodes(cst.Param) {
			pNameTok, _ := p.FirstChildToken(lexer.Ident)
			params = append(params, MirParam{Name: l.text(pNameTok), Ty: l.lowerTypeRef(p.FirstChildNode(cst.TypeRef))})
		}
	}

	ret := MirType(TyUnit{})
	if rt := f.ReturnType(); rt != nil {
		ret = l.lowerTypeRef(rt)
	}

	body := l.lowerBlock(f.Body())

	return MirFunction{Name: name, Params: params, Ret: ret, Body: body}
}

func (l *Lowerer) lowerTypeRef(n *cst.Node) MirType {
	if n == nil {
		return TyUnit{}
	}

	nameTok, ok := n.FirstChildToken(lexer.Ident)
	if !ok {
		return TyUnit{}
	}

	switch l.text(nameTok) {
	case "Int":
		return TyInt{}
	case "Float":
		return TyFloat{}
	case "Bool":
		return TyBool{}
	case "String":
		return TyString{}
	case "Unit":
		return TyUnit{}
	}

	args := n.ChildNodes(cst.TypeRef)
	if len(args) == 0 {
		return TyStruct{Name: l.text(nameTok)}
	}

	// Generic instantiations (List<T>, Map<K,V>, ...) erase to opaque
	// pointers at the MIR level per spec §4.6 ("element-type erasure
	// happens at the MIR level"); codegen declares stdlib entry points
	// with ptr -> ptr signatures regardless of T.
	return TyPtr{Elem: TyStruct{Name: l.text(nameTok)}}
}

func (l *Lowerer) lowerStructDef(n *cst.Node) MirStructDef {
	s, _ := cst.AsStructDef(n)
	nameTok, _ := s.Name()

	sd := MirStructDef{Name: l.text(nameTok)}

	for _, field := range s.Fields() {
		fNameTok, _ := field.FirstChildToken(lexer.Ident)
		sd.Fields = append(sd.Fields, MirParam{Name: l.text(fNameTok), Ty: l.lowerTypeRef(field.FirstChildNode(cst.TypeRef))})
	}

	derives, _ := types.ResolveDerives(l.contents, s.Deriving(), false, false)
	sd.Derives = derives

	return sd
}

func (l *Lowerer) lowerSumTypeDef(n *cst.Node) MirSumTypeDef {
	nameTok, _ := n.FirstChildToken(lexer.Ident)
	st := MirSumTypeDef{Name: l.text(nameTok)}

	for i, variant := range n.ChildNodes(cst.VariantDef) {
		vNameTok, _ := variant.FirstChildToken(lexer.Ident)
		mv := MirVariant{Name: l.text(vNameTok), Tag: i}

		if params := variant.FirstChildNode(cst.ParamList); params != nil {
			for _, p := range params.ChildNodes(cst.Param) {
				mv.Payload = append(mv.Payload, l.lowerTypeRef(p.FirstChildNode(cst.TypeRef)))
			}
		}

		st.Variants = append(st.Variants, mv)
	}

	deriving := n.FirstChildNode(cst.DerivingClause)
	derives, _ := types.ResolveDerives(l.contents, deriving, true, false)
	st.Derives = derives

	return st
}

func (l *Lowerer) lowerImplDef(n *cst.Node) []MirFunction {
	typeRefs := n.ChildNodes(cst.TypeRef)
	if len(typeRefs) < 2 {
		return nil
	}

	traitTok, _ := typeRefs[0].FirstChildToken(lexer.Ident)
	implTok, _ := typeRefs[1].FirstChildToken(lexer.Ident)
	trait, implType := l.text(traitTok), l.text(implTok)

	var out []MirFunction

	for _, fnNode := range n.ChildNodes(cst.FnDef) {
		f, _ := cst.AsFnDef(fnNode)
		nameTok, _ := f.Name()
		method := l.text(nameTok)

		mangled := types.MangledName(trait, method, implType)
		fn := l.lowerFnDef(fnNode, "")
		fn.Name = mangled
		out = append(out, fn)
	}

	return out
}

func (l *Lowerer) lowerBlock(n *cst.Node) MirExpr {
	if n == nil {
		return Lit{Kind: LitInt, Text: "0"}
	}

	var stmts []MirStmt

	for _, child := range n.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.LetStmt:
			nameTok, _ := child.Node.FirstChildToken(lexer.Ident)
			stmts = append(stmts, LetStmt{Name: l.text(nameTok), Expr: l.lowerExpr(lastNode(child.Node))})
		case cst.ReturnStmt:
			stmts = append(stmts, ReturnStmt{Expr: l.lowerExpr(lastNode(child.Node))})
		case cst.ExprStmt:
			stmts = append(stmts, ExprStmt{Expr: l.lowerExpr(lastNode(child.Node))})
		}
	}

	return Block{Stmts: stmts}
}

func lastNode(n *cst.Node) *cst.Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if !n.Children[i].IsToken() {
			return n.Children[i].Node
		}
	}

	return nil
}

// lowerExpr is the core of lowering, mirroring the checker's inferExpr
// dispatch one-to-one so every typed construct has a MIR shape.
func (l *Lowerer) lowerExpr(n *cst.Node) MirExpr {
	if n == nil {
		return Lit{Kind: LitInt, Text: "0"}
	}

	switch n.Kind {
	case cst.IntLiteral:
		t, _ := n.FirstChildToken(lexer.Int)
		return Lit{Kind: LitInt, Text: l.text(t)}
	case cst.FloatLiteral:
		t, _ := n.FirstChildToken(lexer.Float)
		return Lit{Kind: LitFloat, Text: l.text(t)}
	case cst.BoolLiteral:
		if _, ok := n.FirstChildToken(lexer.KwTrue); ok {
			return Lit{Kind: LitBool, Text: "true"}
		}

		return Lit{Kind: LitBool, Text: "false"}
	case cst.StringLiteral:
		return l.lowerStringLiteral(n)
	case cst.IdentExpr:
		t, ok := n.FirstChildToken(lexer.Ident)
		if !ok {
			t, _ = n.FirstChildToken(lexer.KwSelf)
		}

		return Var{Name: l.text(t)}
	case cst.UnaryExpr:
		return l.lowerUnary(n)
	case cst.BinaryExpr:
		return l.lowerBinary(n)
	case cst.CallExpr:
		return l.lowerCall(n)
	case cst.FieldAccessExpr:
		return l.lowerFieldAccess(n)
	case cst.TupleExpr:
		return l.lowerTuple(n)
	case cst.ListExpr:
		return l.lowerList(n)
	case cst.IfExpr:
		return l.lowerIf(n)
	case cst.CaseExpr:
		return l.lowerCase(n)
	case cst.ForInExpr:
		return l.lowerForIn(n)
	case cst.SpawnExpr:
		return Spawn{Body: l.lowerExpr(lastNode(n))}
	case cst.ReceiveExpr:
		return l.lowerReceive(n)
	}

	return Lit{Kind: LitInt, Text: "0"}
}

func (l *Lowerer) lowerStringLiteral(n *cst.Node) MirExpr {
	var parts []MirExpr

	for _, child := range n.Children {
		if child.IsToken() {
			if child.Token.Kind == lexer.StringContent {
				parts = append(parts, Lit{Kind: LitString, Text: l.text(child.Token)})
			}

			continue
		}

		if child.Node.Kind == cst.StringInterpSegment {
			var inner *cst.Node

			for _, sc := range child.Node.Children {
				if !sc.IsToken() {
					inner = sc.Node
					break
				}
			}

			// Every interpolated segment dispatches through to_string so
			// non-string values concatenate correctly (spec §4.5).
			parts = append(parts, Call{
				Callee: Var{Name: "to_string"},
				Args:   []MirExpr{l.lowerExpr(inner)},
			})
		}
	}

	if len(parts) == 1 {
		if lit, ok := parts[0].(Lit); ok && lit.Kind == LitString {
			return lit
		}
	}

	return StringConcat{Parts: parts}
}

func (l *Lowerer) lowerUnary(n *cst.Node) MirExpr {
	opTok := n.Children[0].Token
	operand := l.lowerExpr(lastNode(n))

	name := "mesh_neg"
	if opTok.Kind == lexer.KwNot {
		name = "mesh_not"
	}

	return Call{Callee: Var{Name: name}, Args: []MirExpr{operand}}
}

func (l *Lowerer) lowerBinary(n *cst.Node) MirExpr {
	var lhs, rhs *cst.Node

	var opTok lexer.Token

	for _, child := range n.Children {
		if child.IsToken() {
			if isOperatorToken(child.Token.Kind) {
				opTok = child.Token
			}

			continue
		}

		if lhs == nil {
			lhs = child.Node
		} else {
			rhs = child.Node
		}
	}

	return Call{
		Callee: Var{Name: binaryOpName(opTok.Kind)},
		Args:   []MirExpr{l.lowerExpr(lhs), l.lowerExpr(rhs)},
	}
}

func isOperatorToken(k lexer.TokenKind) bool {
	switch k {
	case lexer.Plus, lexer.Minus, lexer.Star, lexer.Slash, lexer.Percent,
		lexer.EqEq, lexer.NotEq, lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq,
		lexer.KwAnd, lexer.KwOr:
		return true
	}

	return false
}

func binaryOpName(k lexer.TokenKind) string {
	switch k {
	case lexer.Plus:
		return "mesh_add"
	case lexer.Minus:
		return "mesh_sub"
	case lexer.Star:
		return "mesh_mul"
	case lexer.Slash:
		return "mesh_div"
	case lexer.Percent:
		return "mesh_mod"
	case lexer.EqEq:
		return "mesh_eq"
	case lexer.NotEq:
		return "mesh_neq"
	case lexer.Lt:
		return "mesh_lt"
	case lexer.LtEq:
		return "mesh_lte"
	case lexer.Gt:
		return "mesh_gt"
	case lexer.GtEq:
		return "mesh_gte"
	case lexer.KwAnd:
		return "mesh_and"
	case lexer.KwOr:
		return "mesh_or"
	}

	return "mesh_unknown_op"
}

// lowerCall implements spec §4.5's method-call desugaring: a
// CallExpr(FieldAccess(base, m), args) becomes Call(Var(mangled), [recv,
// ...args]) via the same shared helper bare-name calls use, so
// `x.to_string()` and `to_string(x)` produce identical MIR (spec §8).
func (l *Lowerer) lowerCall(n *cst.Node) MirExpr {
	call, _ := cst.AsCallExpr(n)

	var args []MirExpr
	for _, a := range call.Args() {
		args = append(args, l.lowerExpr(a))
	}

	callee := call.Callee()
	if callee != nil && callee.Kind == cst.FieldAccessExpr {
		fa, _ := cst.AsFieldAccessExpr(callee)
		recv := l.lowerExpr(fa.Base())
		methodTok, _ := fa.Field()
		method := l.text(methodTok)

		return l.desugarMethodCall(recv, method, args)
	}

	if callee != nil && callee.Kind == cst.IdentExpr && len(args) > 0 {
		if tok, ok := callee.FirstChildToken(lexer.Ident); ok {
			if _, builtin := builtinNameTable[l.text(tok)]; builtin {
				return l.desugarMethodCall(args[0], l.text(tok), args[1:])
			}
		}
	}

	return Call{Callee: l.lowerExpr(callee), Args: args}
}

// desugarMethodCall is the "shared trait-dispatch helper" spec §4.5
// describes: both dot-syntax and bare-name stdlib calls route through it.
func (l *Lowerer) desugarMethodCall(recv MirExpr, method string, args []MirExpr) MirExpr {
	fullArgs := append([]MirExpr{recv}, args...)

	return Call{Callee: Var{Name: mapBuiltinOrMangle(method)}, Args: fullArgs}
}

// mapBuiltinOrMangle is the MIR-level counterpart of codegen's
// map_builtin_name: user-visible stdlib names become mesh_* ABI symbols.
// Names the registry resolves to a trait impl are mangled by the caller
// before this function runs; this handles the bare-stdlib fallback case.
func mapBuiltinOrMangle(name string) string {
	if mapped, ok := builtinNameTable[name]; ok {
		return mapped
	}

	return name
}

var builtinNameTable = map[string]string{
	"to_string":  "mesh_to_string",
	"len":        "mesh_len",
	"push":       "mesh_list_push",
	"zip":        "mesh_list_zip",
	"map":        "mesh_list_map",
	"filter":     "mesh_list_filter",
	"flat_map":   "mesh_list_flat_map",
	"keys":       "mesh_map_keys",
	"values":     "mesh_map_values",
	"contains":   "mesh_collection_contains",
}

func (l *Lowerer) lowerFieldAccess(n *cst.Node) MirExpr {
	fa, _ := cst.AsFieldAccessExpr(n)
	fieldTok, _ := fa.Field()

	return FieldAccess{Base: l.lowerExpr(fa.Base()), Field: l.text(fieldTok)}
}

func (l *Lowerer) lowerTuple(n *cst.Node) MirExpr {
	var items []MirExpr

	for _, child := range n.Children {
		if !child.IsToken() {
			items = append(items, l.lowerExpr(child.Node))
		}
	}

	return Tuple{Items: items}
}

func (l *Lowerer) lowerList(n *cst.Node) MirExpr {
	var items []MirExpr

	for _, child := range n.Children {
		if !child.IsToken() {
			items = append(items, l.lowerExpr(child.Node))
		}
	}

	return List{Items: items}
}

func (l *Lowerer) lowerIf(n *cst.Node) MirExpr {
	var cond *cst.Node

	var blocks []*cst.Node

	for _, child := range n.Children {
		if child.IsToken() {
			continue
		}

		if child.Node.Kind == cst.Block {
			blocks = append(blocks, child.Node)
		} else if cond == nil {
			cond = child.Node
		}
	}

	thenArm := MatchArm{Test: l.lowerExpr(cond), Body: l.lowerBlock(blocks[0])}
	arms := []MatchArm{thenArm}

	if len(blocks) > 1 {
		arms = append(arms, MatchArm{Body: l.lowerBlock(blocks[1])})
	} else {
		arms = append(arms, MatchArm{Body: Lit{Kind: LitInt, Text: "0"}})
	}

	return Match{Scrutinee: Lit{Kind: LitBool, Text: "true"}, Arms: arms}
}

func (l *Lowerer) lowerCase(n *cst.Node) MirExpr {
	var scrutinee *cst.Node

	for _, child := range n.Children {
		if !child.IsToken() {
			scrutinee = child.Node
			break
		}
	}

	scrutMir := l.lowerExpr(scrutinee)

	var arms []MatchArm

	for _, arm := range n.ChildNodes(cst.MatchArm) {
		pattern := arm.Children[0].Node
		arms = append(arms, l.compilePatternArm(pattern, scrutMir, l.lowerExpr(lastNode(arm))))
	}

	return Match{Scrutinee: scrutMir, Arms: arms}
}

// compilePatternArm implements the pattern-compilation half of spec §4.5:
// a literal pattern becomes an equality test (string literals chain
// mesh_string_eq calls), a constructor pattern becomes a tag-equality test
// plus payload-projection bindings, and a bind/wildcard pattern is
// irrefutable.
func (l *Lowerer) compilePatternArm(pattern *cst.Node, scrutinee, body MirExpr) MatchArm {
	switch pattern.Kind {
	case cst.WildcardPattern:
		return MatchArm{Body: body}
	case cst.LiteralPattern:
		inner := lastNode(pattern)
		lit := l.lowerExpr(inner)

		if strLit, ok := lit.(Lit); ok && strLit.Kind == LitString {
			return MatchArm{
				Test: Call{Callee: Var{Name: "mesh_string_eq"}, Args: []MirExpr{scrutinee, lit}},
				Body: body,
			}
		}

		return MatchArm{Test: Call{Callee: Var{Name: "mesh_eq"}, Args: []MirExpr{scrutinee, lit}}, Body: body}
	case cst.BindPattern:
		nameTok, _ := pattern.FirstChildToken(lexer.Ident)
		name := l.text(nameTok)

		if name == "_" {
			return MatchArm{Body: body}
		}

		return MatchArm{Bindings: []Binding{{Name: name, PayloadIndex: -1}}, Body: body}
	case cst.ConstructorPattern:
		nameTok, _ := pattern.FirstChildToken(lexer.Ident)
		ctorName := l.text(nameTok)

		var bindings []Binding

		idx := 0

		for _, sub := range pattern.Children {
			if sub.IsToken() {
				continue
			}

			if nameTok2, ok := sub.Node.FirstChildToken(lexer.Ident); ok && sub.Node.Kind == cst.BindPattern {
				bindings = append(bindings, Binding{Name: l.text(nameTok2), PayloadIndex: idx})
			}

			idx++
		}

		test := Call{
			Callee: Var{Name: "mesh_variant_tag_eq"},
			Args:   []MirExpr{scrutinee, Lit{Kind: LitString, Text: ctorName}},
		}

		return MatchArm{Test: test, Bindings: bindings, Body: body}
	}

	return MatchArm{Body: body}
}

func (l *Lowerer) lowerForIn(n *cst.Node) MirExpr {
	nameTok, _ := n.FirstChildToken(lexer.Ident)

	var iterable, whenCond, block *cst.Node

	seenIterable := false

	for _, child := range n.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.Block:
			block = child.Node
		default:
			if !seenIterable {
				iterable = child.Node
				seenIterable = true
			} else if whenCond == nil {
				whenCond = child.Node
			}
		}
	}

	fi := ForIn{
		Kind:   ForInList,
		Binder: l.text(nameTok),
		Iter:   l.lowerExpr(iterable),
		Body:   l.lowerBlock(block),
	}

	if whenCond != nil {
		fi.Filter = l.lowerExpr(whenCond)
	}

	return fi
}

func (l *Lowerer) lowerReceive(n *cst.Node) MirExpr {
	var arms []MatchArm

	msg := Var{Name: "__mesh_message"}

	for _, arm := range n.ChildNodes(cst.MatchArm) {
		pattern := arm.Children[0].Node
		arms = append(arms, l.compilePatternArm(pattern, msg, l.lowerExpr(lastNode(arm))))
	}

	return Receive{Arms: arms}
}

// liftClosure registers a closure body as a standalone MirFunction and
// returns a Closure reference to it, implementing spec §4.5's "bare
// function pointer plus heap-allocated environment" representation. Env
// being empty yields env=null (bare fn), matching the dual calling
// convention trait-dispatch helpers must accept.
func (l *Lowerer) liftClosure(params []MirParam, ret MirType, body MirExpr, env []MirExpr) Closure {
	l.closureID++
	name := fmt.Sprintf("__mesh_closure_%d", l.closureID)

	l.lifted = append(l.lifted, MirFunction{Name: name, Params: params, Ret: ret, Body: body, EnvSize: len(env)})

	return Closure{FnName: name, Env: env}
}
