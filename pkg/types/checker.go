// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"strings"

	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
)

// StructInfo records a struct's field names/types in declaration order,
// enough for FieldAccess typing and pkg/lsp's struct hover. pkg/mir does not
// read it; lowering takes struct field order from the CST.
type StructInfo struct {
	Name    string
	Fields  []string
	FieldTy map[string]Ty
}

// Checker runs Hindley-Milner inference over one module's CST, threading a
// shared TyCtx and Registry so cross-function calls and trait-method
// dispatch resolve against the same substitution table.
type Checker struct {
	contents []byte
	ctx      *TyCtx
	reg      *Registry
	structs  map[string]*StructInfo
	fnSigs   map[string]Ty // global function name -> Fun type (pre-pass)
	diags    []error
}

// NewChecker constructs a checker over one module's source and CST root.
func NewChecker(contents []byte, reg *Registry) *Checker {
	return &Checker{
		contents: contents,
		ctx:      NewTyCtx(),
		reg:      reg,
		structs:  map[string]*StructInfo{},
		fnSigs:   map[string]Ty{},
	}
}

func (c *Checker) text(t lexer.Token) string {
	return string(c.contents[t.Span.Start():t.Span.End()])
}

// Diagnostics returns every error accumulated during Check.
func (c *Checker) Diagnostics() []error { return c.diags }

// FnSignature looks up a top-level (or mangled trait-impl) function's
// inferred type by name, the name-keyed lookup pkg/lsp's signature help
// uses to resolve a call's callee.
func (c *Checker) FnSignature(name string) (Ty, bool) {
	sig, ok := c.fnSigs[name]
	return sig, ok
}

// Struct looks up a registered struct's field layout by name.
func (c *Checker) Struct(name string) (*StructInfo, bool) {
	info, ok := c.structs[name]
	return info, ok
}

func (c *Checker) report(err error) {
	if err != nil {
		c.diags = append(c.diags, err)
	}
}

// Check runs the full two-pass inference described by spec §4.4: a
// signature pre-pass (so mutually recursive top-level functions and
// forward struct references resolve) followed by a body-inference pass.
//
// exports and checkers carry the cross-module context spec §4.4's "Import
// resolution" needs: exports maps every dependency module already
// processed (leaf-first per pkg/module's toposort) to its ExportedSymbols,
// and checkers maps those same names to the Checker that produced them, so
// an imported name's real inferred type is available, not just its
// existence. A single-file caller with no module graph (the LSP, spec
// §4.9) passes nil for both, which skips import resolution entirely.
func (c *Checker) Check(root *cst.Node, exports map[string]*ExportedSymbols, checkers map[string]*Checker) {
	globals := map[string]Scheme{}

	for _, child := range root.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.StructDef:
			c.registerStruct(child.Node)
		case cst.InterfaceDef:
			c.registerInterface(child.Node)
		case cst.ImplDef:
			c.registerImpl(child.Node)
		}
	}

	for _, child := range root.Children {
		if child.IsToken() || child.Node.Kind != cst.FnDef {
			continue
		}

		f, _ := cst.AsFnDef(child.Node)
		name, ok := f.Name()
		if !ok {
			continue
		}

		sig := c.fnSignature(f)
		c.fnSigs[c.text(name)] = sig
		globals[c.text(name)] = Monotype(sig)
	}

	c.resolveImports(root, exports, checkers, globals)

	env := NewEnv(globals)

	for _, child := range root.Children {
		if child.IsToken() || child.Node.Kind != cst.FnDef {
			continue
		}

		f, _ := cst.AsFnDef(child.Node)
		c.checkFnBody(f, env)
	}
}

func (c *Checker) resolveTypeRef(n *cst.Node) Ty {
	if n == nil {
		return c.ctx.Fresh()
	}

	nameTok, ok := n.FirstChildToken(lexer.Ident)
	if !ok {
		return c.ctx.Fresh()
	}

	name := c.text(nameTok)

	args := n.ChildNodes(cst.TypeRef)
	if len(args) == 0 {
		switch name {
		case "Int", "Float", "Bool", "String", "Unit":
			return Con{Name: name}
		}

		if _, ok := c.structs[name]; ok {
			return Con{Name: name}
		}

		return Con{Name: name}
	}

	argTys := make([]Ty, len(args))
	for i, a := range args {
		argTys[i] = c.resolveTypeRef(a)
	}

	return App{Ctor: name, Args: argTys}
}

func (c *Checker) fnSignature(f cst.FnDefNode) Ty {
	var params []Ty

	if list := f.Params(); list != nil {
		for _, p := range list.ChildNodes(cst.Param) {
			params = append(params, c.resolveTypeRef(p.FirstChildNode(cst.TypeRef)))
		}
	}

	ret := Ty(TyUnit)
	if t := f.ReturnType(); t != nil {
		ret = c.resolveTypeRef(t)
	}

	return Fun{Params: params, Ret: ret}
}

func (c *Checker) registerStruct(n *cst.Node) {
	s, ok := cst.AsStructDef(n)
	if !ok {
		return
	}

	nameTok, ok := s.Name()
	if !ok {
		return
	}

	name := c.text(nameTok)
	info := &StructInfo{Name: name, FieldTy: map[string]Ty{}}

	for _, field := range s.Fields() {
		fnameTok, ok := field.FirstChildToken(lexer.Ident)
		if !ok {
			continue
		}

		fname := c.text(fnameTok)
		info.Fields = append(info.Fields, fname)
		info.FieldTy[fname] = c.resolveTypeRef(field.FirstChildNode(cst.TypeRef))
	}

	c.structs[name] = info

	if _, err := ResolveDerives(c.contents, s.Deriving(), false, false); err != nil {
		c.report(err)
	}
}

func (c *Checker) registerInterface(n *cst.Node) {
	nameTok, ok := n.FirstChildToken(lexer.Ident)
	if !ok {
		return
	}

	def := &TraitDef{Name: c.text(nameTok), MethodSignatures: map[string]Scheme{}}

	for _, sig := range n.ChildNodes(cst.MethodSig) {
		mNameTok, ok := sig.FirstChildToken(lexer.Ident)
		if !ok {
			continue
		}

		def.MethodSignatures[c.text(mNameTok)] = Monotype(c.ctx.Fresh())
	}

	c.reg.DefineTrait(def)
}

func (c *Checker) registerImpl(n *cst.Node) {
	typeRefs := n.ChildNodes(cst.TypeRef)
	if len(typeRefs) < 2 {
		return
	}

	traitName := refName(c.contents, typeRefs[0])
	implType := refName(c.contents, typeRefs[1])

	impl := &TraitImplDef{TraitName: traitName, ImplType: implType, Methods: map[string]ImplMethodSig{}}

	for _, fnNode := range n.ChildNodes(cst.FnDef) {
		f, _ := cst.AsFnDef(fnNode)
		nameTok, ok := f.Name()
		if !ok {
			continue
		}

		sig := c.fnSignature(f)
		fn, _ := sig.(Fun)
		impl.Methods[c.text(nameTok)] = ImplMethodSig{ParamCount: len(fn.Params), ReturnType: fn.Ret}

		mangled := MangledName(traitName, c.text(nameTok), implType)
		c.fnSigs[mangled] = sig
	}

	c.reg.DefineImpl(impl)
}

func refName(contents []byte, n *cst.Node) string {
	tok, ok := n.FirstChildToken(lexer.Ident)
	if !ok {
		return ""
	}

	return string(contents[tok.Span.Start():tok.Span.End()])
}

// resolveImports walks root's top-level from-imports and binds each
// imported name into globals after checking it against the dependency
// module's ExportedSymbols (spec §4.4 "Import resolution"). Bare `import
// A.B` declarations don't bind individual names, so C4 only has work to do
// for FromImportDecl. exports == nil means no cross-module context is
// available (the LSP's single-file analysis), in which case this is a
// no-op and every identifier resolves (or fails to) purely locally.
func (c *Checker) resolveImports(root *cst.Node, exports map[string]*ExportedSymbols, checkers map[string]*Checker, globals map[string]Scheme) {
	if exports == nil {
		return
	}

	for _, child := range root.Children {
		if child.IsToken() || child.Node.Kind != cst.FromImportDecl {
			continue
		}

		fi, _ := cst.AsFromImportDecl(child.Node)
		depName := dottedModuleName(c.contents, fi.ModulePath())

		depExports, ok := exports[depName]
		if !ok {
			// Module names outside the graph are skipped here just as
			// C3 skips them (spec §4.3 step 4): no diagnostic is
			// reported, and the imported names stay unbound.
			continue
		}

		for _, nameTok := range fi.Names() {
			name := c.text(nameTok)

			if err := ResolveImport(depName, name, depExports); err != nil {
				if ie, ok := err.(*ImportError); ok {
					ie.Span = nameTok.Span
				}

				c.report(err)

				continue
			}

			if depChecker, ok := checkers[depName]; ok {
				if sig, ok := depChecker.FnSignature(name); ok {
					globals[name] = Monotype(sig)
					continue
				}
			}

			globals[name] = Monotype(c.ctx.Fresh())
		}
	}
}

// dottedModuleName joins a module-path token list with "." (spec §4.3
// step 4: "join the module-path segments with '.'").
func dottedModuleName(contents []byte, toks []lexer.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = string(contents[t.Span.Start():t.Span.End()])
	}

	return strings.Join(parts, ".")
}

func (c *Checker) checkFnBody(f cst.FnDefNode, parent *Env) {
	env := parent.Child()

	if list := f.Params(); list != nil {
		for _, p := range list.ChildNodes(cst.Param) {
			nameTok, ok := p.FirstChildToken(lexer.Ident)
			if !ok {
				continue
			}

			env.Define(c.text(nameTok), Monotype(c.resolveTypeRef(p.FirstChildNode(cst.TypeRef))))
		}
	}

	body := f.Body()
	if body == nil {
		return
	}

	bodyTy, err := c.inferBlock(body, env)
	if err != nil {
		c.report(err)
		return
	}

	nameTok, _ := f.Name()
	sig := c.fnSigs[c.text(nameTok)]
	fn, _ := sig.(Fun)

	if err := c.ctx.Unify(fn.Ret, bodyTy); err != nil {
		c.report(err)
	}
}

// inferBlock infers every statement in order, returning the type of the
// block's final statement: Unit if the block is empty or ends in a let, and
// the expression's type if it ends in an expression or return statement.
func (c *Checker) inferBlock(block *cst.Node, env *Env) (Ty, error) {
	result := Ty(TyUnit)

	for _, child := range block.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.LetStmt:
			nameTok, ok := child.Node.FirstChildToken(lexer.Ident)
			if !ok {
				continue
			}

			exprNode := lastNode(child.Node)

			ty, err := c.inferExpr(exprNode, env)
			if err != nil {
				return nil, err
			}

			scheme := Generalize(c.ctx, env.Flatten(), ty)
			env.Define(c.text(nameTok), scheme)
			result = TyUnit
		case cst.ReturnStmt:
			exprNode := lastNode(child.Node)

			ty, err := c.inferExpr(exprNode, env)
			if err != nil {
				return nil, err
			}

			result = ty
		case cst.ExprStmt:
			exprNode := lastNode(child.Node)

			ty, err := c.inferExpr(exprNode, env)
			if err != nil {
				return nil, err
			}

			result = ty
		}
	}

	return result, nil
}

func lastNode(n *cst.Node) *cst.Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		if !n.Children[i].IsToken() {
			return n.Children[i].Node
		}
	}

	return nil
}

// inferExpr is the core of the checker: one case per expression Kind.
func (c *Checker) inferExpr(n *cst.Node, env *Env) (Ty, error) {
	if n == nil {
		return TyUnit, nil
	}

	switch n.Kind {
	case cst.IntLiteral:
		return TyInt, nil
	case cst.FloatLiteral:
		return TyFloat, nil
	case cst.BoolLiteral:
		return TyBool, nil
	case cst.StringLiteral:
		return c.inferStringLiteral(n, env)
	case cst.IdentExpr:
		tok, _ := n.FirstChildToken(lexer.Ident)
		if tok.Kind == 0 {
			tok, _ = n.FirstChildToken(lexer.KwSelf)
		}

		name := c.text(tok)

		scheme, ok := env.Lookup(name)
		if !ok {
			return nil, newCheckError(EUnboundName, n.Span(), "unbound name %q", name)
		}

		return c.ctx.Instantiate(scheme), nil
	case cst.UnaryExpr:
		return c.inferUnary(n, env)
	case cst.BinaryExpr:
		return c.inferBinary(n, env)
	case cst.CallExpr:
		return c.inferCall(n, env)
	case cst.FieldAccessExpr:
		return c.inferFieldAccess(n, env)
	case cst.TupleExpr:
		return c.inferTuple(n, env)
	case cst.ListExpr:
		return c.inferList(n, env)
	case cst.IfExpr:
		return c.inferIf(n, env)
	case cst.CaseExpr:
		return c.inferCase(n, env)
	case cst.ForInExpr:
		return c.inferForIn(n, env)
	case cst.SpawnExpr:
		return c.inferSpawn(n, env)
	case cst.ReceiveExpr:
		return c.inferReceive(n, env)
	}

	return c.ctx.Fresh(), nil
}

func (c *Checker) inferStringLiteral(n *cst.Node, env *Env) (Ty, error) {
	for _, seg := range n.ChildNodes(cst.StringInterpSegment) {
		inner := lastNode(&cst.Node{Children: seg.Children[:len(seg.Children)-1]})
		if inner == nil {
			continue
		}

		if _, err := c.inferExpr(inner, env); err != nil {
			return nil, err
		}
	}

	return TyString, nil
}

func (c *Checker) inferUnary(n *cst.Node, env *Env) (Ty, error) {
	opTok := n.Children[0].Token
	operand := lastNode(n)

	ty, err := c.inferExpr(operand, env)
	if err != nil {
		return nil, err
	}

	if opTok.Kind == lexer.KwNot {
		if err := c.ctx.Unify(ty, TyBool); err != nil {
			return nil, err
		}

		return TyBool, nil
	}

	return ty, nil
}

func (c *Checker) inferBinary(n *cst.Node, env *Env) (Ty, error) {
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

	lty, err := c.inferExpr(lhs, env)
	if err != nil {
		return nil, err
	}

	rty, err := c.inferExpr(rhs, env)
	if err != nil {
		return nil, err
	}

	switch opTok.Kind {
	case lexer.EqEq, lexer.NotEq, lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq:
		if err := c.ctx.Unify(lty, rty); err != nil {
			return nil, err
		}

		return TyBool, nil
	case lexer.KwAnd, lexer.KwOr:
		if err := c.ctx.Unify(lty, TyBool); err != nil {
			return nil, err
		}

		if err := c.ctx.Unify(rty, TyBool); err != nil {
			return nil, err
		}

		return TyBool, nil
	default:
		if err := c.ctx.Unify(lty, rty); err != nil {
			return nil, err
		}

		return lty, nil
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

func (c *Checker) inferCall(n *cst.Node, env *Env) (Ty, error) {
	call, _ := cst.AsCallExpr(n)

	argTys := make([]Ty, 0, len(call.Args()))
	for _, a := range call.Args() {
		ty, err := c.inferExpr(a, env)
		if err != nil {
			return nil, err
		}

		argTys = append(argTys, ty)
	}

	callee := call.Callee()
	if callee != nil && callee.Kind == cst.FieldAccessExpr {
		return c.inferMethodCall(callee, argTys, env)
	}

	calleeTy, err := c.inferExpr(callee, env)
	if err != nil {
		return nil, err
	}

	ret := c.ctx.Fresh()
	if err := c.ctx.Unify(calleeTy, Fun{Params: argTys, Ret: ret}); err != nil {
		return nil, &CheckError{code: ENotCallable, span: n.Span(), msg: err.Error()}
	}

	return c.ctx.Resolve(ret), nil
}

func (c *Checker) inferMethodCall(fieldAccess *cst.Node, argTys []Ty, env *Env) (Ty, error) {
	fa, _ := cst.AsFieldAccessExpr(fieldAccess)

	recvTy, err := c.inferExpr(fa.Base(), env)
	if err != nil {
		return nil, err
	}

	methodTok, ok := fa.Field()
	if !ok {
		return nil, newCheckError(ENoSuchField, fieldAccess.Span(), "missing field name")
	}

	method := c.text(methodTok)

	ret, err := c.reg.ResolveMethodCall(c.ctx, method, c.ctx.Resolve(recvTy), nil)
	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (c *Checker) inferFieldAccess(n *cst.Node, env *Env) (Ty, error) {
	fa, _ := cst.AsFieldAccessExpr(n)

	recvTy, err := c.inferExpr(fa.Base(), env)
	if err != nil {
		return nil, err
	}

	fieldTok, ok := fa.Field()
	if !ok {
		return nil, newCheckError(ENoSuchField, n.Span(), "missing field name")
	}

	field := c.text(fieldTok)
	recvTy = c.ctx.Resolve(recvTy)

	typeName, isConcrete := concreteTypeName(recvTy)
	if isConcrete {
		if info, ok := c.structs[typeName]; ok {
			if fty, ok := info.FieldTy[field]; ok {
				return fty, nil
			}
		}
	}

	// Step 2/3 of spec §4.4: a failed field lookup retries as a method
	// call with zero extra arguments before finally reporting NoSuchField.
	if ret, err := c.reg.ResolveMethodCall(c.ctx, field, recvTy, nil); err == nil {
		return ret, nil
	}

	return nil, newCheckError(ENoSuchField, n.Span(), "type %s has no field or method %q", Format(recvTy), field)
}

func (c *Checker) inferTuple(n *cst.Node, env *Env) (Ty, error) {
	var items []Ty

	for _, child := range n.Children {
		if child.IsToken() {
			continue
		}

		ty, err := c.inferExpr(child.Node, env)
		if err != nil {
			return nil, err
		}

		items = append(items, ty)
	}

	return Tuple{Items: items}, nil
}

func (c *Checker) inferList(n *cst.Node, env *Env) (Ty, error) {
	elem := c.ctx.Fresh()

	for _, child := range n.Children {
		if child.IsToken() {
			continue
		}

		ty, err := c.inferExpr(child.Node, env)
		if err != nil {
			return nil, err
		}

		if err := c.ctx.Unify(elem, ty); err != nil {
			return nil, err
		}
	}

	return App{Ctor: "List", Args: []Ty{elem}}, nil
}

func (c *Checker) inferIf(n *cst.Node, env *Env) (Ty, error) {
	var cond *cst.Node

	var blocks []*cst.Node

	for _, child := range n.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.Block:
			blocks = append(blocks, child.Node)
		default:
			if cond == nil {
				cond = child.Node
			}
		}
	}

	condTy, err := c.inferExpr(cond, env)
	if err != nil {
		return nil, err
	}

	if err := c.ctx.Unify(condTy, TyBool); err != nil {
		return nil, err
	}

	thenTy, err := c.inferBlock(blocks[0], env.Child())
	if err != nil {
		return nil, err
	}

	if len(blocks) < 2 {
		return TyUnit, nil
	}

	elseTy, err := c.inferBlock(blocks[1], env.Child())
	if err != nil {
		return nil, err
	}

	if err := c.ctx.Unify(thenTy, elseTy); err != nil {
		return nil, err
	}

	return thenTy, nil
}

func (c *Checker) inferCase(n *cst.Node, env *Env) (Ty, error) {
	var scrutinee *cst.Node

	for _, child := range n.Children {
		if !child.IsToken() {
			scrutinee = child.Node
			break
		}
	}

	scrutTy, err := c.inferExpr(scrutinee, env)
	if err != nil {
		return nil, err
	}

	result := c.ctx.Fresh()
	hasWildcard := false

	for _, arm := range n.ChildNodes(cst.MatchArm) {
		armEnv := env.Child()

		pattern := arm.Children[0].Node

		if c.isWildcardPattern(pattern) {
			hasWildcard = true
		}

		if err := c.bindPattern(pattern, scrutTy, armEnv); err != nil {
			return nil, err
		}

		bodyTy, err := c.inferExpr(lastNode(arm), armEnv)
		if err != nil {
			return nil, err
		}

		if err := c.ctx.Unify(result, bodyTy); err != nil {
			return nil, err
		}
	}

	// spec §4.5/§8: string literal patterns are each a distinct constructor,
	// so a match over a String scrutinee is only exhaustive with a wildcard
	// (or bare bind) arm covering the open tail.
	if !hasWildcard {
		if con, ok := c.ctx.Resolve(scrutTy).(Con); ok && con.Name == "String" {
			return nil, newCheckError(ENonExhaustiveCase, n.Span(), "non-exhaustive match on String")
		}
	}

	return c.ctx.Resolve(result), nil
}

// isWildcardPattern reports whether pattern is an irrefutable catch-all: a
// bare `_` wildcard, or a bind pattern naming `_`.
func (c *Checker) isWildcardPattern(pattern *cst.Node) bool {
	switch pattern.Kind {
	case cst.WildcardPattern:
		return true
	case cst.BindPattern:
		nameTok, ok := pattern.FirstChildToken(lexer.Ident)
		return ok && c.text(nameTok) == "_"
	}

	return false
}

func (c *Checker) bindPattern(pattern *cst.Node, scrutTy Ty, env *Env) error {
	switch pattern.Kind {
	case cst.WildcardPattern:
		return nil
	case cst.LiteralPattern:
		inner := lastNode(pattern)

		ty, err := c.inferExpr(inner, env)
		if err != nil {
			return err
		}

		return c.ctx.Unify(scrutTy, ty)
	case cst.BindPattern:
		nameTok, ok := pattern.FirstChildToken(lexer.Ident)
		if !ok {
			return nil
		}

		name := c.text(nameTok)
		if name == "_" {
			return nil
		}

		env.Define(name, Monotype(scrutTy))

		return nil
	case cst.ConstructorPattern:
		for _, sub := range pattern.Children {
			if sub.IsToken() {
				continue
			}

			if err := c.bindPattern(sub.Node, c.ctx.Fresh(), env); err != nil {
				return err
			}
		}

		return nil
	}

	return nil
}

func (c *Checker) inferForIn(n *cst.Node, env *Env) (Ty, error) {
	nameTok, ok := n.FirstChildToken(lexer.Ident)
	if !ok {
		return nil, newCheckError(EInvalidPattern, n.Span(), "malformed for-in binding")
	}

	var iterable *cst.Node

	var block *cst.Node

	var whenCond *cst.Node

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

	iterTy, err := c.inferExpr(iterable, env)
	if err != nil {
		return nil, err
	}

	elem := c.ctx.Fresh()
	if err := c.ctx.Unify(iterTy, App{Ctor: "List", Args: []Ty{elem}}); err != nil {
		return nil, &CheckError{code: ENotIterable, span: iterable.Span(), msg: err.Error()}
	}

	bodyEnv := env.Child()
	bodyEnv.Define(c.text(nameTok), Monotype(elem))

	if whenCond != nil {
		condTy, err := c.inferExpr(whenCond, bodyEnv)
		if err != nil {
			return nil, err
		}

		if err := c.ctx.Unify(condTy, TyBool); err != nil {
			return nil, err
		}
	}

	resultTy, err := c.inferBlock(block, bodyEnv)
	if err != nil {
		return nil, err
	}

	return App{Ctor: "List", Args: []Ty{resultTy}}, nil
}

func (c *Checker) inferSpawn(n *cst.Node, env *Env) (Ty, error) {
	body := lastNode(n)

	bodyTy, err := c.inferExpr(body, env)
	if err != nil {
		return nil, err
	}

	return App{Ctor: "Process", Args: []Ty{bodyTy}}, nil
}

func (c *Checker) inferReceive(n *cst.Node, env *Env) (Ty, error) {
	msgTy := c.ctx.Fresh()
	result := c.ctx.Fresh()

	for _, arm := range n.ChildNodes(cst.MatchArm) {
		armEnv := env.Child()
		pattern := arm.Children[0].Node

		if err := c.bindPattern(pattern, msgTy, armEnv); err != nil {
			return nil, err
		}

		bodyTy, err := c.inferExpr(lastNode(arm), armEnv)
		if err != nil {
			return nil, err
		}

		if err := c.ctx.Unify(result, bodyTy); err != nil {
			return nil, err
		}
	}

	return c.ctx.Resolve(result), nil
}
