// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package cst

import "github.com/mesh-lang/mesh/pkg/lexer"

// This file is the typed AST layer over the raw CST: named accessors
// returning Option-shaped results (nil / ok=false on absence), so callers
// never pattern-match on raw Kind values outside this package.

// FnDefNode wraps a FnDef node.
type FnDefNode struct{ n *Node }

// AsFnDef views n as a FnDefNode if its kind matches.
func AsFnDef(n *Node) (FnDefNode, bool) {
	if n == nil || n.Kind != FnDef {
		return FnDefNode{}, false
	}

	return FnDefNode{n}, true
}

// Name returns the function's name identifier token.
func (f FnDefNode) Name() (lexer.Token, bool) {
	return f.n.FirstChildToken(lexer.Ident)
}

// Params returns the function's parameter list node.
func (f FnDefNode) Params() *Node {
	return f.n.FirstChildNode(ParamList)
}

// Body returns the function's block node.
func (f FnDefNode) Body() *Node {
	return f.n.FirstChildNode(Block)
}

// Visibility reports whether the function carries a `pub` marker.
func (f FnDefNode) Visibility() bool {
	_, ok := f.n.FirstChildToken(lexer.KwPub)
	return ok
}

// Deriving returns the deriving clause attached to this item, if any.
func (f FnDefNode) Deriving() *Node {
	return f.n.FirstChildNode(DerivingClause)
}

// ReturnType returns the function's declared return TypeRef, or nil if
// omitted (implicitly Unit).
func (f FnDefNode) ReturnType() *Node {
	return f.n.FirstChildNode(TypeRef)
}

// StructDefNode wraps a StructDef node.
type StructDefNode struct{ n *Node }

// AsStructDef views n as a StructDefNode if its kind matches.
func AsStructDef(n *Node) (StructDefNode, bool) {
	if n == nil || n.Kind != StructDef {
		return StructDefNode{}, false
	}

	return StructDefNode{n}, true
}

// Name returns the struct's name identifier.
func (s StructDefNode) Name() (lexer.Token, bool) {
	return s.n.FirstChildToken(lexer.Ident)
}

// Fields returns every field declaration of this struct, in order.
func (s StructDefNode) Fields() []*Node {
	return s.n.ChildNodes(FieldDef)
}

// Visibility reports whether the struct carries a `pub` marker.
func (s StructDefNode) Visibility() bool {
	_, ok := s.n.FirstChildToken(lexer.KwPub)
	return ok
}

// Deriving returns the deriving clause attached to this struct, if any.
// Absence (nil) means the default-derive set applies (spec §4.4).
func (s StructDefNode) Deriving() *Node {
	return s.n.FirstChildNode(DerivingClause)
}

// DerivingNames returns the trait names listed in a DerivingClause node.
func DerivingNames(n *Node) []lexer.Token {
	if n == nil {
		return nil
	}

	var out []lexer.Token

	for i, c := range n.Children {
		// Children[0] is the contextual `deriving` identifier itself.
		if i > 0 && c.IsToken() && c.Token.Kind == lexer.Ident {
			out = append(out, c.Token)
		}
	}

	return out
}

// ImportDeclNode wraps a plain `import A.B` declaration.
type ImportDeclNode struct{ n *Node }

// AsImportDecl views n as an ImportDeclNode if its kind matches.
func AsImportDecl(n *Node) (ImportDeclNode, bool) {
	if n == nil || n.Kind != ImportDecl {
		return ImportDeclNode{}, false
	}

	return ImportDeclNode{n}, true
}

// ModulePath returns the dotted segments of the imported module path.
func (i ImportDeclNode) ModulePath() []lexer.Token {
	path := i.n.FirstChildNode(ModulePath)
	if path == nil {
		return nil
	}

	var out []lexer.Token

	for _, c := range path.Children {
		if c.IsToken() && c.Token.Kind == lexer.Ident {
			out = append(out, c.Token)
		}
	}

	return out
}

// FromImportDeclNode wraps a `from A.B import n1, n2` declaration.
type FromImportDeclNode struct{ n *Node }

// AsFromImportDecl views n as a FromImportDeclNode if its kind matches.
func AsFromImportDecl(n *Node) (FromImportDeclNode, bool) {
	if n == nil || n.Kind != FromImportDecl {
		return FromImportDeclNode{}, false
	}

	return FromImportDeclNode{n}, true
}

// ModulePath returns the dotted segments of the source module path.
func (f FromImportDeclNode) ModulePath() []lexer.Token {
	path := f.n.FirstChildNode(ModulePath)
	if path == nil {
		return nil
	}

	var out []lexer.Token

	for _, c := range path.Children {
		if c.IsToken() && c.Token.Kind == lexer.Ident {
			out = append(out, c.Token)
		}
	}

	return out
}

// Names returns the imported names.
func (f FromImportDeclNode) Names() []lexer.Token {
	list := f.n.FirstChildNode(NameList)
	if list == nil {
		return nil
	}

	var out []lexer.Token

	for _, c := range list.Children {
		if c.IsToken() && c.Token.Kind == lexer.Ident {
			out = append(out, c.Token)
		}
	}

	return out
}

// CallExprNode wraps a CallExpr node.
type CallExprNode struct{ n *Node }

// AsCallExpr views n as a CallExprNode if its kind matches.
func AsCallExpr(n *Node) (CallExprNode, bool) {
	if n == nil || n.Kind != CallExpr {
		return CallExprNode{}, false
	}

	return CallExprNode{n}, true
}

// Callee returns the expression being called — the first child node that
// is not the ArgList.
func (c CallExprNode) Callee() *Node {
	for _, el := range c.n.Children {
		if !el.IsToken() && el.Node.Kind != ArgList {
			return el.Node
		}
	}

	return nil
}

// Args returns the call's argument expressions.
func (c CallExprNode) Args() []*Node {
	list := c.n.FirstChildNode(ArgList)
	if list == nil {
		return nil
	}

	var out []*Node

	for _, el := range list.Children {
		if !el.IsToken() {
			out = append(out, el.Node)
		}
	}

	return out
}

// FieldAccessExprNode wraps a `base.field` expression.
type FieldAccessExprNode struct{ n *Node }

// AsFieldAccessExpr views n as a FieldAccessExprNode if its kind matches.
func AsFieldAccessExpr(n *Node) (FieldAccessExprNode, bool) {
	if n == nil || n.Kind != FieldAccessExpr {
		return FieldAccessExprNode{}, false
	}

	return FieldAccessExprNode{n}, true
}

// Base returns the expression whose field is being accessed.
func (f FieldAccessExprNode) Base() *Node {
	for _, el := range f.n.Children {
		if !el.IsToken() {
			return el.Node
		}
	}

	return nil
}

// Field returns the field/method name token.
func (f FieldAccessExprNode) Field() (lexer.Token, bool) {
	return f.n.FirstChildToken(lexer.Ident)
}
