// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/source"
)

// Symbol is one name visible at a cursor position, the unit the scope
// walker and the top-level collector both produce. Span is the identifier
// token's own span (not the whole declaration), the target go-to-definition
// jumps to.
type Symbol struct {
	Name string
	Kind SymbolKind
	Span source.Span
}

// SymbolKind distinguishes how a Symbol was introduced, for completion
// icons and document-symbol kinds.
type SymbolKind uint8

const (
	SymFunction SymbolKind = iota
	SymParameter
	SymLocal
	SymStruct
	SymSumType
	SymInterface
)

// ScopeAt collects every scope-aware name visible at offset in root: the
// module's top-level definitions plus, if the cursor sits inside a
// function, that function's parameters and every let/for-in/match-arm
// binding introduced before offset in an enclosing block (spec §4.9's
// "scope walker traverses the CST upward from the cursor token, collecting
// let-bindings / fn defs / parameters visible at that point"). Expressed as
// a top-down walk of the root-to-cursor path since pkg/cst.Node has no
// parent pointers.
func ScopeAt(contents []byte, root *cst.Node, offset uint32) []Symbol {
	text := func(t lexer.Token) string { return string(contents[t.Span.Start():t.Span.End()]) }

	var out []Symbol
	seen := map[string]bool{}

	add := func(tok lexer.Token, kind SymbolKind) {
		name := text(tok)
		if name == "" || seen[name] {
			return
		}

		seen[name] = true
		out = append(out, Symbol{Name: name, Kind: kind, Span: tok.Span})
	}

	for _, child := range root.Children {
		if child.IsToken() {
			continue
		}

		switch child.Node.Kind {
		case cst.FnDef:
			if nameTok, ok := child.Node.FirstChildToken(lexer.Ident); ok {
				add(nameTok, SymFunction)
			}
		case cst.StructDef:
			if nameTok, ok := child.Node.FirstChildToken(lexer.Ident); ok {
				add(nameTok, SymStruct)
			}
		case cst.SumTypeDef:
			if nameTok, ok := child.Node.FirstChildToken(lexer.Ident); ok {
				add(nameTok, SymSumType)
			}
		case cst.InterfaceDef:
			if nameTok, ok := child.Node.FirstChildToken(lexer.Ident); ok {
				add(nameTok, SymInterface)
			}
		}
	}

	path := PathToOffset(root, offset)

	for _, n := range path {
		switch n.Kind {
		case cst.FnDef:
			f, ok := cst.AsFnDef(n)
			if !ok {
				continue
			}

			if list := f.Params(); list != nil {
				for _, p := range list.ChildNodes(cst.Param) {
					if nameTok, ok := p.FirstChildToken(lexer.Ident); ok {
						add(nameTok, SymParameter)
					}
				}
			}
		case cst.Block:
			collectBlockBindings(n, offset, add)
		case cst.ForInExpr:
			if nameTok, ok := n.FirstChildToken(lexer.Ident); ok {
				add(nameTok, SymLocal)
			}
		case cst.MatchArm:
			collectPatternBindings(n, add)
		}
	}

	return out
}

// collectBlockBindings adds every LetStmt binding in block that textually
// ends before offset, matching sequential (not recursive, not hoisted)
// let-scoping.
func collectBlockBindings(block *cst.Node, offset uint32, add func(lexer.Token, SymbolKind)) {
	for _, child := range block.Children {
		if child.IsToken() || child.Node.Kind != cst.LetStmt {
			continue
		}

		if child.Node.Span().End() > offset {
			break
		}

		if nameTok, ok := child.Node.FirstChildToken(lexer.Ident); ok {
			add(nameTok, SymLocal)
		}
	}
}

// collectPatternBindings walks a MatchArm's pattern for BindPattern /
// ConstructorPattern identifiers.
func collectPatternBindings(arm *cst.Node, add func(lexer.Token, SymbolKind)) {
	var walk func(n *cst.Node)

	walk = func(n *cst.Node) {
		switch n.Kind {
		case cst.BindPattern:
			if nameTok, ok := n.FirstChildToken(lexer.Ident); ok {
				add(nameTok, SymLocal)
			}

			return
		case cst.WildcardPattern, cst.LiteralPattern:
			return
		}

		for _, c := range n.Children {
			if !c.IsToken() {
				walk(c.Node)
			}
		}
	}

	for _, c := range arm.Children {
		if !c.IsToken() {
			walk(c.Node)
		}
	}
}
