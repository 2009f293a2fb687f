// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/source"
)

// DocumentSymbol is one entry in a textDocument/documentSymbol response:
// a name, its kind, and the span of the whole declaration (for the
// collapsible outline range) plus the narrower span of just its name
// token (for the "selection range" LSP clients use to place the cursor).
type DocumentSymbol struct {
	Name          string
	Kind          SymbolKind
	Span          source.Span
	SelectionSpan source.Span
}

// DocumentSymbols lists every top-level declaration in doc, in source
// order, for the outline view.
func DocumentSymbols(doc *DocumentState) []DocumentSymbol {
	contents := doc.File.Contents()
	text := func(t lexer.Token) string { return string(contents[t.Span.Start():t.Span.End()]) }

	var out []DocumentSymbol

	for _, child := range doc.Root.Children {
		if child.IsToken() {
			continue
		}

		n := child.Node

		var (
			nameTok lexer.Token
			found   bool
			kind    SymbolKind
		)

		switch n.Kind {
		case cst.FnDef:
			nameTok, found = n.FirstChildToken(lexer.Ident)
			kind = SymFunction
		case cst.StructDef:
			nameTok, found = n.FirstChildToken(lexer.Ident)
			kind = SymStruct
		case cst.SumTypeDef:
			nameTok, found = n.FirstChildToken(lexer.Ident)
			kind = SymSumType
		case cst.InterfaceDef:
			nameTok, found = n.FirstChildToken(lexer.Ident)
			kind = SymInterface
		default:
			continue
		}

		if !found {
			continue
		}

		out = append(out, DocumentSymbol{
			Name:          text(nameTok),
			Kind:          kind,
			Span:          n.Span(),
			SelectionSpan: nameTok.Span,
		})
	}

	return out
}
