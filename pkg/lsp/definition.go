// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/source"
)

// Definition resolves the identifier at offset to its declaration's span
// (spec §4.9: "Go-to-definition ... Standard CST-walk against the same
// data"). It reuses ScopeAt, since a name's declaration is exactly the
// Symbol of that name visible at the use site.
func Definition(doc *DocumentState, offset uint32) (source.Span, bool) {
	tok, ok := TokenAtOffset(doc.Root, offset)
	if !ok || tok.Kind != lexer.Ident {
		return source.Span{}, false
	}

	name := string(doc.File.Contents()[tok.Span.Start():tok.Span.End()])

	for _, sym := range ScopeAt(doc.File.Contents(), doc.Root, offset) {
		if sym.Name == name {
			return sym.Span, true
		}
	}

	return source.Span{}, false
}
