// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"fmt"

	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/types"
)

// Hover answers a hover request at offset with a short Markdown-ish
// description of the identifier under the cursor (spec §4.9: "Standard
// CST-walk against the same data"). Returns ok=false when the cursor isn't
// over an identifier.
func Hover(doc *DocumentState, offset uint32) (string, bool) {
	tok, ok := TokenAtOffset(doc.Root, offset)
	if !ok || tok.Kind != lexer.Ident {
		return "", false
	}

	name := string(doc.File.Contents()[tok.Span.Start():tok.Span.End()])

	if sig, ok := doc.Checker.FnSignature(name); ok {
		return fmt.Sprintf("fn %s%s", name, types.Format(sig)), true
	}

	if info, ok := doc.Checker.Struct(name); ok {
		return structHover(name, info), true
	}

	for _, sym := range ScopeAt(doc.File.Contents(), doc.Root, offset) {
		if sym.Name != name {
			continue
		}

		return fmt.Sprintf("%s: %s", name, symbolKindLabel(sym.Kind)), true
	}

	return "", false
}

func structHover(name string, info *types.StructInfo) string {
	s := "struct " + name + " {"

	for i, f := range info.Fields {
		if i > 0 {
			s += ", "
		}

		s += f + ": " + types.Format(info.FieldTy[f])
	}

	return s + "}"
}

func symbolKindLabel(k SymbolKind) string {
	switch k {
	case SymFunction:
		return "function"
	case SymParameter:
		return "parameter"
	case SymLocal:
		return "local"
	case SymStruct:
		return "struct"
	case SymSumType:
		return "sum type"
	case SymInterface:
		return "interface"
	default:
		return "name"
	}
}
