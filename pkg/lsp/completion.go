// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import "fmt"

// CompletionItem is a tier-tagged completion candidate. SortText orders the
// four tiers spec §4.9 describes (scope-aware names, built-in types,
// keywords, snippet templates) ahead of alphabetical order within a tier.
type CompletionItem struct {
	Label      string
	Detail     string
	Kind       CompletionKind
	InsertText string
	SortText   string
}

// CompletionKind mirrors the handful of protocol.CompletionItemKind values
// this server ever produces.
type CompletionKind uint8

const (
	CompFunction CompletionKind = iota
	CompVariable
	CompClass
	CompKeyword
	CompSnippet
)

var builtinTypes = []string{"Int", "Float", "Bool", "String", "Unit", "List", "Map", "Tuple"}

var keywords = []string{
	"fn", "do", "end", "if", "else", "case", "for", "in", "when", "import",
	"from", "struct", "type", "interface", "impl", "pub", "let", "return",
	"true", "false", "and", "or", "not", "receive", "after", "spawn", "self",
}

type snippet struct {
	label  string
	body   string
	detail string
}

var snippets = []snippet{
	{"fn", "fn ${1:name}(${2:params}) do\n\t$0\nend", "function definition"},
	{"struct", "struct ${1:Name} do\n\t$0\nend", "struct definition"},
	{"if", "if ${1:cond} do\n\t$0\nend", "if expression"},
	{"for", "for ${1:x} in ${2:xs} do\n\t$0\nend", "for-in loop"},
	{"case", "case ${1:expr} do\n\t${2:pattern} -> $0\nend", "case expression"},
}

// Complete produces the merged four-tier completion list for a cursor at
// offset in doc (spec §4.9). When offset falls in whitespace with no token
// underneath, the scope tier falls back to top-level names only — ScopeAt
// already does this implicitly, since a cursor outside any FnDef/Block path
// element simply never reaches the param/let collection branches.
func Complete(doc *DocumentState, offset uint32) []CompletionItem {
	var out []CompletionItem

	for i, sym := range ScopeAt(doc.File.Contents(), doc.Root, offset) {
		out = append(out, CompletionItem{
			Label:      sym.Name,
			Kind:       symbolCompletionKind(sym.Kind),
			InsertText: sym.Name,
			SortText:   fmt.Sprintf("0%04d_%s", i, sym.Name),
		})
	}

	for i, t := range builtinTypes {
		out = append(out, CompletionItem{
			Label:      t,
			Detail:     "built-in type",
			Kind:       CompClass,
			InsertText: t,
			SortText:   fmt.Sprintf("1%04d_%s", i, t),
		})
	}

	for i, kw := range keywords {
		out = append(out, CompletionItem{
			Label:      kw,
			Kind:       CompKeyword,
			InsertText: kw,
			SortText:   fmt.Sprintf("2%04d_%s", i, kw),
		})
	}

	for i, s := range snippets {
		out = append(out, CompletionItem{
			Label:      s.label,
			Detail:     s.detail,
			Kind:       CompSnippet,
			InsertText: s.body,
			SortText:   fmt.Sprintf("3%04d_%s", i, s.label),
		})
	}

	return out
}

func symbolCompletionKind(k SymbolKind) CompletionKind {
	switch k {
	case SymFunction:
		return CompFunction
	case SymStruct, SymSumType, SymInterface:
		return CompClass
	default:
		return CompVariable
	}
}
