// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/diag"
	"github.com/mesh-lang/mesh/pkg/source"
)

// Diagnostic is the LSP-facing equivalent of pkg/diag.Diagnostic: spans
// stay in source-buffer byte offsets here; server.go converts to wire
// line/column only at the jsonrpc2 boundary.
type Diagnostic struct {
	Span     source.Span
	Severity DiagnosticSeverity
	Code     string
	Message  string
	Help     string
}

// DiagnosticSeverity mirrors pkg/diag.Severity's two levels.
type DiagnosticSeverity uint8

const (
	DiagError DiagnosticSeverity = iota
	DiagWarning
)

// Diagnostics collects every lex/parse/check diagnostic for doc, the
// textDocument/publishDiagnostics payload for one document. Conversion from
// each raw error type goes through pkg/diag's FromLexError/
// FromParseDiagnostic/FromCheckError, the same adapters cmd/mesh build's
// stderr renderer uses, so the two only ever disagree on presentation
// (server.go's LSP line/column wire form vs. the stderr source snippet),
// never on code/message text.
func Diagnostics(doc *DocumentState) []Diagnostic {
	var out []Diagnostic

	for _, e := range doc.LexErrors {
		out = append(out, fromShared(diag.FromLexError(doc.File, e)))
	}

	for _, d := range doc.ParseDiags {
		out = append(out, fromShared(diag.FromParseDiagnostic(doc.File, d)))
	}

	for _, err := range doc.Checker.Diagnostics() {
		out = append(out, fromShared(diag.FromCheckError(doc.File, err)))
	}

	return out
}

func fromShared(d diag.Diagnostic) Diagnostic {
	sev := DiagError
	if d.Severity == diag.SeverityWarning {
		sev = DiagWarning
	}

	return Diagnostic{Span: d.Span, Severity: sev, Code: d.Code, Message: d.Message, Help: d.Help}
}
