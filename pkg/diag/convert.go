// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package diag

import (
	"fmt"

	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/parser"
	"github.com/mesh-lang/mesh/pkg/source"
	"github.com/mesh-lang/mesh/pkg/types"
)

// FromLexError converts one lexical failure into a renderable Diagnostic,
// the single place cmd/mesh build and pkg/lsp's publishDiagnostics both
// translate a lexer.LexError through.
func FromLexError(file *source.File, e lexer.LexError) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     lexErrorCode(e.Kind),
		Message:  lexErrorMessage(e.Kind),
		File:     file,
		Span:     e.Span,
	}
}

// FromParseDiagnostic converts one parser.Diagnostic (spec §4.2 parse_error)
// into a renderable Diagnostic.
func FromParseDiagnostic(file *source.File, d parser.Diagnostic) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Code:     "E0017",
		Message:  fmt.Sprintf("expected %s, found %s", d.Expected, d.Found),
		File:     file,
		Span:     d.Span,
	}
}

// FromCheckError converts one checker diagnostic into a renderable
// Diagnostic. Errors that don't implement types.CodedError still render
// with their message and no span/code.
func FromCheckError(file *source.File, err error) Diagnostic {
	d := Diagnostic{Severity: SeverityError, Message: err.Error(), File: file}

	if coded, ok := err.(types.CodedError); ok {
		d.Code = string(coded.Code())
		d.Span = coded.At()
	}

	if helper, ok := err.(interface{ Help() string }); ok {
		d.Help = helper.Help()
	}

	return d
}

func lexErrorCode(k lexer.LexErrorKind) string {
	switch k {
	case lexer.UnterminatedString:
		return "E0015"
	case lexer.InvalidEscape:
		return "E0016"
	default:
		return "E0000"
	}
}

func lexErrorMessage(k lexer.LexErrorKind) string {
	switch k {
	case lexer.InvalidCharacter:
		return "invalid character"
	case lexer.UnterminatedString:
		return "unterminated string literal"
	case lexer.UnterminatedBlockComment:
		return "unterminated block comment"
	case lexer.InvalidEscape:
		return "invalid escape sequence"
	case lexer.InvalidNumber:
		return "invalid numeric literal"
	default:
		return "lexical error"
	}
}
