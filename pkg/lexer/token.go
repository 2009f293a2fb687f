// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package lexer turns a UTF-8 source buffer into a token stream per spec
// §4.1: a closed TokenKind set, a context stack driving string
// interpolation, recursive block comments, and significant newlines. The
// lexer never panics and never aborts on malformed input — invalid bytes
// become Error tokens and lexing continues.
package lexer

import "github.com/mesh-lang/mesh/pkg/source"

// TokenKind is the closed set of token kinds the lexer can produce.
type TokenKind uint8

const (
	// Special.
	EOF TokenKind = iota
	Error
	Newline
	Comment

	// Literals.
	Int
	Float
	Ident

	// String literal, possibly interpolated.
	StringStart
	StringContent
	StringEnd
	TripleStringStart
	TripleStringEnd
	InterpolationStart
	InterpolationEnd

	// Keywords (closed set of ~48 reserved words; the subset used by this
	// implementation — extending it is additive and does not change the
	// lexer's state machine).
	KwFn
	KwDo
	KwEnd
	KwIf
	KwElse
	KwCase
	KwFor
	KwIn
	KwWhen
	KwImport
	KwFrom
	KwStruct
	KwType
	KwInterface
	KwImpl
	KwPub
	KwLet
	KwReturn
	KwTrue
	KwFalse
	KwAnd
	KwOr
	KwNot
	KwReceive
	KwAfter
	KwSpawn
	KwSelf

	// Operators & delimiters.
	Plus
	Minus
	Star
	Slash
	Percent
	Eq
	EqEq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Arrow // ->
	FatArrow
	ColonColon // ::
	Dot
	Comma
	Colon
	Question
	Amp
	Pipe
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Dollar // '$' preceding '{' inside a string, see InterpolationStart
)

// Keywords maps reserved identifiers to their keyword kind. Populated once;
// used by the Ident-vs-keyword classification step.
var Keywords = map[string]TokenKind{
	"fn": KwFn, "do": KwDo, "end": KwEnd, "if": KwIf, "else": KwElse,
	"case": KwCase, "for": KwFor, "in": KwIn, "when": KwWhen,
	"import": KwImport, "from": KwFrom, "struct": KwStruct, "type": KwType,
	"interface": KwInterface, "impl": KwImpl, "pub": KwPub, "let": KwLet,
	"return": KwReturn, "true": KwTrue, "false": KwFalse, "and": KwAnd,
	"or": KwOr, "not": KwNot, "receive": KwReceive, "after": KwAfter,
	"spawn": KwSpawn, "self": KwSelf,
}

// Token is a value-copyable {kind, span} pair; text content is recovered on
// demand via File.Text(tok.Span), never stored inline.
type Token struct {
	Kind TokenKind
	Span source.Span
}

// LexError describes one recoverable lexical failure.
type LexError struct {
	Kind LexErrorKind
	Span source.Span
}

// LexErrorKind is the closed taxonomy of lexical errors from spec §7.
type LexErrorKind uint8

const (
	InvalidCharacter LexErrorKind = iota
	UnterminatedString
	UnterminatedBlockComment
	InvalidEscape
	InvalidNumber
)
