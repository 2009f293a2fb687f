// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lexer

import (
	"unicode/utf8"

	"github.com/mesh-lang/mesh/pkg/source"
)

// mode is one frame of the lexer's context stack (spec §4.1).
type mode uint8

const (
	modeNormal mode = iota
	modeInString
	modeInInterpolation
)

type frame struct {
	kind   mode
	triple bool // only meaningful for modeInString
	depth  uint32 // brace nesting depth, only meaningful for modeInInterpolation
}

// Lexer tokenises a source buffer. It is a pure function of its input: two
// Lexers over identical bytes always produce identical token streams.
type Lexer struct {
	src    []byte
	pos    uint32
	stack  []frame
	errors []LexError
}

// New constructs a Lexer over src.
func New(src []byte) *Lexer {
	return &Lexer{src: src, stack: []frame{{kind: modeNormal}}}
}

// Errors returns every lexical error accumulated so far.
func (l *Lexer) Errors() []LexError { return l.errors }

// Tokenize lexes the entire buffer and returns its tokens (terminated by a
// single EOF token) plus any lexical errors.
func Tokenize(src []byte) ([]Token, []LexError) {
	l := New(src)

	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)

		if tok.Kind == EOF {
			break
		}
	}

	return toks, l.errors
}

func (l *Lexer) top() *frame { return &l.stack[len(l.stack)-1] }

func (l *Lexer) push(f frame) { l.stack = append(l.stack, f) }

func (l *Lexer) pop() {
	if len(l.stack) > 1 {
		l.stack = l.stack[:len(l.stack)-1]
	}
}

func (l *Lexer) peekByte(off int) (byte, bool) {
	i := int(l.pos) + off
	if i < 0 || i >= len(l.src) {
		return 0, false
	}

	return l.src[i], true
}

func (l *Lexer) emit(kind TokenKind, start uint32) Token {
	return Token{Kind: kind, Span: source.NewSpan(start, l.pos)}
}

func (l *Lexer) errorAt(kind LexErrorKind, start uint32) {
	l.errors = append(l.errors, LexError{Kind: kind, Span: source.NewSpan(start, l.pos)})
}

// Next returns the next token, advancing the lexer's position. Returns a
// single EOF token forever once the input is exhausted.
func (l *Lexer) Next() Token {
	if l.pos >= uint32(len(l.src)) {
		if l.top().kind == modeInString {
			return l.lexStringBody() // reports the unterminated string
		}

		return Token{Kind: EOF, Span: source.NewSpan(l.pos, l.pos)}
	}

	switch l.top().kind {
	case modeInString:
		return l.lexStringBody()
	default:
		return l.lexNormal()
	}
}

func (l *Lexer) lexNormal() Token {
	start := l.pos
	b := l.src[l.pos]

	switch {
	case b == '\n':
		l.pos++
		return l.emit(Newline, start)
	case b == ' ' || b == '\t' || b == '\r':
		l.pos++
		return l.lexTrivia(start)
	case b == '#':
		if c, ok := l.peekByte(1); ok && c == '=' {
			return l.lexBlockComment(start)
		}
		return l.lexLineComment(start)
	case b == '"':
		return l.lexStringStart(start, l.peekTriple())
	case isDigit(b):
		return l.lexNumber(start)
	case isIdentStart(b):
		return l.lexIdent(start)
	case b == '$':
		if c, ok := l.peekByte(1); ok && c == '{' && l.top().kind == modeInString {
			l.pos += 2
			l.push(frame{kind: modeInInterpolation})
			return l.emit(InterpolationStart, start)
		}
	case b == '{':
		l.pos++
		if l.top().kind == modeInInterpolation {
			l.top().depth++
		}
		return l.emit(LBrace, start)
	case b == '}':
		l.pos++
		if l.top().kind == modeInInterpolation {
			if l.top().depth == 0 {
				l.pop() // back to the enclosing InString frame
				return l.emit(InterpolationEnd, start)
			}
			l.top().depth--
		}
		return l.emit(RBrace, start)
	}

	if tok, ok := l.lexOperator(start); ok {
		return tok
	}

	// Invalid byte: advance exactly one UTF-8 scalar and emit Error.
	_, size := utf8.DecodeRune(l.src[l.pos:])
	if size == 0 {
		size = 1
	}

	l.pos += uint32(size)
	l.errorAt(InvalidCharacter, start)

	return l.emit(Error, start)
}

// lexTrivia consumes a run of spaces/tabs/CR, which are discarded (not
// emitted as tokens); the caller then recurses to find the next real token.
func (l *Lexer) lexTrivia(start uint32) Token {
	for l.pos < uint32(len(l.src)) {
		b := l.src[l.pos]
		if b != ' ' && b != '\t' && b != '\r' {
			break
		}

		l.pos++
	}

	return l.Next()
}

func (l *Lexer) lexLineComment(start uint32) Token {
	for l.pos < uint32(len(l.src)) && l.src[l.pos] != '\n' {
		l.pos++
	}

	return l.emit(Comment, start)
}

// lexBlockComment handles the recursive "#= ... =#" form: depth increments
// on '#=' and decrements on '=#'. EOF at nonzero depth is an error.
func (l *Lexer) lexBlockComment(start uint32) Token {
	l.pos += 2 // consume "#="
	depth := 1

	for depth > 0 {
		if l.pos >= uint32(len(l.src)) {
			l.errorAt(UnterminatedBlockComment, start)
			return l.emit(Error, start)
		}

		if l.src[l.pos] == '#' {
			if c, ok := l.peekByte(1); ok && c == '=' {
				depth++
				l.pos += 2
				continue
			}
		}

		if l.src[l.pos] == '=' {
			if c, ok := l.peekByte(1); ok && c == '#' {
				depth--
				l.pos += 2
				continue
			}
		}

		l.pos++
	}

	return l.emit(Comment, start)
}

func (l *Lexer) lexNumber(start uint32) Token {
	for l.pos < uint32(len(l.src)) && isDigit(l.src[l.pos]) {
		l.pos++
	}

	isFloat := false

	if c, ok := l.peekByte(0); ok && c == '.' {
		if c2, ok2 := l.peekByte(1); ok2 && isDigit(c2) {
			isFloat = true
			l.pos++ // consume '.'

			for l.pos < uint32(len(l.src)) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}

	if isFloat {
		return l.emit(Float, start)
	}

	return l.emit(Int, start)
}

func (l *Lexer) lexIdent(start uint32) Token {
	for l.pos < uint32(len(l.src)) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}

	text := string(l.src[start:l.pos])
	if kw, ok := Keywords[text]; ok {
		return l.emit(kw, start)
	}

	return l.emit(Ident, start)
}

func isDigit(b byte) bool      { return b >= '0' && b <= '9' }
func isIdentStart(b byte) bool { return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isIdentCont(b byte) bool  { return isIdentStart(b) || isDigit(b) }
