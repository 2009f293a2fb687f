// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package parser implements the Pratt/top-down parser from spec §4.2: it
// turns a pkg/lexer token stream into a lossless pkg/cst tree plus a
// diagnostics list, inserting Error nodes and continuing on malformed
// input rather than aborting.
package parser

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/source"
)

// Diagnostic is one parse_error per spec §4.2/§7.
type Diagnostic struct {
	Expected string
	Found    lexer.TokenKind
	Span     source.Span
}

type cursor struct {
	toks  []lexer.Token
	pos   int
	depth int // bracket nesting depth: (), [], {}
	diags []Diagnostic
}

func newCursor(toks []lexer.Token) *cursor {
	return &cursor{toks: toks}
}

// peekRaw returns the token off positions past the cursor without skipping
// trivia, i.e. a raw token (may be Newline/Comment).
func (c *cursor) peekRaw(off int) lexer.Token {
	i := c.pos + off
	if i >= len(c.toks) {
		return c.toks[len(c.toks)-1] // EOF
	}

	return c.toks[i]
}

// collectTrivia gathers consecutive Comment and Newline tokens starting at
// the cursor (every Newline counts as trivia; suppressNewline is not
// consulted), returning them as CST leaves and advancing past them.
func (c *cursor) collectTrivia() []cst.Element {
	var out []cst.Element

	for {
		tok := c.peekRaw(0)
		if tok.Kind == lexer.Comment {
			out = append(out, cst.TokenElem(tok))
			c.pos++

			continue
		}

		if tok.Kind == lexer.Newline {
			// Mesh's grammar delimits statements structurally (do/end,
			// block-list separators) rather than by newline, so every
			// Newline is trivia here; suppressNewline is still consulted
			// by tooling (e.g. the LSP) that needs to know whether a given
			// newline *would* have been continuation-suppressed.
			out = append(out, cst.TokenElem(tok))
			c.pos++

			continue
		}

		break
	}

	return out
}

// suppressNewline implements spec §4.2's continuation rule: a newline does
// not terminate a statement when bracket depth is nonzero, or the previous
// significant token was a binary operator, comma, `do`, or `=`.
func (c *cursor) suppressNewline() bool {
	if c.depth > 0 {
		return true
	}

	if c.pos == 0 {
		return true
	}

	switch c.toks[c.pos-1].Kind {
	case lexer.Plus, lexer.Minus, lexer.Star, lexer.Slash, lexer.Percent,
		lexer.EqEq, lexer.NotEq, lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq,
		lexer.KwAnd, lexer.KwOr, lexer.Comma, lexer.KwDo, lexer.Eq, lexer.Dot:
		return true
	}

	return false
}

// next returns the next significant token (skipping trivia) and advances
// past it, also returning the trivia that preceded it so callers can
// prepend it to whatever node they're building.
func (c *cursor) next() (lexer.Token, []cst.Element) {
	trivia := c.collectTrivia()
	tok := c.peekRaw(0)
	c.pos++
	c.adjustDepth(tok)

	return tok, trivia
}

// peek returns the next significant token without consuming it.
func (c *cursor) peek() lexer.Token {
	save := c.pos
	c.collectTrivia()
	tok := c.peekRaw(0)
	c.pos = save

	return tok
}

func (c *cursor) adjustDepth(tok lexer.Token) {
	switch tok.Kind {
	case lexer.LParen, lexer.LBracket, lexer.LBrace:
		c.depth++
	case lexer.RParen, lexer.RBracket, lexer.RBrace:
		if c.depth > 0 {
			c.depth--
		}
	}
}

func (c *cursor) atEOF() bool {
	return c.peek().Kind == lexer.EOF
}

func (c *cursor) errorf(expected string) {
	found := c.peek()
	c.diags = append(c.diags, Diagnostic{Expected: expected, Found: found.Kind, Span: found.Span})
}
