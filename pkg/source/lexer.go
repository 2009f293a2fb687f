// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package source

// Scanner recognises a single token at the front of items, or reports that
// nothing matched. T is typically byte for Mesh's lexer, but the generic
// shape lets pkg/lsp reuse the same machinery over already-tokenised input.
type Scanner[T any] interface {
	// Scan examines items (a suffix of the original input) and, if a token
	// can be recognised at its front, returns it with Span relative to the
	// start of items. Returns ok=false at end of input or when nothing
	// matches (the caller advances by one and tries again).
	Scan(items []T) (tok GenericToken, ok bool)
}

// GenericToken pairs an arbitrary numeric kind with a Span, mirroring
// pkg/lexer.Token without depending on it (avoids an import cycle since
// pkg/lexer depends on this package).
type GenericToken struct {
	Kind uint
	Span Span
}

// Lexer drives a Scanner over a buffered slice, turning a byte/item stream
// into a pull-based token sequence. It never panics: a Scanner that returns
// ok=false causes the Lexer to skip one item and retry, so lexing always
// terminates.
type Lexer[T any] struct {
	items   []T
	index   int
	scanner Scanner[T]
	pending []GenericToken
}

// NewLexer constructs a Lexer over items using scanner to recognise tokens.
func NewLexer[T any](items []T, scanner Scanner[T]) *Lexer[T] {
	return &Lexer[T]{items: items, scanner: scanner}
}

// HasNext reports whether another token is available.
func (l *Lexer[T]) HasNext() bool {
	l.fill()
	return len(l.pending) > 0
}

// Next returns the next token and advances the lexer past it.
func (l *Lexer[T]) Next() GenericToken {
	tok := l.pending[0]
	l.pending = l.pending[1:]
	l.index = int(tok.Span.End())

	return tok
}

// Collect drains every remaining token.
func (l *Lexer[T]) Collect() []GenericToken {
	var toks []GenericToken
	for l.HasNext() {
		toks = append(toks, l.Next())
	}

	return toks
}

func (l *Lexer[T]) fill() {
	for len(l.pending) == 0 && l.index < len(l.items) {
		tok, ok := l.scanner.Scan(l.items[l.index:])
		if !ok {
			// Scanner declined every prefix; caller-level scanners are
			// expected to always consume at least one item via an Error
			// token, but guard against infinite loops regardless.
			l.index++
			continue
		}

		tok.Span = NewSpan(tok.Span.Start()+uint32(l.index), tok.Span.End()+uint32(l.index))
		l.pending = append(l.pending, tok)
	}
}
