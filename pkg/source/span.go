// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package source holds the primitives shared by every front-end pass: byte
// spans into the original buffer, a line index that maps those spans to
// line/column (built once, when a File is constructed), and a small generic
// lexer/scanner pair. Nothing in this package
// understands Mesh syntax; that starts in pkg/lexer.
package source

import "fmt"

// Span is a half-open byte range [Start, End) into an original source
// buffer. Spans are never adjusted for line/column; that mapping is done on
// demand by LineIndex so tokens stay cheap to copy.
type Span struct {
	start uint32
	end   uint32
}

// NewSpan constructs a span, panicking if the range is inverted.
func NewSpan(start, end uint32) Span {
	if start > end {
		panic("source: invalid span")
	}

	return Span{start, end}
}

// Start returns the first byte offset covered by this span.
func (s Span) Start() uint32 { return s.start }

// End returns one past the last byte offset covered by this span.
func (s Span) End() uint32 { return s.end }

// Length returns the number of bytes covered by this span.
func (s Span) Length() uint32 { return s.end - s.start }

// IsEmpty holds when the span covers zero bytes.
func (s Span) IsEmpty() bool { return s.start == s.end }

// Merge returns the smallest span enclosing both s and other.
func (s Span) Merge(other Span) Span {
	start, end := s.start, s.end
	if other.start < start {
		start = other.start
	}

	if other.end > end {
		end = other.end
	}

	return Span{start, end}
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.start, s.end)
}
