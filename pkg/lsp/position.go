// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/source"
)

// Because pkg/cst's tree is lossless (every node's Span already covers the
// exact whitespace-preserving source range, spec §3/§8), there is no
// separate whitespace-stripped tree coordinate system here the way
// spec §4.9 describes for its source implementation — source offsets and
// tree offsets are the same number. Only the LSP wire format's line/column
// (1-indexed byte offsets internally, 0-indexed UTF-16 code units over the
// wire) needs converting, which this file does.

// OffsetToPosition converts a byte offset into an LSP position (0-indexed
// line and UTF-16 code-unit column). Mesh source is required to be valid
// UTF-8; non-ASCII columns are approximated by counting UTF-16 code units
// across the line up to the offset, matching the LSP spec's column unit.
func OffsetToPosition(file *source.File, offset uint32) (line, character uint32) {
	pos := file.Lines().Position(offset)
	lineSpan := file.Lines().LineSpan(file.Contents(), pos.Line)

	lineStart := lineSpan.Start()
	if offset < lineStart {
		offset = lineStart
	}

	column := utf16Len(file.Contents()[lineStart:offset])

	return uint32(pos.Line - 1), uint32(column)
}

// PositionToOffset converts an LSP 0-indexed line/UTF-16-column position
// back to a byte offset into file's contents.
func PositionToOffset(file *source.File, line, character uint32) uint32 {
	oneIndexedLine := int(line) + 1
	lines := file.Lines()

	lineSpan := lines.LineSpan(file.Contents(), oneIndexedLine)
	bytes := file.Contents()[lineSpan.Start():lineSpan.End()]

	return lineSpan.Start() + utf16OffsetToByteOffset(bytes, character)
}

// utf16Len counts the number of UTF-16 code units needed to encode b,
// treating 4-byte UTF-8 sequences (astral characters) as surrogate pairs.
func utf16Len(b []byte) int {
	n := 0

	for i := 0; i < len(b); {
		r, size := decodeRune(b[i:])
		i += size

		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}

	return n
}

// utf16OffsetToByteOffset walks b counting UTF-16 code units until target
// is reached, returning the corresponding byte offset.
func utf16OffsetToByteOffset(b []byte, target uint32) uint32 {
	var units uint32

	for i := 0; i < len(b); {
		if units >= target {
			return uint32(i)
		}

		r, size := decodeRune(b[i:])
		i += size

		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}

		if units >= target {
			return uint32(i)
		}
	}

	return uint32(len(b))
}

// decodeRune decodes one UTF-8 rune from b, returning its code point and
// byte width. Invalid leading bytes are treated as single-byte runes so
// malformed input never causes an infinite loop.
func decodeRune(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}

	c := b[0]

	switch {
	case c < 0x80:
		return rune(c), 1
	case c&0xE0 == 0xC0 && len(b) >= 2:
		return (rune(c&0x1F) << 6) | rune(b[1]&0x3F), 2
	case c&0xF0 == 0xE0 && len(b) >= 3:
		return (rune(c&0x0F) << 12) | (rune(b[1]&0x3F) << 6) | rune(b[2]&0x3F), 3
	case c&0xF8 == 0xF0 && len(b) >= 4:
		return (rune(c&0x07) << 18) | (rune(b[1]&0x3F) << 12) | (rune(b[2]&0x3F) << 6) | rune(b[3]&0x3F), 4
	default:
		return rune(c), 1
	}
}
