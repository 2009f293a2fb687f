// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package source

import "sort"

// File is a single source file addressed by byte offset. Spans are always
// relative to Contents(); Mesh never stores line/column on a token, so every
// consumer that needs human-readable position goes through LineIndex.
type File struct {
	path     string
	contents []byte
	lines    *LineIndex
}

// NewFile constructs a File and eagerly builds its LineIndex, since nearly
// every pass ends up needing it for diagnostics.
func NewFile(path string, contents []byte) *File {
	return &File{
		path:     path,
		contents: contents,
		lines:    newLineIndex(contents),
	}
}

// Path returns the file's path as given to NewFile (project-relative, by
// convention).
func (f *File) Path() string { return f.path }

// Contents returns the raw bytes of the file.
func (f *File) Contents() []byte { return f.contents }

// Text returns the substring covered by span.
func (f *File) Text(span Span) string {
	return string(f.contents[span.Start():span.End()])
}

// Lines returns the file's LineIndex.
func (f *File) Lines() *LineIndex { return f.lines }

// Position is a 1-indexed line/column pair, the human-facing counterpart of
// a byte offset.
type Position struct {
	Line   int
	Column int
}

// LineIndex maps byte offsets to 1-indexed line/column positions via binary
// search over line-start offsets. Built once per file; never embedded in a
// Token or CST node.
type LineIndex struct {
	// starts[i] is the byte offset of the first byte of line i+1.
	starts []uint32
}

func newLineIndex(contents []byte) *LineIndex {
	starts := []uint32{0}
	for i, b := range contents {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}

	return &LineIndex{starts}
}

// Position converts a byte offset into a 1-indexed line/column pair. Offsets
// past the end of the file clamp to the final line.
func (idx *LineIndex) Position(offset uint32) Position {
	// Find the last line-start <= offset.
	i := sort.Search(len(idx.starts), func(i int) bool {
		return idx.starts[i] > offset
	})
	line := i // 1-indexed line number of the enclosing line
	lineStart := idx.starts[i-1]

	return Position{Line: line, Column: int(offset-lineStart) + 1}
}

// LineSpan returns the span of the given 1-indexed line within contents,
// excluding any trailing newline.
func (idx *LineIndex) LineSpan(contents []byte, line int) Span {
	start := idx.starts[line-1]

	end := uint32(len(contents))
	if line < len(idx.starts) {
		end = idx.starts[line] - 1
	}

	if end > 0 && end <= uint32(len(contents)) && end > start && contents[end-1] == '\n' {
		end--
	}

	return Span{start, end}
}
