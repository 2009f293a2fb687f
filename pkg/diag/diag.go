// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package diag renders diagnostics shared by cmd/mesh (stderr output) and
// pkg/lsp (publishDiagnostics): a Bag collects them as they're produced by
// lexing/parsing/checking, and Render formats each with a source snippet,
// underline, and optional help text, width-aware via golang.org/x/term —
// grounded on the teacher's pkg/util/termio terminal-width handling.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mesh-lang/mesh/pkg/source"
)

// Severity distinguishes a hard error from an advisory note.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}

	return "error"
}

// Diagnostic is one renderable finding: a code, a message, a span into a
// file, and optional remediation help text.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	File     *source.File
	Span     source.Span
	Help     string
}

// Bag accumulates diagnostics across a compilation, in the order they were
// added, and answers whether compilation should stop (spec §6 exit codes:
// 0 clean, 1 diagnostics-but-no-crash, 2 internal failure).
type Bag struct {
	items []Diagnostic
}

// NewBag constructs an empty bag.
func NewBag() *Bag { return &Bag{} }

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

// Errorf appends an error-severity diagnostic with no source span, for
// conditions (file I/O, module discovery) that precede parsing.
func (b *Bag) Errorf(format string, args ...any) {
	b.Add(Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Items returns every accumulated diagnostic.
func (b *Bag) Items() []Diagnostic { return b.items }

// HasErrors reports whether any diagnostic in the bag is error-severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

// terminalWidth returns the output width to wrap snippets at, falling back
// to 100 columns when w isn't a terminal (piped output, LSP, CI logs).
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 100
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 100
	}

	return width
}

// Render writes every diagnostic in the bag to w in the teacher's
// human-readable style: "error[E0004]: message" followed by a source
// snippet with the offending span underlined.
func (b *Bag) Render(w io.Writer) {
	width := terminalWidth(w)

	for _, d := range b.items {
		renderOne(w, d, width)
	}
}

func renderOne(w io.Writer, d Diagnostic, width int) {
	header := d.Severity.String()
	if d.Code != "" {
		header = fmt.Sprintf("%s[%s]", header, d.Code)
	}

	fmt.Fprintf(w, "%s: %s\n", header, d.Message)

	if d.File == nil {
		return
	}

	pos := d.File.Lines().Position(d.Span.Start())
	fmt.Fprintf(w, "  --> %s:%d:%d\n", d.File.Path(), pos.Line, pos.Column)

	lineSpan := d.File.Lines().LineSpan(d.File.Contents(), pos.Line)
	line := d.File.Text(lineSpan)
	line = clampWidth(line, width-6)

	gutter := fmt.Sprintf("%d", pos.Line)
	fmt.Fprintf(w, "%s | %s\n", gutter, line)

	underlineLen := int(d.Span.Length())
	if underlineLen < 1 {
		underlineLen = 1
	}

	pad := strings.Repeat(" ", len(gutter)+3+pos.Column-1)
	fmt.Fprintf(w, "%s%s\n", pad, strings.Repeat("^", underlineLen))

	if d.Help != "" {
		fmt.Fprintf(w, "%shelp: %s\n", strings.Repeat(" ", len(gutter)+3), d.Help)
	}
}

func clampWidth(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}

	return s[:max-3] + "..."
}
