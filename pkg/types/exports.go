// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package types

import (
	"fmt"
	"sort"

	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/source"
)

// ExportedSymbols partitions a module's top-level items into what other
// modules can see and what stays private, per spec §4.3's visibility rules:
// `pub` items are exported; everything else is private, EXCEPT trait impls,
// which are always exported regardless of any `pub` marker (an impl's whole
// purpose is to be visible to whoever imports either the trait or the type).
type ExportedSymbols struct {
	Exported     map[string]bool
	PrivateNames map[string]bool
}

// CollectExports walks a SourceFile's top-level items and partitions their
// names by visibility (spec §4.3 step 3). contents is the module's source
// buffer, needed to recover identifier text from token spans.
func CollectExports(contents []byte, root *cst.Node) *ExportedSymbols {
	out := &ExportedSymbols{Exported: map[string]bool{}, PrivateNames: map[string]bool{}}

	text := func(t lexer.Token) string { return string(contents[t.Span.Start():t.Span.End()]) }

	for _, c := range root.Children {
		if c.IsToken() {
			continue
		}

		switch c.Node.Kind {
		case cst.FnDef:
			f, _ := cst.AsFnDef(c.Node)
			name, ok := f.Name()
			if !ok {
				continue
			}

			addByVisibility(out, text(name), f.Visibility())
		case cst.StructDef:
			s, _ := cst.AsStructDef(c.Node)
			name, ok := s.Name()
			if !ok {
				continue
			}

			addByVisibility(out, text(name), s.Visibility())
		case cst.SumTypeDef:
			name, ok := c.Node.FirstChildToken(lexer.Ident)
			if !ok {
				continue
			}

			_, pub := c.Node.FirstChildToken(lexer.KwPub)
			addByVisibility(out, text(name), pub)
		case cst.InterfaceDef:
			name, ok := c.Node.FirstChildToken(lexer.Ident)
			if !ok {
				continue
			}

			_, pub := c.Node.FirstChildToken(lexer.KwPub)
			addByVisibility(out, text(name), pub)
		case cst.ImplDef:
			// Trait impls are always exported (spec §4.3).
			continue
		}
	}

	return out
}

func addByVisibility(out *ExportedSymbols, name string, pub bool) {
	if pub {
		out.Exported[name] = true
	} else {
		out.PrivateNames[name] = true
	}
}

// ImportError is the closed set of cross-module import failures (spec
// §4.3's "Import resolution" edge cases).
type ImportError struct {
	Kind       ImportErrorKind
	ModuleName string
	Name       string
	Suggestion string
	Span       source.Span
}

// ImportErrorKind distinguishes why an import failed.
type ImportErrorKind uint8

const (
	ImportNameNotFound ImportErrorKind = iota
	ImportPrivateItem
)

func (e *ImportError) Error() string {
	switch e.Kind {
	case ImportPrivateItem:
		return fmt.Sprintf("E0035: %q is private to module %s", e.Name, e.ModuleName)
	default:
		msg := fmt.Sprintf("E0011: module %s has no export %q", e.ModuleName, e.Name)
		if e.Suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
		}

		return msg
	}
}

// Help returns the diagnostic's remediation text (spec §4.4: "add `pub` to
// make it accessible"), rendered by pkg/diag alongside the error itself.
func (e *ImportError) Help() string {
	if e.Kind == ImportPrivateItem {
		return fmt.Sprintf("add `pub` to `%s` to make it accessible", e.Name)
	}

	return ""
}

// ResolveImport checks that name is a visible export of a module whose
// symbols have already been collected, producing the distinction spec §4.3
// requires between "doesn't exist anywhere" (with a fuzzy suggestion) and
// "exists but is private".
func ResolveImport(moduleName, name string, exports *ExportedSymbols) error {
	if exports.Exported[name] {
		return nil
	}

	if exports.PrivateNames[name] {
		return &ImportError{Kind: ImportPrivateItem, ModuleName: moduleName, Name: name}
	}

	return &ImportError{
		Kind:       ImportNameNotFound,
		ModuleName: moduleName,
		Name:       name,
		Suggestion: closestName(name, allNames(exports)),
	}
}

func allNames(exports *ExportedSymbols) []string {
	names := make([]string, 0, len(exports.Exported)+len(exports.PrivateNames))
	for n := range exports.Exported {
		names = append(names, n)
	}

	for n := range exports.PrivateNames {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// closestName returns the candidate with the smallest Levenshtein distance
// to target, provided that distance is small enough to plausibly be a typo
// (<= 1/3 of target's length, minimum 1). Ties break alphabetically, so the
// result is deterministic regardless of map iteration order.
func closestName(target string, candidates []string) string {
	best := ""
	bestDist := -1
	threshold := len(target) / 3
	if threshold < 1 {
		threshold = 1
	}

	for _, c := range candidates {
		d := levenshtein(target, c)
		if d > threshold {
			continue
		}

		if bestDist == -1 || d < bestDist || (d == bestDist && c < best) {
			best = c
			bestDist = d
		}
	}

	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			curr[j] = min3(del, ins, sub)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
