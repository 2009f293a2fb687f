// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"strings"
	"testing"
)

const sampleSource = `fn add(x :: Int, y :: Int) -> Int do
  let total = x + y
  total
end

struct Point do
  x :: Int
  y :: Int
end
`

func offsetOf(t *testing.T, src, needle string) uint32 {
	t.Helper()

	i := strings.Index(src, needle)
	if i < 0 {
		t.Fatalf("needle %q not found in source", needle)
	}

	return uint32(i)
}

func TestScopeAtInsideFunctionBody(t *testing.T) {
	doc := Analyze("test.snow", []byte(sampleSource))

	offset := offsetOf(t, sampleSource, "total\nend") // cursor at the bare "total" reference
	syms := ScopeAt(doc.File.Contents(), doc.Root, offset)

	names := map[string]SymbolKind{}
	for _, s := range syms {
		names[s.Name] = s.Kind
	}

	if names["x"] != SymParameter || names["y"] != SymParameter {
		t.Fatalf("expected x/y as parameters, got %+v", names)
	}

	if _, ok := names["total"]; !ok {
		t.Fatalf("expected 'total' let-binding visible, got %+v", names)
	}

	if names["add"] != SymFunction {
		t.Fatalf("expected top-level 'add' visible as a function, got %+v", names)
	}

	if names["Point"] != SymStruct {
		t.Fatalf("expected top-level 'Point' visible as a struct, got %+v", names)
	}
}

func TestScopeAtBeforeLetBindingExcludesIt(t *testing.T) {
	doc := Analyze("test.snow", []byte(sampleSource))

	// Cursor right at the start of the let statement: `total` isn't bound
	// yet at this point, so it must not appear.
	offset := offsetOf(t, sampleSource, "let total")
	syms := ScopeAt(doc.File.Contents(), doc.Root, offset)

	for _, s := range syms {
		if s.Name == "total" {
			t.Fatal("'total' should not be visible before its own let binding")
		}
	}
}

func TestCompleteMergesFourTiersInOrder(t *testing.T) {
	doc := Analyze("test.snow", []byte(sampleSource))

	offset := offsetOf(t, sampleSource, "total\nend")
	items := Complete(doc, offset)

	if len(items) == 0 {
		t.Fatal("expected at least one completion item")
	}

	// Tier 0 (scope-aware) sort_text must sort before tier 1 (built-ins),
	// which sorts before tier 2 (keywords), before tier 3 (snippets).
	var sawTier0, sawTier1 bool

	for _, it := range items {
		if strings.HasPrefix(it.SortText, "0") {
			sawTier0 = true
		}

		if strings.HasPrefix(it.SortText, "1") {
			sawTier1 = true
		}
	}

	if !sawTier0 || !sawTier1 {
		t.Fatalf("expected both scope-aware and built-in tiers present, got %d items", len(items))
	}
}

func TestDocumentSymbolsListsTopLevelDecls(t *testing.T) {
	doc := Analyze("test.snow", []byte(sampleSource))
	syms := DocumentSymbols(doc)

	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}

	if len(names) != 2 || names[0] != "add" || names[1] != "Point" {
		t.Fatalf("expected [add Point], got %v", names)
	}
}

func TestDefinitionResolvesParameterUse(t *testing.T) {
	doc := Analyze("test.snow", []byte(sampleSource))

	useOffset := offsetOf(t, sampleSource, "x + y")
	declOffset := offsetOf(t, sampleSource, "x :: Int, y :: Int")

	span, ok := Definition(doc, useOffset)
	if !ok {
		t.Fatal("expected a definition for parameter use of x")
	}

	if span.Start() != declOffset {
		t.Fatalf("expected definition span to start at %d (the param decl), got %d", declOffset, span.Start())
	}
}

func TestOffsetPositionRoundTrip(t *testing.T) {
	doc := Analyze("test.snow", []byte(sampleSource))

	offset := offsetOf(t, sampleSource, "struct Point")
	line, char := OffsetToPosition(doc.File, offset)
	back := PositionToOffset(doc.File, line, char)

	if back != offset {
		t.Fatalf("round trip mismatch: offset=%d -> (%d,%d) -> %d", offset, line, char, back)
	}
}
