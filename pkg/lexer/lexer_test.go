// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lexer

import "testing"

func kinds(toks []Token) []TokenKind {
	ks := make([]TokenKind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}

	return ks
}

func TestTokenizeSpansReproduceSource(t *testing.T) {
	src := []byte("fn add(x, y) do x + y end\n")

	toks, errs := Tokenize(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}

	for _, tok := range toks {
		if tok.Kind == EOF {
			continue
		}

		got := string(src[tok.Span.Start():tok.Span.End()])
		if got == "" {
			t.Fatalf("token %v has empty span text", tok)
		}
	}
}

func TestKeywordsClassified(t *testing.T) {
	toks, _ := Tokenize([]byte("fn do end"))
	got := kinds(toks)
	want := []TokenKind{KwFn, KwDo, KwEnd, EOF}

	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestStringInterpolationStateStack(t *testing.T) {
	// "a ${ x } b" — the interior '${' opens an interpolation frame nested
	// inside the string frame; '}' at depth 0 must close back into
	// StringContent, not leak into Normal mode permanently.
	toks, errs := Tokenize([]byte(`"a ${x} b"`))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := kinds(toks)
	want := []TokenKind{
		StringStart, StringContent, InterpolationStart, Ident, InterpolationEnd,
		StringContent, StringEnd, EOF,
	}

	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestNestedInterpolationBraceDepth(t *testing.T) {
	// Interior literal '{' inside the interpolation must not close it early.
	toks, errs := Tokenize([]byte(`"${ {1}.len }"`))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	var interpEnds, rbraces int
	for _, tok := range toks {
		switch tok.Kind {
		case InterpolationEnd:
			interpEnds++
		case RBrace:
			rbraces++
		}
	}

	if interpEnds != 1 {
		t.Fatalf("expected exactly one InterpolationEnd, got %d", interpEnds)
	}

	if rbraces != 1 {
		t.Fatalf("expected exactly one literal RBrace, got %d", rbraces)
	}
}

func TestUnterminatedBlockCommentIsError(t *testing.T) {
	_, errs := Tokenize([]byte("#= never closes"))
	if len(errs) != 1 || errs[0].Kind != UnterminatedBlockComment {
		t.Fatalf("expected one UnterminatedBlockComment error, got %v", errs)
	}
}

func TestNestedBlockComments(t *testing.T) {
	toks, errs := Tokenize([]byte("#= outer #= inner =# still outer =# fn"))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	got := kinds(toks)
	want := []TokenKind{Comment, KwFn, EOF}

	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestInvalidCharacterRecovers(t *testing.T) {
	toks, errs := Tokenize([]byte("x = @ y"))
	if len(errs) != 1 || errs[0].Kind != InvalidCharacter {
		t.Fatalf("expected one InvalidCharacter error, got %v", errs)
	}

	// Lexing must still reach EOF — recovery, not abort.
	if toks[len(toks)-1].Kind != EOF {
		t.Fatalf("expected lexing to continue to EOF")
	}
}

func TestSignificantNewlineEmitted(t *testing.T) {
	toks, _ := Tokenize([]byte("let x = 1\nlet y = 2"))

	var n int
	for _, tok := range toks {
		if tok.Kind == Newline {
			n++
		}
	}

	if n != 1 {
		t.Fatalf("expected 1 newline token, got %d", n)
	}
}
