// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/types"
)

// SignatureHelp is the resolved callee signature plus which parameter is
// active, spec §4.9's signature-help feature.
type SignatureHelp struct {
	Label           string
	Parameters      []string
	ActiveParameter int
}

// Signature answers a signature-help request triggered on '(' or ',' at
// offset: it walks the root-to-cursor path backwards (spec's "walk upward")
// to find the enclosing ARG_LIST whose parent is a CALL_EXPR, counts COMMA
// tokens before offset to find active_parameter, and resolves the callee's
// type by name against the checker's signature table — the name-keyed
// equivalent of spec's "direct text-range lookup in the typeck result,
// then NAME_REF children" strategies (pkg/types.Checker keys signatures by
// name rather than by callee span, so the lookup collapses to one step
// instead of the three-strategy fallback the span-keyed original needs).
func Signature(doc *DocumentState, offset uint32) (*SignatureHelp, bool) {
	path := PathToOffset(doc.Root, offset)

	argList, call := enclosingCall(path)
	if argList == nil || call == nil {
		return nil, false
	}

	callee := call.Callee()
	if callee == nil || callee.Kind != cst.IdentExpr {
		return nil, false
	}

	calleeTok, ok := callee.FirstChildToken(lexer.Ident)
	if !ok {
		return nil, false
	}

	name := string(doc.File.Contents()[calleeTok.Span.Start():calleeTok.Span.End()])

	sig, ok := doc.Checker.FnSignature(name)
	if !ok {
		return nil, false
	}

	fn, ok := sig.(types.Fun)
	if !ok {
		return nil, false
	}

	paramNames := parameterNames(doc.Root, doc.File.Contents(), name, len(fn.Params))

	active := activeParameter(doc.File.Contents(), argList, offset)
	if active >= len(fn.Params) && len(fn.Params) > 0 {
		active = len(fn.Params) - 1
	}

	return &SignatureHelp{
		Label:           types.Format(sig),
		Parameters:      paramNames,
		ActiveParameter: active,
	}, true
}

// enclosingCall returns the innermost ArgList on path together with its
// parent CallExpr, or (nil, nil) if the cursor isn't inside a call's
// argument list.
func enclosingCall(path []*cst.Node) (*cst.Node, *cst.CallExprNode) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind != cst.ArgList {
			continue
		}

		if i == 0 {
			return nil, nil
		}

		parent := path[i-1]
		if parent.Kind != cst.CallExpr {
			return nil, nil
		}

		call, ok := cst.AsCallExpr(parent)
		if !ok {
			return nil, nil
		}

		return path[i], &call
	}

	return nil, nil
}

// activeParameter counts COMMA tokens directly under argList that appear
// before offset.
func activeParameter(contents []byte, argList *cst.Node, offset uint32) int {
	count := 0

	for _, c := range argList.Children {
		if !c.IsToken() || c.Token.Kind != lexer.Comma {
			continue
		}

		if c.Token.Span.End() <= offset {
			count++
		}
	}

	return count
}

// parameterNames recovers a function's declared parameter names from its
// AST (spec: "Parameter names come from the AST of the resolved FnDef");
// for a callee the checker knows only by type (a built-in), it falls back
// to arity-many "_" placeholders ("built-ins fall back to type-only
// labels").
func parameterNames(root *cst.Node, contents []byte, name string, arity int) []string {
	text := func(t lexer.Token) string { return string(contents[t.Span.Start():t.Span.End()]) }

	for _, child := range root.Children {
		if child.IsToken() || child.Node.Kind != cst.FnDef {
			continue
		}

		f, ok := cst.AsFnDef(child.Node)
		if !ok {
			continue
		}

		nameTok, ok := f.Name()
		if !ok {
			continue
		}

		if text(nameTok) != name {
			continue
		}

		list := f.Params()
		if list == nil {
			return nil
		}

		var out []string

		for _, p := range list.ChildNodes(cst.Param) {
			if pNameTok, ok := p.FirstChildToken(lexer.Ident); ok {
				out = append(out, text(pNameTok))
			}
		}

		return out
	}

	out := make([]string, arity)
	for i := range out {
		out[i] = "_"
	}

	return out
}
