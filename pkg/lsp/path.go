// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
)

// pkg/cst.Node carries no parent pointer (spec §3's "no parent pointers"
// contract, kept so the tree stays trivially shareable across goroutines).
// Every upward walk the LSP needs — scope collection, signature help's
// ARG_LIST search, hover/definition — is therefore expressed the other way
// around: a single top-down descent builds the root-to-cursor path as it
// goes, and "walk upward from the cursor" becomes "walk this path
// backwards from its last element".

// PathToOffset descends from root to the innermost node whose span
// contains offset, returning every node on that root-to-leaf path in order
// (path[0] is always root, so the result is never empty).
func PathToOffset(root *cst.Node, offset uint32) []*cst.Node {
	path := []*cst.Node{root}
	current := root

	for {
		next := containingChild(current, offset)
		if next == nil {
			return path
		}

		path = append(path, next)
		current = next
	}
}

// containingChild returns the direct child node of n whose span contains
// offset, preferring the rightmost match when two adjacent children abut
// exactly at offset (so a cursor sitting just past a token still resolves
// into the node that was just completed, matching typical editor cursor
// placement after typing).
func containingChild(n *cst.Node, offset uint32) *cst.Node {
	var best *cst.Node

	for _, c := range n.Children {
		if c.IsToken() {
			continue
		}

		span := c.Node.Span()
		if offset >= span.Start() && offset <= span.End() {
			best = c.Node
		}
	}

	return best
}

// TokenAtOffset returns the leaf token whose span contains offset, scanning
// the full token stream of root (including trivia, since the cursor can
// sit inside a comment).
func TokenAtOffset(root *cst.Node, offset uint32) (lexer.Token, bool) {
	for _, tok := range root.Tokens(true) {
		if offset >= tok.Span.Start() && offset <= tok.Span.End() {
			return tok, true
		}
	}

	return lexer.Token{}, false
}

// EnclosingKind returns the innermost node of the given kind on path, or
// nil.
func EnclosingKind(path []*cst.Node, kind cst.Kind) *cst.Node {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind == kind {
			return path[i]
		}
	}

	return nil
}
