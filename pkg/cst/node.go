// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package cst

import (
	"github.com/mesh-lang/mesh/pkg/lexer"
	"github.com/mesh-lang/mesh/pkg/source"
)

// Element is either a *Node (an interior production) or a Token (a leaf).
// Exactly one of Node/Token is non-nil/valid; IsToken reports which.
type Element struct {
	Node  *Node
	Token lexer.Token
	token bool
}

// IsToken reports whether this element is a leaf token rather than a node.
func (e Element) IsToken() bool { return e.token }

// NodeElem wraps a child node as an Element.
func NodeElem(n *Node) Element { return Element{Node: n} }

// TokenElem wraps a leaf token as an Element.
func TokenElem(t lexer.Token) Element { return Element{Token: t, token: true} }

// Node is one production in the concrete syntax tree.
type Node struct {
	Kind     Kind
	Children []Element
}

// Span returns the node's full source range: the start of its first child
// and the end of its last. A node with no children has the zero-length
// span 0..0.
func (n *Node) Span() source.Span {
	if len(n.Children) == 0 {
		return source.NewSpan(0, 0)
	}

	first := childSpan(n.Children[0])
	last := childSpan(n.Children[len(n.Children)-1])

	return first.Merge(last)
}

func childSpan(e Element) source.Span {
	if e.IsToken() {
		return e.Token.Span
	}

	return e.Node.Span()
}

// Text reproduces the exact source bytes covered by this node — the
// losslessness guarantee from spec §3/§8.
func (n *Node) Text(file *source.File) string {
	return file.Text(n.Span())
}

// Tokens returns every leaf token directly or transitively under n, in
// source order, skipping trivia (Comment/Newline) unless includeTrivia.
func (n *Node) Tokens(includeTrivia bool) []lexer.Token {
	var out []lexer.Token

	for _, c := range n.Children {
		if c.IsToken() {
			if !includeTrivia && (c.Token.Kind == lexer.Comment || c.Token.Kind == lexer.Newline) {
				continue
			}

			out = append(out, c.Token)
		} else {
			out = append(out, c.Node.Tokens(includeTrivia)...)
		}
	}

	return out
}

// ChildNodes returns every direct child that is a node of the given kind,
// in source order.
func (n *Node) ChildNodes(kind Kind) []*Node {
	var out []*Node

	for _, c := range n.Children {
		if !c.IsToken() && c.Node.Kind == kind {
			out = append(out, c.Node)
		}
	}

	return out
}

// FirstChildNode returns the first direct child node of the given kind, or
// nil (the "Option-shaped" result typed accessors build on).
func (n *Node) FirstChildNode(kind Kind) *Node {
	for _, c := range n.Children {
		if !c.IsToken() && c.Node.Kind == kind {
			return c.Node
		}
	}

	return nil
}

// FirstChildToken returns the first direct-child token of the given kind.
func (n *Node) FirstChildToken(kind lexer.TokenKind) (lexer.Token, bool) {
	for _, c := range n.Children {
		if c.IsToken() && c.Token.Kind == kind {
			return c.Token, true
		}
	}

	return lexer.Token{}, false
}
