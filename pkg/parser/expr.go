// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
)

// infixBindingPower returns the (left, right) binding power of a binary
// operator, Pratt-style (right = left+1 for left-associative operators).
func infixBindingPower(kind lexer.TokenKind) (left, right int, ok bool) {
	switch kind {
	case lexer.KwOr:
		return 1, 2, true
	case lexer.KwAnd:
		return 3, 4, true
	case lexer.EqEq, lexer.NotEq, lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq:
		return 5, 6, true
	case lexer.Plus, lexer.Minus:
		return 7, 8, true
	case lexer.Star, lexer.Slash, lexer.Percent:
		return 9, 10, true
	}

	return 0, 0, false
}

// postfixBindingPower covers call-expression and field-access, fixed at 25
// per spec §4.2 so they bind tighter than every infix operator.
const postfixBindingPower = 25

func (p *Parser) parseExpr(minBP int) *cst.Node {
	lhs := p.parsePrefix()

	for {
		tok := p.c.peek()

		if tok.Kind == lexer.Dot || tok.Kind == lexer.LParen {
			if postfixBindingPower < minBP {
				break
			}

			lhs = p.parsePostfix(lhs)

			continue
		}

		left, right, ok := infixBindingPower(tok.Kind)
		if !ok || left < minBP {
			break
		}

		opTok, trivia := p.c.next()
		rhs := p.parseExpr(right)
		lhs = &cst.Node{
			Kind: cst.BinaryExpr,
			Children: append(append([]cst.Element{cst.NodeElem(lhs)}, trivia...),
				cst.TokenElem(opTok), cst.NodeElem(rhs)),
		}
	}

	return lhs
}

func (p *Parser) parsePostfix(lhs *cst.Node) *cst.Node {
	tok := p.c.peek()

	if tok.Kind == lexer.Dot {
		dotTok, trivia := p.c.next()
		nameTok, nameTrivia := p.c.next()
		children := []cst.Element{cst.NodeElem(lhs)}
		children = append(children, trivia...)
		children = append(children, cst.TokenElem(dotTok))
		children = append(children, nameTrivia...)
		children = append(children, cst.TokenElem(nameTok))

		return &cst.Node{Kind: cst.FieldAccessExpr, Children: children}
	}

	// CallExpr: lhs '(' args ')'
	lparen, trivia := p.c.next()
	argList := &cst.Node{Kind: cst.ArgList, Children: []cst.Element{cst.TokenElem(lparen)}}

	for p.c.peek().Kind != lexer.RParen && !p.c.atEOF() {
		argList.Children = append(argList.Children, cst.NodeElem(p.parseExpr(0)))

		if p.c.peek().Kind == lexer.Comma {
			commaTok, _ := p.c.next()
			argList.Children = append(argList.Children, cst.TokenElem(commaTok))
		} else {
			break
		}
	}

	if p.c.peek().Kind == lexer.RParen {
		rparen, _ := p.c.next()
		argList.Children = append(argList.Children, cst.TokenElem(rparen))
	} else {
		p.c.errorf(")")
	}

	children := []cst.Element{cst.NodeElem(lhs)}
	children = append(children, trivia...)
	children = append(children, cst.NodeElem(argList))

	return &cst.Node{Kind: cst.CallExpr, Children: children}
}

func (p *Parser) parsePrefix() *cst.Node {
	tok := p.c.peek()

	switch tok.Kind {
	case lexer.Minus, lexer.KwNot:
		opTok, trivia := p.c.next()
		operand := p.parseExpr(20)
		children := append([]cst.Element{cst.TokenElem(opTok)}, trivia...)
		children = append(children, cst.NodeElem(operand))

		return &cst.Node{Kind: cst.UnaryExpr, Children: children}
	case lexer.LParen:
		return p.parseParenOrTuple()
	case lexer.LBracket:
		return p.parseListExpr()
	case lexer.Int:
		t, trivia := p.c.next()
		return leafExpr(cst.IntLiteral, t, trivia)
	case lexer.Float:
		t, trivia := p.c.next()
		return leafExpr(cst.FloatLiteral, t, trivia)
	case lexer.KwTrue, lexer.KwFalse:
		t, trivia := p.c.next()
		return leafExpr(cst.BoolLiteral, t, trivia)
	case lexer.Ident, lexer.KwSelf:
		t, trivia := p.c.next()
		return leafExpr(cst.IdentExpr, t, trivia)
	case lexer.StringStart, lexer.TripleStringStart:
		return p.parseStringLiteral()
	case lexer.KwIf:
		return p.parseIfExpr()
	case lexer.KwCase:
		return p.parseCaseExpr()
	case lexer.KwFor:
		return p.parseForInExpr()
	case lexer.KwSpawn:
		return p.parseSpawnExpr()
	case lexer.KwReceive:
		return p.parseReceiveExpr()
	}

	p.c.errorf("expression")
	bad, trivia := p.c.next()

	return &cst.Node{Kind: cst.Error, Children: append(trivia, cst.TokenElem(bad))}
}

func leafExpr(kind cst.Kind, t lexer.Token, trivia []cst.Element) *cst.Node {
	return &cst.Node{Kind: kind, Children: append(trivia, cst.TokenElem(t))}
}

func (p *Parser) parseParenOrTuple() *cst.Node {
	lparen, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(lparen)}, trivia...)

	isTuple := false

	for p.c.peek().Kind != lexer.RParen && !p.c.atEOF() {
		children = append(children, cst.NodeElem(p.parseExpr(0)))

		if p.c.peek().Kind == lexer.Comma {
			isTuple = true
			commaTok, _ := p.c.next()
			children = append(children, cst.TokenElem(commaTok))
		} else {
			break
		}
	}

	if p.c.peek().Kind == lexer.RParen {
		rparen, _ := p.c.next()
		children = append(children, cst.TokenElem(rparen))
	} else {
		p.c.errorf(")")
	}

	if isTuple {
		return &cst.Node{Kind: cst.TupleExpr, Children: children}
	}
	// A plain parenthesised expression: unwrap to the inner node but keep
	// the parens in the tree so the span (and thus losslessness) covers
	// them — find the single inner node child.
	for _, c := range children {
		if !c.IsToken() {
			return c.Node
		}
	}

	return &cst.Node{Kind: cst.Error, Children: children}
}

func (p *Parser) parseListExpr() *cst.Node {
	lbrack, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(lbrack)}, trivia...)

	for p.c.peek().Kind != lexer.RBracket && !p.c.atEOF() {
		children = append(children, cst.NodeElem(p.parseExpr(0)))

		if p.c.peek().Kind == lexer.Comma {
			commaTok, _ := p.c.next()
			children = append(children, cst.TokenElem(commaTok))
		} else {
			break
		}
	}

	if p.c.peek().Kind == lexer.RBracket {
		rbrack, _ := p.c.next()
		children = append(children, cst.TokenElem(rbrack))
	} else {
		p.c.errorf("]")
	}

	return &cst.Node{Kind: cst.ListExpr, Children: children}
}

// parseStringLiteral consumes StringStart/TripleStringStart, alternating
// StringContent and ${expr} interpolation segments until the matching End
// token, per the lexer's state-stack contract.
func (p *Parser) parseStringLiteral() *cst.Node {
	startTok, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(startTok)}, trivia...)

	for {
		tok := p.c.peek()

		switch tok.Kind {
		case lexer.StringContent:
			t, _ := p.c.next()
			children = append(children, cst.TokenElem(t))
		case lexer.InterpolationStart:
			startInterp, _ := p.c.next()
			expr := p.parseExpr(0)
			endInterp := lexer.Token{}

			if p.c.peek().Kind == lexer.InterpolationEnd {
				endInterp, _ = p.c.next()
			} else {
				p.c.errorf("}")
			}

			seg := &cst.Node{Kind: cst.StringInterpSegment, Children: []cst.Element{
				cst.TokenElem(startInterp), cst.NodeElem(expr), cst.TokenElem(endInterp),
			}}
			children = append(children, cst.NodeElem(seg))
		case lexer.StringEnd, lexer.TripleStringEnd:
			t, _ := p.c.next()
			children = append(children, cst.TokenElem(t))

			return &cst.Node{Kind: cst.StringLiteral, Children: children}
		default:
			p.c.errorf("string end")
			return &cst.Node{Kind: cst.StringLiteral, Children: children}
		}
	}
}

func (p *Parser) parseIfExpr() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
	children = append(children, cst.NodeElem(p.parseExpr(0)))

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	children = append(children, cst.NodeElem(p.parseBlockUntil(lexer.KwElse, lexer.KwEnd)))

	if p.c.peek().Kind == lexer.KwElse {
		elseTok, _ := p.c.next()
		children = append(children, cst.TokenElem(elseTok))
		children = append(children, cst.NodeElem(p.parseBlockUntil(lexer.KwEnd)))
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	return &cst.Node{Kind: cst.IfExpr, Children: children}
}

func (p *Parser) parseCaseExpr() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
	children = append(children, cst.NodeElem(p.parseExpr(0)))

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	for p.c.peek().Kind != lexer.KwEnd && !p.c.atEOF() {
		children = append(children, cst.NodeElem(p.parseMatchArm()))
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	return &cst.Node{Kind: cst.CaseExpr, Children: children}
}

func (p *Parser) parsePattern() *cst.Node {
	switch p.c.peek().Kind {
	case lexer.StringStart, lexer.TripleStringStart:
		str := p.parseStringLiteral()
		return &cst.Node{Kind: cst.LiteralPattern, Children: []cst.Element{cst.NodeElem(str)}}
	case lexer.Int, lexer.Float, lexer.KwTrue, lexer.KwFalse:
		t, trivia := p.c.next()
		return &cst.Node{Kind: cst.LiteralPattern, Children: append(trivia, cst.TokenElem(t))}
	case lexer.Ident:
		// Binding and wildcard patterns share this production; the MIR
		// lowering pass distinguishes "_" from a real binder by name text.
		nameTok, trivia := p.c.next()
		children := append(trivia, cst.TokenElem(nameTok))

		if p.c.peek().Kind == lexer.LParen {
			// Constructor pattern: Variant(p0, p1, ...).
			lparen, _ := p.c.next()
			children = append(children, cst.TokenElem(lparen))

			for p.c.peek().Kind != lexer.RParen && !p.c.atEOF() {
				children = append(children, cst.NodeElem(p.parsePattern()))

				if p.c.peek().Kind == lexer.Comma {
					commaTok, _ := p.c.next()
					children = append(children, cst.TokenElem(commaTok))
				} else {
					break
				}
			}

			if p.c.peek().Kind == lexer.RParen {
				rparen, _ := p.c.next()
				children = append(children, cst.TokenElem(rparen))
			} else {
				p.c.errorf(")")
			}

			return &cst.Node{Kind: cst.ConstructorPattern, Children: children}
		}

		return &cst.Node{Kind: cst.BindPattern, Children: children}
	}

	p.c.errorf("pattern")
	t, trivia := p.c.next()

	return &cst.Node{Kind: cst.Error, Children: append(trivia, cst.TokenElem(t))}
}

func (p *Parser) parseMatchArm() *cst.Node {
	pattern := p.parsePattern()

	armChildren := []cst.Element{cst.NodeElem(pattern)}

	if p.c.peek().Kind == lexer.Arrow {
		arrow, _ := p.c.next()
		armChildren = append(armChildren, cst.TokenElem(arrow))
	} else {
		p.c.errorf("->")
	}

	armChildren = append(armChildren, cst.NodeElem(p.parseExpr(0)))

	if p.c.peek().Kind == lexer.Colon || p.c.peek().Kind == lexer.Comma {
		sep, _ := p.c.next()
		armChildren = append(armChildren, cst.TokenElem(sep))
	}

	return &cst.Node{Kind: cst.MatchArm, Children: armChildren}
}

func (p *Parser) parseForInExpr() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)

	nameTok, nameTrivia := p.c.next()
	children = append(children, nameTrivia...)
	children = append(children, cst.TokenElem(nameTok))

	if p.c.peek().Kind == lexer.KwIn {
		inTok, _ := p.c.next()
		children = append(children, cst.TokenElem(inTok))
	} else {
		p.c.errorf("in")
	}

	children = append(children, cst.NodeElem(p.parseExpr(0)))

	if p.c.peek().Kind == lexer.KwWhen {
		whenTok, _ := p.c.next()
		children = append(children, cst.TokenElem(whenTok))
		children = append(children, cst.NodeElem(p.parseExpr(0)))
	}

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	children = append(children, cst.NodeElem(p.parseBlockUntil(lexer.KwEnd)))

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	return &cst.Node{Kind: cst.ForInExpr, Children: children}
}

func (p *Parser) parseSpawnExpr() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
	children = append(children, cst.NodeElem(p.parseExpr(postfixBindingPower)))

	return &cst.Node{Kind: cst.SpawnExpr, Children: children}
}

func (p *Parser) parseReceiveExpr() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	for p.c.peek().Kind != lexer.KwEnd && !p.c.atEOF() {
		children = append(children, cst.NodeElem(p.parseMatchArm()))
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	return &cst.Node{Kind: cst.ReceiveExpr, Children: children}
}
