// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"github.com/mesh-lang/mesh/pkg/cst"
	"github.com/mesh-lang/mesh/pkg/lexer"
)

// Parser drives cursor through a token stream, producing a cst.Node
// SourceFile root plus any diagnostics. Parse always returns a tree, even
// over malformed input (spec §4.2 "Failure mode").
type Parser struct {
	c   *cursor
	src []byte
}

// Parse tokenises and parses src, returning the root SourceFile node and
// any lexical + syntactic diagnostics.
func Parse(src []byte) (*cst.Node, []lexer.LexError, []Diagnostic) {
	toks, lexErrs := lexer.Tokenize(src)
	p := &Parser{c: newCursor(toks), src: src}
	root := p.parseSourceFile()

	return root, lexErrs, p.c.diags
}

func (p *Parser) tokenText(t lexer.Token) string {
	return string(p.src[t.Span.Start():t.Span.End()])
}

func (p *Parser) parseSourceFile() *cst.Node {
	var children []cst.Element

	for !p.c.atEOF() {
		children = append(children, p.c.collectTrivia()...)

		if p.c.atEOF() {
			break
		}

		children = append(children, cst.NodeElem(p.parseItem()))
	}

	children = append(children, p.c.collectTrivia()...)

	return &cst.Node{Kind: cst.SourceFile, Children: children}
}

func (p *Parser) parseItem() *cst.Node {
	var pubTok *cst.Element

	if p.c.peek().Kind == lexer.KwPub {
		t, trivia := p.c.next()
		_ = trivia
		e := cst.TokenElem(t)
		pubTok = &e
	}

	switch p.c.peek().Kind {
	case lexer.KwFn:
		return p.parseFnDef(pubTok)
	case lexer.KwStruct:
		return p.parseStructDef(pubTok)
	case lexer.KwType:
		return p.parseSumTypeDef(pubTok)
	case lexer.KwInterface:
		return p.parseInterfaceDef(pubTok)
	case lexer.KwImpl:
		return p.parseImplDef()
	case lexer.KwImport:
		return p.parseImportDecl()
	case lexer.KwFrom:
		return p.parseFromImportDecl()
	}

	p.c.errorf("item")
	t, trivia := p.c.next()
	children := trivia
	if pubTok != nil {
		children = append([]cst.Element{*pubTok}, children...)
	}

	return &cst.Node{Kind: cst.Error, Children: append(children, cst.TokenElem(t))}
}

func prepend(pub *cst.Element, rest []cst.Element) []cst.Element {
	if pub == nil {
		return rest
	}

	return append([]cst.Element{*pub}, rest...)
}

func (p *Parser) parseFnDef(pub *cst.Element) *cst.Node {
	kw, trivia := p.c.next()
	children := prepend(pub, append([]cst.Element{cst.TokenElem(kw)}, trivia...))

	nameTok, nameTrivia := p.c.next()
	children = append(children, nameTrivia...)
	children = append(children, cst.TokenElem(nameTok))
	children = append(children, cst.NodeElem(p.parseParamList()))

	if p.c.peek().Kind == lexer.Arrow {
		arrow, _ := p.c.next()
		children = append(children, cst.TokenElem(arrow))
		children = append(children, cst.NodeElem(p.parseTypeRef()))
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

	if d := p.tryParseDerivingClause(); d != nil {
		children = append(children, cst.NodeElem(d))
	}

	return &cst.Node{Kind: cst.FnDef, Children: children}
}

func (p *Parser) parseParamList() *cst.Node {
	lparen, trivia := p.c.next() // assumes caller positioned at '('
	children := append([]cst.Element{cst.TokenElem(lparen)}, trivia...)

	for p.c.peek().Kind != lexer.RParen && !p.c.atEOF() {
		nameTok, nameTrivia := p.c.next()
		paramChildren := append(nameTrivia, cst.TokenElem(nameTok))

		if p.c.peek().Kind == lexer.ColonColon {
			colons, _ := p.c.next()
			paramChildren = append(paramChildren, cst.TokenElem(colons))
			paramChildren = append(paramChildren, cst.NodeElem(p.parseTypeRef()))
		}

		children = append(children, cst.NodeElem(&cst.Node{Kind: cst.Param, Children: paramChildren}))

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

	return &cst.Node{Kind: cst.ParamList, Children: children}
}

func (p *Parser) parseTypeRef() *cst.Node {
	nameTok, trivia := p.c.next()
	children := append(trivia, cst.TokenElem(nameTok))

	if p.c.peek().Kind == lexer.Lt {
		lt, _ := p.c.next()
		children = append(children, cst.TokenElem(lt))

		for p.c.peek().Kind != lexer.Gt && !p.c.atEOF() {
			children = append(children, cst.NodeElem(p.parseTypeRef()))

			if p.c.peek().Kind == lexer.Comma {
				commaTok, _ := p.c.next()
				children = append(children, cst.TokenElem(commaTok))
			} else {
				break
			}
		}

		if p.c.peek().Kind == lexer.Gt {
			gt, _ := p.c.next()
			children = append(children, cst.TokenElem(gt))
		} else {
			p.c.errorf(">")
		}
	}

	return &cst.Node{Kind: cst.TypeRef, Children: children}
}

// parseBlockUntil parses statements up to (but not consuming) any of the
// given terminator token kinds.
func (p *Parser) parseBlockUntil(terminators ...lexer.TokenKind) *cst.Node {
	var children []cst.Element

	for !p.c.atEOF() {
		children = append(children, p.c.collectTrivia()...)

		tok := p.c.peek()
		for _, term := range terminators {
			if tok.Kind == term {
				return &cst.Node{Kind: cst.Block, Children: children}
			}
		}

		children = append(children, cst.NodeElem(p.parseStmt()))
	}

	return &cst.Node{Kind: cst.Block, Children: children}
}

func (p *Parser) parseStmt() *cst.Node {
	if p.c.peek().Kind == lexer.KwLet {
		kw, trivia := p.c.next()
		children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
		nameTok, nameTrivia := p.c.next()
		children = append(children, nameTrivia...)
		children = append(children, cst.TokenElem(nameTok))

		if p.c.peek().Kind == lexer.Eq {
			eq, _ := p.c.next()
			children = append(children, cst.TokenElem(eq))
		} else {
			p.c.errorf("=")
		}

		children = append(children, cst.NodeElem(p.parseExpr(0)))

		return &cst.Node{Kind: cst.LetStmt, Children: children}
	}

	if p.c.peek().Kind == lexer.KwReturn {
		kw, trivia := p.c.next()
		children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
		children = append(children, cst.NodeElem(p.parseExpr(0)))

		return &cst.Node{Kind: cst.ReturnStmt, Children: children}
	}

	expr := p.parseExpr(0)

	return &cst.Node{Kind: cst.ExprStmt, Children: []cst.Element{cst.NodeElem(expr)}}
}

func (p *Parser) parseStructDef(pub *cst.Element) *cst.Node {
	kw, trivia := p.c.next()
	children := prepend(pub, append([]cst.Element{cst.TokenElem(kw)}, trivia...))

	nameTok, nameTrivia := p.c.next()
	children = append(children, nameTrivia...)
	children = append(children, cst.TokenElem(nameTok))

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	for p.c.peek().Kind != lexer.KwEnd && !p.c.atEOF() {
		children = append(children, p.c.collectTrivia()...)

		if p.c.peek().Kind == lexer.KwEnd {
			break
		}

		fieldName, fieldTrivia := p.c.next()
		fieldChildren := append(fieldTrivia, cst.TokenElem(fieldName))

		if p.c.peek().Kind == lexer.ColonColon {
			colons, _ := p.c.next()
			fieldChildren = append(fieldChildren, cst.TokenElem(colons))
			fieldChildren = append(fieldChildren, cst.NodeElem(p.parseTypeRef()))
		}

		children = append(children, cst.NodeElem(&cst.Node{Kind: cst.FieldDef, Children: fieldChildren}))
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	if d := p.tryParseDerivingClause(); d != nil {
		children = append(children, cst.NodeElem(d))
	}

	return &cst.Node{Kind: cst.StructDef, Children: children}
}

func (p *Parser) parseSumTypeDef(pub *cst.Element) *cst.Node {
	kw, trivia := p.c.next()
	children := prepend(pub, append([]cst.Element{cst.TokenElem(kw)}, trivia...))

	nameTok, nameTrivia := p.c.next()
	children = append(children, nameTrivia...)
	children = append(children, cst.TokenElem(nameTok))

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	for p.c.peek().Kind != lexer.KwEnd && !p.c.atEOF() {
		children = append(children, p.c.collectTrivia()...)

		if p.c.peek().Kind == lexer.KwEnd {
			break
		}

		variantName, variantTrivia := p.c.next()
		variantChildren := append(variantTrivia, cst.TokenElem(variantName))

		if p.c.peek().Kind == lexer.LParen {
			variantChildren = append(variantChildren, cst.NodeElem(p.parseParamList()))
		}

		children = append(children, cst.NodeElem(&cst.Node{Kind: cst.VariantDef, Children: variantChildren}))

		if p.c.peek().Kind == lexer.Colon {
			sep, _ := p.c.next()
			children = append(children, cst.TokenElem(sep))
		}
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	if d := p.tryParseDerivingClause(); d != nil {
		children = append(children, cst.NodeElem(d))
	}

	return &cst.Node{Kind: cst.SumTypeDef, Children: children}
}

func (p *Parser) parseInterfaceDef(pub *cst.Element) *cst.Node {
	kw, trivia := p.c.next()
	children := prepend(pub, append([]cst.Element{cst.TokenElem(kw)}, trivia...))

	nameTok, nameTrivia := p.c.next()
	children = append(children, nameTrivia...)
	children = append(children, cst.TokenElem(nameTok))

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	for p.c.peek().Kind != lexer.KwEnd && !p.c.atEOF() {
		children = append(children, p.c.collectTrivia()...)

		if p.c.peek().Kind == lexer.KwEnd {
			break
		}

		if p.c.peek().Kind == lexer.KwType {
			typeKw, _ := p.c.next()
			assocName, assocTrivia := p.c.next()
			children = append(children, cst.TokenElem(typeKw))
			children = append(children, assocTrivia...)
			children = append(children, cst.TokenElem(assocName))

			continue
		}

		fnKw, fnTrivia := p.c.next()
		sigChildren := append(fnTrivia, cst.TokenElem(fnKw))
		nameTok2, nameTrivia2 := p.c.next()
		sigChildren = append(sigChildren, nameTrivia2...)
		sigChildren = append(sigChildren, cst.TokenElem(nameTok2))
		sigChildren = append(sigChildren, cst.NodeElem(p.parseParamList()))

		if p.c.peek().Kind == lexer.Arrow {
			arrow, _ := p.c.next()
			sigChildren = append(sigChildren, cst.TokenElem(arrow))
			sigChildren = append(sigChildren, cst.NodeElem(p.parseTypeRef()))
		}

		children = append(children, cst.NodeElem(&cst.Node{Kind: cst.MethodSig, Children: sigChildren}))
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	return &cst.Node{Kind: cst.InterfaceDef, Children: children}
}

func (p *Parser) parseImplDef() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
	children = append(children, cst.NodeElem(p.parseTypeRef())) // trait name
	children = append(children, cst.NodeElem(p.parseTypeRef())) // impl type

	if p.c.peek().Kind == lexer.KwDo {
		doTok, _ := p.c.next()
		children = append(children, cst.TokenElem(doTok))
	} else {
		p.c.errorf("do")
	}

	for p.c.peek().Kind == lexer.KwFn {
		children = append(children, cst.NodeElem(p.parseFnDef(nil)))
		children = append(children, p.c.collectTrivia()...)
	}

	if p.c.peek().Kind == lexer.KwEnd {
		endTok, _ := p.c.next()
		children = append(children, cst.TokenElem(endTok))
	} else {
		p.c.errorf("end")
	}

	return &cst.Node{Kind: cst.ImplDef, Children: children}
}

func (p *Parser) parseModulePath() *cst.Node {
	nameTok, trivia := p.c.next()
	children := append(trivia, cst.TokenElem(nameTok))

	for p.c.peek().Kind == lexer.Dot {
		dotTok, _ := p.c.next()
		children = append(children, cst.TokenElem(dotTok))
		segTok, _ := p.c.next()
		children = append(children, cst.TokenElem(segTok))
	}

	return &cst.Node{Kind: cst.ModulePath, Children: children}
}

func (p *Parser) parseImportDecl() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
	children = append(children, cst.NodeElem(p.parseModulePath()))

	return &cst.Node{Kind: cst.ImportDecl, Children: children}
}

func (p *Parser) parseFromImportDecl() *cst.Node {
	kw, trivia := p.c.next()
	children := append([]cst.Element{cst.TokenElem(kw)}, trivia...)
	children = append(children, cst.NodeElem(p.parseModulePath()))

	if p.c.peek().Kind == lexer.KwImport {
		importTok, _ := p.c.next()
		children = append(children, cst.TokenElem(importTok))
	} else {
		p.c.errorf("import")
	}

	var names []cst.Element

	for {
		nameTok, nameTrivia := p.c.next()
		names = append(names, nameTrivia...)
		names = append(names, cst.TokenElem(nameTok))

		if p.c.peek().Kind == lexer.Comma {
			commaTok, _ := p.c.next()
			names = append(names, cst.TokenElem(commaTok))

			continue
		}

		break
	}

	children = append(children, cst.NodeElem(&cst.Node{Kind: cst.NameList, Children: names}))

	return &cst.Node{Kind: cst.FromImportDecl, Children: children}
}

// tryParseDerivingClause consumes `deriving(A, B, ...)` if the contextual
// identifier "deriving" (spelled exactly that in source) appears next; the
// parser recognises it by its raw token kind (Ident) plus lookahead for
// '(', since "deriving" is never a reserved keyword (spec §4.2).
func (p *Parser) tryParseDerivingClause() *cst.Node {
	save := *p.c
	tok := p.c.peek()

	if tok.Kind != lexer.Ident || p.tokenText(tok) != "deriving" {
		return nil
	}

	derivingTok, trivia := p.c.next()

	if p.c.peek().Kind != lexer.LParen {
		*p.c = save
		return nil
	}

	children := append([]cst.Element{cst.TokenElem(derivingTok)}, trivia...)
	lparen, _ := p.c.next()
	children = append(children, cst.TokenElem(lparen))

	for p.c.peek().Kind != lexer.RParen && !p.c.atEOF() {
		nameTok, nameTrivia := p.c.next()
		children = append(children, nameTrivia...)
		children = append(children, cst.TokenElem(nameTok))

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

	return &cst.Node{Kind: cst.DerivingClause, Children: children}
}
