// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lexer

// two is a 2-byte operator table, checked before single-byte operators so
// the longest match wins.
var two = map[[2]byte]TokenKind{
	{'=', '='}: EqEq,
	{'!', '='}: NotEq,
	{'<', '='}: LtEq,
	{'>', '='}: GtEq,
	{'-', '>'}: Arrow,
	{'=', '>'}: FatArrow,
	{':', ':'}: ColonColon,
}

var one = map[byte]TokenKind{
	'+': Plus, '-': Minus, '*': Star, '/': Slash, '%': Percent,
	'=': Eq, '<': Lt, '>': Gt, '.': Dot, ',': Comma, ':': Colon,
	'?': Question, '&': Amp, '|': Pipe,
	'(': LParen, ')': RParen, '[': LBracket, ']': RBracket,
}

func (l *Lexer) lexOperator(start uint32) (Token, bool) {
	if b0, ok := l.peekByte(0); ok {
		if b1, ok1 := l.peekByte(1); ok1 {
			if kind, ok2 := two[[2]byte{b0, b1}]; ok2 {
				l.pos += 2
				return l.emit(kind, start), true
			}
		}

		if kind, ok2 := one[b0]; ok2 {
			l.pos++
			return l.emit(kind, start), true
		}
	}

	return Token{}, false
}
