package lexer

import (
	"capsule/internal/diag"
	"capsule/internal/token"
)

// scanNumber accepts 123, 1_000, 0x1F, 0b101, 0o17, 1.5, 2e10 and 1.5e-3.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	if lx.cursor.Peek() == '0' {
		if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '0' {
			var digit func(byte) bool
			switch b1 {
			case 'x', 'X':
				digit = isHex
			case 'b', 'B':
				digit = func(b byte) bool { return b == '0' || b == '1' }
			case 'o', 'O':
				digit = func(b byte) bool { return b >= '0' && b <= '7' }
			}
			if digit != nil {
				lx.cursor.Bump()
				lx.cursor.Bump()
				n := lx.eatDigits(digit)
				return lx.finishNumber(start, token.IntLit, n == 0)
			}
		}
	}

	lx.eatDigits(isDec)
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '.' && isDec(b1) {
		kind = token.FloatLit
		lx.cursor.Bump()
		lx.eatDigits(isDec)
	}
	bad := false
	if c := lx.cursor.Peek(); c == 'e' || c == 'E' {
		kind = token.FloatLit
		lx.cursor.Bump()
		if c := lx.cursor.Peek(); c == '+' || c == '-' {
			lx.cursor.Bump()
		}
		bad = lx.eatDigits(isDec) == 0
	}
	return lx.finishNumber(start, kind, bad)
}

func (lx *Lexer) eatDigits(digit func(byte) bool) int {
	n := 0
	for {
		b := lx.cursor.Peek()
		if b == '_' || (!lx.cursor.EOF() && digit(b)) {
			lx.cursor.Bump()
			if b != '_' {
				n++
			}
			continue
		}
		return n
	}
}

func (lx *Lexer) finishNumber(start Mark, kind token.Kind, bad bool) token.Token {
	// trailing identifier characters are part of a malformed literal
	trailing := false
	for isIdentContinueByte(lx.cursor.Peek()) && !lx.cursor.EOF() {
		lx.cursor.Bump()
		trailing = true
	}
	sp := lx.cursor.SpanFrom(start)
	lx.checkLength(sp)
	if bad || trailing {
		lx.errLex(diag.LexBadNumber, sp, "malformed number literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
