package lexer

import (
	"capsule/internal/diag"
	"capsule/internal/token"
)

// scanString scans a double-quoted literal; Text keeps the quotes and escapes.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		switch lx.cursor.Bump() {
		case '"':
			sp := lx.cursor.SpanFrom(start)
			lx.checkLength(sp)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		case '\\':
			lx.cursor.Bump()
		case '\n':
			lx.cursor.Off--
			return lx.unterminated(start)
		}
	}
	return lx.unterminated(start)
}

func (lx *Lexer) unterminated(start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
