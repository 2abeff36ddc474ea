package parser

import (
	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/source"
	"capsule/internal/token"
)

func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr is a Pratt loop over the precedence table.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		prec, rightAssoc := p.getBinaryOperatorPrec(p.lx.Peek().Kind)
		if prec < minPrec || prec < 0 {
			return left, true
		}
		opTok := p.advance()
		next := prec + 1
		if rightAssoc {
			next = prec
		}
		right, ok := p.parseBinaryExpr(next)
		if !ok {
			p.err(diag.SynExpectExpression, "expected expression after '"+opTok.Text+"'")
			return ast.NoExprID, false
		}
		span := p.arenas.Exprs.Get(left).Span.Cover(p.arenas.Exprs.Get(right).Span)
		left = p.arenas.Exprs.NewBinary(span, p.tokenKindToBinaryOp(opTok.Kind), left, right)
	}
}

func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	type prefixOp struct {
		op   ast.ExprUnaryOp
		span source.Span
	}
	var prefixes []prefixOp
	for {
		tok := p.lx.Peek()
		if tok.Kind == token.Amp {
			p.advance()
			if p.at(token.KwMut) {
				mutTok := p.advance()
				prefixes = append(prefixes, prefixOp{ast.ExprUnaryRefMut, tok.Span.Cover(mutTok.Span)})
			} else {
				prefixes = append(prefixes, prefixOp{ast.ExprUnaryRef, tok.Span})
			}
			continue
		}
		op, ok := p.getUnaryOperator(tok.Kind)
		if !ok {
			break
		}
		p.advance()
		prefixes = append(prefixes, prefixOp{op, tok.Span})
	}

	expr, ok := p.parsePostfixExpr()
	if !ok {
		return ast.NoExprID, false
	}
	for i := len(prefixes) - 1; i >= 0; i-- {
		span := prefixes[i].span.Cover(p.arenas.Exprs.Get(expr).Span)
		expr = p.arenas.Exprs.NewUnary(span, prefixes[i].op, expr)
	}
	return expr, true
}

// parsePostfixExpr handles calls, member access and method calls.
func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	// closures and blocks do not take postfix operators without parentheses
	if kind := p.arenas.Exprs.Get(expr).Kind; kind == ast.ExprClosure || kind == ast.ExprBlock {
		return expr, true
	}
	for {
		switch {
		case p.at(token.LParen):
			args, ok := p.parseArgs()
			if !ok {
				return ast.NoExprID, false
			}
			span := p.arenas.Exprs.Get(expr).Span.Cover(p.lastSpan)
			expr = p.arenas.Exprs.NewCall(span, expr, args)
		case p.at(token.Dot):
			p.advance()
			name, nameSpan, ok := p.parseIdent()
			if !ok {
				return ast.NoExprID, false
			}
			if p.at(token.LParen) {
				args, ok := p.parseArgs()
				if !ok {
					return ast.NoExprID, false
				}
				span := p.arenas.Exprs.Get(expr).Span.Cover(p.lastSpan)
				expr = p.arenas.Exprs.NewMethodCall(span, ast.ExprMethodCallData{
					Receiver: expr, Name: name, NameSpan: nameSpan, Args: args,
				})
				continue
			}
			expr = p.arenas.Exprs.NewMember(p.arenas.Exprs.Get(expr).Span.Cover(nameSpan), expr, name)
		default:
			return expr, true
		}
	}
}

func (p *Parser) parseArgs() ([]ast.ExprID, bool) {
	p.advance() // (
	var args []ast.ExprID
	for !p.at(token.RParen) {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close argument list"); !ok {
		return nil, false
	}
	return args, true
}

func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident, token.KwSelf:
		p.advance()
		return p.arenas.Exprs.NewIdent(tok.Span, p.arenas.Strings.Intern(tok.Text)), true
	case token.IntLit:
		return p.literal(ast.ExprLitInt), true
	case token.FloatLit:
		return p.literal(ast.ExprLitFloat), true
	case token.StringLit:
		return p.literal(ast.ExprLitString), true
	case token.KwTrue:
		return p.literal(ast.ExprLitTrue), true
	case token.KwFalse:
		return p.literal(ast.ExprLitFalse), true
	case token.LParen:
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewGroup(tok.Span.Cover(p.lastSpan), inner), true
	case token.LBrace:
		return p.parseBlockExpr()
	case token.KwMove, token.Pipe, token.OrOr:
		return p.parseClosureExpr()
	}
	p.err(diag.SynExpectExpression, "expected expression, got \""+tok.Text+"\"")
	return ast.NoExprID, false
}

func (p *Parser) literal(kind ast.ExprLitKind) ast.ExprID {
	tok := p.advance()
	return p.arenas.Exprs.NewLiteral(tok.Span, kind, p.arenas.Strings.Intern(tok.Text))
}

// parseClosureExpr parses `[move] (|| | |p[: T], ...|) [-> T] body`.
func (p *Parser) parseClosureExpr() (ast.ExprID, bool) {
	start := p.lx.Peek().Span
	data := ast.ExprClosureData{}
	if p.at(token.KwMove) {
		data.Move = true
		data.MoveSpan = p.advance().Span
	}
	data.BarSpan = p.lx.Peek().Span

	switch {
	case p.at(token.OrOr):
		p.advance()
	case p.at(token.Pipe):
		p.advance()
		for !p.at(token.Pipe) {
			name, span, ok := p.parseIdent()
			if !ok {
				return ast.NoExprID, false
			}
			param := ast.ClosureParam{Name: name, Span: span}
			if p.at(token.Colon) {
				p.advance()
				if param.Type, ok = p.parseType(); !ok {
					return ast.NoExprID, false
				}
			}
			data.Params = append(data.Params, param)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.Pipe, diag.SynUnclosedDelimiter, "expected '|' to close closure parameters"); !ok {
			return ast.NoExprID, false
		}
	default:
		p.err(diag.SynUnexpectedToken, "expected '|' after 'move'")
		return ast.NoExprID, false
	}

	if p.at(token.Arrow) {
		p.advance()
		var ok bool
		if data.Result, ok = p.parseType(); !ok {
			return ast.NoExprID, false
		}
	}
	body, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	data.Body = body
	return p.arenas.Exprs.NewClosure(start.Cover(p.arenas.Exprs.Get(body).Span), data), true
}
