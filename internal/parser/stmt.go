package parser

import (
	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/token"
)

// parseBlockExpr parses `{ stmt* [tail] }`.
func (p *Parser) parseBlockExpr() (ast.ExprID, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnclosedBrace, "expected '{'")
	if !ok {
		return ast.NoExprID, false
	}
	var stmts []ast.StmtID
	tail := ast.NoExprID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if tail.IsValid() {
			// a previous expression was not terminated
			p.report(diag.SynExpectSemicolon, diag.SevError, p.arenas.Exprs.Get(tail).Span, "expected ';' after expression")
			stmts = append(stmts, p.arenas.Stmts.NewExpr(p.arenas.Exprs.Get(tail).Span, tail))
			tail = ast.NoExprID
		}
		stmt, expr, ok := p.parseStmt()
		switch {
		case !ok:
			p.resyncStmt()
		case expr.IsValid():
			tail = expr
		case stmt.IsValid():
			stmts = append(stmts, stmt)
		}
		if p.opts.Enough() {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close block"); !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewBlock(open.Span.Cover(p.lastSpan), stmts, tail), true
}

// parseStmt returns either a statement or, for an unterminated expression
// that may be the block tail, the expression itself.
func (p *Parser) parseStmt() (ast.StmtID, ast.ExprID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwLet:
		st, ok := p.parseLetStmt()
		return st, ast.NoExprID, ok
	case token.KwReturn:
		st, ok := p.parseReturnStmt()
		return st, ast.NoExprID, ok
	case token.Semicolon:
		p.advance()
		return ast.NoStmtID, ast.NoExprID, true
	}

	expr, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, ast.NoExprID, false
	}
	span := p.arenas.Exprs.Get(expr).Span
	if p.at(token.Semicolon) {
		p.advance()
		return p.arenas.Stmts.NewExpr(span.Cover(p.lastSpan), expr), ast.NoExprID, true
	}
	if p.arenas.Exprs.Get(expr).Kind == ast.ExprBlock && !p.at(token.RBrace) {
		return p.arenas.Stmts.NewExpr(span, expr), ast.NoExprID, true
	}
	return ast.NoStmtID, expr, true
}

func (p *Parser) parseLetStmt() (ast.StmtID, bool) {
	letTok := p.advance()
	let := ast.LetStmt{}
	if p.at(token.KwMut) {
		p.advance()
		let.Mutable = true
	}
	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return ast.NoStmtID, false
	}
	let.Name, let.NameSpan = name, nameSpan
	if p.at(token.Colon) {
		p.advance()
		if let.Type, ok = p.parseType(); !ok {
			return ast.NoStmtID, false
		}
	}
	if p.at(token.Assign) {
		p.advance()
		if let.Value, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after let statement"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewLet(letTok.Span.Cover(p.lastSpan), let), true
}

func (p *Parser) parseReturnStmt() (ast.StmtID, bool) {
	retTok := p.advance()
	value := ast.NoExprID
	if !p.at(token.Semicolon) {
		var ok bool
		if value, ok = p.parseExpr(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewReturn(retTok.Span.Cover(p.lastSpan), value), true
}
