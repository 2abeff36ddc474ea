package parser

import (
	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/token"
)

var boundNames = map[string]ast.BoundKind{
	"Fn":     ast.BoundFn,
	"FnMut":  ast.BoundFnMut,
	"FnOnce": ast.BoundFnOnce,
}

// parseType parses a surface type expression.
func (p *Parser) parseType() (ast.TypeID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Amp:
		p.advance()
		mut := false
		if p.at(token.KwMut) {
			p.advance()
			mut = true
		}
		elem, ok := p.parseType()
		if !ok {
			return ast.NoTypeID, false
		}
		return p.arenas.Types.New(ast.TypeExpr{
			Kind: ast.TypeExprRef, Span: tok.Span.Cover(p.lastSpan), Mut: mut, Elem: elem,
		}), true

	case token.LParen:
		p.advance()
		if _, ok := p.expect(token.RParen, diag.SynExpectType, "expected ')' in unit type"); !ok {
			return ast.NoTypeID, false
		}
		return p.arenas.Types.New(ast.TypeExpr{Kind: ast.TypeExprUnit, Span: tok.Span.Cover(p.lastSpan)}), true

	case token.KwFn:
		p.advance()
		te := ast.TypeExpr{Kind: ast.TypeExprFn}
		if !p.parseSignatureTail(&te) {
			return ast.NoTypeID, false
		}
		te.Span = tok.Span.Cover(p.lastSpan)
		return p.arenas.Types.New(te), true

	case token.KwImpl:
		p.advance()
		bound := p.lx.Peek()
		kind, ok := boundNames[bound.Text]
		if bound.Kind != token.Ident || !ok {
			p.err(diag.SynExpectType, "expected Fn, FnMut or FnOnce after 'impl'")
			return ast.NoTypeID, false
		}
		p.advance()
		te := ast.TypeExpr{Kind: ast.TypeExprBound, Bound: kind, Impl: true}
		if !p.parseSignatureTail(&te) {
			return ast.NoTypeID, false
		}
		te.Span = tok.Span.Cover(p.lastSpan)
		return p.arenas.Types.New(te), true

	case token.Ident:
		p.advance()
		if kind, ok := boundNames[tok.Text]; ok && p.at(token.LParen) {
			te := ast.TypeExpr{Kind: ast.TypeExprBound, Bound: kind}
			if !p.parseSignatureTail(&te) {
				return ast.NoTypeID, false
			}
			te.Span = tok.Span.Cover(p.lastSpan)
			return p.arenas.Types.New(te), true
		}
		return p.arenas.Types.New(ast.TypeExpr{
			Kind: ast.TypeExprPath, Span: tok.Span, Name: p.arenas.Strings.Intern(tok.Text),
		}), true
	}
	p.err(diag.SynExpectType, "expected type, got \""+tok.Text+"\"")
	return ast.NoTypeID, false
}

// parseSignatureTail parses `(T, ...) [-> R]` into te.
func (p *Parser) parseSignatureTail(te *ast.TypeExpr) bool {
	if _, ok := p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' in function type"); !ok {
		return false
	}
	for !p.at(token.RParen) {
		param, ok := p.parseType()
		if !ok {
			return false
		}
		te.Params = append(te.Params, param)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' in function type"); !ok {
		return false
	}
	if p.at(token.Arrow) {
		p.advance()
		res, ok := p.parseType()
		if !ok {
			return false
		}
		te.Result = res
	}
	return true
}
