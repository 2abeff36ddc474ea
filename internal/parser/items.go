package parser

import (
	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/source"
	"capsule/internal/token"
)

// parseFnItem parses `fn [Owner.]name(params) [-> T] (block | ;)`.
func (p *Parser) parseFnItem() (ast.ItemID, bool) {
	fnTok := p.advance()
	fn := ast.FnItem{}

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return ast.NoItemID, false
	}
	if p.at(token.Dot) {
		p.advance()
		fn.Owner = name
		if name, nameSpan, ok = p.parseIdent(); !ok {
			return ast.NoItemID, false
		}
	}
	fn.Name, fn.NameSpan = name, nameSpan

	if _, ok := p.expect(token.LParen, diag.SynUnclosedParen, "expected '(' after function name"); !ok {
		return ast.NoItemID, false
	}
	if !p.parseFnParams(&fn) {
		return ast.NoItemID, false
	}
	if p.at(token.Arrow) {
		p.advance()
		if fn.Result, ok = p.parseType(); !ok {
			return ast.NoItemID, false
		}
	}

	switch {
	case p.at(token.Semicolon):
		p.advance()
	case p.at(token.LBrace):
		if fn.Body, ok = p.parseBlockExpr(); !ok {
			return ast.NoItemID, false
		}
	default:
		p.err(diag.SynExpectSemicolon, "expected function body or ';'")
		return ast.NoItemID, false
	}
	fn.Span = fnTok.Span.Cover(p.lastSpan)
	return p.arenas.Items.NewFn(fn), true
}

func (p *Parser) parseFnParams(fn *ast.FnItem) bool {
	first := true
	for !p.at(token.RParen) {
		if !first {
			if _, ok := p.expect(token.Comma, diag.SynUnexpectedToken, "expected ',' between parameters"); !ok {
				return false
			}
			if p.at(token.RParen) {
				break
			}
		}
		if first && p.parseReceiver(fn) {
			first = false
			continue
		}
		first = false

		param := ast.Param{}
		start := p.lx.Peek().Span
		if p.at(token.KwMut) {
			p.advance()
			param.Mutable = true
		}
		name, _, ok := p.parseIdent()
		if !ok {
			return false
		}
		param.Name = name
		if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after parameter name"); !ok {
			return false
		}
		if param.Type, ok = p.parseType(); !ok {
			return false
		}
		param.Span = start.Cover(p.lastSpan)
		fn.Params = append(fn.Params, param)
	}
	_, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close parameter list")
	return ok
}

// parseReceiver consumes `self`, `&self` or `&mut self` when present.
func (p *Parser) parseReceiver(fn *ast.FnItem) bool {
	start := p.lx.Peek().Span
	kind := ast.SelfNone
	switch {
	case p.at(token.KwSelf):
		kind = ast.SelfValue
	case p.at(token.Amp):
		// lookahead is one token, so commit to the receiver form here
		p.advance()
		kind = ast.SelfRef
		if p.at(token.KwMut) {
			p.advance()
			kind = ast.SelfMutRef
		}
		if !p.at(token.KwSelf) {
			p.err(diag.SynUnexpectedToken, "expected 'self' after '&' in receiver position")
			return true
		}
	default:
		return false
	}
	p.advance()
	fn.Self = kind
	fn.SelfSpan = start.Cover(p.lastSpan)
	if !fn.IsMethod() {
		p.report(diag.SynUnexpectedModifier, diag.SevError, fn.SelfSpan, "receiver is only allowed on methods declared as 'fn Type.name'")
	}
	return true
}

// parseTypeItem parses `[copy] type Name [{ field: T, ... }] [;]`.
func (p *Parser) parseTypeItem() (ast.ItemID, bool) {
	start := p.lx.Peek().Span
	item := ast.TypeItem{}
	if p.at(token.KwCopy) {
		p.advance()
		item.Copy = true
	}
	if _, ok := p.expect(token.KwType, diag.SynUnexpectedToken, "expected 'type' after 'copy'"); !ok {
		return ast.NoItemID, false
	}
	name, nameSpan, ok := p.parseIdent()
	if !ok {
		return ast.NoItemID, false
	}
	item.Name, item.NameSpan = name, nameSpan

	if p.at(token.LBrace) {
		p.advance()
		seen := make(map[source.StringID]bool)
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			fname, fspan, ok := p.parseIdent()
			if !ok {
				return ast.NoItemID, false
			}
			if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' after field name"); !ok {
				return ast.NoItemID, false
			}
			ftype, ok := p.parseType()
			if !ok {
				return ast.NoItemID, false
			}
			if seen[fname] {
				p.report(diag.SynTypeFieldConflict, diag.SevError, fspan, "duplicate field '"+p.arenas.Name(fname)+"'")
			}
			seen[fname] = true
			item.Fields = append(item.Fields, ast.FieldDecl{Name: fname, Span: fspan, Type: ftype})
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close type body"); !ok {
			return ast.NoItemID, false
		}
	}
	if p.at(token.Semicolon) {
		p.advance()
	}
	item.Span = start.Cover(p.lastSpan)
	return p.arenas.Items.NewType(item), true
}
