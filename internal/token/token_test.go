package token_test

import (
	"testing"

	"capsule/internal/token"
)

func TestKeywordsRoundTrip(t *testing.T) {
	for _, word := range []string{"fn", "let", "mut", "return", "type", "copy", "move", "self", "impl", "true", "false"} {
		k, ok := token.LookupKeyword(word)
		if !ok {
			t.Fatalf("%q is not a keyword", word)
		}
		if k.String() != word {
			t.Errorf("Kind(%q).String() = %q", word, k.String())
		}
		if !(token.Token{Kind: k}).IsKeyword() {
			t.Errorf("%q: IsKeyword = false", word)
		}
	}
	for _, word := range []string{"Fn", "FnMut", "FnOnce", "int", "Move"} {
		if _, ok := token.LookupKeyword(word); ok {
			t.Errorf("%q must be an identifier", word)
		}
	}
}

func TestTokenClasses(t *testing.T) {
	tests := []struct {
		kind    token.Kind
		literal bool
		punct   bool
		assign  bool
	}{
		{token.IntLit, true, false, false},
		{token.KwTrue, true, false, false},
		{token.Ident, false, false, false},
		{token.Plus, false, true, false},
		{token.PlusAssign, false, true, true},
		{token.Assign, false, true, true},
		{token.RBrace, false, true, false},
		{token.EqEq, false, true, false},
	}
	for _, tt := range tests {
		tok := token.Token{Kind: tt.kind}
		if tok.IsLiteral() != tt.literal {
			t.Errorf("%v IsLiteral = %v", tt.kind, !tt.literal)
		}
		if tok.IsPunctOrOp() != tt.punct {
			t.Errorf("%v IsPunctOrOp = %v", tt.kind, !tt.punct)
		}
		if tt.kind.IsAssign() != tt.assign {
			t.Errorf("%v IsAssign = %v", tt.kind, !tt.assign)
		}
	}
}
