package lexer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/source"
	"capsule/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.cap", []byte(src))
	bag := diag.NewBag(100)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		out = append(out, tk.Kind)
	}
	return out
}

func TestClosureTokens(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "param closure",
			src:  "|x| x > 0",
			want: []token.Kind{token.Pipe, token.Ident, token.Pipe, token.Ident, token.Gt, token.IntLit, token.EOF},
		},
		{
			name: "empty params lex as OrOr",
			src:  "move || s",
			want: []token.Kind{token.KwMove, token.OrOr, token.Ident, token.EOF},
		},
		{
			name: "borrow and method",
			src:  "&mut self.v.push(1);",
			want: []token.Kind{
				token.Amp, token.KwMut, token.KwSelf, token.Dot, token.Ident, token.Dot,
				token.Ident, token.LParen, token.IntLit, token.RParen, token.Semicolon, token.EOF,
			},
		},
		{
			name: "compound assignment and arrow",
			src:  "c += 1 -> != <= >=",
			want: []token.Kind{token.Ident, token.PlusAssign, token.IntLit, token.Arrow, token.BangEq, token.LtEq, token.GtEq, token.EOF},
		},
		{
			name: "numbers",
			src:  "1_000 0x1F 1.5 2e10 x.f",
			want: []token.Kind{token.IntLit, token.IntLit, token.FloatLit, token.FloatLit, token.Ident, token.Dot, token.Ident, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lexAll(t, tt.src)
			if diff := cmp.Diff(tt.want, kinds(toks)); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
		})
	}
}

func TestTriviaAttachedToNextToken(t *testing.T) {
	toks, _ := lexAll(t, "// lead\n/* a /* nested */ b */ fn")
	if toks[0].Kind != token.KwFn {
		t.Fatalf("first token = %v", toks[0].Kind)
	}
	var got []token.TriviaKind
	for _, tr := range toks[0].Leading {
		got = append(got, tr.Kind)
	}
	want := []token.TriviaKind{token.TriviaLineComment, token.TriviaNewline, token.TriviaBlockComment, token.TriviaSpace}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("trivia mismatch (-want +got):\n%s", diff)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{`"open`, diag.LexUnterminatedString},
		{"/* never closed", diag.LexUnterminatedBlockComment},
		{"12abc", diag.LexBadNumber},
		{"0x", diag.LexBadNumber},
		{"#", diag.LexUnknownChar},
	}
	for _, tt := range tests {
		_, bag := lexAll(t, tt.src)
		if bag.Len() != 1 || bag.Items()[0].Code != tt.code {
			t.Errorf("%q: got %+v, want one %s", tt.src, bag.Items(), tt.code.ID())
		}
	}
}

func TestIdentifierNormalization(t *testing.T) {
	// "é" precomposed vs "e" + combining acute
	toks, bag := lexAll(t, "caf\u00e9 cafe\u0301")
	if bag.Len() != 0 {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if toks[0].Text != toks[1].Text {
		t.Fatalf("identifiers not normalised: %q vs %q", toks[0].Text, toks[1].Text)
	}
}

func TestSpansCoverSource(t *testing.T) {
	src := "let mut s = \"hi\";"
	toks, _ := lexAll(t, src)
	for _, tk := range toks[:len(toks)-1] {
		if got := src[tk.Span.Start:tk.Span.End]; got != tk.Text {
			t.Errorf("span text %q != token text %q", got, tk.Text)
		}
	}
}
