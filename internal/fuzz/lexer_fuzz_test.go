package fuzztests

import (
	"testing"

	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/source"
	"capsule/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.cap", input))

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		var last uint32
		for steps := 0; ; steps++ {
			tok := lx.Next()
			if tok.Kind == token.EOF {
				break
			}
			if tok.Span.Start < last || int(tok.Span.End) > len(input) {
				t.Fatalf("token %v has span %v after offset %d", tok.Kind, tok.Span, last)
			}
			last = tok.Span.End
			if steps > len(input)+1 {
				t.Fatal("lexer does not advance")
			}
		}
	})
}
