package fuzztests

import (
	"context"
	"testing"
	"time"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/driver"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/source"
	"capsule/internal/testkit"
)

// An input taking longer than this most likely loops in error recovery.
const runTimeout = 5 * time.Second

func FuzzParserBuildsAST(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("fn f() { let x = |a, b| ; }"))
	f.Add([]byte("fn f() { { { { } } } }"))
	f.Add([]byte("fn f( { let g = move move || 1; }"))
	f.Add([]byte("type T { a: int b: int }"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.cap", input))

		bag := diag.NewBag(128)
		rep := diag.BagReporter{Bag: bag}
		builder := ast.NewBuilder(ast.Hints{}, nil)

		done := make(chan parser.Result, 1)
		go func() {
			done <- parser.ParseFile(lexer.New(file, lexer.Options{Reporter: rep}), builder, parser.Options{Reporter: rep, MaxErrors: 128})
		}()
		select {
		case res := <-done:
			if bag.HasErrors() || len(builder.Files.Get(res.File).Items) == 0 {
				return
			}
			if err := testkit.CheckSpanInvariants(builder, res.File, file); err != nil {
				t.Fatalf("span invariants: %v\ninput: %q", err, input)
			}
		case <-time.After(runTimeout):
			t.Fatalf("parser did not finish within %v on %q", runTimeout, input)
		}
	})
}

// FuzzElaborate runs the whole pipeline, including desugaring and
// validation, on every input.
func FuzzElaborate(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.cap", input)

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		done := make(chan *driver.DiagnoseResult, 1)
		go func() {
			done <- driver.DiagnoseFile(ctx, fs, id, &driver.DiagnoseOptions{Stage: driver.DiagnoseStageAll, MaxDiagnostics: 128})
		}()
		select {
		case res := <-done:
			for _, d := range res.Bag.Items() {
				if int(d.Primary.End) > len(input) {
					t.Fatalf("diagnostic %s span %v is beyond the input", d.Code.ID(), d.Primary)
				}
			}
		case <-ctx.Done():
			t.Fatalf("elaboration did not finish within %v on %q", runTimeout, input)
		}
	})
}
