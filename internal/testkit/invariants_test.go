package testkit

import (
	"strings"
	"testing"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/source"
)

func parse(t *testing.T, src string) (*ast.Builder, ast.FileID, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("inv.cap", []byte(src)))
	bag := diag.NewBag(16)
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}}), b, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	return b, res.File, file
}

func TestSpanInvariantsHold(t *testing.T) {
	b, id, file := parse(t, "type T;\nfn main() {\n    let f = |x: int| x + 1;\n    f(1);\n}\n")
	if err := CheckSpanInvariants(b, id, file); err != nil {
		t.Fatal(err)
	}
}

func TestSpanInvariantsCatchCorruption(t *testing.T) {
	b, id, file := parse(t, "fn a() {}\nfn b() {}\n")
	f := b.Files.Get(id)
	second := b.Items.Get(f.Items[1])
	second.Span.Start = 0

	err := CheckSpanInvariants(b, id, file)
	if err == nil || !strings.Contains(err.Error(), "overlaps") {
		t.Fatalf("err = %v", err)
	}

	f.Span.End = uint32(len(file.Content)) + 10
	if err := CheckSpanInvariants(b, id, file); err == nil || !strings.Contains(err.Error(), "beyond content") {
		t.Fatalf("err = %v", err)
	}
}
