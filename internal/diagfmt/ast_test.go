package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/source"
)

func parseForTree(t *testing.T, src string) (*ast.Builder, ast.FileID, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("tree.cap", []byte(src))
	bag := diag.NewBag(10)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	return b, res.File, fs
}

func TestFormatASTPretty(t *testing.T) {
	b, file, fs := parseForTree(t, "fn run(f: impl FnMut(int)) {\n    let g = move |x: int| f(x);\n}\n")
	var buf bytes.Buffer
	if err := FormatASTPretty(&buf, b, file, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"└─ Fn run",
		"Param f: impl FnMut(int)",
		"Let g",
		"Closure[move] |x: int|",
		"Call",
		"Ident f",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in tree:\n%s", want, out)
		}
	}
}

func TestFormatASTJSON(t *testing.T) {
	b, file, _ := parseForTree(t, "copy type P { x: int }\nfn P.get(&self) -> int;\n")
	var buf bytes.Buffer
	if err := FormatASTJSON(&buf, b, file); err != nil {
		t.Fatal(err)
	}
	var root ASTNodeOutput
	if err := json.Unmarshal(buf.Bytes(), &root); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if root.Type != "File" || len(root.Children) != 2 {
		t.Fatalf("root = %+v", root)
	}
	typ, fn := root.Children[0], root.Children[1]
	if typ.Type != "Type" || typ.Kind != "copy" || typ.Text != "P" || len(typ.Children) != 1 {
		t.Errorf("type item = %+v", typ)
	}
	if fn.Text != "P.get" || fn.Children[0].Text != "&self" || fn.Children[1].Text != "int" {
		t.Errorf("fn item = %+v", fn)
	}
}
