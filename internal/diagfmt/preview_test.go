package diagfmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"capsule/internal/diag"
	"capsule/internal/source"
)

func TestFixPreviewAppliesAllEdits(t *testing.T) {
	fs := source.NewFileSet()
	src := "fn main() {\n    let f = |x| a + x;\n    let g = || b;\n    f(g());\n}\n"
	id := fs.AddVirtual("two.cap", []byte(src))
	at := func(s string) source.Span {
		for i := 0; i+len(s) <= len(src); i++ {
			if src[i:i+len(s)] == s {
				off := uint32(i)
				return source.Span{File: id, Start: off, End: off}
			}
		}
		t.Fatalf("%q not in source", s)
		return source.Span{}
	}
	fix := diag.Fix{Edits: []diag.TextEdit{
		{Span: at("|| b"), NewText: "move "},
		{Span: at("|x|"), NewText: "move "},
	}}

	got, err := buildFixPreview(fs, &fix)
	if err != nil {
		t.Fatal(err)
	}
	want := fixPreview{
		before: []string{"    let f = |x| a + x;", "    let g = || b;"},
		after:  []string{"    let f = move |x| a + x;", "    let g = move || b;"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(fixPreview{})); diff != "" {
		t.Errorf("preview (-want +got):\n%s", diff)
	}
}

func TestFixPreviewRejectsOverlap(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("o.cap", []byte("let x = 1;\n"))
	fix := diag.Fix{Edits: []diag.TextEdit{
		{Span: source.Span{File: id, Start: 4, End: 6}, NewText: "y"},
		{Span: source.Span{File: id, Start: 5, End: 7}, NewText: "z"},
	}}
	if _, err := buildFixPreview(fs, &fix); err == nil {
		t.Error("overlapping edits should not preview")
	}
}
