package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"capsule/internal/diag"
	"capsule/internal/source"
)

const escapingSrc = `fn make(x: int) -> impl Fn(int) -> int {
    |y| x + y
}
`

// escapingBag builds the diagnostic reported for a closure returned while
// it still borrows a parameter.
func escapingBag(t *testing.T, path string) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual(path, []byte(escapingSrc))
	bar := uint32(strings.Index(escapingSrc, "|y|"))
	xUse := uint32(strings.Index(escapingSrc, "x + y"))

	d := diag.NewError(diag.SemaCaptureEscapingBorrow,
		source.Span{File: fileID, Start: xUse, End: xUse + 1},
		`closure make#0 may outlive "x", which it borrows`)
	d = d.WithNote(source.Span{File: fileID, Start: 8, End: 9}, `"x" is dropped when make returns`)
	d = d.WithFixSuggestion(diag.Fix{
		ID:            "closure.add-move",
		Title:         "add `move` to take captures by value",
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		IsPreferred:   true,
		Edits:         []diag.TextEdit{{Span: source.Span{File: fileID, Start: bar, End: bar}, NewText: "move "}},
	})
	bag := diag.NewBag(10)
	bag.Add(d)
	return bag, fs
}

func TestPathModes(t *testing.T) {
	bag, fs := escapingBag(t, "/home/user/project/src/adder.cap")
	fs.SetBaseDir("/home/user/project")

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/adder.cap:2:9"},
		{name: "Relative path", mode: PathModeRelative, contains: "src/adder.cap:2:9"},
		{name: "Basename only", mode: PathModeBasename, contains: "adder.cap:2:9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "SEM3107", "may outlive"} {
				if !strings.Contains(output, want) {
					t.Errorf("expected %q in output:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettySnippetUnderline(t *testing.T) {
	bag, fs := escapingBag(t, "adder.cap")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "adder.cap:2:9: ERROR SEM3107: closure make#0 may outlive \"x\", which it borrows\n" +
		" 2 |     |y| x + y\n" +
		"   |         ^\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	bag, fs := escapingBag(t, "adder.cap")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{
		PathMode:    PathModeBasename,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
	})
	output := buf.String()

	for _, want := range []string{
		`note: adder.cap:1:9: "x" is dropped when make returns`,
		"fix #1: add `move` to take captures by value (quickfix, safe-with-heuristics) id=closure.add-move",
		`apply="move "`,
		"preview:",
		"-     |y| x + y",
		"+     move |y| x + y",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrettyColorToggle(t *testing.T) {
	bag, fs := escapingBag(t, "adder.cap")
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	Pretty(&colored, bag, fs, PrettyOpts{PathMode: PathModeBasename, Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output contains escape codes:\n%q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escape codes:\n%q", colored.String())
	}
}
