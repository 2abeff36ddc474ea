package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"capsule/internal/diag"
	"capsule/internal/source"
)

const adderSrc = `fn make_adder(x: int) -> impl FnOnce(int) -> int {
    |y| x + y
}
`

// escaping builds the diagnostic the validator reports for adderSrc.
func escaping(fileID source.FileID) diag.Diagnostic {
	bar := uint32(strings.Index(adderSrc, "|y|"))
	x := uint32(strings.Index(adderSrc, "x + y"))
	d := diag.NewError(diag.SemaCaptureEscapingBorrow, source.Span{File: fileID, Start: x, End: x + 1}, "closure may outlive x")
	return d.WithFixSuggestion(AddMove(source.Span{File: fileID, Start: bar, End: bar + 3}))
}

func loadTemp(t *testing.T, src string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "adder.cap")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return fs, id, path
}

func TestApplyAddMove(t *testing.T) {
	fs, id, path := loadTemp(t, adderSrc)
	res, err := Apply(fs, []diag.Diagnostic{escaping(id)}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "closure.add-move@adder.cap:2:9" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "    move |y| x + y\n") {
		t.Errorf("rewritten file:\n%s", got)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].Path != "adder.cap" || res.FileChanges[0].EditCount != 1 {
		t.Errorf("changes = %+v", res.FileChanges)
	}
}

func TestApplyByID(t *testing.T) {
	fs, id, _ := loadTemp(t, adderSrc)
	diags := []diag.Diagnostic{escaping(id)}

	_, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "closure.add-move@adder.cap:9:9", DryRun: true})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("unknown id: err = %v", err)
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "closure.add-move@adder.cap:2:9", DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(res.FileChanges[0].Content), "move |y|") {
		t.Errorf("content = %s", res.FileChanges[0].Content)
	}
}

func TestDuplicateFixesAreSkipped(t *testing.T) {
	fs, id, _ := loadTemp(t, adderSrc)
	d := escaping(id)
	d = d.WithFixSuggestion(d.Fixes[0])
	cands, skips := Candidates(fs, []diag.Diagnostic{d})
	if len(cands) != 1 || len(skips) != 1 || skips[0].Reason != "duplicate fix id" {
		t.Errorf("cands = %d, skips = %+v", len(cands), skips)
	}
}

func TestConflictingAndStaleEdits(t *testing.T) {
	fs, id, _ := loadTemp(t, "let a = 1;\n")
	span := source.Span{File: id, Start: 4, End: 5}
	diags := []diag.Diagnostic{
		diag.NewError(diag.SemaCaptureUseAfterMove, span, "first").
			WithFixSuggestion(ReplaceSpan("rename", span, "b", "a", WithID("rename"))),
		diag.NewError(diag.SemaCaptureUseAfterMove, span, "second").
			WithFixSuggestion(ReplaceSpan("rename again", span, "c", "a", WithID("other"))),
		diag.NewError(diag.SemaCaptureUseAfterMove, source.Span{File: id, Start: 8, End: 9}, "stale").
			WithFixSuggestion(ReplaceSpan("stale", source.Span{File: id, Start: 8, End: 9}, "2", "7", WithID("stale"))),
	}
	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || !strings.HasPrefix(res.Applied[0].ID, "rename@") {
		t.Errorf("applied = %+v", res.Applied)
	}
	reasons := map[string]bool{}
	for _, s := range res.Skipped {
		reasons[s.Reason] = true
	}
	if len(res.Skipped) != 2 || !reasons["existing text does not match expected content"] {
		t.Errorf("skipped = %+v", res.Skipped)
	}
	if got := string(res.FileChanges[0].Content); got != "let b = 1;\n" {
		t.Errorf("content = %q", got)
	}
}

func TestManualReviewNotAppliedByAll(t *testing.T) {
	fs, id, _ := loadTemp(t, "x")
	d := diag.NewError(diag.SemaCaptureUseAfterMove, source.Span{File: id}, "m").
		WithFixSuggestion(InsertText("risky", source.Span{File: id}, "y", "", WithApplicability(diag.FixApplicabilityManualReview)))
	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 {
		t.Errorf("err = %v, skipped = %+v", err, res.Skipped)
	}
	if _, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeOnce, DryRun: true}); err != nil {
		t.Errorf("once mode should fall back to the only fix: %v", err)
	}
}

func TestVirtualFilesAreNotWritten(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("input.cap", []byte(adderSrc))
	res, err := Apply(fs, []diag.Diagnostic{escaping(id)}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Errorf("err = %v, skipped = %+v", err, res.Skipped)
	}
}

func TestSpansConflict(t *testing.T) {
	edit := func(s, e uint32) diag.TextEdit { return diag.TextEdit{Span: source.Span{Start: s, End: e}} }
	tests := []struct {
		a, b diag.TextEdit
		want bool
	}{
		{edit(1, 1), edit(1, 1), false},
		{edit(1, 1), edit(0, 3), true},
		{edit(3, 3), edit(0, 3), false},
		{edit(0, 2), edit(1, 4), true},
		{edit(0, 2), edit(2, 4), false},
	}
	for _, tt := range tests {
		if got := spansConflict(tt.a, tt.b); got != tt.want {
			t.Errorf("spansConflict(%v, %v) = %v", tt.a.Span, tt.b.Span, got)
		}
	}
}
