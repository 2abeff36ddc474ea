package fix

import (
	"testing"

	"capsule/internal/diag"
	"capsule/internal/source"
)

func TestInsertTextCollapsesSpan(t *testing.T) {
	span := source.Span{File: 0, Start: 4, End: 9}
	f := InsertText("prefix", span, "move ", "")
	if len(f.Edits) != 1 {
		t.Fatalf("edits = %d", len(f.Edits))
	}
	if e := f.Edits[0]; e.Span.Start != 4 || e.Span.End != 4 || e.NewText != "move " {
		t.Errorf("edit = %+v", e)
	}
	if f.Applicability != diag.FixApplicabilityAlwaysSafe || f.Kind != diag.FixKindQuickFix {
		t.Errorf("defaults = %s %s", f.Applicability, f.Kind)
	}
}

func TestDeleteAndReplace(t *testing.T) {
	span := source.Span{Start: 9, End: 10}
	del := DeleteSpan("remove semicolon", span, ";")
	if e := del.Edits[0]; e.NewText != "" || e.OldText != ";" {
		t.Errorf("delete edit = %+v", e)
	}
	rep := ReplaceSpan("rename", source.Span{Start: 0, End: 3}, "var", "let", WithKind(diag.FixKindRefactor))
	if e := rep.Edits[0]; e.NewText != "var" || e.OldText != "let" || rep.Kind != diag.FixKindRefactor {
		t.Errorf("replace = %+v", rep)
	}
}

func TestAddMove(t *testing.T) {
	f := AddMove(source.Span{File: 2, Start: 30, End: 33})
	if f.ID != AddMoveID || !f.IsPreferred || f.Applicability != diag.FixApplicabilitySafeWithHeuristics {
		t.Errorf("fix = %+v", f)
	}
	if e := f.Edits[0]; e.Span != (source.Span{File: 2, Start: 30, End: 30}) || e.NewText != "move " {
		t.Errorf("edit = %+v", e)
	}
}

func TestNilOption(t *testing.T) {
	f := InsertText("x", source.Span{}, "y", "", nil, WithID("id"))
	if f.ID != "id" {
		t.Errorf("ID = %q", f.ID)
	}
}
