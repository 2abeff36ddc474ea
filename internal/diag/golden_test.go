package diag

import (
	"testing"

	"capsule/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase(".")
	id := fs.AddVirtual("main.cap", []byte("fn main() {\n  let x = 1;\n}\n"))

	diags := []Diagnostic{
		NewError(SemaCaptureUseAfterMove, source.Span{File: id, Start: 18, End: 19}, "use of moved value `x`").
			WithNote(source.Span{File: id, Start: 0, End: 2}, "moved\r\nhere"),
		New(SevWarning, SemaReceiverAssumed, source.Span{File: id, Start: 3, End: 7}, "assumed &self"),
	}

	got := FormatGoldenDiagnostics(diags, fs, true)
	want := "note SEM3101 main.cap:1:1 moved here\n" +
		"warning SEM3008 main.cap:1:4 assumed &self\n" +
		"error SEM3101 main.cap:2:7 use of moved value `x`"
	if got != want {
		t.Fatalf("golden mismatch:\n got: %q\nwant: %q", got, want)
	}

	short := FormatShortDiagnostics(diags, fs, false)
	wantShort := "error SEM3101 main.cap:2:7 use of moved value `x`\n" +
		"warning SEM3008 main.cap:1:4 assumed &self"
	if short != wantShort {
		t.Fatalf("short mismatch:\n got: %q\nwant: %q", short, wantShort)
	}
}

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(3)
	sp := func(start uint32) source.Span { return source.Span{Start: start, End: start + 1} }
	b.Add(NewError(SemaCaptureAliasing, sp(9), "b"))
	b.Add(NewError(SemaCaptureAliasing, sp(9), "b again"))
	b.Add(New(SevWarning, SemaReceiverAssumed, sp(1), "a"))
	if b.Add(NewError(SemaError, sp(0), "dropped")) {
		t.Fatal("bag accepted item past its limit")
	}
	b.Dedup()
	b.Sort()
	items := b.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Code != SemaReceiverAssumed || items[1].Code != SemaCaptureAliasing {
		t.Fatalf("unexpected order: %v, %v", items[0].Code, items[1].Code)
	}
	if !b.HasErrors() {
		t.Fatal("HasErrors = false")
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		LexUnknownChar:            "LEX1001",
		SynExpectExpression:       "SYN2203",
		SemaCaptureDoubleCallOnce: "SEM3104",
		IOLoadFileError:           "IO4001",
		ProjInvalidConfig:         "PRJ5001",
		UnknownCode:               "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %s, want %s", code, got, want)
		}
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 2}
	ReportError(r, SemaCaptureAliasing, sp, "conflict").Emit()
	ReportError(r, SemaCaptureAliasing, sp, "conflict").Emit()
	ReportError(r, SemaCaptureAliasing, sp, "other").Emit()
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
}
