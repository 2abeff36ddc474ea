package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"capsule/internal/diag"
	"capsule/internal/hir"
	"capsule/internal/project"
	"capsule/internal/source"
	"capsule/internal/trace"
)

// TestElaborateGolden runs every archive under testdata/elaborate. Each
// holds input.cap, the expected golden diagnostics and optionally the
// expected environment dump.
func TestElaborateGolden(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "elaborate", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, path := range archives {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			sections := make(map[string]string, len(ar.Files))
			for _, f := range ar.Files {
				sections[f.Name] = string(f.Data)
			}
			input, ok := sections["input.cap"]
			if !ok {
				t.Fatal("archive has no input.cap")
			}

			fs := source.NewFileSet()
			id := fs.AddVirtual("input.cap", []byte(input))
			res := DiagnoseFile(context.Background(), fs, id, &DiagnoseOptions{Stage: DiagnoseStageAll})

			got := diag.FormatGoldenDiagnostics(res.Bag.Items(), fs, false)
			if diff := cmp.Diff(strings.TrimSpace(sections["diagnostics"]), strings.TrimSpace(got)); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}

			want, ok := sections["environments"]
			if !ok {
				return
			}
			if res.Module == nil {
				t.Fatal("no module was desugared")
			}
			var buf bytes.Buffer
			if err := hir.Dump(&buf, res.Builder, res.Module); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, buf.String()); diff != "" {
				t.Errorf("environments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const onceSrc = `fn consume(s: string);
fn main() {
    let s = "x";
    let f = || consume(s);
    f();
    f();
}
`

func TestDiagnoseStages(t *testing.T) {
	path := writeSource(t, t.TempDir(), "once.cap", onceSrc)
	tests := []struct {
		stage      DiagnoseStage
		wantErrors bool
		wantModule bool
	}{
		{DiagnoseStageTokenize, false, false},
		{DiagnoseStageSyntax, false, false},
		{DiagnoseStageSema, true, false},
		{DiagnoseStageAll, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			res, err := Diagnose(context.Background(), path, tt.stage, 10)
			if err != nil {
				t.Fatal(err)
			}
			if res.Bag.HasErrors() != tt.wantErrors {
				t.Errorf("HasErrors = %v, items %+v", res.Bag.HasErrors(), res.Bag.Items())
			}
			if (res.Module != nil) != tt.wantModule {
				t.Errorf("module present = %v", res.Module != nil)
			}
			if tt.stage == DiagnoseStageTokenize && res.Builder != nil {
				t.Errorf("tokenize stage should not parse")
			}
		})
	}
}

func TestDiagnoseMissingFile(t *testing.T) {
	_, err := Diagnose(context.Background(), filepath.Join(t.TempDir(), "absent.cap"), DiagnoseStageAll, 10)
	if err == nil || !strings.Contains(err.Error(), "absent.cap") {
		t.Fatalf("err = %v", err)
	}
}

func TestDiagnoseSyntaxErrorSkipsDesugar(t *testing.T) {
	path := writeSource(t, t.TempDir(), "broken.cap", "fn main() {\n    let f = |x| ;\n}\n")
	res, err := Diagnose(context.Background(), path, DiagnoseStageAll, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected a syntax error")
	}
	if res.Module != nil {
		t.Error("desugaring should be skipped after front-end errors")
	}
}

func TestIgnoreWarningsDropsInfo(t *testing.T) {
	src := `type Verifier;
fn main(verifier: Verifier) {
    let check = |x: int| verifier.verify(x);
    check(1);
}
`
	path := writeSource(t, t.TempDir(), "assumed.cap", src)
	count := func(opts *DiagnoseOptions) int {
		t.Helper()
		res, err := DiagnoseWithOptions(context.Background(), path, opts)
		if err != nil {
			t.Fatal(err)
		}
		n := 0
		for _, d := range res.Bag.Items() {
			if d.Code == diag.SemaReceiverAssumed {
				n++
			}
		}
		return n
	}
	if got := count(&DiagnoseOptions{Stage: DiagnoseStageSema}); got != 1 {
		t.Errorf("receiver assumptions = %d, want 1", got)
	}
	if got := count(&DiagnoseOptions{Stage: DiagnoseStageSema, IgnoreWarnings: true}); got != 0 {
		t.Errorf("IgnoreWarnings kept %d assumptions", got)
	}
}

func TestTimingsAndObserver(t *testing.T) {
	path := writeSource(t, t.TempDir(), "once.cap", onceSrc)
	var (
		mu     sync.Mutex
		events []PhaseEvent
	)
	opts := &DiagnoseOptions{
		Stage:         DiagnoseStageAll,
		EnableTimings: true,
		PhaseObserver: func(ev PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		},
	}
	res, err := DiagnoseWithOptions(context.Background(), path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Timing == nil {
		t.Fatal("timing report missing")
	}
	var names []string
	for _, p := range res.Timing.Phases {
		names = append(names, p.Name)
	}
	want := []string{"tokenize", "parse", "resolve", "analyze", "desugar", "validate"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("phases (-want +got):\n%s", diff)
	}
	if len(events) != 2*len(want) || events[0].Status != PhaseStart || events[1].Status != PhaseEnd {
		t.Errorf("events = %+v", events)
	}

	items := res.Bag.Items()
	last := items[len(items)-1]
	report, ok := TimingReport(&last)
	if !ok || len(report.Phases) != len(want) {
		t.Errorf("timing diagnostic = %+v", last)
	}
}

func TestAnalysisOptionsReachSema(t *testing.T) {
	src := `fn main() {
    let n = 1;
    let f = move || n + 1;
    f();
}
`
	path := writeSource(t, t.TempDir(), "move.cap", src)
	for _, keep := range []bool{false, true} {
		res, err := DiagnoseWithOptions(context.Background(), path, &DiagnoseOptions{
			Stage:    DiagnoseStageAll,
			Analysis: project.Analysis{MoveKeepsTrait: keep},
		})
		if err != nil {
			t.Fatal(err)
		}
		got := res.Analysis.Closures[0].Trait.String()
		want := "FnOnce"
		if keep {
			want = "Fn"
		}
		if got != want {
			t.Errorf("MoveKeepsTrait=%v: trait %s, want %s", keep, got, want)
		}
	}
}

func TestTracingSpans(t *testing.T) {
	path := writeSource(t, t.TempDir(), "once.cap", onceSrc)
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := DiagnoseWithOptions(ctx, path, &DiagnoseOptions{Stage: DiagnoseStageAll}); err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, ev := range ring.Snapshot() {
		seen[ev.Scope.String()+":"+ev.Name] = true
	}
	for _, want := range []string{"pass:parse", "pass:validate", "closure:closure:main#0"} {
		if !seen[want] {
			t.Errorf("missing trace event %s in %v", want, seen)
		}
	}
}
