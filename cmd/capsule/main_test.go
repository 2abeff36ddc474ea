package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI with args and returns its stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func write(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
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

const counterSrc = `fn main() {
    let mut count = 0;
    let mut inc = |x: int| { count += x; count };
    inc(1);
}
`

const adderSrc = `fn make_adder(x: int) -> impl FnOnce(int) -> int {
    |y| x + y
}
`

func TestDiagShortReportsErrors(t *testing.T) {
	path := write(t, t.TempDir(), "once.cap", onceSrc)
	out, _, err := run(t, "diag", "--format", "short", path)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "error SEM3104") || !strings.Contains(out, "once.cap:6:5") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDiagJSONClean(t *testing.T) {
	path := write(t, t.TempDir(), "counter.cap", counterSrc)
	out, _, err := run(t, "diag", "--format", "json", path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Count     int `json:"count"`
		Semantics struct {
			Closures []struct {
				Name  string `json:"name"`
				Trait string `json:"trait"`
			} `json:"closures"`
		} `json:"semantics"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if doc.Count != 0 || len(doc.Semantics.Closures) != 1 || doc.Semantics.Closures[0].Trait != "FnMut" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestDiagDirectory(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.cap", counterSrc)
	write(t, dir, "b.cap", onceSrc)
	out, _, err := run(t, "diag", "--format", "pretty", "--color", "off", "--jobs", "2", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "== ") || !strings.Contains(out, "SEM3104") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDiagRejectsConflictingFlags(t *testing.T) {
	path := write(t, t.TempDir(), "counter.cap", counterSrc)
	_, _, err := run(t, "diag", "--no-warnings", "--warnings-as-errors", path)
	if err == nil || errors.Is(err, errDiagnostics) {
		t.Errorf("err = %v", err)
	}
}

func TestElabText(t *testing.T) {
	path := write(t, t.TempDir(), "counter.cap", counterSrc)
	out, _, err := run(t, "elab", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"closure main#0: FnMut", "count: int by write", "env __closure_main_0 for main#0: FnMut"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestConfigReachesAnalysis(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "capsule.toml", "[analysis]\nmove_keeps_trait = true\nunknown_knob = 1\n")
	path := write(t, dir, "move.cap", "fn main() {\n    let n = 1;\n    let f = move || n + 1;\n    f();\n}\n")
	out, stderr, err := run(t, "elab", "--format", "json", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"trait": "Fn"`) {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(stderr, "PRJ5002") || !strings.Contains(stderr, "unknown_knob") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestFixAddsMove(t *testing.T) {
	path := write(t, t.TempDir(), "adder.cap", adderSrc)
	out, _, err := run(t, "fix", "--list", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "closure.add-move@") {
		t.Fatalf("list output:\n%s", out)
	}
	if _, _, err := run(t, "fix", "--all", path); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "move |y| x + y") {
		t.Errorf("file after fix:\n%s", got)
	}
	if _, _, err := run(t, "diag", path); err != nil {
		t.Errorf("fixed file still fails: %v", err)
	}
}

func TestInitWritesProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	out, _, err := run(t, "init", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "capsule.toml") {
		t.Errorf("output = %q", out)
	}
	if _, _, err := run(t, "diag", filepath.Join(dir, "main.cap")); err != nil {
		t.Errorf("generated main.cap does not elaborate cleanly: %v", err)
	}
	if _, _, err := run(t, "init", dir); err == nil {
		t.Error("second init should fail")
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := run(t, "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "capsule" || payload.GitCommit == "" {
		t.Errorf("payload = %+v", payload)
	}
}
