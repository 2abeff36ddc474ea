package hir

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/sema"
	"capsule/internal/source"
	"capsule/internal/symbols"
)

type desugared struct {
	b   *ast.Builder
	sym *symbols.Result
	an  *sema.Result
	mod *Module
}

func desugar(t *testing.T, src string) desugared {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("desugar.cap", []byte(src))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{}, nil)
	parsed := parser.ParseFile(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	sym := symbols.ResolveFile(b, parsed.File, symbols.ResolveOptions{Reporter: rep})
	an := sema.Analyze(sym, sema.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	return desugared{b: b, sym: sym, an: an, mod: Desugar(b, sym, an)}
}

func (d desugared) env(t *testing.T, closure string) *Environment {
	t.Helper()
	for i := range d.mod.Environments {
		env := &d.mod.Environments[i]
		if d.sym.Closure(env.Closure).Name == closure {
			return env
		}
	}
	t.Fatalf("no environment for %s", closure)
	return nil
}

func (d desugared) dump(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Dump(&buf, d.b, d.mod); err != nil {
		t.Fatalf("dump: %v", err)
	}
	return buf.String()
}

func TestDesugarMutableCapture(t *testing.T) {
	d := desugar(t, `
fn main() {
    let mut count = 0;
    let mut inc = |x: int| { count += x; count };
    inc(1);
}
`)
	want := `env __closure_main_0 for main#0: FnMut
  count: &mut int
  fn call_mut(&mut self, x: int) -> int {
    *self.count += x;
    *self.count
  }
  ctor __closure_main_0 { count: &mut count }
`
	if diff := cmp.Diff(want, d.dump(t)); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestDesugarOwnedAndSharedFields(t *testing.T) {
	d := desugar(t, `
fn consume(s: string) {}
fn main() {
    let s = "a";
    let n = 1;
    let f = || { consume(s); n };
    f();
}
`)
	env := d.env(t, "main#0")
	p := NewPrinter(nil, d.b, d.sym)

	got := make(map[string]Ownership, len(env.Fields))
	for _, f := range env.Fields {
		got[f.Name] = f.Ownership
	}
	if diff := cmp.Diff(map[string]Ownership{"s": Owned, "n": SharedRef}, got); diff != "" {
		t.Errorf("ownership mismatch (-want +got):\n%s", diff)
	}
	if sig := p.Signature(env); sig != "fn call_once(self) -> int" {
		t.Errorf("signature = %q", sig)
	}
	wantBody := "{\n  consume(self.s);\n  *self.n\n}"
	if body := p.Body(env.Method.Body, 0); body != wantBody {
		t.Errorf("body = %q, want %q", body, wantBody)
	}
	if ctor := p.Expr(env.Ctor); ctor != "__closure_main_0 { s: s, n: &n }" {
		t.Errorf("ctor = %q", ctor)
	}
	f, ok := env.FieldByName("n")
	if !ok || d.sym.Types.Format(f.Type) != "&int" || d.sym.Types.Format(f.ValueType) != "int" {
		t.Errorf("field n = %+v", f)
	}
}

func TestDesugarWithoutCaptures(t *testing.T) {
	d := desugar(t, `
fn main() {
    let p = |x: int| x + 1;
    p(2);
}
`)
	want := `env __closure_main_0 for main#0: Fn
  // no captures, coercible to fn pointer
  fn call(&self, x: int) -> int { x + 1 }
  ctor __closure_main_0 {}
`
	if diff := cmp.Diff(want, d.dump(t)); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestDesugarMethodReceiverKeepsPlace(t *testing.T) {
	d := desugar(t, `
type Verifier { limit: int }
fn Verifier.verify(&self, x: int) -> bool;
fn Verifier.tune(&mut self, x: int);
fn main(mut v: Verifier) {
    let mut check = |x: int| { v.tune(x); v.verify(x) && x > v.limit };
    check(1);
}
`)
	env := d.env(t, "main#0")
	p := NewPrinter(nil, d.b, d.sym)
	if env.Trait != sema.TraitFnMut || env.Method.Name != "call_mut" || env.Method.Receiver != ast.SelfMutRef {
		t.Fatalf("method = %+v, trait %s", env.Method, env.Trait)
	}
	wantBody := "{\n  self.v.tune(x);\n  self.v.verify(x) && x > self.v.limit\n}"
	if body := p.Body(env.Method.Body, 0); body != wantBody {
		t.Errorf("body = %q, want %q", body, wantBody)
	}
	if sig := p.Signature(env); sig != "fn call_mut(&mut self, x: int) -> bool" {
		t.Errorf("signature = %q", sig)
	}
}

func TestDesugarNestedClosureReborrows(t *testing.T) {
	d := desugar(t, `
fn main() {
    let mut c = 0;
    let mut outer = || {
        let mut inner = || c += 1;
        inner();
    };
    outer();
}
`)
	want := `env __closure_main_0 for main#0: FnMut
  c: &mut int
  fn call_mut(&mut self) {
    let mut inner = __closure_main_1 { c: &mut *self.c };
    inner();
  }
  ctor __closure_main_0 { c: &mut c }

env __closure_main_1 for main#1: FnMut
  c: &mut int
  fn call_mut(&mut self) { *self.c += 1 }
  ctor __closure_main_1 { c: &mut *self.c }
`
	if diff := cmp.Diff(want, d.dump(t)); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
	if len(d.mod.Replacements) != 2 {
		t.Fatalf("replacements = %d, want 2", len(d.mod.Replacements))
	}
	for _, env := range d.mod.Environments {
		c := d.sym.Closure(env.Closure)
		if d.mod.Replacements[c.Expr] != env.Ctor {
			t.Errorf("%s: replacement does not point at the constructor", c.Name)
		}
	}
}

func TestDesugarMoveOwnsEverything(t *testing.T) {
	d := desugar(t, `
fn main() {
    let n = 1;
    let f = move || n + 1;
    f();
}
`)
	want := `env __closure_main_0 for main#0: FnOnce
  n: int
  fn call_once(self) -> int { self.n + 1 }
  ctor __closure_main_0 { n: n }
`
	if diff := cmp.Diff(want, d.dump(t)); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentNames(t *testing.T) {
	tests := []struct {
		closure string
		want    string
	}{
		{"main#0", "__closure_main_0"},
		{"Point.get#12", "__closure_Point_get_12"},
	}
	for _, tt := range tests {
		if got := EnvironmentName(tt.closure); got != tt.want {
			t.Errorf("EnvironmentName(%q) = %q, want %q", tt.closure, got, tt.want)
		}
	}
}

func TestDesugarIsRepeatable(t *testing.T) {
	d := desugar(t, `
fn consume(s: string) {}
fn main() {
    let s = "a";
    let mut n = 0;
    let mut f = |k: int| { n += k; consume(s); };
    f(1);
}
`)
	first := d.dump(t)
	again := Desugar(d.b, d.sym, d.an)
	var buf bytes.Buffer
	if err := Dump(&buf, d.b, again); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, buf.String()); diff != "" {
		t.Errorf("second desugaring differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(d.mod.View(d.b), again.View(d.b)); diff != "" {
		t.Errorf("views differ (-first +second):\n%s", diff)
	}
}
