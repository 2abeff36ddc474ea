package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/source"
)

func resolveSnippet(t *testing.T, src string) (*Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("resolve.cap", []byte(src))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{}, nil)
	parsed := parser.ParseFile(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	if bag.Len() != 0 {
		t.Fatalf("parse diagnostics: %+v", bag.Items())
	}
	return ResolveFile(b, parsed.File, ResolveOptions{Reporter: rep}), bag
}

func freeNames(r *Result, c *Closure) []string {
	names := make([]string, 0, len(c.Free))
	for _, id := range c.Free {
		names = append(names, r.BindingName(id))
	}
	return names
}

func TestResolveClosureFreeVariables(t *testing.T) {
	res, bag := resolveSnippet(t, `
fn main(y: int, z: int) {
    let f = |x| x > y + z;
    let g = || {
        let w = 1;
        let h = move || w + y;
        h
    };
}
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(res.Closures) != 4 {
		t.Fatalf("closures = %d, want 3", len(res.Closures)-1)
	}
	f, g, h := res.Closure(1), res.Closure(2), res.Closure(3)
	if diff := cmp.Diff([]string{"y", "z"}, freeNames(res, f)); diff != "" {
		t.Errorf("f free vars (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"y"}, freeNames(res, g)); diff != "" {
		t.Errorf("g free vars (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w", "y"}, freeNames(res, h)); diff != "" {
		t.Errorf("h free vars (-want +got):\n%s", diff)
	}
	if f.Name != "main#0" || h.Name != "main#2" || h.Parent != g.ID || !h.Move {
		t.Fatalf("bad closure metadata: %+v / %+v", f, h)
	}
	if !f.Holder.IsValid() || res.BindingName(f.Holder) != "f" {
		t.Fatalf("f holder not recorded")
	}
	if res.Binding(f.Holder).Closure != f.ID {
		t.Fatalf("binding does not point back to closure")
	}
}

func TestResolveShadowingCreatesNewBinding(t *testing.T) {
	res, bag := resolveSnippet(t, `
fn main() {
    let x = "a";
    let f = move || x;
    let x = "b";
    x;
}
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	c := res.Closure(1)
	if len(c.Free) != 1 {
		t.Fatalf("free = %v", c.Free)
	}
	captured := c.Free[0]
	var later BindingID
	for expr, bid := range res.Refs {
		if res.BindingName(bid) == "x" && bid != captured && res.Builder().Exprs.Get(expr).Kind == ast.ExprIdent {
			later = bid
		}
	}
	if !later.IsValid() {
		t.Fatalf("second x never referenced as a distinct binding")
	}
}

func TestResolveInfersClosureParamsFromExpectedType(t *testing.T) {
	res, bag := resolveSnippet(t, `
fn apply(f: impl Fn(int) -> bool) -> bool;
fn main() {
    apply(|x| x > 0);
    let g: FnMut(string) = |s| {};
}
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	tests := []struct {
		closure ClosureID
		param   string
		result  string
	}{
		{1, "int", "bool"},
		{2, "string", "()"},
	}
	for _, tt := range tests {
		c := res.Closure(tt.closure)
		if got := res.Types.Format(res.Binding(c.Params[0]).Type); got != tt.param {
			t.Errorf("closure %d param = %s, want %s", tt.closure, got, tt.param)
		}
		if got := res.Types.Format(c.Result); got != tt.result {
			t.Errorf("closure %d result = %s, want %s", tt.closure, got, tt.result)
		}
	}
}

func TestResolveTypeOf(t *testing.T) {
	res, bag := resolveSnippet(t, `
type Verifier { limit: int }
fn Verifier.verify(&self, x: int) -> bool;
fn main(v: Verifier) {
    let a = v.verify(1);
    let b = v.limit + 2;
    let c = &v;
    let d = || "s";
    let e = d();
}
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	want := map[string]string{
		"a": "bool",
		"b": "int",
		"c": "&Verifier",
		"d": "closure main#0",
		"e": "string",
	}
	for i := 1; i < len(res.Bindings); i++ {
		b := &res.Bindings[i]
		name := res.Builder().Name(b.Name)
		if w, ok := want[name]; ok {
			if got := res.Types.Format(b.Type); got != w {
				t.Errorf("type of %s = %s, want %s", name, got, w)
			}
		}
	}
}

func TestResolveReportsErrors(t *testing.T) {
	_, bag := resolveSnippet(t, `
type Counter { n: int }
fn Counter.bump(&mut self);
fn main(c: Counter, r: &Counter) {
    let x = 1;
    x = 2;
    missing;
    c.bump();
    r.n = 3;
    c.nope;
    x();
}
fn dup(a: int, a: int) {}
`)
	got := map[diag.Code]int{}
	for _, d := range bag.Items() {
		got[d.Code]++
	}
	want := map[diag.Code]int{
		diag.SemaAssignImmutable:  3,
		diag.SemaUnresolvedSymbol: 1,
		diag.SemaUnknownField:     1,
		diag.SemaNotCallable:      1,
		diag.SemaDuplicateSymbol:  1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}
