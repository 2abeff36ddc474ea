package types

import (
	"testing"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.String == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
}

func TestReferenceMutabilityAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	mut := in.Intern(MakeReference(elem, true))
	imm := in.Intern(MakeReference(elem, false))
	if mut == imm {
		t.Fatalf("mutable and immutable references must differ")
	}
	if again := in.Intern(MakeReference(elem, true)); again != mut {
		t.Fatalf("reference types should be deduplicated")
	}
}

func TestSignaturesAreStructural(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	f1 := in.RegisterFn([]TypeID{b.Int}, b.Bool)
	f2 := in.RegisterFn([]TypeID{b.Int}, b.Bool)
	if f1 != f2 {
		t.Fatalf("fn types should be deduplicated")
	}
	fnBound := in.RegisterBound(BoundFn, []TypeID{b.Int}, b.Bool)
	onceBound := in.RegisterBound(BoundFnOnce, []TypeID{b.Int}, b.Bool)
	if fnBound == onceBound || fnBound == f1 {
		t.Fatalf("bounds must differ by kind")
	}
	info, ok := in.FnInfo(onceBound)
	if !ok || info.Result != b.Bool || len(info.Params) != 1 {
		t.Fatalf("bad fn info: %+v", info)
	}
}

func TestClosureTypesAreUnique(t *testing.T) {
	in := NewInterner()
	a := in.RegisterClosure("main#0", 1)
	b := in.RegisterClosure("main#1", 2)
	if a == b {
		t.Fatalf("closure types must be distinct")
	}
	info, ok := in.ClosureInfo(b)
	if !ok || info.Index != 2 || info.Name != "main#1" {
		t.Fatalf("bad closure info: %+v", info)
	}
}

func collect(t *testing.T, src string) (*Table, *ast.Builder, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("types.cap", []byte(src))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	return Collect(b, res.File, rep), b, bag
}

func TestCollectDeclarations(t *testing.T) {
	table, b, bag := collect(t, `
copy type Point { x: int, y: int }
type Verifier { name: string }
fn Verifier.verify(&self, x: int) -> bool;
fn Verifier.reset(&mut self);
fn Verifier.finish(self) -> string;
fn apply(f: impl FnMut(int) -> int, g: fn(int) -> bool, r: &mut Point);
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	point, ok := table.Named(b.Strings.Intern("Point"))
	if !ok || !table.IsCopy(point) {
		t.Fatalf("Point should be a copy type")
	}
	verifier, _ := table.Named(b.Strings.Intern("Verifier"))
	if table.IsCopy(verifier) {
		t.Fatalf("Verifier must not be copy")
	}
	if ft, ok := table.Field(verifier, b.Strings.Intern("name")); !ok || ft != table.Builtins().String {
		t.Fatalf("field lookup failed")
	}
	for name, want := range map[string]ast.SelfKind{
		"verify": ast.SelfRef,
		"reset":  ast.SelfMutRef,
		"finish": ast.SelfValue,
	} {
		sig, ok := table.Method(table.Intern(MakeReference(verifier, false)), b.Strings.Intern(name))
		if !ok || sig.Self != want || !sig.External {
			t.Fatalf("method %s: got %+v", name, sig)
		}
	}
	apply, ok := table.Func(b.Strings.Intern("apply"))
	if !ok || len(apply.Params) != 3 {
		t.Fatalf("apply not collected")
	}
	tests := []struct {
		param  int
		format string
		copy   bool
	}{
		{0, "FnMut(int) -> int", false},
		{1, "fn(int) -> bool", true},
		{2, "&mut Point", false},
	}
	for _, tt := range tests {
		id := apply.Params[tt.param]
		if got := table.Format(id); got != tt.format {
			t.Errorf("param %d: format %q, want %q", tt.param, got, tt.format)
		}
		if got := table.IsCopy(id); got != tt.copy {
			t.Errorf("param %d: IsCopy = %v, want %v", tt.param, got, tt.copy)
		}
	}
	if kind, ok := table.BoundOf(apply.Params[0]); !ok || kind != BoundFnMut {
		t.Fatalf("BoundOf = %v, %v", kind, ok)
	}
}

func TestCollectReportsUnknownAndDuplicate(t *testing.T) {
	_, _, bag := collect(t, `
fn f(x: Missing);
fn f();
fn Ghost.m(&self);
`)
	codes := map[diag.Code]int{}
	for _, d := range bag.Items() {
		codes[d.Code]++
	}
	if codes[diag.SemaUnknownType] != 2 || codes[diag.SemaDuplicateSymbol] != 1 {
		t.Fatalf("codes = %v", codes)
	}
}
