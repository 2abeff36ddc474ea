package sema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/lexer"
	"capsule/internal/parser"
	"capsule/internal/source"
	"capsule/internal/symbols"
)

type checked struct {
	fs  *source.FileSet
	sym *symbols.Result
	res *Result
	bag *diag.Bag
}

func resolve(t *testing.T, src string) (*source.FileSet, *symbols.Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("check.cap", []byte(src))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(ast.Hints{}, nil)
	parsed := parser.ParseFile(lexer.New(fs.Get(id), lexer.Options{Reporter: rep}), b, parser.Options{Reporter: rep})
	sym := symbols.ResolveFile(b, parsed.File, symbols.ResolveOptions{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("front-end diagnostics: %+v", bag.Items())
	}
	return fs, sym, bag
}

func check(t *testing.T, src string, opts Options) checked {
	t.Helper()
	fs, sym, bag := resolve(t, src)
	opts.Reporter = diag.BagReporter{Bag: bag}
	return checked{fs: fs, sym: sym, res: Check(sym, opts), bag: bag}
}

func (c checked) closure(t *testing.T, name string) *ClosureInfo {
	t.Helper()
	for i := range c.res.Closures {
		if c.res.Closures[i].Name == name {
			return &c.res.Closures[i]
		}
	}
	t.Fatalf("closure %s not found", name)
	return nil
}

func modes(info *ClosureInfo) map[string]Mode {
	out := make(map[string]Mode, len(info.Captures))
	for _, cv := range info.Captures {
		out[cv.Name] = cv.Mode
	}
	return out
}

func (c checked) kinds() []ViolationKind {
	out := make([]ViolationKind, 0, len(c.res.Violations))
	for _, v := range c.res.Violations {
		out = append(out, v.Kind)
	}
	return out
}

func (c checked) codes() []diag.Code {
	out := make([]diag.Code, 0, len(c.res.Violations))
	for _, v := range c.res.Violations {
		out = append(out, v.Code)
	}
	return out
}

// at returns the text and line of a violation's primary span.
func (c checked) at(v Violation) (string, uint32) {
	start, _ := c.fs.Resolve(v.Primary)
	return c.fs.Text(v.Primary), start.Line
}

func TestScenarioNoCaptures(t *testing.T) {
	c := check(t, `
fn main() {
    let f = |x: int| x > 0;
    let p: fn(int) -> bool = |x| x > 0;
    f(1);
    f(2);
}
`, Options{})
	for _, name := range []string{"main#0", "main#1"} {
		info := c.closure(t, name)
		if len(info.Captures) != 0 || info.Trait != TraitFn || !info.CoercibleToFnPtr {
			t.Fatalf("%s: %+v", name, info)
		}
	}
	if len(c.res.Violations) != 0 {
		t.Fatalf("violations: %+v", c.res.Violations)
	}
}

func TestScenarioCopyReads(t *testing.T) {
	c := check(t, `
fn main(y: int, z: int) {
    let f = |x: int| x > y + z;
    f(1);
    f(2);
}
`, Options{})
	info := c.closure(t, "main#0")
	want := map[string]Mode{"y": ModeRead, "z": ModeRead}
	if diff := cmp.Diff(want, modes(info)); diff != "" {
		t.Fatalf("captures (-want +got):\n%s", diff)
	}
	if info.Trait != TraitFn || info.CoercibleToFnPtr {
		t.Fatalf("trait = %v coercible = %v", info.Trait, info.CoercibleToFnPtr)
	}
	if len(c.res.Violations) != 0 {
		t.Fatalf("violations: %+v", c.res.Violations)
	}
}

func TestScenarioReceiverKinds(t *testing.T) {
	const decls = `
type Verifier;
fn Verifier.verify(&self, x: int) -> bool;
fn Verifier.tune(&mut self, x: int) -> bool;
fn Verifier.finish(self, x: int) -> bool;
`
	tests := []struct {
		name      string
		method    string
		mode      Mode
		trait     CallTrait
		violation []ViolationKind
	}{
		{"shared receiver", "verify", ModeRead, TraitFn, []ViolationKind{}},
		{"exclusive receiver", "tune", ModeWrite, TraitFnMut, []ViolationKind{}},
		{"owned receiver", "finish", ModeConsume, TraitFnOnce, []ViolationKind{UseAfterMove}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := decls + `
fn main(mut verifier: Verifier) {
    let check = |x: int| verifier.` + tt.method + `(x);
    check(1);
    verifier.verify(2);
}
`
			c := check(t, src, Options{})
			info := c.closure(t, "main#0")
			if got := modes(info)["verifier"]; got != tt.mode {
				t.Fatalf("mode = %v, want %v", got, tt.mode)
			}
			if info.Trait != tt.trait {
				t.Fatalf("trait = %v, want %v", info.Trait, tt.trait)
			}
			if diff := cmp.Diff(tt.violation, c.kinds()); diff != "" {
				t.Fatalf("violations (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUndeclaredReceiverIsAssumedShared(t *testing.T) {
	c := check(t, `
type Verifier;
fn main(verifier: Verifier) {
    let check = |x: int| verifier.verify(x);
    check(1);
}
`, Options{})
	if got := modes(c.closure(t, "main#0"))["verifier"]; got != ModeRead {
		t.Fatalf("mode = %v, want read", got)
	}
	var infos int
	for _, d := range c.bag.Items() {
		if d.Code == diag.SemaReceiverAssumed && d.Severity == diag.SevInfo {
			infos++
		}
	}
	if infos != 1 {
		t.Fatalf("receiver assumptions reported = %d, want 1", infos)
	}
}

func TestScenarioMoveThenUse(t *testing.T) {
	c := check(t, `
fn consume(s: string);
fn main() {
    let x = "hello";
    let f = move || x;
    consume(x);
    f();
}
`, Options{})
	if got := modes(c.closure(t, "main#0"))["x"]; got != ModeConsume {
		t.Fatalf("mode = %v, want consume", got)
	}
	if diff := cmp.Diff([]ViolationKind{UseAfterMove}, c.kinds()); diff != "" {
		t.Fatalf("violations (-want +got):\n%s", diff)
	}
	v := c.res.Violations[0]
	if text, line := c.at(v); text != "x" || line != 6 {
		t.Fatalf("primary at %q line %d, want x on line 6", text, line)
	}
	if !strings.Contains(v.Message, "moved into closure main#0") {
		t.Fatalf("message = %q", v.Message)
	}
}

func TestMoveOfCopyValueIsNotAMove(t *testing.T) {
	c := check(t, `
fn main() {
    let n = 5;
    let f = move || n > 0;
    let m = n;
    f();
}
`, Options{})
	if len(c.res.Violations) != 0 {
		t.Fatalf("violations: %+v", c.res.Violations)
	}
}

func TestReassignmentRevivesBinding(t *testing.T) {
	c := check(t, `
fn consume(s: string);
fn main() {
    let mut s = "a";
    let f = move || s;
    s = "b";
    consume(s);
    f();
}
`, Options{})
	if len(c.res.Violations) != 0 {
		t.Fatalf("violations: %+v", c.res.Violations)
	}
}

func TestScenarioEscapingBorrow(t *testing.T) {
	src := `
fn make_adder(x: int) -> impl FnOnce(int) -> int {
    |y| x + y
}
`
	c := check(t, src, Options{})
	if c.closure(t, "make_adder#0").Trait != TraitFn {
		t.Fatalf("unfixed closure should be Fn")
	}
	if diff := cmp.Diff([]diag.Code{diag.SemaCaptureEscapingBorrow}, c.codes()); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	v := c.res.Violations[0]
	if v.Kind != IncompatibleCallTraitAtCallSite || v.Fix == nil || len(v.Fix.Edits) != 1 {
		t.Fatalf("bad violation: %+v", v)
	}
	edit := v.Fix.Edits[0]
	fixed := src[:edit.Span.Start] + edit.NewText + src[edit.Span.End:]
	if !strings.Contains(fixed, "move |y| x + y") {
		t.Fatalf("fix produced %q", fixed)
	}

	after := check(t, fixed, Options{})
	if len(after.res.Violations) != 0 {
		t.Fatalf("violations after fix: %+v", after.res.Violations)
	}
	info := after.closure(t, "make_adder#0")
	if info.Trait != TraitFnOnce || modes(info)["x"] != ModeConsume || info.Directive != DirectiveByValue {
		t.Fatalf("fixed closure: %+v", info)
	}
}

func TestWriteCaptureIsFnMut(t *testing.T) {
	c := check(t, `
fn main() {
    let mut count = 0;
    let mut inc = || count += 1;
    inc();
    inc();
    count = 10;
}
`, Options{})
	info := c.closure(t, "main#0")
	if info.Trait != TraitFnMut || modes(info)["count"] != ModeWrite {
		t.Fatalf("info: %+v", info)
	}
	if len(c.res.Violations) != 0 {
		t.Fatalf("violations: %+v", c.res.Violations)
	}
}

func TestConsumeCaptureIsFnOnceAndSingleCall(t *testing.T) {
	c := check(t, `
fn consume(s: string);
fn main() {
    let s = "x";
    let f = || consume(s);
    f();
    f();
}
`, Options{})
	info := c.closure(t, "main#0")
	if info.Trait != TraitFnOnce || modes(info)["s"] != ModeConsume {
		t.Fatalf("info: %+v", info)
	}
	if diff := cmp.Diff([]ViolationKind{DoubleInvocationOfOnce}, c.kinds()); diff != "" {
		t.Fatalf("violations (-want +got):\n%s", diff)
	}
	if _, line := c.at(c.res.Violations[0]); line != 7 {
		t.Fatalf("second call reported on line %d", line)
	}
}

func TestOnceBoundParameterCalledTwice(t *testing.T) {
	c := check(t, `
fn twice(f: impl FnOnce() -> int) -> int {
    f() + f()
}
`, Options{})
	if diff := cmp.Diff([]diag.Code{diag.SemaCaptureDoubleCallOnce}, c.codes()); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestAliasingConflicts(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		strict bool
		want   []diag.Code
	}{
		{
			name: "direct write while mutable capture is live",
			body: `
    let mut inc = || count += 1;
    count = 5;
    inc();`,
			want: []diag.Code{diag.SemaCaptureAliasing},
		},
		{
			name: "write after last use",
			body: `
    let mut inc = || count += 1;
    inc();
    count = 5;`,
			want: []diag.Code{},
		},
		{
			name: "two mutable captures",
			body: `
    let mut a = || count += 1;
    let mut b = || count += 2;
    a();
    b();`,
			want: []diag.Code{diag.SemaCaptureAliasing},
		},
		{
			name: "read while mutable capture is live",
			body: `
    let mut inc = || count += 1;
    let snapshot = count;
    inc();`,
			want: []diag.Code{},
		},
		{
			name: "read while mutable capture is live, strict",
			body: `
    let mut inc = || count += 1;
    let snapshot = count;
    inc();`,
			strict: true,
			want:   []diag.Code{diag.SemaCaptureAliasing},
		},
		{
			name: "liveness through a capturing closure",
			body: `
    let mut inc = || count += 1;
    let mut twice = || { inc(); inc(); };
    count = 1;
    twice();`,
			want: []diag.Code{diag.SemaCaptureAliasing},
		},
		{
			name: "reentrant call",
			body: `
    let mut add = |x: int| { count += x; count };
    add(add(1));`,
			want: []diag.Code{diag.SemaCaptureReentrantCall},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "fn main() {\n    let mut count = 0;" + tt.body + "\n}\n"
			c := check(t, src, Options{StrictAliasing: tt.strict})
			if diff := cmp.Diff(tt.want, c.codes()); diff != "" {
				t.Fatalf("codes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIncompatibleCallSites(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Code
	}{
		{
			name: "capturing closure as fn pointer",
			src: `
fn apply(f: fn(int) -> bool, x: int) -> bool;
fn main(limit: int) {
    apply(|x| x > limit, 3);
    apply(|x| x > 0, 3);
}`,
			want: []diag.Code{diag.SemaCaptureNotFnPointer},
		},
		{
			name: "FnMut closure where Fn is required",
			src: `
fn run(f: impl Fn());
fn main() {
    let mut n = 0;
    run(|| n += 1);
}`,
			want: []diag.Code{diag.SemaCaptureIncompatibleTrait},
		},
		{
			name: "typed let",
			src: `
fn main() {
    let mut n = 0;
    let f: FnMut() = || n += 1;
    let g: Fn() -> int = move || n;
}`,
			want: []diag.Code{diag.SemaCaptureIncompatibleTrait},
		},
		{
			name: "bound parameter forwarded",
			src: `
fn run(f: impl Fn());
fn relay(g: impl FnMut()) {
    run(g);
}`,
			want: []diag.Code{diag.SemaCaptureIncompatibleTrait},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := check(t, tt.src, Options{})
			if diff := cmp.Diff(tt.want, c.codes()); diff != "" {
				t.Fatalf("codes (-want +got):\n%s", diff)
			}
			for _, v := range c.res.Violations {
				if v.Kind != IncompatibleCallTraitAtCallSite {
					t.Fatalf("kind = %v", v.Kind)
				}
			}
		})
	}
}

func TestMoveKeepsTrait(t *testing.T) {
	src := `
fn main() {
    let n = 1;
    let f = move || n > 0;
}
`
	if got := check(t, src, Options{}).closure(t, "main#0").Trait; got != TraitFnOnce {
		t.Fatalf("default trait = %v, want FnOnce", got)
	}
	c := check(t, src, Options{MoveKeepsTrait: true})
	info := c.closure(t, "main#0")
	if info.Trait != TraitFn || info.Captures[0].Mode != ModeConsume {
		t.Fatalf("with move_keeps_trait: %+v", info)
	}
}

func TestNestedClosuresPropagateCaptures(t *testing.T) {
	c := check(t, `
fn consume(s: string);
fn main() {
    let mut c = 0;
    let s = "a";
    let outer = || {
        let mut inner = || c += 1;
        inner();
        let f = || consume(s);
        let g = || f();
        g();
    };
    let after = || f2();
    f2();
}
fn f2() {}
`, Options{})
	outer := c.closure(t, "main#0")
	want := map[string]Mode{"c": ModeWrite, "s": ModeConsume}
	if diff := cmp.Diff(want, modes(outer)); diff != "" {
		t.Fatalf("outer captures (-want +got):\n%s", diff)
	}
	if outer.Trait != TraitFnOnce {
		t.Fatalf("outer trait = %v", outer.Trait)
	}
	g := c.closure(t, "main#3")
	if diff := cmp.Diff(map[string]Mode{"f": ModeConsume}, modes(g)); diff != "" {
		t.Fatalf("g captures (-want +got):\n%s", diff)
	}
	if after := c.closure(t, "main#4"); len(after.Captures) != 0 || !after.CoercibleToFnPtr {
		t.Fatalf("functions are not captured: %+v", after)
	}
}

func TestCalledAfterMovedIntoClosure(t *testing.T) {
	c := check(t, `
fn consume(s: string);
fn main() {
    let s = "a";
    let f = || consume(s);
    let g = || f();
    g();
    f();
}
`, Options{})
	if diff := cmp.Diff([]ViolationKind{UseAfterMove}, c.kinds()); diff != "" {
		t.Fatalf("violations (-want +got):\n%s", diff)
	}
	if text, _ := c.at(c.res.Violations[0]); text != "f" {
		t.Fatalf("primary = %q", text)
	}
}

func TestAnalysisIsIdempotent(t *testing.T) {
	src := `
type Verifier;
fn Verifier.verify(&self, x: int) -> bool;
fn consume(s: string);
fn main(v: Verifier, y: int) {
    let mut n = 0;
    let s = "a";
    let a = |x: int| v.verify(x) && x > y;
    let mut b = || n += y;
    let c = move || consume(s);
}
`
	_, sym, _ := resolve(t, src)
	first := Analyze(sym, Options{})
	second := Analyze(sym, Options{})
	if diff := cmp.Diff(first.Closures, second.Closures); diff != "" {
		t.Fatalf("re-analysis differs (-first +second):\n%s", diff)
	}
	a := first.Analyzer()
	for _, info := range first.Closures {
		if diff := cmp.Diff(a.Captures(info.ID), a.Captures(info.ID)); diff != "" {
			t.Fatalf("Captures(%s) not stable:\n%s", info.Name, diff)
		}
		if a.Resolve(info.ID) != a.Resolve(info.ID) {
			t.Fatalf("Resolve(%s) not stable", info.Name)
		}
	}
}

func TestResolverOrder(t *testing.T) {
	r := Resolver{}
	tests := []struct {
		modes []Mode
		want  CallTrait
	}{
		{nil, TraitFn},
		{[]Mode{ModeRead, ModeRead}, TraitFn},
		{[]Mode{ModeRead, ModeWrite}, TraitFnMut},
		{[]Mode{ModeWrite, ModeConsume, ModeRead}, TraitFnOnce},
	}
	for _, tt := range tests {
		caps := make([]CapturedVariable, 0, len(tt.modes))
		for _, m := range tt.modes {
			caps = append(caps, CapturedVariable{Mode: m, Inferred: m})
		}
		got := r.Resolve(caps)
		if got.Trait != tt.want || got.CoercibleToFnPtr != (len(caps) == 0) {
			t.Errorf("Resolve(%v) = %+v, want %v", tt.modes, got, tt.want)
		}
	}
	if !TraitFn.Satisfies(TraitFnOnce) || TraitFnOnce.Satisfies(TraitFnMut) || !TraitFnMut.Satisfies(TraitFnMut) {
		t.Fatal("Satisfies does not follow Fn ⊆ FnMut ⊆ FnOnce")
	}
}

func TestConflictsInsideClosureBodies(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    []diag.Code
		primary string
		line    uint32
	}{
		{
			name: "once closure called twice by another closure",
			src: `
fn consume(s: string);
fn main() {
    let s = "a";
    let f = move || consume(s);
    let g = || { f(); f(); };
    g();
}
`,
			want:    []diag.Code{diag.SemaCaptureDoubleCallOnce},
			primary: "f",
			line:    6,
		},
		{
			name: "captured value consumed twice in the body",
			src: `
fn consume(s: string);
fn main() {
    let s = "a";
    let g = || { consume(s); consume(s); };
    g();
}
`,
			want:    []diag.Code{diag.SemaCaptureUseAfterMove},
			primary: "s",
			line:    5,
		},
		{
			name: "two mutable captures live inside a closure",
			src: `
fn main() {
    let mut n = 0;
    let mut outer = || {
        let mut a = || n += 1;
        let mut b = || n += 1;
        a();
        b();
    };
    outer();
}
`,
			want:    []diag.Code{diag.SemaCaptureAliasing},
			primary: "n",
			line:    6,
		},
		{
			name: "closure returned from a closure borrows its local",
			src: `
fn main() {
    let make = |n: int| {
        let k = n;
        |y: int| k + y
    };
    let add = make(1);
    add(2);
}
`,
			want:    []diag.Code{diag.SemaCaptureEscapingBorrow},
			primary: "k",
			line:    5,
		},
		{
			name: "returned closure only borrows from the function",
			src: `
fn main() {
    let base = 1;
    let make = || {
        |y: int| base + y
    };
    let add = make();
    add(2);
}
`,
			want: []diag.Code{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := check(t, tt.src, Options{})
			if diff := cmp.Diff(tt.want, c.codes()); diff != "" {
				t.Fatalf("codes (-want +got):\n%s", diff)
			}
			if len(tt.want) == 0 {
				return
			}
			text, line := c.at(c.res.Violations[0])
			if text != tt.primary || line != tt.line {
				t.Errorf("primary = %q on line %d, want %q on line %d", text, line, tt.primary, tt.line)
			}
		})
	}
}
