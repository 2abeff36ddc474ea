package sema

import (
	"fmt"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/symbols"
)

// Options configure the elaboration checks over one file.
type Options struct {
	Reporter       diag.Reporter
	MoveKeepsTrait bool
	StrictAliasing bool
}

// ClosureInfo is the analysis outcome for one closure literal.
type ClosureInfo struct {
	ID               symbols.ClosureID
	Name             string
	Expr             ast.ExprID
	Params           []symbols.BindingID
	Directive        Directive
	Captures         []CapturedVariable
	Trait            CallTrait
	CoercibleToFnPtr bool
}

// Result stores the closures of a file with their captures and traits,
// plus the violations once validated.
type Result struct {
	Symbols    *symbols.Result
	Closures   []ClosureInfo
	Violations []Violation

	analyzer *Analyzer
	byID     map[symbols.ClosureID]int
}

// Analyze runs capture analysis and trait resolution for every closure in
// source order. Undeclared method receivers are reported as assumptions.
func Analyze(res *symbols.Result, opts Options) *Result {
	a := NewAnalyzer(res, Resolver{MoveKeepsTrait: opts.MoveKeepsTrait})
	out := &Result{
		Symbols:  res,
		analyzer: a,
		byID:     make(map[symbols.ClosureID]int),
	}
	for _, cid := range res.ClosureIDs() {
		c := res.Closure(cid)
		resolution := a.Resolve(cid)
		out.byID[cid] = len(out.Closures)
		out.Closures = append(out.Closures, ClosureInfo{
			ID:               cid,
			Name:             c.Name,
			Expr:             c.Expr,
			Params:           c.Params,
			Directive:        a.Directive(cid),
			Captures:         a.Captures(cid),
			Trait:            resolution.Trait,
			CoercibleToFnPtr: resolution.CoercibleToFnPtr,
		})
		for _, as := range a.assumptions[cid] {
			name := res.BindingName(as.binding)
			diag.ReportInfo(opts.Reporter, diag.SemaReceiverAssumed, as.call,
				fmt.Sprintf("receiver of %q is not declared; assuming `&self`, so %s reads %q", as.method, c.Name, name)).
				Emit()
		}
	}
	return out
}

// Validate runs the capture validator and reports every violation.
func (r *Result) Validate(opts Options) []Violation {
	r.Violations = NewValidator(r.analyzer, opts.StrictAliasing).Validate()
	for _, v := range r.Violations {
		v.Report(opts.Reporter)
	}
	return r.Violations
}

// Check analyzes and validates in one step.
func Check(res *symbols.Result, opts Options) *Result {
	r := Analyze(res, opts)
	r.Validate(opts)
	return r
}

// Closure looks up the info of one closure.
func (r *Result) Closure(id symbols.ClosureID) *ClosureInfo {
	i, ok := r.byID[id]
	if !ok {
		return nil
	}
	return &r.Closures[i]
}

// Analyzer exposes the analyzer the result was computed with.
func (r *Result) Analyzer() *Analyzer { return r.analyzer }
