package sema

import (
	"fmt"

	"capsule/internal/diag"
	"capsule/internal/fix"
	"capsule/internal/source"
	"capsule/internal/symbols"
)

// ViolationKind is the closed taxonomy of capture validation failures.
type ViolationKind uint8

const (
	UseAfterMove ViolationKind = iota
	AliasingConflict
	DoubleInvocationOfOnce
	IncompatibleCallTraitAtCallSite
)

func (k ViolationKind) String() string {
	switch k {
	case UseAfterMove:
		return "UseAfterMove"
	case AliasingConflict:
		return "AliasingConflict"
	case DoubleInvocationOfOnce:
		return "DoubleInvocationOfOnce"
	case IncompatibleCallTraitAtCallSite:
		return "IncompatibleCallTraitAtCallSite"
	}
	return fmt.Sprintf("ViolationKind(%d)", k)
}

// Related is a secondary location of a violation.
type Related struct {
	Span source.Span
	Msg  string
}

// Violation is a validation failure. It is produced once and never
// mutated.
type Violation struct {
	Kind    ViolationKind
	Code    diag.Code
	Message string
	Primary source.Span
	Related []Related
	Binding symbols.BindingID
	Closure symbols.ClosureID
	Fix     *diag.Fix
}

// Diagnostic converts the violation into the shared diagnostic model.
func (v Violation) Diagnostic() diag.Diagnostic {
	d := diag.NewError(v.Code, v.Primary, v.Message)
	for _, r := range v.Related {
		d = d.WithNote(r.Span, r.Msg)
	}
	if v.Fix != nil {
		d = d.WithFixSuggestion(*v.Fix)
	}
	return d
}

// Report emits the violation through a reporter.
func (v Violation) Report(r diag.Reporter) {
	if r == nil {
		return
	}
	d := v.Diagnostic()
	r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes, d.Fixes)
}

// addMoveFix suggests the `move` directive in front of a closure's bars.
func addMoveFix(bar source.Span) *diag.Fix {
	f := fix.AddMove(bar)
	return &f
}
