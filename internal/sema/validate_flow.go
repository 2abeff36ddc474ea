package sema

import (
	"fmt"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/source"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// checkFlows checks every position a closure can flow into against the
// type that position declares: typed lets, call arguments and returned
// values. Returned closures are also checked for borrowed captures.
func (s *scope) checkFlows() {
	table := s.v.a.table
	s.b.Inspect(s.body, func(id ast.ExprID) bool {
		expr := s.b.Exprs.Get(id)
		switch expr.Kind {
		case ast.ExprClosure:
			return false
		case ast.ExprBlock:
			data, _ := s.b.Exprs.Block(id)
			for _, st := range data.Stmts {
				let, ok := s.b.Stmts.Let(st)
				if !ok || !let.Type.IsValid() || !let.Value.IsValid() {
					continue
				}
				// already reported while resolving
				s.flow(table.Lower(s.b, let.Type, diag.NopReporter{}), let.Value)
			}
		case ast.ExprCall:
			data, _ := s.b.Exprs.Call(id)
			if info, ok := table.FnInfo(s.v.res.TypeOf(data.Target)); ok {
				s.flowArgs(info.Params, data.Args)
			}
		case ast.ExprMethodCall:
			data, _ := s.b.Exprs.MethodCall(id)
			if sig, ok := table.Method(s.v.res.TypeOf(data.Receiver), data.Name); ok {
				s.flowArgs(sig.Params, data.Args)
			}
		}
		return true
	})
	for _, r := range s.returns {
		s.flow(s.result, r.value)
		s.checkEscape(r)
	}
}

func (s *scope) flowArgs(params []types.TypeID, args []ast.ExprID) {
	for i, arg := range args {
		if i < len(params) {
			s.flow(params[i], arg)
		}
	}
}

// flow checks one value against a required callable type.
func (s *scope) flow(required types.TypeID, value ast.ExprID) {
	table := s.v.a.table
	req, ok := table.Lookup(required)
	if !ok || (req.Kind != types.KindFn && req.Kind != types.KindBound) {
		return
	}
	span := s.b.Exprs.Get(value).Span
	if cid := s.closureOf(value); cid.IsValid() {
		s.flowClosure(required, req, cid, span)
		return
	}
	bid := s.v.res.Ref(s.b.Unparen(value))
	bind := s.v.res.Binding(bid)
	if bind == nil {
		return
	}
	have, ok := table.Lookup(table.Deref(bind.Type))
	if !ok || have.Kind != types.KindBound {
		return
	}
	related := []Related{{Span: bind.Span, Msg: fmt.Sprintf("%q is declared as %s here", s.name(bid), table.Format(bind.Type))}}
	if req.Kind == types.KindFn {
		s.v.report(Violation{
			Kind:    IncompatibleCallTraitAtCallSite,
			Code:    diag.SemaCaptureNotFnPointer,
			Message: fmt.Sprintf("expected %s, found %s", table.Format(required), table.Format(bind.Type)),
			Primary: span,
			Related: related,
			Binding: bid,
		})
		return
	}
	if haveTrait := traitFromBound(have.Bound); !haveTrait.Satisfies(traitFromBound(req.Bound)) {
		s.v.report(Violation{
			Kind:    IncompatibleCallTraitAtCallSite,
			Code:    diag.SemaCaptureIncompatibleTrait,
			Message: fmt.Sprintf("expected %s, found %s", table.Format(required), table.Format(bind.Type)),
			Primary: span,
			Related: related,
			Binding: bid,
		})
	}
}

func (s *scope) flowClosure(required types.TypeID, req types.Type, cid symbols.ClosureID, span source.Span) {
	table := s.v.a.table
	name := s.closureName(cid)
	res := s.v.a.Resolve(cid)
	caps := s.v.a.Captures(cid)
	if req.Kind == types.KindFn {
		if res.CoercibleToFnPtr {
			return
		}
		s.v.report(Violation{
			Kind:    IncompatibleCallTraitAtCallSite,
			Code:    diag.SemaCaptureNotFnPointer,
			Message: fmt.Sprintf("closure %s captures %q and cannot be coerced to %s", name, caps[0].Name, table.Format(required)),
			Primary: span,
			Related: []Related{{Span: caps[0].Span, Msg: fmt.Sprintf("%q is captured here", caps[0].Name)}},
			Closure: cid,
		})
		return
	}
	needed := traitFromBound(req.Bound)
	if res.Trait.Satisfies(needed) {
		return
	}
	var related []Related
	if cv, ok := s.forcing(cid, res.Trait.Mode()); ok {
		why := "mutates"
		switch {
		case res.Trait == TraitFnOnce && s.v.a.Directive(cid) == DirectiveByValue:
			why = "is `move` and owns"
		case res.Trait == TraitFnOnce:
			why = "moves"
		}
		related = append(related, Related{
			Span: cv.Span,
			Msg:  fmt.Sprintf("closure is %s because it %s %q", res.Trait, why, cv.Name),
		})
	}
	s.v.report(Violation{
		Kind:    IncompatibleCallTraitAtCallSite,
		Code:    diag.SemaCaptureIncompatibleTrait,
		Message: fmt.Sprintf("expected a closure implementing %s, but closure %s only implements %s", needed, name, res.Trait),
		Primary: span,
		Related: related,
		Closure: cid,
	})
}

// checkEscape reports a closure returned from its body, a function or an
// enclosing closure, while it still borrows one of that body's bindings.
// The fix is the `move` directive.
func (s *scope) checkEscape(r returned) {
	cid := s.closureOf(r.value)
	c := s.v.res.Closure(cid)
	if c == nil || c.Move {
		return
	}
	for _, cv := range s.v.a.Captures(cid) {
		if cv.Mode == ModeConsume {
			continue
		}
		if !s.owned(cv.Binding) {
			continue
		}
		bind := s.v.res.Binding(cv.Binding)
		data, _ := s.b.Exprs.Closure(c.Expr)
		s.v.report(Violation{
			Kind:    IncompatibleCallTraitAtCallSite,
			Code:    diag.SemaCaptureEscapingBorrow,
			Message: fmt.Sprintf("closure %s may outlive %q, which it borrows", c.Name, cv.Name),
			Primary: cv.Span,
			Related: []Related{
				{Span: r.span, Msg: "closure is returned here"},
				{Span: bind.Span, Msg: fmt.Sprintf("%q is dropped when %s returns", cv.Name, s.bodyName())},
			},
			Binding: cv.Binding,
			Closure: cid,
			Fix:     addMoveFix(data.BarSpan),
		})
		return
	}
}
