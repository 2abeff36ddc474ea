package sema

import (
	"fmt"

	"capsule/internal/diag"
	"capsule/internal/symbols"
)

func (s *scope) name(id symbols.BindingID) string {
	return s.v.res.BindingName(id)
}

func (s *scope) closureName(id symbols.ClosureID) string {
	if c := s.v.res.Closure(id); c != nil {
		return c.Name
	}
	return "_"
}

// callable reports bindings whose moves are closure-related even without a
// capture: closures and callable bounds.
func (s *scope) callable(id symbols.BindingID) bool {
	if s.v.res.HeldClosure(id).IsValid() {
		return true
	}
	_, ok := s.v.res.CallableBound(id)
	return ok
}

// checkMoves reports a binding referenced after a Consume capture moved it
// out, until the binding is re-assigned. Moves and uses outside closures
// are only considered when the other side involves a closure.
func (s *scope) checkMoves(id symbols.BindingID, uses []Use) {
	bind := s.v.res.Binding(id)
	if s.v.a.table.IsCopy(bind.Type) {
		return
	}
	// captures of a closure body are environment fields
	closureRelated := s.callable(id) || !s.owned(id)
	var moved *Use
	reported := false
	for i := range uses {
		u := &uses[i]
		if moved == nil {
			if u.Mode == ModeConsume {
				moved, reported = u, false
			}
			continue
		}
		if u.Assign && !u.Via.IsValid() {
			moved = nil
			continue
		}
		if moved.Call && u.Call && !moved.Via.IsValid() && !u.Via.IsValid() {
			// repeated calls are reported as double invocation
			continue
		}
		if reported || !(moved.Via.IsValid() || u.Via.IsValid() || closureRelated) {
			continue
		}
		reported = true
		s.v.report(s.useAfterMove(id, moved, u))
	}
}

func (s *scope) useAfterMove(id symbols.BindingID, moved, u *Use) Violation {
	name := s.name(id)
	var msg string
	switch {
	case u.Via.IsValid():
		msg = fmt.Sprintf("closure %s captures %q after it was moved", s.closureName(u.Via), name)
	case moved.Via.IsValid():
		msg = fmt.Sprintf("use of %q after it was moved into closure %s", name, s.closureName(moved.Via))
	default:
		msg = fmt.Sprintf("use of %q after it was moved", name)
	}
	var related Related
	switch {
	case moved.Via.IsValid():
		related = Related{Span: moved.Span, Msg: fmt.Sprintf("%q is moved into closure %s here", name, s.closureName(moved.Via))}
	case moved.Call:
		related = Related{Span: moved.Span, Msg: fmt.Sprintf("%q is consumed by this call", name)}
	default:
		related = Related{Span: moved.Span, Msg: fmt.Sprintf("%q is moved here", name)}
	}
	return Violation{
		Kind:    UseAfterMove,
		Code:    diag.SemaCaptureUseAfterMove,
		Message: msg,
		Primary: u.Span,
		Related: []Related{related},
		Binding: id,
		Closure: u.Via,
	}
}

// checkOnceCalls reports every call after the first of a binding that is
// FnOnce, either by its declared bound or by the closure it holds.
func (s *scope) checkOnceCalls(id symbols.BindingID, uses []Use) {
	if s.v.a.callTraitOf(id) != TraitFnOnce {
		return
	}
	var first *Use
	for i := range uses {
		u := &uses[i]
		if u.Assign && !u.Via.IsValid() {
			first = nil
			continue
		}
		if !u.Call || u.Via.IsValid() {
			continue
		}
		if first == nil {
			first = u
			continue
		}
		name := s.name(id)
		related := []Related{{Span: first.Span, Msg: "first call here"}}
		if cid := s.v.res.HeldClosure(id); cid.IsValid() {
			if cv, ok := s.forcing(cid, ModeConsume); ok {
				related = append(related, Related{
					Span: cv.Span,
					Msg:  fmt.Sprintf("%q is FnOnce because it takes %q by value", name, cv.Name),
				})
			}
		}
		s.v.report(Violation{
			Kind:    DoubleInvocationOfOnce,
			Code:    diag.SemaCaptureDoubleCallOnce,
			Message: fmt.Sprintf("%q is FnOnce and was already called", name),
			Primary: u.Span,
			Related: related,
			Binding: id,
			Closure: s.v.res.HeldClosure(id),
		})
	}
}

// forcing finds the capture responsible for a closure's trait.
func (s *scope) forcing(cid symbols.ClosureID, mode Mode) (CapturedVariable, bool) {
	for _, cv := range s.v.a.Captures(cid) {
		effective := cv.Mode
		if s.v.a.resolver.MoveKeepsTrait {
			effective = cv.Inferred
		}
		if effective == mode {
			return cv, true
		}
	}
	return CapturedVariable{}, false
}
