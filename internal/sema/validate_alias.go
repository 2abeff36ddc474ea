package sema

import (
	"fmt"

	"capsule/internal/diag"
	"capsule/internal/symbols"
)

// conflicts decides whether a capture held by a live closure clashes with
// another access to the same binding.
func (s *scope) conflicts(held, other Mode) bool {
	if s.v.strict {
		return held == ModeWrite || other != ModeRead
	}
	return held == ModeWrite && other != ModeRead
}

// checkAliasing reports accesses to a binding while a closure holding a
// reference capture of it is still live.
func (s *scope) checkAliasing(id symbols.BindingID, uses []Use) {
	for _, held := range uses {
		if !held.Via.IsValid() || held.Mode == ModeConsume {
			continue
		}
		if held.Mode == ModeRead && !s.v.strict {
			continue
		}
		live := s.liveEnd(held.Via)
		for _, other := range uses {
			if other.Via == held.Via || other.At <= held.At || other.At > live.end {
				continue
			}
			if !s.conflicts(held.Mode, other.Mode) {
				continue
			}
			s.v.report(s.aliasing(id, held, other, live))
			break
		}
	}
}

func (s *scope) aliasing(id symbols.BindingID, held, other Use, live liveness) Violation {
	name := s.name(id)
	holder := s.closureName(held.Via)
	kind := "shared"
	if held.Mode == ModeWrite {
		kind = "mutable"
	}
	var msg string
	if other.Via.IsValid() {
		msg = fmt.Sprintf("closure %s captures %q while closure %s holds a %s capture of it",
			s.closureName(other.Via), name, holder, kind)
	} else {
		action := map[Mode]string{ModeRead: "read", ModeWrite: "mutate", ModeConsume: "move"}[other.Mode]
		msg = fmt.Sprintf("cannot %s %q while closure %s holds a %s capture of it", action, name, holder, kind)
	}
	related := []Related{{Span: held.Span, Msg: fmt.Sprintf("%q is captured by %s reference here", name, kind)}}
	if live.span != s.v.res.Closure(held.Via).Span {
		related = append(related, Related{Span: live.span, Msg: fmt.Sprintf("closure %s is used later here", holder)})
	}
	return Violation{
		Kind:    AliasingConflict,
		Code:    diag.SemaCaptureAliasing,
		Message: msg,
		Primary: other.Span,
		Related: related,
		Binding: id,
		Closure: held.Via,
	}
}

// checkReentry reports an FnMut value called again while a call to it is
// still evaluating its arguments.
func (s *scope) checkReentry() {
	for _, r := range s.col.reentries {
		name := s.name(r.binding)
		s.v.report(Violation{
			Kind:    AliasingConflict,
			Code:    diag.SemaCaptureReentrantCall,
			Message: fmt.Sprintf("%q is FnMut and is called again while a call to it is in progress", name),
			Primary: r.inner,
			Related: []Related{{Span: r.outer, Msg: "outer call here"}},
			Binding: r.binding,
			Closure: s.v.res.HeldClosure(r.binding),
		})
	}
}
