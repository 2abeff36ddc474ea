package sema

import (
	"cmp"
	"slices"

	"capsule/internal/ast"
	"capsule/internal/source"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Validator checks the captures of every closure against the bindings of
// the body it is constructed in. Program position (span start) is the
// control-flow order; the language has no branches or loops.
type Validator struct {
	a      *Analyzer
	res    *symbols.Result
	strict bool
	out    []Violation
}

// NewValidator wires a validator to an analyzer. With strictAliasing a
// shared capture overlapping a mutation is reported too.
func NewValidator(a *Analyzer, strictAliasing bool) *Validator {
	return &Validator{a: a, res: a.res, strict: strictAliasing}
}

// Validate runs every check over every function and closure body and
// returns the violations ordered by position.
func (v *Validator) Validate() []Violation {
	v.out = nil
	for i := 1; i < len(v.res.Funcs); i++ {
		fn := &v.res.Funcs[i]
		v.scope(fn, symbols.NoClosureID, fn.Body, fn.Sig.Result).check()
		for _, cid := range fn.Closures {
			c := v.res.Closure(cid)
			data, _ := v.res.Builder().Exprs.Closure(c.Expr)
			v.scope(fn, cid, data.Body, c.Result).check()
		}
	}
	slices.SortStableFunc(v.out, func(x, y Violation) int {
		if c := cmp.Compare(x.Primary.File, y.Primary.File); c != 0 {
			return c
		}
		return cmp.Compare(x.Primary.Start, y.Primary.Start)
	})
	return v.out
}

func (v *Validator) report(viol Violation) {
	v.out = append(v.out, viol)
}

type liveness struct {
	end  uint32
	span source.Span
}

// scope is one body: a function body or a closure body. Closures built
// directly in it are validated against the bindings it declares and, for
// a closure body, the bindings it captures.
type scope struct {
	v       *Validator
	b       *ast.Builder
	fn      *symbols.Function
	closure symbols.ClosureID
	body    ast.ExprID
	result  types.TypeID
	end     uint32

	col       *collector
	order     []symbols.BindingID
	byBinding map[symbols.BindingID][]Use
	returns   []returned
	escaping  map[symbols.ClosureID]bool
	live      map[symbols.ClosureID]liveness
}

type returned struct {
	value ast.ExprID
	span  source.Span
}

func (v *Validator) scope(fn *symbols.Function, cid symbols.ClosureID, body ast.ExprID, result types.TypeID) *scope {
	b := v.res.Builder()
	s := &scope{
		v:         v,
		b:         b,
		fn:        fn,
		closure:   cid,
		body:      body,
		result:    result,
		end:       b.Exprs.Get(body).Span.End,
		col:       v.a.collectBody(body),
		byBinding: make(map[symbols.BindingID][]Use),
		escaping:  make(map[symbols.ClosureID]bool),
		live:      make(map[symbols.ClosureID]liveness),
	}
	for _, u := range s.col.uses {
		// A closure body also checks the bindings it captures: inside it
		// they are accesses through its environment.
		bind := v.res.Binding(u.Binding)
		if bind.Owner.Func != fn.ID || (!cid.IsValid() && bind.Owner.Closure.IsValid()) {
			continue
		}
		if _, seen := s.byBinding[u.Binding]; !seen {
			s.order = append(s.order, u.Binding)
		}
		s.byBinding[u.Binding] = append(s.byBinding[u.Binding], u)
	}
	for _, id := range s.order {
		slices.SortStableFunc(s.byBinding[id], func(x, y Use) int { return cmp.Compare(x.At, y.At) })
	}
	s.collectReturns()
	return s
}

// owned reports whether id is declared by this body rather than captured
// from around it.
func (s *scope) owned(id symbols.BindingID) bool {
	bind := s.v.res.Binding(id)
	return bind != nil && bind.Owner.Func == s.fn.ID && bind.Owner.Closure == s.closure
}

// bodyName names the body for messages.
func (s *scope) bodyName() string {
	if s.closure.IsValid() {
		return s.closureName(s.closure)
	}
	return s.fn.Name
}

func (s *scope) check() {
	for _, id := range s.order {
		uses := s.byBinding[id]
		s.checkMoves(id, uses)
		s.checkOnceCalls(id, uses)
		s.checkAliasing(id, uses)
	}
	s.checkReentry()
	s.checkFlows()
}

// collectReturns finds the values leaving the body: `return` operands and
// the tail chain of the body block.
func (s *scope) collectReturns() {
	s.b.Inspect(s.body, func(id ast.ExprID) bool {
		expr := s.b.Exprs.Get(id)
		switch expr.Kind {
		case ast.ExprClosure:
			return false
		case ast.ExprBlock:
			data, _ := s.b.Exprs.Block(id)
			for _, st := range data.Stmts {
				if ret, ok := s.b.Stmts.Return(st); ok && ret.Value.IsValid() {
					s.returns = append(s.returns, returned{value: ret.Value, span: s.b.Stmts.Get(st).Span})
				}
			}
		}
		return true
	})
	tail := s.body
	for {
		data, ok := s.b.Exprs.Block(s.b.Unparen(tail))
		if !ok {
			break
		}
		if !data.Tail.IsValid() {
			tail = ast.NoExprID
			break
		}
		tail = data.Tail
	}
	if tail.IsValid() {
		s.returns = append(s.returns, returned{value: tail, span: s.b.Exprs.Get(tail).Span})
	}
	for _, r := range s.returns {
		if cid := s.closureOf(r.value); cid.IsValid() {
			s.escaping[cid] = true
		}
	}
}

// closureOf resolves an expression to the closure it evaluates to: a
// closure literal or a binding holding one.
func (s *scope) closureOf(value ast.ExprID) symbols.ClosureID {
	value = s.b.Unparen(value)
	if cid, ok := s.v.res.ClosureAt[value]; ok {
		return cid
	}
	if bid := s.v.res.Ref(value); bid.IsValid() {
		return s.v.res.HeldClosure(bid)
	}
	return symbols.NoClosureID
}

// liveEnd is the last position a closure constructed in this body may
// still be called: the last use of its holder, transitively through
// closures capturing the holder, the end of the call it is passed to, or
// the end of the body when it escapes.
func (s *scope) liveEnd(cid symbols.ClosureID) liveness {
	if l, ok := s.live[cid]; ok {
		return l
	}
	c := s.v.res.Closure(cid)
	l := liveness{end: c.Span.End, span: c.Span}
	s.live[cid] = l
	if end, ok := s.col.inline[cid]; ok {
		l.end = end
	}
	if s.escaping[cid] {
		l.end = s.end
	}
	if c.Holder.IsValid() {
		for _, u := range s.byBinding[c.Holder] {
			cand := liveness{end: u.End, span: u.Span}
			if u.Via.IsValid() {
				cand = s.liveEnd(u.Via)
			}
			if cand.end > l.end {
				l = cand
			}
		}
	}
	s.live[cid] = l
	return l
}
