package sema

import (
	"capsule/internal/ast"
	"capsule/internal/source"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Use is one syntactic use of a binding inside a body. Uses that come
// through a nested closure are positioned at the closure's construction.
type Use struct {
	Binding symbols.BindingID
	Mode    Mode
	Span    source.Span
	// At orders uses in program position; End is where the use stops
	// being active (the end of a call for called bindings).
	At  uint32
	End uint32
	// Via is the directly nested closure the use comes through.
	Via    symbols.ClosureID
	Call   bool // the binding is the callee
	Assign bool // plain `x = e` re-initializes the binding
}

// reentry is a call of a binding nested inside the arguments of another
// call of the same binding.
type reentry struct {
	binding symbols.BindingID
	outer   source.Span
	inner   source.Span
}

// assumption is a method call whose receiver kind is not declared.
type assumption struct {
	binding symbols.BindingID
	call    source.Span
	method  string
}

// use contexts
type useCtx uint8

const (
	ctxValue useCtx = iota // by value: moves non-copy values
	ctxRead                // inspected in place
	ctxWrite               // mutated in place
)

type collector struct {
	a    *Analyzer
	b    *ast.Builder
	uses []Use
	// inline maps a nested closure passed straight into a call to the end
	// of that call.
	inline      map[symbols.ClosureID]uint32
	reentries   []reentry
	assumptions []assumption
	calling     []activeCall
}

type activeCall struct {
	binding symbols.BindingID
	span    source.Span
}

func newCollector(a *Analyzer) *collector {
	return &collector{a: a, b: a.res.Builder(), inline: make(map[symbols.ClosureID]uint32)}
}

// collectBody gathers the uses of a function or closure body. Nested
// closures are not entered; their captures count as uses at their
// construction point.
func (a *Analyzer) collectBody(body ast.ExprID) *collector {
	c := newCollector(a)
	c.expr(body, ctxValue)
	return c
}

func (c *collector) record(u Use) {
	if u.End < u.At {
		u.End = u.At
	}
	c.uses = append(c.uses, u)
}

func (c *collector) binding(id ast.ExprID) (symbols.BindingID, *symbols.Binding) {
	bid := c.a.res.Ref(c.b.Unparen(id))
	b := c.a.res.Binding(bid)
	if b == nil || !b.Captured() {
		return symbols.NoBindingID, nil
	}
	return bid, b
}

func (c *collector) modeFor(b *symbols.Binding, cx useCtx) Mode {
	switch cx {
	case ctxRead:
		return ModeRead
	case ctxWrite:
		return ModeWrite
	}
	if c.a.table.IsCopy(b.Type) {
		return ModeRead
	}
	return ModeConsume
}

func (c *collector) expr(id ast.ExprID, cx useCtx) {
	expr := c.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		bid, b := c.binding(id)
		if b == nil {
			return
		}
		c.record(Use{Binding: bid, Mode: c.modeFor(b, cx), Span: expr.Span, At: expr.Span.Start})
	case ast.ExprLit:
	case ast.ExprBinary:
		data, _ := c.b.Exprs.Binary(id)
		switch {
		case data.Op.IsAssign():
			c.assignTarget(data.Left, data.Op == ast.ExprBinaryAssign)
			c.expr(data.Right, ctxValue)
		case data.Op.IsComparison():
			c.expr(data.Left, ctxRead)
			c.expr(data.Right, ctxRead)
		default:
			c.expr(data.Left, ctxValue)
			c.expr(data.Right, ctxValue)
		}
	case ast.ExprUnary:
		data, _ := c.b.Exprs.Unary(id)
		switch data.Op {
		case ast.ExprUnaryRef:
			c.expr(data.Operand, ctxRead)
		case ast.ExprUnaryRefMut:
			c.expr(data.Operand, ctxWrite)
		case ast.ExprUnaryDeref:
			if cx == ctxWrite {
				c.expr(data.Operand, ctxWrite)
			} else {
				c.expr(data.Operand, ctxRead)
			}
		default:
			c.expr(data.Operand, ctxValue)
		}
	case ast.ExprCall:
		data, _ := c.b.Exprs.Call(id)
		c.call(expr, data)
	case ast.ExprMethodCall:
		data, _ := c.b.Exprs.MethodCall(id)
		c.methodCall(expr, data)
	case ast.ExprMember:
		data, _ := c.b.Exprs.Member(id)
		if cx == ctxValue && c.a.table.IsCopy(c.a.res.TypeOf(id)) {
			cx = ctxRead
		}
		c.expr(data.Target, cx)
	case ast.ExprGroup:
		data, _ := c.b.Exprs.Group(id)
		c.expr(data.Inner, cx)
	case ast.ExprBlock:
		data, _ := c.b.Exprs.Block(id)
		for _, st := range data.Stmts {
			for _, e := range c.b.StmtExprs(st, nil) {
				c.expr(e, ctxValue)
			}
		}
		if data.Tail.IsValid() {
			c.expr(data.Tail, cx)
		}
	case ast.ExprClosure:
		c.nested(id, expr.Span)
	case ast.ExprStruct:
		data, _ := c.b.Exprs.Struct(id)
		for _, f := range data.Fields {
			c.expr(f.Value, ctxValue)
		}
	}
}

func (c *collector) assignTarget(left ast.ExprID, plain bool) {
	inner := c.b.Unparen(left)
	if bid, b := c.binding(inner); b != nil && c.b.Exprs.Get(inner).Kind == ast.ExprIdent {
		sp := c.b.Exprs.Get(inner).Span
		c.record(Use{Binding: bid, Mode: ModeWrite, Span: sp, At: sp.Start, Assign: plain})
		return
	}
	c.expr(left, ctxWrite)
}

// call classifies the callee by the call trait it guarantees: calling an
// Fn value reads it, FnMut writes it and FnOnce consumes it.
func (c *collector) call(expr *ast.Expr, data *ast.ExprCallData) {
	target := c.b.Unparen(data.Target)
	bid, b := c.binding(target)
	if b == nil || c.b.Exprs.Get(target).Kind != ast.ExprIdent {
		c.expr(data.Target, ctxValue)
		c.args(expr, data.Args)
		return
	}
	sp := c.b.Exprs.Get(target).Span
	trait := c.a.callTraitOf(bid)
	for _, active := range c.calling {
		if active.binding == bid && trait == TraitFnMut {
			c.reentries = append(c.reentries, reentry{binding: bid, outer: active.span, inner: expr.Span})
		}
	}
	c.record(Use{
		Binding: bid,
		Mode:    trait.Mode(),
		Span:    sp,
		At:      sp.Start,
		End:     expr.Span.End,
		Call:    true,
	})
	c.calling = append(c.calling, activeCall{binding: bid, span: expr.Span})
	c.args(expr, data.Args)
	c.calling = c.calling[:len(c.calling)-1]
}

func (c *collector) args(call *ast.Expr, args []ast.ExprID) {
	for _, arg := range args {
		if cid, ok := c.a.res.ClosureAt[c.b.Unparen(arg)]; ok {
			c.inline[cid] = call.Span.End
		}
		c.expr(arg, ctxValue)
	}
}

// methodCall uses the declared receiver kind of the callee. Undeclared
// methods get the weakest access and are remembered so the assumption can
// be surfaced.
func (c *collector) methodCall(expr *ast.Expr, data *ast.ExprMethodCallData) {
	sig, ok := c.a.table.Method(c.a.res.TypeOf(data.Receiver), data.Name)
	switch {
	case !ok:
		if bid, b := c.binding(data.Receiver); b != nil {
			c.assumptions = append(c.assumptions, assumption{
				binding: bid,
				call:    data.NameSpan,
				method:  c.b.Name(data.Name),
			})
		}
		c.expr(data.Receiver, ctxRead)
	case sig.Self == ast.SelfRef:
		c.expr(data.Receiver, ctxRead)
	case sig.Self == ast.SelfMutRef:
		c.expr(data.Receiver, ctxWrite)
	default:
		c.expr(data.Receiver, ctxValue)
	}
	c.args(expr, data.Args)
}

// nested turns the captures of a nested closure into uses at its
// construction point.
func (c *collector) nested(id ast.ExprID, span source.Span) {
	cid := c.a.res.ClosureAt[id]
	if !cid.IsValid() {
		return
	}
	for _, cv := range c.a.Captures(cid) {
		c.record(Use{
			Binding: cv.Binding,
			Mode:    cv.Mode,
			Span:    cv.Span,
			At:      span.Start,
			End:     span.End,
			Via:     cid,
		})
	}
}

// callTraitOf is the trait a called binding guarantees: the resolved trait
// of the closure it holds, or its declared callable bound.
func (a *Analyzer) callTraitOf(id symbols.BindingID) CallTrait {
	if cid := a.res.HeldClosure(id); cid.IsValid() {
		return a.Resolve(cid).Trait
	}
	if bound, ok := a.res.CallableBound(id); ok {
		return traitFromBound(bound)
	}
	return TraitFn
}

func traitFromBound(b types.BoundKind) CallTrait {
	switch b {
	case types.BoundFnMut:
		return TraitFnMut
	case types.BoundFnOnce:
		return TraitFnOnce
	}
	return TraitFn
}
