package symbols

import (
	"capsule/internal/ast"
	"capsule/internal/types"
)

// TypeOf is a best-effort static type of an expression, enough to pick
// method receivers and callable bounds. It returns NoTypeID when the type
// is not evident.
func (r *Result) TypeOf(id ast.ExprID) types.TypeID {
	b := r.builder
	expr := b.Exprs.Get(id)
	if expr == nil {
		return types.NoTypeID
	}
	builtins := r.Types.Builtins()
	switch expr.Kind {
	case ast.ExprIdent:
		if bind := r.Binding(r.Ref(id)); bind != nil {
			return bind.Type
		}
	case ast.ExprLit:
		lit, _ := b.Exprs.Literal(id)
		switch lit.Kind {
		case ast.ExprLitInt:
			return builtins.Int
		case ast.ExprLitFloat:
			return builtins.Float
		case ast.ExprLitString:
			return builtins.String
		default:
			return builtins.Bool
		}
	case ast.ExprBinary:
		data, _ := b.Exprs.Binary(id)
		switch {
		case data.Op.IsAssign():
			return builtins.Unit
		case data.Op.IsComparison():
			return builtins.Bool
		}
		return r.TypeOf(data.Left)
	case ast.ExprUnary:
		data, _ := b.Exprs.Unary(id)
		operand := r.TypeOf(data.Operand)
		switch data.Op {
		case ast.ExprUnaryNot:
			return builtins.Bool
		case ast.ExprUnaryMinus:
			return operand
		case ast.ExprUnaryRef, ast.ExprUnaryRefMut:
			if operand == types.NoTypeID {
				return types.NoTypeID
			}
			return r.Types.Intern(types.MakeReference(operand, data.Op == ast.ExprUnaryRefMut))
		case ast.ExprUnaryDeref:
			if tt, ok := r.Types.Lookup(operand); ok && tt.Kind == types.KindReference {
				return tt.Elem
			}
		}
	case ast.ExprCall:
		data, _ := b.Exprs.Call(id)
		callee := r.TypeOf(data.Target)
		if info, ok := r.Types.FnInfo(callee); ok {
			return info.Result
		}
		if c := r.closureOfType(callee); c != nil {
			return c.Result
		}
	case ast.ExprMethodCall:
		data, _ := b.Exprs.MethodCall(id)
		if sig, ok := r.Types.Method(r.TypeOf(data.Receiver), data.Name); ok {
			return sig.Result
		}
	case ast.ExprMember:
		data, _ := b.Exprs.Member(id)
		if ft, ok := r.Types.Field(r.TypeOf(data.Target), data.Field); ok {
			return ft
		}
	case ast.ExprGroup:
		data, _ := b.Exprs.Group(id)
		return r.TypeOf(data.Inner)
	case ast.ExprBlock:
		data, _ := b.Exprs.Block(id)
		if data.Tail.IsValid() {
			return r.TypeOf(data.Tail)
		}
		return builtins.Unit
	case ast.ExprClosure:
		if c := r.Closure(r.ClosureAt[id]); c != nil {
			return c.Type
		}
	}
	return types.NoTypeID
}

// closureOfType maps a closure type back to its closure.
func (r *Result) closureOfType(id types.TypeID) *Closure {
	info, ok := r.Types.ClosureInfo(id)
	if !ok {
		return nil
	}
	return r.Closure(ClosureID(info.Index))
}

// CallableBound reports the call trait guaranteed by a binding's declared
// type. Closure-typed bindings return false; their trait comes from
// capture analysis.
func (r *Result) CallableBound(id BindingID) (types.BoundKind, bool) {
	bind := r.Binding(id)
	if bind == nil {
		return 0, false
	}
	return r.Types.BoundOf(bind.Type)
}

// HeldClosure returns the closure a binding holds, either directly from
// its initializer or through its closure type.
func (r *Result) HeldClosure(id BindingID) ClosureID {
	bind := r.Binding(id)
	if bind == nil {
		return NoClosureID
	}
	if bind.Closure.IsValid() {
		return bind.Closure
	}
	if c := r.closureOfType(bind.Type); c != nil {
		return c.ID
	}
	return NoClosureID
}
