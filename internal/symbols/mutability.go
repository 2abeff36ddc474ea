package symbols

import (
	"fmt"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/types"
)

// requireMutable checks that place may be written: the root binding is
// `mut`, or the write goes through a `&mut` reference.
func (w *walker) requireMutable(place ast.ExprID, action string) {
	place = w.b.Unparen(place)
	expr := w.b.Exprs.Get(place)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		bid := w.res.Ref(place)
		b := w.res.Binding(bid)
		if b == nil || b.Mutable || (b.Kind == BindingLet && !b.Value.IsValid()) {
			return
		}
		name := w.b.Name(b.Name)
		diag.ReportError(w.reporter, diag.SemaAssignImmutable, expr.Span,
			fmt.Sprintf("cannot %s immutable binding %q", action, name)).
			WithNote(b.Span, fmt.Sprintf("consider declaring %q with `mut`", name)).
			Emit()
	case ast.ExprMember:
		data, _ := w.b.Exprs.Member(place)
		if w.throughReference(data.Target, action, expr) {
			return
		}
		w.requireMutable(data.Target, action)
	case ast.ExprUnary:
		data, _ := w.b.Exprs.Unary(place)
		if data.Op == ast.ExprUnaryDeref {
			w.throughReference(data.Operand, action, expr)
		}
	}
}

// requireMutableReceiver checks the receiver of a `&mut self` method call.
func (w *walker) requireMutableReceiver(recv ast.ExprID) {
	if w.throughReference(recv, "mutably borrow", w.b.Exprs.Get(recv)) {
		return
	}
	w.requireMutable(recv, "mutably borrow")
}

// throughReference reports false when base is not a reference; otherwise
// it validates the reference kind and reports true.
func (w *walker) throughReference(base ast.ExprID, action string, at *ast.Expr) bool {
	tt, ok := w.table.Lookup(w.res.TypeOf(base))
	if !ok || tt.Kind != types.KindReference {
		return false
	}
	if !tt.Mutable {
		diag.ReportError(w.reporter, diag.SemaAssignImmutable, at.Span,
			fmt.Sprintf("cannot %s through a shared reference", action)).Emit()
	}
	return true
}
