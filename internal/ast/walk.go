package ast

// Children appends the direct sub-expressions of id in source order.
// Block statements are flattened to their expressions.
func (b *Builder) Children(id ExprID, out []ExprID) []ExprID {
	expr := b.Exprs.Get(id)
	if expr == nil {
		return out
	}
	switch expr.Kind {
	case ExprBinary:
		d, _ := b.Exprs.Binary(id)
		out = append(out, d.Left, d.Right)
	case ExprUnary:
		d, _ := b.Exprs.Unary(id)
		out = append(out, d.Operand)
	case ExprCall:
		d, _ := b.Exprs.Call(id)
		out = append(out, d.Target)
		out = append(out, d.Args...)
	case ExprMethodCall:
		d, _ := b.Exprs.MethodCall(id)
		out = append(out, d.Receiver)
		out = append(out, d.Args...)
	case ExprMember:
		d, _ := b.Exprs.Member(id)
		out = append(out, d.Target)
	case ExprGroup:
		d, _ := b.Exprs.Group(id)
		out = append(out, d.Inner)
	case ExprBlock:
		d, _ := b.Exprs.Block(id)
		for _, st := range d.Stmts {
			out = b.StmtExprs(st, out)
		}
		if d.Tail.IsValid() {
			out = append(out, d.Tail)
		}
	case ExprClosure:
		d, _ := b.Exprs.Closure(id)
		out = append(out, d.Body)
	case ExprStruct:
		d, _ := b.Exprs.Struct(id)
		for _, f := range d.Fields {
			out = append(out, f.Value)
		}
	}
	return out
}

// StmtExprs appends the expressions owned by a statement.
func (b *Builder) StmtExprs(id StmtID, out []ExprID) []ExprID {
	st := b.Stmts.Get(id)
	if st == nil {
		return out
	}
	switch st.Kind {
	case StmtLet:
		d, _ := b.Stmts.Let(id)
		if d.Value.IsValid() {
			out = append(out, d.Value)
		}
	case StmtReturn:
		d, _ := b.Stmts.Return(id)
		if d.Value.IsValid() {
			out = append(out, d.Value)
		}
	case StmtExpr:
		d, _ := b.Stmts.Expr(id)
		out = append(out, d.Expr)
	}
	return out
}

// Inspect visits id and its descendants depth-first in source order.
// Returning false from fn skips the node's children.
func (b *Builder) Inspect(id ExprID, fn func(ExprID) bool) {
	if !id.IsValid() || !fn(id) {
		return
	}
	for _, child := range b.Children(id, nil) {
		b.Inspect(child, fn)
	}
}

// Unparen strips groups.
func (b *Builder) Unparen(id ExprID) ExprID {
	for {
		g, ok := b.Exprs.Group(id)
		if !ok {
			return id
		}
		id = g.Inner
	}
}
