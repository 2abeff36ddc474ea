package symbols

import (
	"fmt"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/source"
	"capsule/internal/types"
)

type walker struct {
	b        *ast.Builder
	res      *Result
	table    *types.Table
	reporter diag.Reporter
	scopes   *scopeStack

	owner    Owner
	closures []ClosureID
	// returns holds the expected result type of the innermost function or
	// closure body, for `return` statements.
	returns []types.TypeID
}

func (w *walker) newBinding(b Binding) BindingID {
	w.res.Bindings = append(w.res.Bindings, b)
	return BindingID(len(w.res.Bindings) - 1) // #nosec G115 -- bounded by AST size
}

func (w *walker) declare(b Binding) BindingID {
	b.Owner = w.owner
	id := w.newBinding(b)
	w.scopes.declare(b.Name, id)
	return id
}

func (w *walker) declareFunc(itemID ast.ItemID) {
	fn, ok := w.b.Items.Fn(itemID)
	if !ok || fn.IsMethod() {
		return
	}
	sig, ok := w.table.Func(fn.Name)
	if !ok || sig.Item != itemID {
		return
	}
	w.declare(Binding{
		Name: fn.Name,
		Kind: BindingFunc,
		Span: fn.NameSpan,
		Type: w.table.RegisterFn(sig.Params, sig.Result),
	})
}

func (w *walker) signatureOf(itemID ast.ItemID, fn *ast.FnItem) *types.Signature {
	if fn.IsMethod() {
		owner, ok := w.table.Named(fn.Owner)
		if !ok {
			return nil
		}
		sig, ok := w.table.Method(owner, fn.Name)
		if !ok || sig.Item != itemID {
			return nil
		}
		return sig
	}
	sig, ok := w.table.Func(fn.Name)
	if !ok || sig.Item != itemID {
		return nil
	}
	return sig
}

func (w *walker) handleFunc(itemID ast.ItemID) {
	fn, ok := w.b.Items.Fn(itemID)
	if !ok || !fn.Body.IsValid() {
		return
	}
	sig := w.signatureOf(itemID, fn)
	if sig == nil {
		// duplicate or unknown owner; already reported while collecting
		return
	}
	name := w.b.Name(fn.Name)
	if fn.IsMethod() {
		name = w.b.Name(fn.Owner) + "." + name
	}
	w.res.Funcs = append(w.res.Funcs, Function{
		Item: itemID,
		Name: name,
		Sig:  sig,
		Body: fn.Body,
	})
	fid := FuncID(len(w.res.Funcs) - 1) // #nosec G115 -- bounded by AST size
	w.res.Funcs[fid].ID = fid
	w.owner = Owner{Func: fid}

	w.scopes.push(ScopeFunction, fn.Span)
	defer w.scopes.pop()

	if fn.Self != ast.SelfNone {
		selfType := sig.Owner
		if fn.Self != ast.SelfValue {
			selfType = w.table.Intern(types.MakeReference(sig.Owner, fn.Self == ast.SelfMutRef))
		}
		w.res.Funcs[fid].Self = w.declare(Binding{
			Name: w.b.Strings.Intern("self"),
			Kind: BindingSelf,
			Span: fn.SelfSpan,
			Type: selfType,
		})
	}
	for i, p := range fn.Params {
		if prev, dup := w.scopes.lookupLocal(p.Name); dup {
			w.duplicate(p.Name, p.Span, w.res.Binding(prev).Span)
			continue
		}
		id := w.declare(Binding{
			Name:    p.Name,
			Kind:    BindingParam,
			Span:    p.Span,
			Type:    sig.Params[i],
			Mutable: p.Mutable,
		})
		w.res.Funcs[fid].Params = append(w.res.Funcs[fid].Params, id)
	}

	w.returns = append(w.returns, sig.Result)
	w.visitExpr(fn.Body, sig.Result)
	w.returns = w.returns[:len(w.returns)-1]
}

func (w *walker) duplicate(name source.StringID, span, prev source.Span) {
	diag.ReportError(w.reporter, diag.SemaDuplicateSymbol, span,
		fmt.Sprintf("%q is declared twice", w.b.Name(name))).
		WithNote(prev, "previous declaration here").
		Emit()
}

func (w *walker) visitBlock(id ast.ExprID, data *ast.ExprBlockData, expected types.TypeID) {
	w.scopes.push(ScopeBlock, w.b.Exprs.Get(id).Span)
	defer w.scopes.pop()
	for _, st := range data.Stmts {
		w.visitStmt(st)
	}
	if data.Tail.IsValid() {
		w.visitExpr(data.Tail, expected)
	}
}

func (w *walker) visitStmt(id ast.StmtID) {
	st := w.b.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtLet:
		let, _ := w.b.Stmts.Let(id)
		declared := types.NoTypeID
		if let.Type.IsValid() {
			declared = w.table.Lower(w.b, let.Type, w.reporter)
		}
		if let.Value.IsValid() {
			w.visitExpr(let.Value, declared)
		}
		typ := declared
		if typ == types.NoTypeID && let.Value.IsValid() {
			typ = w.res.TypeOf(let.Value)
		}
		bid := w.declare(Binding{
			Name:    let.Name,
			Kind:    BindingLet,
			Span:    let.NameSpan,
			Type:    typ,
			Mutable: let.Mutable,
			Value:   let.Value,
		})
		if cid, ok := w.res.ClosureAt[w.b.Unparen(let.Value)]; ok && let.Value.IsValid() {
			w.res.Bindings[bid].Closure = cid
			w.res.Closures[cid].Holder = bid
		}
	case ast.StmtReturn:
		ret, _ := w.b.Stmts.Return(id)
		if ret.Value.IsValid() {
			w.visitExpr(ret.Value, w.returns[len(w.returns)-1])
		}
	case ast.StmtExpr:
		es, _ := w.b.Stmts.Expr(id)
		w.visitExpr(es.Expr, types.NoTypeID)
	}
}

func (w *walker) visitExpr(id ast.ExprID, expected types.TypeID) {
	expr := w.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		w.resolveIdent(id, expr.Span)
	case ast.ExprLit:
	case ast.ExprBinary:
		data, _ := w.b.Exprs.Binary(id)
		w.visitExpr(data.Left, types.NoTypeID)
		w.visitExpr(data.Right, types.NoTypeID)
		if data.Op.IsAssign() {
			w.requireMutable(data.Left, "assign to")
		}
	case ast.ExprUnary:
		data, _ := w.b.Exprs.Unary(id)
		w.visitExpr(data.Operand, types.NoTypeID)
		if data.Op == ast.ExprUnaryRefMut {
			w.requireMutable(data.Operand, "mutably borrow")
		}
	case ast.ExprCall:
		data, _ := w.b.Exprs.Call(id)
		w.visitExpr(data.Target, types.NoTypeID)
		params := w.calleeParams(data.Target, expr.Span)
		w.visitArgs(data.Args, params)
	case ast.ExprMethodCall:
		data, _ := w.b.Exprs.MethodCall(id)
		w.visitExpr(data.Receiver, types.NoTypeID)
		var params []types.TypeID
		if sig, ok := w.table.Method(w.res.TypeOf(data.Receiver), data.Name); ok {
			params = sig.Params
			if sig.Self == ast.SelfMutRef {
				w.requireMutableReceiver(data.Receiver)
			}
		}
		w.visitArgs(data.Args, params)
	case ast.ExprMember:
		data, _ := w.b.Exprs.Member(id)
		w.visitExpr(data.Target, types.NoTypeID)
		w.checkField(data, expr.Span)
	case ast.ExprGroup:
		data, _ := w.b.Exprs.Group(id)
		w.visitExpr(data.Inner, expected)
	case ast.ExprBlock:
		data, _ := w.b.Exprs.Block(id)
		w.visitBlock(id, data, expected)
	case ast.ExprClosure:
		data, _ := w.b.Exprs.Closure(id)
		w.visitClosure(id, expr.Span, data, expected)
	case ast.ExprStruct:
		data, _ := w.b.Exprs.Struct(id)
		for _, f := range data.Fields {
			w.visitExpr(f.Value, types.NoTypeID)
		}
	}
}

func (w *walker) visitArgs(args []ast.ExprID, params []types.TypeID) {
	for i, arg := range args {
		expected := types.NoTypeID
		if i < len(params) {
			expected = params[i]
		}
		w.visitExpr(arg, expected)
	}
}

func (w *walker) resolveIdent(id ast.ExprID, span source.Span) {
	data, _ := w.b.Exprs.Ident(id)
	bid, ok := w.scopes.lookup(data.Name)
	if !ok {
		diag.ReportError(w.reporter, diag.SemaUnresolvedSymbol, span,
			fmt.Sprintf("cannot find %q in this scope", w.b.Name(data.Name))).Emit()
		return
	}
	w.res.Refs[id] = bid
	b := w.res.Binding(bid)
	if !b.Captured() {
		return
	}
	// every closure between the use and the declaring body captures it
	for i := len(w.closures) - 1; i >= 0; i-- {
		cid := w.closures[i]
		if cid == b.Owner.Closure {
			break
		}
		w.res.Closures[cid].addFree(bid)
	}
}

// calleeParams returns the declared parameter types of a call target and
// reports targets that cannot be called.
func (w *walker) calleeParams(target ast.ExprID, span source.Span) []types.TypeID {
	typ := w.res.TypeOf(target)
	tt, ok := w.table.Lookup(typ)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case types.KindFn, types.KindBound:
		info, _ := w.table.FnInfo(typ)
		return info.Params
	case types.KindClosure:
		c := w.res.closureOfType(typ)
		if c == nil {
			return nil
		}
		params := make([]types.TypeID, 0, len(c.Params))
		for _, p := range c.Params {
			params = append(params, w.res.Binding(p).Type)
		}
		return params
	}
	diag.ReportError(w.reporter, diag.SemaNotCallable, span,
		fmt.Sprintf("value of type %s is not callable", w.table.Format(typ))).Emit()
	return nil
}

func (w *walker) checkField(data *ast.ExprMemberData, span source.Span) {
	base := w.res.TypeOf(data.Target)
	if base == types.NoTypeID {
		return
	}
	if _, ok := w.table.Field(base, data.Field); ok {
		return
	}
	diag.ReportError(w.reporter, diag.SemaUnknownField, span,
		fmt.Sprintf("type %s has no field %q", w.table.Format(base), w.b.Name(data.Field))).Emit()
}

func (w *walker) visitClosure(id ast.ExprID, span source.Span, data *ast.ExprClosureData, expected types.TypeID) {
	fn := w.res.Func(w.owner.Func)
	cid := ClosureID(len(w.res.Closures)) // #nosec G115 -- bounded by AST size
	c := Closure{
		ID:     cid,
		Expr:   id,
		Index:  len(fn.Closures),
		Name:   fmt.Sprintf("%s#%d", fn.Name, len(fn.Closures)),
		Func:   w.owner.Func,
		Parent: w.owner.Closure,
		Span:   span,
		Move:   data.Move,
	}
	c.Type = w.table.RegisterClosure(c.Name, uint32(cid))
	w.res.Closures = append(w.res.Closures, c)
	w.res.ClosureAt[id] = cid
	fn.Closures = append(fn.Closures, cid)

	// parameter and result types flow in from the expected callable type
	var hint *types.FnInfo
	if info, ok := w.table.FnInfo(expected); ok && len(info.Params) == len(data.Params) {
		hint = info
	}

	saved := w.owner
	w.owner = Owner{Func: saved.Func, Closure: cid}
	w.closures = append(w.closures, cid)
	w.scopes.push(ScopeClosure, span)
	defer func() {
		w.scopes.pop()
		w.closures = w.closures[:len(w.closures)-1]
		w.owner = saved
	}()

	params := make([]BindingID, 0, len(data.Params))
	for i, p := range data.Params {
		if prev, dup := w.scopes.lookupLocal(p.Name); dup {
			w.duplicate(p.Name, p.Span, w.res.Binding(prev).Span)
			continue
		}
		typ := types.NoTypeID
		switch {
		case p.Type.IsValid():
			typ = w.table.Lower(w.b, p.Type, w.reporter)
		case hint != nil:
			typ = hint.Params[i]
		}
		params = append(params, w.declare(Binding{
			Name: p.Name,
			Kind: BindingClosureParam,
			Span: p.Span,
			Type: typ,
		}))
	}
	w.res.Closures[cid].Params = params

	result := types.NoTypeID
	switch {
	case data.Result.IsValid():
		result = w.table.Lower(w.b, data.Result, w.reporter)
	case hint != nil:
		result = hint.Result
	}
	w.returns = append(w.returns, result)
	w.visitExpr(data.Body, result)
	w.returns = w.returns[:len(w.returns)-1]
	if result == types.NoTypeID {
		result = w.res.TypeOf(data.Body)
	}
	w.res.Closures[cid].Result = result
}
