package hir

import (
	"capsule/internal/ast"
	"capsule/internal/sema"
	"capsule/internal/source"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Desugar lowers every analyzed closure of a file to an Environment with a
// call method. New nodes are allocated in b; the original AST is left
// untouched and the closure literals are mapped to their constructors in
// Module.Replacements.
func Desugar(b *ast.Builder, res *symbols.Result, analysis *sema.Result) *Module {
	d := &desugarer{
		b:     b,
		res:   res,
		table: res.Types,
		self:  b.Strings.Intern("self"),
		mod: &Module{
			Replacements: make(map[ast.ExprID]ast.ExprID, len(analysis.Closures)),
			symbols:      res,
			byID:         make(map[symbols.ClosureID]int, len(analysis.Closures)),
		},
	}
	for i := range analysis.Closures {
		d.declare(&analysis.Closures[i])
	}
	for i := range d.mod.Environments {
		env := &d.mod.Environments[i]
		d.lowerBody(env)
		if c := res.Closure(env.Closure); !c.Parent.IsValid() {
			d.construct(env.Closure, nil)
		}
	}
	return d.mod
}

type desugarer struct {
	b     *ast.Builder
	res   *symbols.Result
	table *types.Table
	self  source.StringID
	mod   *Module
}

func (d *desugarer) declare(info *sema.ClosureInfo) {
	fields := make([]Field, 0, len(info.Captures))
	for _, cv := range info.Captures {
		f := Field{
			Name:      cv.Name,
			Binding:   cv.Binding,
			ValueType: cv.Type,
			Type:      cv.Type,
			Ownership: OwnershipOf(cv.Mode),
		}
		if f.Ownership != Owned {
			f.Type = d.table.Intern(types.MakeReference(cv.Type, f.Ownership == ExclusiveRef))
		}
		fields = append(fields, f)
	}
	name, recv := methodFor(info.Trait)
	result := d.res.Closure(info.ID).Result
	d.mod.byID[info.ID] = len(d.mod.Environments)
	d.mod.Environments = append(d.mod.Environments, Environment{
		Name:    EnvironmentName(info.Name),
		Closure: info.ID,
		Trait:   info.Trait,
		Fields:  fields,
		Method: CallMethod{
			Name:     name,
			Receiver: recv,
			Params:   info.Params,
			Result:   result,
		},
	})
}

func (d *desugarer) lowerBody(env *Environment) {
	c := d.res.Closure(env.Closure)
	data, _ := d.b.Exprs.Closure(c.Expr)
	env.Method.Body = d.clone(data.Body, env)
}

// construct builds the constructor of a closure as seen from ctx, the
// environment whose body contains the literal, or nil at function level.
func (d *desugarer) construct(id symbols.ClosureID, ctx *Environment) ast.ExprID {
	env, _ := d.mod.EnvironmentFor(id)
	c := d.res.Closure(id)
	inits := make([]ast.StructFieldInit, 0, len(env.Fields))
	for _, f := range env.Fields {
		value := d.reference(f.Binding, c.Span, ctx)
		switch f.Ownership {
		case SharedRef:
			value = d.b.Exprs.NewUnary(c.Span, ast.ExprUnaryRef, value)
		case ExclusiveRef:
			value = d.b.Exprs.NewUnary(c.Span, ast.ExprUnaryRefMut, value)
		}
		inits = append(inits, ast.StructFieldInit{Name: d.b.Strings.Intern(f.Name), Value: value})
	}
	ctor := d.b.Exprs.NewStruct(c.Span, d.b.Strings.Intern(env.Name), inits)
	env.Ctor = ctor
	d.mod.Replacements[c.Expr] = ctor
	return ctor
}

// reference is a value access to a binding from inside ctx.
func (d *desugarer) reference(id symbols.BindingID, span source.Span, ctx *Environment) ast.ExprID {
	if ctx != nil {
		if f, ok := ctx.fieldFor(id); ok {
			return d.access(f, span)
		}
	}
	return d.b.Exprs.NewIdent(span, d.b.Strings.Intern(d.res.BindingName(id)))
}

// access reads a field through self, dereferencing reference fields.
func (d *desugarer) access(f *Field, span source.Span) ast.ExprID {
	member := d.member(f, span)
	if f.Ownership == Owned {
		return member
	}
	return d.b.Exprs.NewUnary(span, ast.ExprUnaryDeref, member)
}

func (d *desugarer) member(f *Field, span source.Span) ast.ExprID {
	self := d.b.Exprs.NewIdent(span, d.self)
	return d.b.Exprs.NewMember(span, self, d.b.Strings.Intern(f.Name))
}

// place is the receiver position of a field or method access, where
// references are dereferenced implicitly.
func (d *desugarer) place(id ast.ExprID, env *Environment) ast.ExprID {
	if f, ok := env.fieldFor(d.res.Ref(id)); ok {
		return d.member(f, d.b.Exprs.Get(id).Span)
	}
	return d.clone(id, env)
}

func (e *Environment) fieldFor(id symbols.BindingID) (*Field, bool) {
	if !id.IsValid() {
		return nil, false
	}
	for i := range e.Fields {
		if e.Fields[i].Binding == id {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

func (d *desugarer) clone(id ast.ExprID, env *Environment) ast.ExprID {
	if !id.IsValid() {
		return id
	}
	exprs := d.b.Exprs
	span := exprs.Get(id).Span
	switch exprs.Get(id).Kind {
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		if f, ok := env.fieldFor(d.res.Ref(id)); ok {
			return d.access(f, span)
		}
		return exprs.NewIdent(span, data.Name)
	case ast.ExprLit:
		data, _ := exprs.Literal(id)
		return exprs.NewLiteral(span, data.Kind, data.Value)
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		op, left, right := data.Op, data.Left, data.Right
		return exprs.NewBinary(span, op, d.clone(left, env), d.clone(right, env))
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		op, operand := data.Op, data.Operand
		return exprs.NewUnary(span, op, d.clone(operand, env))
	case ast.ExprCall:
		data, _ := exprs.Call(id)
		target, args := data.Target, data.Args
		return exprs.NewCall(span, d.clone(target, env), d.cloneAll(args, env))
	case ast.ExprMethodCall:
		data := *must(exprs.MethodCall(id))
		data.Receiver = d.place(data.Receiver, env)
		data.Args = d.cloneAll(data.Args, env)
		return exprs.NewMethodCall(span, data)
	case ast.ExprMember:
		data, _ := exprs.Member(id)
		target, field := data.Target, data.Field
		return exprs.NewMember(span, d.place(target, env), field)
	case ast.ExprGroup:
		data, _ := exprs.Group(id)
		inner := data.Inner
		return exprs.NewGroup(span, d.clone(inner, env))
	case ast.ExprBlock:
		data, _ := exprs.Block(id)
		stmts, tail := data.Stmts, data.Tail
		out := make([]ast.StmtID, 0, len(stmts))
		for _, st := range stmts {
			out = append(out, d.cloneStmt(st, env))
		}
		return exprs.NewBlock(span, out, d.clone(tail, env))
	case ast.ExprClosure:
		// nested literals are built from their own environment
		return d.construct(d.res.ClosureAt[id], env)
	case ast.ExprStruct:
		data, _ := exprs.Struct(id)
		typ := data.Type
		fields := make([]ast.StructFieldInit, 0, len(data.Fields))
		for _, f := range data.Fields {
			fields = append(fields, ast.StructFieldInit{Name: f.Name, Value: f.Value})
		}
		for i := range fields {
			fields[i].Value = d.clone(fields[i].Value, env)
		}
		return exprs.NewStruct(span, typ, fields)
	}
	return id
}

func (d *desugarer) cloneAll(ids []ast.ExprID, env *Environment) []ast.ExprID {
	if len(ids) == 0 {
		return nil
	}
	src := append([]ast.ExprID(nil), ids...)
	out := make([]ast.ExprID, 0, len(src))
	for _, id := range src {
		out = append(out, d.clone(id, env))
	}
	return out
}

func (d *desugarer) cloneStmt(id ast.StmtID, env *Environment) ast.StmtID {
	stmts := d.b.Stmts
	span := stmts.Get(id).Span
	switch stmts.Get(id).Kind {
	case ast.StmtLet:
		let := *must(stmts.Let(id))
		let.Value = d.clone(let.Value, env)
		return stmts.NewLet(span, let)
	case ast.StmtReturn:
		data, _ := stmts.Return(id)
		value := data.Value
		return stmts.NewReturn(span, d.clone(value, env))
	default:
		data, _ := stmts.Expr(id)
		expr := data.Expr
		return stmts.NewExpr(span, d.clone(expr, env))
	}
}

func must[T any](v *T, ok bool) *T {
	if !ok {
		panic("hir: node kind mismatch")
	}
	return v
}
