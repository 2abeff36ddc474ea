package hir

import (
	"fmt"
	"io"
	"strings"

	"capsule/internal/ast"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Printer renders desugared environments as source-like text.
type Printer struct {
	w     io.Writer
	b     *ast.Builder
	res   *symbols.Result
	table *types.Table
	err   error
}

// NewPrinter creates a printer over the builder the module was built in.
func NewPrinter(w io.Writer, b *ast.Builder, res *symbols.Result) *Printer {
	return &Printer{w: w, b: b, res: res, table: res.Types}
}

// Dump writes every environment of m.
func Dump(w io.Writer, b *ast.Builder, m *Module) error {
	p := NewPrinter(w, b, m.symbols)
	return p.PrintModule(m)
}

// PrintModule prints the environments in closure order, separated by blank
// lines.
func (p *Printer) PrintModule(m *Module) error {
	for i := range m.Environments {
		if i > 0 {
			p.printf("\n")
		}
		p.PrintEnvironment(&m.Environments[i])
	}
	return p.err
}

// PrintEnvironment prints one aggregate with its call method and the
// constructor that replaces the literal.
func (p *Printer) PrintEnvironment(env *Environment) {
	c := p.res.Closure(env.Closure)
	p.printf("env %s for %s: %s\n", env.Name, c.Name, env.Trait)
	if len(env.Fields) == 0 {
		p.printf("  // no captures, coercible to fn pointer\n")
	}
	for _, f := range env.Fields {
		p.printf("  %s: %s\n", f.Name, p.table.Format(f.Type))
	}
	p.printf("  %s %s\n", p.Signature(env), p.Body(env.Method.Body, 1))
	p.printf("  ctor %s\n", p.Expr(env.Ctor))
}

// Signature renders the call method header.
func (p *Printer) Signature(env *Environment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(%s", env.Method.Name, env.Method.Receiver)
	for _, id := range env.Method.Params {
		bind := p.res.Binding(id)
		fmt.Fprintf(&sb, ", %s: %s", p.b.Name(bind.Name), p.table.Format(bind.Type))
	}
	sb.WriteByte(')')
	if env.Method.Result != p.table.Builtins().Unit {
		fmt.Fprintf(&sb, " -> %s", p.table.Format(env.Method.Result))
	}
	return sb.String()
}

// Body renders a method body as a block at the given indent level.
func (p *Printer) Body(id ast.ExprID, depth int) string {
	var sb strings.Builder
	if p.b.Exprs.Get(id).Kind == ast.ExprBlock {
		p.block(&sb, id, depth)
		return sb.String()
	}
	sb.WriteString("{ ")
	p.expr(&sb, id, depth)
	sb.WriteString(" }")
	return sb.String()
}

// Expr renders a single expression on one line where possible.
func (p *Printer) Expr(id ast.ExprID) string {
	var sb strings.Builder
	p.expr(&sb, id, 0)
	return sb.String()
}

func (p *Printer) expr(sb *strings.Builder, id ast.ExprID, depth int) {
	exprs := p.b.Exprs
	e := exprs.Get(id)
	if e == nil {
		sb.WriteString("<invalid>")
		return
	}
	switch e.Kind {
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		sb.WriteString(p.b.Name(data.Name))
	case ast.ExprLit:
		data, _ := exprs.Literal(id)
		sb.WriteString(p.b.Name(data.Value))
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		p.expr(sb, data.Left, depth)
		fmt.Fprintf(sb, " %s ", data.Op)
		p.expr(sb, data.Right, depth)
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		sb.WriteString(data.Op.String())
		p.expr(sb, data.Operand, depth)
	case ast.ExprCall:
		data, _ := exprs.Call(id)
		p.expr(sb, data.Target, depth)
		p.args(sb, data.Args, depth)
	case ast.ExprMethodCall:
		data, _ := exprs.MethodCall(id)
		p.expr(sb, data.Receiver, depth)
		sb.WriteByte('.')
		sb.WriteString(p.b.Name(data.Name))
		p.args(sb, data.Args, depth)
	case ast.ExprMember:
		data, _ := exprs.Member(id)
		p.expr(sb, data.Target, depth)
		sb.WriteByte('.')
		sb.WriteString(p.b.Name(data.Field))
	case ast.ExprGroup:
		data, _ := exprs.Group(id)
		sb.WriteByte('(')
		p.expr(sb, data.Inner, depth)
		sb.WriteByte(')')
	case ast.ExprBlock:
		p.block(sb, id, depth)
	case ast.ExprClosure:
		data, _ := exprs.Closure(id)
		if data.Move {
			sb.WriteString("move ")
		}
		sb.WriteByte('|')
		for i, param := range data.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.b.Name(param.Name))
		}
		sb.WriteString("| ")
		p.expr(sb, data.Body, depth)
	case ast.ExprStruct:
		data, _ := exprs.Struct(id)
		sb.WriteString(p.b.Name(data.Type))
		if len(data.Fields) == 0 {
			sb.WriteString(" {}")
			return
		}
		sb.WriteString(" { ")
		for i, f := range data.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.b.Name(f.Name))
			sb.WriteString(": ")
			p.expr(sb, f.Value, depth)
		}
		sb.WriteString(" }")
	}
}

func (p *Printer) args(sb *strings.Builder, args []ast.ExprID, depth int) {
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		p.expr(sb, a, depth)
	}
	sb.WriteByte(')')
}

func (p *Printer) block(sb *strings.Builder, id ast.ExprID, depth int) {
	data, _ := p.b.Exprs.Block(id)
	if len(data.Stmts) == 0 && !data.Tail.IsValid() {
		sb.WriteString("{}")
		return
	}
	indent := strings.Repeat("  ", depth+1)
	sb.WriteString("{\n")
	for _, st := range data.Stmts {
		sb.WriteString(indent)
		p.stmt(sb, st, depth+1)
		sb.WriteByte('\n')
	}
	if data.Tail.IsValid() {
		sb.WriteString(indent)
		p.expr(sb, data.Tail, depth+1)
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteByte('}')
}

func (p *Printer) stmt(sb *strings.Builder, id ast.StmtID, depth int) {
	stmts := p.b.Stmts
	switch stmts.Get(id).Kind {
	case ast.StmtLet:
		let, _ := stmts.Let(id)
		sb.WriteString("let ")
		if let.Mutable {
			sb.WriteString("mut ")
		}
		sb.WriteString(p.b.Name(let.Name))
		if let.Value.IsValid() {
			sb.WriteString(" = ")
			p.expr(sb, let.Value, depth)
		}
	case ast.StmtReturn:
		ret, _ := stmts.Return(id)
		sb.WriteString("return")
		if ret.Value.IsValid() {
			sb.WriteByte(' ')
			p.expr(sb, ret.Value, depth)
		}
	case ast.StmtExpr:
		data, _ := stmts.Expr(id)
		p.expr(sb, data.Expr, depth)
	}
	sb.WriteByte(';')
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
