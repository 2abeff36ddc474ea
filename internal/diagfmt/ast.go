package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"capsule/internal/ast"
	"capsule/internal/source"
)

// ASTNodeOutput is the JSON form of an AST node.
type ASTNodeOutput struct {
	Type     string          `json:"type"`
	Kind     string          `json:"kind,omitempty"`
	Span     source.Span     `json:"span"`
	Text     string          `json:"text,omitempty"`
	Children []ASTNodeOutput `json:"children,omitempty"`
}

type treeNode struct {
	typ      string
	kind     string
	text     string
	span     source.Span
	children []*treeNode
}

func (n *treeNode) add(children ...*treeNode) *treeNode {
	for _, c := range children {
		if c != nil {
			n.children = append(n.children, c)
		}
	}
	return n
}

func (n *treeNode) label(fs *source.FileSet) string {
	var sb strings.Builder
	sb.WriteString(n.typ)
	if n.kind != "" {
		fmt.Fprintf(&sb, "[%s]", n.kind)
	}
	if n.text != "" {
		fmt.Fprintf(&sb, " %s", n.text)
	}
	if fs != nil && n.span.End > 0 {
		start, end := fs.Resolve(n.span)
		fmt.Fprintf(&sb, " (%d:%d-%d:%d)", start.Line, start.Col, end.Line, end.Col)
	}
	return sb.String()
}

func (n *treeNode) json() ASTNodeOutput {
	out := ASTNodeOutput{Type: n.typ, Kind: n.kind, Span: n.span, Text: n.text}
	for _, c := range n.children {
		out.Children = append(out.Children, c.json())
	}
	return out
}

type treeBuilder struct {
	b *ast.Builder
}

func (t treeBuilder) file(fileID ast.FileID) (*treeNode, error) {
	file := t.b.Files.Get(fileID)
	if file == nil {
		return nil, fmt.Errorf("file %d not found", fileID)
	}
	root := &treeNode{typ: "File", span: file.Span}
	for _, id := range file.Items {
		root.add(t.item(id))
	}
	return root, nil
}

func (t treeBuilder) item(id ast.ItemID) *treeNode {
	item := t.b.Items.Get(id)
	if fn, ok := t.b.Items.Fn(id); ok {
		name := t.b.Name(fn.Name)
		if fn.IsMethod() {
			name = t.b.Name(fn.Owner) + "." + name
		}
		n := &treeNode{typ: "Fn", text: name, span: item.Span}
		if fn.Self != ast.SelfNone {
			n.add(&treeNode{typ: "Receiver", text: fn.Self.String(), span: fn.SelfSpan})
		}
		for _, p := range fn.Params {
			text := t.b.Name(p.Name) + ": " + t.typeText(p.Type)
			if p.Mutable {
				text = "mut " + text
			}
			n.add(&treeNode{typ: "Param", text: text, span: p.Span})
		}
		if fn.Result.IsValid() {
			n.add(&treeNode{typ: "Result", text: t.typeText(fn.Result)})
		}
		if fn.Body.IsValid() {
			n.add(t.expr(fn.Body))
		}
		return n
	}
	typ, _ := t.b.Items.Type(id)
	n := &treeNode{typ: "Type", text: t.b.Name(typ.Name), span: item.Span}
	if typ.Copy {
		n.kind = "copy"
	}
	for _, f := range typ.Fields {
		n.add(&treeNode{typ: "Field", text: t.b.Name(f.Name) + ": " + t.typeText(f.Type), span: f.Span})
	}
	return n
}

func (t treeBuilder) stmt(id ast.StmtID) *treeNode {
	st := t.b.Stmts.Get(id)
	switch st.Kind {
	case ast.StmtLet:
		let, _ := t.b.Stmts.Let(id)
		text := t.b.Name(let.Name)
		if let.Mutable {
			text = "mut " + text
		}
		if let.Type.IsValid() {
			text += ": " + t.typeText(let.Type)
		}
		n := &treeNode{typ: "Let", text: text, span: st.Span}
		if let.Value.IsValid() {
			n.add(t.expr(let.Value))
		}
		return n
	case ast.StmtReturn:
		ret, _ := t.b.Stmts.Return(id)
		n := &treeNode{typ: "Return", span: st.Span}
		if ret.Value.IsValid() {
			n.add(t.expr(ret.Value))
		}
		return n
	}
	data, _ := t.b.Stmts.Expr(id)
	return (&treeNode{typ: "ExprStmt", span: st.Span}).add(t.expr(data.Expr))
}

func (t treeBuilder) expr(id ast.ExprID) *treeNode {
	exprs := t.b.Exprs
	e := exprs.Get(id)
	if e == nil {
		return nil
	}
	n := &treeNode{span: e.Span}
	switch e.Kind {
	case ast.ExprIdent:
		data, _ := exprs.Ident(id)
		n.typ, n.text = "Ident", t.b.Name(data.Name)
	case ast.ExprLit:
		data, _ := exprs.Literal(id)
		n.typ, n.text = "Literal", t.b.Name(data.Value)
	case ast.ExprBinary:
		data, _ := exprs.Binary(id)
		n.typ, n.kind = "Binary", data.Op.String()
		n.add(t.expr(data.Left), t.expr(data.Right))
	case ast.ExprUnary:
		data, _ := exprs.Unary(id)
		n.typ, n.kind = "Unary", strings.TrimSpace(data.Op.String())
		n.add(t.expr(data.Operand))
	case ast.ExprCall:
		data, _ := exprs.Call(id)
		n.typ = "Call"
		n.add(t.expr(data.Target))
		for _, a := range data.Args {
			n.add(t.expr(a))
		}
	case ast.ExprMethodCall:
		data, _ := exprs.MethodCall(id)
		n.typ, n.text = "MethodCall", t.b.Name(data.Name)
		n.add(t.expr(data.Receiver))
		for _, a := range data.Args {
			n.add(t.expr(a))
		}
	case ast.ExprMember:
		data, _ := exprs.Member(id)
		n.typ, n.text = "Member", t.b.Name(data.Field)
		n.add(t.expr(data.Target))
	case ast.ExprGroup:
		data, _ := exprs.Group(id)
		n.typ = "Group"
		n.add(t.expr(data.Inner))
	case ast.ExprBlock:
		data, _ := exprs.Block(id)
		n.typ = "Block"
		for _, st := range data.Stmts {
			n.add(t.stmt(st))
		}
		if data.Tail.IsValid() {
			n.add((&treeNode{typ: "Tail"}).add(t.expr(data.Tail)))
		}
	case ast.ExprClosure:
		data, _ := exprs.Closure(id)
		n.typ = "Closure"
		if data.Move {
			n.kind = "move"
		}
		params := make([]string, 0, len(data.Params))
		for _, p := range data.Params {
			text := t.b.Name(p.Name)
			if p.Type.IsValid() {
				text += ": " + t.typeText(p.Type)
			}
			params = append(params, text)
		}
		n.text = "|" + strings.Join(params, ", ") + "|"
		if data.Result.IsValid() {
			n.text += " -> " + t.typeText(data.Result)
		}
		n.add(t.expr(data.Body))
	case ast.ExprStruct:
		data, _ := exprs.Struct(id)
		n.typ, n.text = "Struct", t.b.Name(data.Type)
		for _, f := range data.Fields {
			n.add((&treeNode{typ: "FieldInit", text: t.b.Name(f.Name)}).add(t.expr(f.Value)))
		}
	}
	return n
}

// typeText renders a type expression the way it is written.
func (t treeBuilder) typeText(id ast.TypeID) string {
	te := t.b.Types.Get(id)
	if te == nil {
		return "_"
	}
	switch te.Kind {
	case ast.TypeExprPath:
		return t.b.Name(te.Name)
	case ast.TypeExprUnit:
		return "()"
	case ast.TypeExprRef:
		if te.Mut {
			return "&mut " + t.typeText(te.Elem)
		}
		return "&" + t.typeText(te.Elem)
	}
	params := make([]string, 0, len(te.Params))
	for _, p := range te.Params {
		params = append(params, t.typeText(p))
	}
	head := "fn"
	if te.Kind == ast.TypeExprBound {
		head = te.Bound.String()
		if te.Impl {
			head = "impl " + head
		}
	}
	out := head + "(" + strings.Join(params, ", ") + ")"
	if te.Result.IsValid() {
		out += " -> " + t.typeText(te.Result)
	}
	return out
}

// FormatASTPretty prints the file as a box-drawn tree.
func FormatASTPretty(w io.Writer, builder *ast.Builder, fileID ast.FileID, fs *source.FileSet) error {
	root, err := treeBuilder{b: builder}.file(fileID)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString(root.label(fs))
	sb.WriteByte('\n')
	writeTree(&sb, root.children, "", fs)
	_, err = io.WriteString(w, sb.String())
	return err
}

func writeTree(sb *strings.Builder, nodes []*treeNode, prefix string, fs *source.FileSet) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		branch, next := "├─ ", "│  "
		if last {
			branch, next = "└─ ", "   "
		}
		sb.WriteString(prefix)
		sb.WriteString(branch)
		sb.WriteString(n.label(fs))
		sb.WriteByte('\n')
		writeTree(sb, n.children, prefix+next, fs)
	}
}

// FormatASTJSON encodes the file as a JSON tree.
func FormatASTJSON(w io.Writer, builder *ast.Builder, fileID ast.FileID) error {
	root, err := treeBuilder{b: builder}.file(fileID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(root.json())
}
