package types

import (
	"fmt"

	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/source"
)

// Collect builds the table for one file: nominal types first so that
// signatures may refer to types declared later in the file, then fields,
// functions and methods.
func Collect(b *ast.Builder, file ast.FileID, reporter diag.Reporter) *Table {
	t := NewTable(b.Strings)
	f := b.Files.Get(file)
	if f == nil {
		return t
	}
	for _, itemID := range f.Items {
		decl, ok := b.Items.Type(itemID)
		if !ok {
			continue
		}
		if _, exists := t.Named(decl.Name); exists {
			diag.ReportError(reporter, diag.SemaDuplicateSymbol, decl.NameSpan,
				fmt.Sprintf("type %q is already declared", b.Name(decl.Name))).Emit()
			continue
		}
		t.nominals[decl.Name] = t.RegisterNominal(decl.Name, decl.NameSpan, decl.Copy)
	}
	for _, itemID := range f.Items {
		decl, ok := b.Items.Type(itemID)
		if !ok {
			continue
		}
		id := t.nominals[decl.Name]
		if info, ok := t.NominalInfo(id); !ok || info.Decl != decl.NameSpan {
			continue
		}
		fields := make([]Field, 0, len(decl.Fields))
		for _, fd := range decl.Fields {
			fields = append(fields, Field{Name: fd.Name, Type: t.Lower(b, fd.Type, reporter)})
		}
		t.SetFields(id, fields)
	}
	for _, itemID := range f.Items {
		fn, ok := b.Items.Fn(itemID)
		if !ok {
			continue
		}
		t.declare(b, itemID, fn, reporter)
	}
	return t
}

func (t *Table) declare(b *ast.Builder, itemID ast.ItemID, fn *ast.FnItem, reporter diag.Reporter) {
	sig := &Signature{
		Item:       itemID,
		Name:       fn.Name,
		Self:       fn.Self,
		ParamNames: make([]source.StringID, 0, len(fn.Params)),
		Params:     make([]TypeID, 0, len(fn.Params)),
		Result:     t.Builtins().Unit,
		Decl:       fn.NameSpan,
		External:   !fn.Body.IsValid(),
	}
	for _, p := range fn.Params {
		sig.ParamNames = append(sig.ParamNames, p.Name)
		sig.Params = append(sig.Params, t.Lower(b, p.Type, reporter))
	}
	if fn.Result.IsValid() {
		sig.Result = t.Lower(b, fn.Result, reporter)
	}
	if !fn.IsMethod() {
		if !t.addFunc(sig) {
			diag.ReportError(reporter, diag.SemaDuplicateSymbol, fn.NameSpan,
				fmt.Sprintf("function %q is already declared", b.Name(fn.Name))).Emit()
		}
		return
	}
	owner, ok := t.Named(fn.Owner)
	if !ok {
		diag.ReportError(reporter, diag.SemaUnknownType, fn.NameSpan,
			fmt.Sprintf("unknown receiver type %q", b.Name(fn.Owner))).Emit()
		return
	}
	sig.Owner = owner
	if !t.addMethod(sig) {
		diag.ReportError(reporter, diag.SemaDuplicateSymbol, fn.NameSpan,
			fmt.Sprintf("method %s.%s is already declared", b.Name(fn.Owner), b.Name(fn.Name))).Emit()
	}
}

// Lower converts a surface type into a TypeID. Unknown names are reported
// and yield NoTypeID.
func (t *Table) Lower(b *ast.Builder, id ast.TypeID, reporter diag.Reporter) TypeID {
	te := b.Types.Get(id)
	if te == nil {
		return NoTypeID
	}
	switch te.Kind {
	case ast.TypeExprUnit:
		return t.Builtins().Unit
	case ast.TypeExprPath:
		if named, ok := t.Named(te.Name); ok {
			return named
		}
		diag.ReportError(reporter, diag.SemaUnknownType, te.Span,
			fmt.Sprintf("unknown type %q", b.Name(te.Name))).Emit()
		return NoTypeID
	case ast.TypeExprRef:
		elem := t.Lower(b, te.Elem, reporter)
		if elem == NoTypeID {
			return NoTypeID
		}
		return t.Intern(MakeReference(elem, te.Mut))
	case ast.TypeExprFn, ast.TypeExprBound:
		params := make([]TypeID, 0, len(te.Params))
		for _, p := range te.Params {
			params = append(params, t.Lower(b, p, reporter))
		}
		result := t.Builtins().Unit
		if te.Result.IsValid() {
			result = t.Lower(b, te.Result, reporter)
		}
		if te.Kind == ast.TypeExprFn {
			return t.RegisterFn(params, result)
		}
		return t.RegisterBound(boundFromAST(te.Bound), params, result)
	}
	return NoTypeID
}

func boundFromAST(k ast.BoundKind) BoundKind {
	switch k {
	case ast.BoundFnMut:
		return BoundFnMut
	case ast.BoundFnOnce:
		return BoundFnOnce
	}
	return BoundFn
}
