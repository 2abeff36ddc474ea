package symbols

import (
	"capsule/internal/ast"
	"capsule/internal/diag"
	"capsule/internal/types"
)

// ResolveOptions controls a resolve pass for a single AST file.
type ResolveOptions struct {
	Types    *types.Table
	Reporter diag.Reporter
}

// Result captures resolve artefacts for one file. Arenas are 1-based; the
// zero slot of each is a sentinel.
type Result struct {
	File      ast.FileID
	Types     *types.Table
	Bindings  []Binding
	Closures  []Closure
	Funcs     []Function
	Refs      map[ast.ExprID]BindingID
	ClosureAt map[ast.ExprID]ClosureID
	Scopes    []Scope

	builder *ast.Builder
}

// ResolveFile walks the AST file, declares every binding, links identifier
// references to them and records closures with their free variables.
func ResolveFile(builder *ast.Builder, fileID ast.FileID, opts ResolveOptions) *Result {
	table := opts.Types
	if table == nil {
		table = types.Collect(builder, fileID, opts.Reporter)
	}
	res := &Result{
		File:      fileID,
		Types:     table,
		Bindings:  make([]Binding, 1, 64),
		Closures:  make([]Closure, 1, 16),
		Funcs:     make([]Function, 1, 16),
		Refs:      make(map[ast.ExprID]BindingID, 128),
		ClosureAt: make(map[ast.ExprID]ClosureID, 16),
		builder:   builder,
	}
	file := builder.Files.Get(fileID)
	if file == nil {
		return res
	}

	w := walker{
		b:        builder,
		res:      res,
		table:    table,
		reporter: opts.Reporter,
		scopes:   newScopeStack(),
	}
	w.scopes.push(ScopeFile, file.Span)
	for _, itemID := range file.Items {
		w.declareFunc(itemID)
	}
	for _, itemID := range file.Items {
		w.handleFunc(itemID)
	}
	w.scopes.pop()
	res.Scopes = w.scopes.scopes
	return res
}

// Builder returns the AST the result was computed over.
func (r *Result) Builder() *ast.Builder { return r.builder }

func (r *Result) Binding(id BindingID) *Binding {
	if !id.IsValid() || int(id) >= len(r.Bindings) {
		return nil
	}
	return &r.Bindings[id]
}

func (r *Result) Closure(id ClosureID) *Closure {
	if !id.IsValid() || int(id) >= len(r.Closures) {
		return nil
	}
	return &r.Closures[id]
}

func (r *Result) Func(id FuncID) *Function {
	if !id.IsValid() || int(id) >= len(r.Funcs) {
		return nil
	}
	return &r.Funcs[id]
}

// ClosureIDs lists all closures in source order, outer before inner.
func (r *Result) ClosureIDs() []ClosureID {
	ids := make([]ClosureID, 0, len(r.Closures)-1)
	for i := 1; i < len(r.Closures); i++ {
		ids = append(ids, ClosureID(i)) // #nosec G115 -- bounded by arena
	}
	return ids
}

// Ref returns the binding an identifier expression resolved to.
func (r *Result) Ref(expr ast.ExprID) BindingID {
	return r.Refs[expr]
}

// BindingName resolves the binding's identifier.
func (r *Result) BindingName(id BindingID) string {
	if b := r.Binding(id); b != nil {
		return r.builder.Name(b.Name)
	}
	return ""
}

// Within reports whether closure inner is outer or nested inside it.
func (r *Result) Within(inner, outer ClosureID) bool {
	for inner.IsValid() {
		if inner == outer {
			return true
		}
		inner = r.Closure(inner).Parent
	}
	return !outer.IsValid()
}

// IsFree reports whether binding id is declared outside closure c.
func (r *Result) IsFree(id BindingID, c ClosureID) bool {
	b := r.Binding(id)
	if b == nil || !b.Captured() {
		return false
	}
	return !r.Within(b.Owner.Closure, c)
}
