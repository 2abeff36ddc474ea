package symbols

import (
	"slices"

	"capsule/internal/ast"
	"capsule/internal/source"
	"capsule/internal/types"
)

// Closure is a closure literal as seen by scope resolution.
type Closure struct {
	ID     ClosureID
	Expr   ast.ExprID
	Name   string // <fn>#<n>
	Index  int    // position among the closures of Func, in source order
	Func   FuncID
	Parent ClosureID
	Span   source.Span
	Params []BindingID
	Result types.TypeID
	Type   types.TypeID
	Move   bool
	// Free lists the outer bindings referenced by the body, nested
	// closures included, ordered by first reference.
	Free []BindingID
	// Holder is the let binding the literal initializes, if any.
	Holder BindingID
}

func (c *Closure) addFree(id BindingID) {
	if !slices.Contains(c.Free, id) {
		c.Free = append(c.Free, id)
	}
}

// Function is a function or method with a body.
type Function struct {
	ID       FuncID
	Item     ast.ItemID
	Name     string
	Sig      *types.Signature
	Self     BindingID
	Params   []BindingID
	Body     ast.ExprID
	Closures []ClosureID
}
