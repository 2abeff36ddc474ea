package symbols

import (
	"capsule/internal/ast"
	"capsule/internal/source"
	"capsule/internal/types"
)

// BindingKind classifies where a binding was declared.
type BindingKind uint8

const (
	BindingInvalid BindingKind = iota
	BindingFunc                // top-level function
	BindingParam               // function parameter
	BindingSelf                // method receiver
	BindingLet                 // let statement
	BindingClosureParam        // closure parameter
)

func (k BindingKind) String() string {
	switch k {
	case BindingFunc:
		return "function"
	case BindingParam:
		return "param"
	case BindingSelf:
		return "self"
	case BindingLet:
		return "let"
	case BindingClosureParam:
		return "closure param"
	default:
		return "invalid"
	}
}

// Owner is the body a binding belongs to: a function body, or the body of
// a closure inside it.
type Owner struct {
	Func    FuncID
	Closure ClosureID
}

// Binding is a variable visible to expressions. Captures refer back to
// bindings by ID and never own them.
type Binding struct {
	Name    source.StringID
	Kind    BindingKind
	Span    source.Span
	Type    types.TypeID
	Mutable bool
	Owner   Owner
	// Value is the let initializer, if any.
	Value ast.ExprID
	// Closure is set when Value is a closure literal held by this binding.
	Closure ClosureID
}

// Captured reports whether a closure can capture the binding. Functions
// are global and never captured.
func (b *Binding) Captured() bool {
	return b.Kind != BindingFunc && b.Kind != BindingInvalid
}
