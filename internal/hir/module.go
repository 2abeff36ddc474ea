package hir

import (
	"strings"

	"capsule/internal/ast"
	"capsule/internal/sema"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Ownership is how an environment field holds its captured binding.
type Ownership uint8

const (
	Owned        Ownership = iota // T
	SharedRef                     // &T
	ExclusiveRef                  // &mut T
)

func (o Ownership) String() string {
	switch o {
	case SharedRef:
		return "shared"
	case ExclusiveRef:
		return "exclusive"
	}
	return "owned"
}

// OwnershipOf maps a capture mode to the field ownership that carries it.
func OwnershipOf(m sema.Mode) Ownership {
	switch m {
	case sema.ModeRead:
		return SharedRef
	case sema.ModeWrite:
		return ExclusiveRef
	}
	return Owned
}

// Field is one captured binding stored in an environment.
type Field struct {
	Name      string
	Binding   symbols.BindingID
	ValueType types.TypeID // the binding's own type
	Type      types.TypeID // ValueType, &ValueType or &mut ValueType
	Ownership Ownership
}

// CallMethod is the generated invocation method of an environment.
type CallMethod struct {
	Name     string // call_once, call_mut or call
	Receiver ast.SelfKind
	Params   []symbols.BindingID
	Result   types.TypeID
	// Body is the closure body cloned with captured references rewritten
	// to field accesses through self.
	Body ast.ExprID
}

// Environment is the aggregate a closure literal is lowered to.
type Environment struct {
	Name    string
	Closure symbols.ClosureID
	Trait   sema.CallTrait
	Fields  []Field
	Method  CallMethod
	// Ctor replaces the closure literal at its construction site.
	Ctor ast.ExprID
}

// FieldByName finds a field by the captured binding name.
func (e *Environment) FieldByName(name string) (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// Module is the desugared form of one file's closures.
type Module struct {
	Environments []Environment
	// Replacements maps each closure literal to its constructor.
	Replacements map[ast.ExprID]ast.ExprID

	symbols *symbols.Result
	byID    map[symbols.ClosureID]int
}

// EnvironmentFor returns the environment generated for a closure.
func (m *Module) EnvironmentFor(id symbols.ClosureID) (*Environment, bool) {
	i, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return &m.Environments[i], true
}

// Symbols returns the resolution the module was built from.
func (m *Module) Symbols() *symbols.Result { return m.symbols }

// EnvironmentName derives the aggregate name from a closure name such as
// "Point.get#1".
func EnvironmentName(closure string) string {
	r := strings.NewReplacer(".", "_", "#", "_")
	return "__closure_" + r.Replace(closure)
}

func methodFor(t sema.CallTrait) (string, ast.SelfKind) {
	switch t {
	case sema.TraitFnOnce:
		return "call_once", ast.SelfValue
	case sema.TraitFnMut:
		return "call_mut", ast.SelfMutRef
	}
	return "call", ast.SelfRef
}
