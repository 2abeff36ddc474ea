package symbols

// ScopeID identifies a scope in the resolver arena.
type ScopeID uint32

// NoScopeID marks the absence of a scope reference.
const NoScopeID ScopeID = 0

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// BindingID identifies a binding inside the resolver arena.
type BindingID uint32

// NoBindingID marks the absence of a binding reference.
const NoBindingID BindingID = 0

// IsValid reports whether the binding ID refers to an allocated binding.
func (id BindingID) IsValid() bool { return id != NoBindingID }

// ClosureID identifies a closure literal.
type ClosureID uint32

// NoClosureID stands for "not inside any closure", i.e. a function body.
const NoClosureID ClosureID = 0

func (id ClosureID) IsValid() bool { return id != NoClosureID }

// FuncID identifies a function with a body.
type FuncID uint32

const NoFuncID FuncID = 0

func (id FuncID) IsValid() bool { return id != NoFuncID }
