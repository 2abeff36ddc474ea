package symbols

import (
	"capsule/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFile               // top-level functions
	ScopeFunction           // parameters and receiver
	ScopeClosure            // closure parameters
	ScopeBlock              // `{ ... }`
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopeClosure:
		return "closure"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope. Later declarations with the same name
// shadow earlier ones, so NameIndex always maps to the newest binding.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Span      source.Span
	NameIndex map[source.StringID]BindingID
	Bindings  []BindingID
}

type scopeStack struct {
	scopes []Scope
	stack  []ScopeID
}

func newScopeStack() *scopeStack {
	// reserve 0 as invalid sentinel
	return &scopeStack{scopes: make([]Scope, 1, 16)}
}

func (s *scopeStack) push(kind ScopeKind, span source.Span) ScopeID {
	id := ScopeID(len(s.scopes)) // #nosec G115 -- scopes grow with AST size
	s.scopes = append(s.scopes, Scope{
		Kind:      kind,
		Parent:    s.current(),
		Span:      span,
		NameIndex: make(map[source.StringID]BindingID),
	})
	s.stack = append(s.stack, id)
	return id
}

func (s *scopeStack) pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *scopeStack) current() ScopeID {
	if len(s.stack) == 0 {
		return NoScopeID
	}
	return s.stack[len(s.stack)-1]
}

func (s *scopeStack) declare(name source.StringID, id BindingID) {
	sc := &s.scopes[s.current()]
	sc.NameIndex[name] = id
	sc.Bindings = append(sc.Bindings, id)
}

// lookupLocal only searches the innermost scope.
func (s *scopeStack) lookupLocal(name source.StringID) (BindingID, bool) {
	id, ok := s.scopes[s.current()].NameIndex[name]
	return id, ok
}

func (s *scopeStack) lookup(name source.StringID) (BindingID, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if id, ok := s.scopes[s.stack[i]].NameIndex[name]; ok {
			return id, true
		}
	}
	return NoBindingID, false
}
