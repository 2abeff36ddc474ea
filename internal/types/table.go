package types

import (
	"capsule/internal/ast"
	"capsule/internal/source"
)

// Signature is a declared function or method.
type Signature struct {
	Item       ast.ItemID
	Name       source.StringID
	Owner      TypeID // receiver type for methods
	Self       ast.SelfKind
	ParamNames []source.StringID
	Params     []TypeID
	Result     TypeID
	Decl       source.Span
	External   bool // declared without a body
}

type methodKey struct {
	owner TypeID
	name  source.StringID
}

// Table is the type layer the elaboration passes consult: interned types,
// declared nominal types, free functions and methods with their receiver
// kinds.
type Table struct {
	*Interner
	strings  *source.Interner
	nominals map[source.StringID]TypeID
	funcs    map[source.StringID]*Signature
	methods  map[methodKey]*Signature
	builtin  map[string]TypeID
}

// NewTable creates an empty table over a string interner.
func NewTable(strings *source.Interner) *Table {
	in := NewInterner()
	b := in.Builtins()
	return &Table{
		Interner: in,
		strings:  strings,
		nominals: make(map[source.StringID]TypeID),
		funcs:    make(map[source.StringID]*Signature),
		methods:  make(map[methodKey]*Signature),
		builtin: map[string]TypeID{
			"int":    b.Int,
			"float":  b.Float,
			"bool":   b.Bool,
			"string": b.String,
		},
	}
}

// Strings exposes the interner names are resolved against.
func (t *Table) Strings() *source.Interner { return t.strings }

// Named resolves a type name to a builtin or declared nominal type.
func (t *Table) Named(name source.StringID) (TypeID, bool) {
	if s, ok := t.strings.Lookup(name); ok {
		if id, ok := t.builtin[s]; ok {
			return id, true
		}
	}
	id, ok := t.nominals[name]
	return id, ok
}

// Func returns a declared free function.
func (t *Table) Func(name source.StringID) (*Signature, bool) {
	sig, ok := t.funcs[name]
	return sig, ok
}

// Method returns the method name declared on owner, looking through
// references on the receiver type.
func (t *Table) Method(owner TypeID, name source.StringID) (*Signature, bool) {
	sig, ok := t.methods[methodKey{owner: t.Deref(owner), name: name}]
	return sig, ok
}

// IsCopy reports whether values of id can be duplicated without moving.
// Unknown types are treated as copyable so they never cause a move.
func (t *Table) IsCopy(id TypeID) bool {
	tt, ok := t.Lookup(id)
	if !ok {
		return true
	}
	switch tt.Kind {
	case KindUnit, KindBool, KindInt, KindFloat, KindFn:
		return true
	case KindReference:
		return !tt.Mutable
	case KindNominal:
		info, _ := t.NominalInfo(id)
		return info != nil && info.Copy
	default:
		return false
	}
}

// BoundOf reports the call trait a callable type guarantees. Plain
// function values behave like Fn.
func (t *Table) BoundOf(id TypeID) (BoundKind, bool) {
	tt, ok := t.Lookup(t.Deref(id))
	if !ok {
		return 0, false
	}
	switch tt.Kind {
	case KindBound:
		return tt.Bound, true
	case KindFn:
		return BoundFn, true
	}
	return 0, false
}

func (t *Table) addFunc(sig *Signature) bool {
	if _, dup := t.funcs[sig.Name]; dup {
		return false
	}
	t.funcs[sig.Name] = sig
	return true
}

func (t *Table) addMethod(sig *Signature) bool {
	key := methodKey{owner: sig.Owner, name: sig.Name}
	if _, dup := t.methods[key]; dup {
		return false
	}
	t.methods[key] = sig
	return true
}
