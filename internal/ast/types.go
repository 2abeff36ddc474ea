package ast

import (
	"capsule/internal/source"
)

type TypeExprKind uint8

const (
	TypeExprPath TypeExprKind = iota // int, string, Verifier
	TypeExprUnit                     // ()
	TypeExprRef                      // &T, &mut T
	TypeExprFn                       // fn(T) -> R
	TypeExprBound                    // Fn(T) -> R, impl FnMut(T)
)

// BoundKind names the call trait of a TypeExprBound.
type BoundKind uint8

const (
	BoundFn BoundKind = iota
	BoundFnMut
	BoundFnOnce
)

func (k BoundKind) String() string {
	switch k {
	case BoundFn:
		return "Fn"
	case BoundFnMut:
		return "FnMut"
	case BoundFnOnce:
		return "FnOnce"
	}
	return "?"
}

// TypeExpr is a surface type. Fields irrelevant to Kind are zero.
type TypeExpr struct {
	Kind   TypeExprKind
	Span   source.Span
	Name   source.StringID // Path
	Mut    bool            // Ref
	Elem   TypeID          // Ref
	Params []TypeID        // Fn, Bound
	Result TypeID          // Fn, Bound; NoTypeID means ()
	Bound  BoundKind       // Bound
	Impl   bool            // Bound written with `impl`
}

type TypeExprs struct {
	Arena *Arena[TypeExpr]
}

func NewTypeExprs(capHint uint) *TypeExprs {
	return &TypeExprs{Arena: NewArena[TypeExpr](capHint)}
}

func (t *TypeExprs) New(te TypeExpr) TypeID {
	return TypeID(t.Arena.Allocate(te))
}

func (t *TypeExprs) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}
