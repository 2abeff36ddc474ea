package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type. Bindings whose type could not be
// determined carry NoTypeID.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	KindReference
	KindFn      // plain function value: fn(T) -> R
	KindBound   // Fn / FnMut / FnOnce callable bound
	KindNominal // user `type` declaration
	KindClosure // anonymous closure type, one per closure literal
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindReference:
		return "reference"
	case KindFn:
		return "fn"
	case KindBound:
		return "bound"
	case KindNominal:
		return "nominal"
	case KindClosure:
		return "closure"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// BoundKind is the call trait named by a KindBound type.
type BoundKind uint8

const (
	BoundFn BoundKind = iota
	BoundFnMut
	BoundFnOnce
)

func (b BoundKind) String() string {
	switch b {
	case BoundFn:
		return "Fn"
	case BoundFnMut:
		return "FnMut"
	case BoundFnOnce:
		return "FnOnce"
	}
	return fmt.Sprintf("BoundKind(%d)", b)
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID    // referent for references
	Mutable bool      // for references
	Bound   BoundKind // for KindBound
	Payload uint32    // side-table slot: signature, nominal or closure index
}

// MakeReference constructs a reference descriptor.
func MakeReference(elem TypeID, mutable bool) Type {
	return Type{Kind: KindReference, Elem: elem, Mutable: mutable}
}
