package ast

import (
	"capsule/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemType
)

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

type Items struct {
	Arena *Arena[Item]
	Fns   *Arena[FnItem]
	Types *Arena[TypeItem]
}

func NewItems(capHint uint) *Items {
	return &Items{
		Arena: NewArena[Item](capHint),
		Fns:   NewArena[FnItem](capHint),
		Types: NewArena[TypeItem](capHint),
	}
}

func (i *Items) New(kind ItemKind, span source.Span, payload PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{Kind: kind, Span: span, Payload: payload}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

// SelfKind is the declared receiver of a method.
type SelfKind uint8

const (
	SelfNone   SelfKind = iota // free function
	SelfValue                  // self
	SelfRef                    // &self
	SelfMutRef                 // &mut self
)

func (k SelfKind) String() string {
	switch k {
	case SelfValue:
		return "self"
	case SelfRef:
		return "&self"
	case SelfMutRef:
		return "&mut self"
	}
	return ""
}

type Param struct {
	Name    source.StringID
	Span    source.Span
	Type    TypeID
	Mutable bool
}

// FnItem is a function or a method `fn Type.name(...)`. A missing body
// declares an external signature.
type FnItem struct {
	Name     source.StringID
	NameSpan source.Span
	Owner    source.StringID // receiver type for methods
	Self     SelfKind
	SelfSpan source.Span
	Params   []Param
	Result   TypeID
	Body     ExprID // block; NoExprID for declarations
	Span     source.Span
}

func (f *FnItem) IsMethod() bool { return f.Owner != source.NoStringID }

func (i *Items) NewFn(fn FnItem) ItemID {
	payload := i.Fns.Allocate(fn)
	return i.New(ItemFn, fn.Span, PayloadID(payload))
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(item.Payload)), true
}

type FieldDecl struct {
	Name source.StringID
	Span source.Span
	Type TypeID
}

// TypeItem declares a nominal type; Copy marks it trivially duplicable.
type TypeItem struct {
	Name     source.StringID
	NameSpan source.Span
	Copy     bool
	Fields   []FieldDecl
	Span     source.Span
}

func (i *Items) NewType(t TypeItem) ItemID {
	payload := i.Types.Allocate(t)
	return i.New(ItemType, t.Span, PayloadID(payload))
}

func (i *Items) Type(id ItemID) (*TypeItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemType {
		return nil, false
	}
	return i.Types.Get(uint32(item.Payload)), true
}
