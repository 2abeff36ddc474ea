package types

import (
	"slices"

	"capsule/internal/source"
)

// Field describes a single field inside a nominal type.
type Field struct {
	Name source.StringID
	Type TypeID
}

// NominalInfo stores metadata for a declared type.
type NominalInfo struct {
	Name   source.StringID
	Decl   source.Span
	Copy   bool
	Fields []Field
}

// ClosureInfo ties a closure type back to the closure literal it was
// created for.
type ClosureInfo struct {
	Name  string
	Index uint32
}

// RegisterNominal allocates a fresh nominal type.
func (in *Interner) RegisterNominal(name source.StringID, decl source.Span, isCopy bool) TypeID {
	in.nominals = append(in.nominals, NominalInfo{Name: name, Decl: decl, Copy: isCopy})
	return in.internRaw(Type{Kind: KindNominal, Payload: slot(len(in.nominals)-1, "nominal info")})
}

// SetFields stores the resolved field descriptors for a nominal type.
func (in *Interner) SetFields(id TypeID, fields []Field) {
	if info, ok := in.NominalInfo(id); ok {
		info.Fields = slices.Clone(fields)
	}
}

// NominalInfo returns metadata for the provided nominal TypeID.
func (in *Interner) NominalInfo(id TypeID) (*NominalInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindNominal || int(tt.Payload) >= len(in.nominals) {
		return nil, false
	}
	return &in.nominals[tt.Payload], true
}

// Field finds a field by name on a nominal type, looking through references.
func (in *Interner) Field(id TypeID, name source.StringID) (TypeID, bool) {
	info, ok := in.NominalInfo(in.Deref(id))
	if !ok {
		return NoTypeID, false
	}
	for _, f := range info.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return NoTypeID, false
}

// RegisterClosure allocates the unique type of one closure literal.
func (in *Interner) RegisterClosure(name string, index uint32) TypeID {
	in.closures = append(in.closures, ClosureInfo{Name: name, Index: index})
	return in.internRaw(Type{Kind: KindClosure, Payload: slot(len(in.closures)-1, "closure info")})
}

// ClosureInfo returns the closure a closure type was created for.
func (in *Interner) ClosureInfo(id TypeID) (ClosureInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClosure || int(tt.Payload) >= len(in.closures) {
		return ClosureInfo{}, false
	}
	return in.closures[tt.Payload], true
}

// Deref strips any number of reference layers.
func (in *Interner) Deref(id TypeID) TypeID {
	for {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindReference {
			return id
		}
		id = tt.Elem
	}
}
