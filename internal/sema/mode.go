package sema

import (
	"fmt"

	"capsule/internal/source"
	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Mode is the access a closure needs to an outer binding. Modes are
// ordered by strength: Read < Write < Consume.
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
	ModeConsume
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeConsume:
		return "consume"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Merge keeps the stronger of two modes.
func (m Mode) Merge(other Mode) Mode {
	return max(m, other)
}

// Directive is the explicit capture directive written on a closure.
type Directive uint8

const (
	DirectiveInfer   Directive = iota // no directive: per-variable inference
	DirectiveByValue                  // `move`
)

func (d Directive) String() string {
	if d == DirectiveByValue {
		return "move"
	}
	return "infer"
}

// CapturedVariable is one outer binding captured by a closure.
type CapturedVariable struct {
	Name    string
	Binding symbols.BindingID
	Type    types.TypeID
	Mode    Mode
	// Inferred is the mode the body alone requires; it differs from Mode
	// only under `move`.
	Inferred Mode
	// Span is the first use that required Inferred.
	Span source.Span
}
