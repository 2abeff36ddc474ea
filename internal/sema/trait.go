package sema

import "fmt"

// CallTrait is the capability a closure offers its callers. The order is
// Fn ⊆ FnMut ⊆ FnOnce: anything callable as Fn is callable as the others.
type CallTrait uint8

const (
	TraitFn CallTrait = iota
	TraitFnMut
	TraitFnOnce
)

func (t CallTrait) String() string {
	switch t {
	case TraitFn:
		return "Fn"
	case TraitFnMut:
		return "FnMut"
	case TraitFnOnce:
		return "FnOnce"
	}
	return fmt.Sprintf("CallTrait(%d)", t)
}

// Satisfies reports whether a closure with trait t may be used where
// required is expected.
func (t CallTrait) Satisfies(required CallTrait) bool {
	return t <= required
}

// Mode is the access a caller needs to a value of this trait.
func (t CallTrait) Mode() Mode {
	switch t {
	case TraitFnMut:
		return ModeWrite
	case TraitFnOnce:
		return ModeConsume
	}
	return ModeRead
}

// Resolution is the outcome of trait resolution for one closure.
type Resolution struct {
	Trait CallTrait
	// CoercibleToFnPtr marks closures without captures, usable where a
	// plain function value is required.
	CoercibleToFnPtr bool
}

// Resolver maps capture sets to call traits.
type Resolver struct {
	// MoveKeepsTrait computes the trait from the body's own use even when
	// `move` stores every capture by value.
	MoveKeepsTrait bool
}

// Resolve applies, in order: any Consume capture gives FnOnce, any Write
// capture gives FnMut, anything else is Fn.
func (r Resolver) Resolve(caps []CapturedVariable) Resolution {
	trait := TraitFn
	for _, cv := range caps {
		mode := cv.Mode
		if r.MoveKeepsTrait {
			mode = cv.Inferred
		}
		switch mode {
		case ModeConsume:
			trait = TraitFnOnce
		case ModeWrite:
			trait = max(trait, TraitFnMut)
		}
	}
	return Resolution{Trait: trait, CoercibleToFnPtr: len(caps) == 0}
}
