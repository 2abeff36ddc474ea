package sema

import (
	"slices"

	"capsule/internal/symbols"
	"capsule/internal/types"
)

// Analyzer computes capture sets and call traits for the closures of one
// resolved file. Results are memoized per closure; the memo only caches
// values that are a pure function of the AST and bindings.
type Analyzer struct {
	res      *symbols.Result
	table    *types.Table
	resolver Resolver

	captures    map[symbols.ClosureID][]CapturedVariable
	assumptions map[symbols.ClosureID][]assumption
	active      map[symbols.ClosureID]bool
}

// NewAnalyzer prepares an analyzer over resolved bindings.
func NewAnalyzer(res *symbols.Result, resolver Resolver) *Analyzer {
	return &Analyzer{
		res:         res,
		table:       res.Types,
		resolver:    resolver,
		captures:    make(map[symbols.ClosureID][]CapturedVariable),
		assumptions: make(map[symbols.ClosureID][]assumption),
		active:      make(map[symbols.ClosureID]bool),
	}
}

// Captures returns one CapturedVariable per distinct outer binding the
// closure references, in order of first reference.
func (a *Analyzer) Captures(id symbols.ClosureID) []CapturedVariable {
	if cached, ok := a.captures[id]; ok {
		return slices.Clone(cached)
	}
	c := a.res.Closure(id)
	if c == nil || a.active[id] {
		return nil
	}
	a.active[id] = true
	defer delete(a.active, id)

	data, _ := a.res.Builder().Exprs.Closure(c.Expr)
	col := a.collectBody(data.Body)

	var caps []CapturedVariable
	index := make(map[symbols.BindingID]int)
	for _, u := range col.uses {
		if !a.res.IsFree(u.Binding, id) {
			continue
		}
		i, seen := index[u.Binding]
		if !seen {
			b := a.res.Binding(u.Binding)
			index[u.Binding] = len(caps)
			caps = append(caps, CapturedVariable{
				Name:     a.res.BindingName(u.Binding),
				Binding:  u.Binding,
				Type:     b.Type,
				Inferred: u.Mode,
				Span:     u.Span,
			})
			continue
		}
		if u.Mode > caps[i].Inferred {
			caps[i].Inferred = u.Mode
			caps[i].Span = u.Span
		}
	}
	for i := range caps {
		caps[i].Mode = caps[i].Inferred
		if c.Move {
			caps[i].Mode = ModeConsume
		}
	}

	var assumed []assumption
	for _, as := range col.assumptions {
		if a.res.IsFree(as.binding, id) {
			assumed = append(assumed, as)
		}
	}
	a.assumptions[id] = assumed
	a.captures[id] = caps
	return slices.Clone(caps)
}

// Resolve returns the minimal call trait of a closure.
func (a *Analyzer) Resolve(id symbols.ClosureID) Resolution {
	return a.resolver.Resolve(a.Captures(id))
}

// Directive reports the explicit capture directive of a closure.
func (a *Analyzer) Directive(id symbols.ClosureID) Directive {
	if c := a.res.Closure(id); c != nil && c.Move {
		return DirectiveByValue
	}
	return DirectiveInfer
}
