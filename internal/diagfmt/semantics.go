package diagfmt

import (
	"fmt"

	"fortio.org/safecast"

	"capsule/internal/ast"
	"capsule/internal/hir"
	"capsule/internal/sema"
	"capsule/internal/source"
	"capsule/internal/symbols"
)

// SemanticsInput carries the data required to build a semantic dump.
type SemanticsInput struct {
	Builder  *ast.Builder
	Symbols  *symbols.Result
	Analysis *sema.Result
	Module   *hir.Module // optional
}

// SemanticsOutput represents semantic data emitted alongside diagnostics.
type SemanticsOutput struct {
	Bindings []BindingJSON `json:"bindings"`
	Closures []ClosureJSON `json:"closures"`
}

type BindingJSON struct {
	ID      uint32      `json:"id"`
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Type    string      `json:"type"`
	Mutable bool        `json:"mutable,omitempty"`
	Span    source.Span `json:"span"`
}

type CaptureJSON struct {
	Name     string      `json:"name"`
	Binding  uint32      `json:"binding"`
	Type     string      `json:"type"`
	Mode     string      `json:"mode"`
	Inferred string      `json:"inferred,omitempty"`
	Span     source.Span `json:"span"`
}

type ClosureJSON struct {
	Name             string               `json:"name"`
	Span             source.Span          `json:"span"`
	Parent           string               `json:"parent,omitempty"`
	Directive        string               `json:"directive"`
	Trait            string               `json:"trait"`
	CoercibleToFnPtr bool                 `json:"coercible_to_fn_ptr"`
	Captures         []CaptureJSON        `json:"captures"`
	Environment      *hir.EnvironmentView `json:"environment,omitempty"`
}

// BuildSemanticsOutput collects the bindings and the closure analysis of
// one file.
func BuildSemanticsOutput(in *SemanticsInput) (*SemanticsOutput, error) {
	if in == nil || in.Symbols == nil || in.Analysis == nil {
		return nil, fmt.Errorf("semantics input is incomplete")
	}
	res := in.Symbols
	table := res.Types
	out := &SemanticsOutput{
		Bindings: make([]BindingJSON, 0, len(res.Bindings)),
		Closures: make([]ClosureJSON, 0, len(in.Analysis.Closures)),
	}
	for i := 1; i < len(res.Bindings); i++ {
		id, err := safecast.Conv[uint32](i)
		if err != nil {
			return nil, fmt.Errorf("binding id overflow: %w", err)
		}
		b := res.Binding(symbols.BindingID(id))
		out.Bindings = append(out.Bindings, BindingJSON{
			ID:      id,
			Name:    in.Builder.Name(b.Name),
			Kind:    b.Kind.String(),
			Type:    table.Format(b.Type),
			Mutable: b.Mutable,
			Span:    b.Span,
		})
	}

	var views map[string]hir.EnvironmentView
	if in.Module != nil {
		all := in.Module.View(in.Builder)
		views = make(map[string]hir.EnvironmentView, len(all))
		for _, v := range all {
			views[v.Closure] = v
		}
	}
	for _, info := range in.Analysis.Closures {
		c := res.Closure(info.ID)
		cj := ClosureJSON{
			Name:             info.Name,
			Span:             c.Span,
			Directive:        info.Directive.String(),
			Trait:            info.Trait.String(),
			CoercibleToFnPtr: info.CoercibleToFnPtr,
			Captures:         make([]CaptureJSON, 0, len(info.Captures)),
		}
		if parent := res.Closure(c.Parent); parent != nil {
			cj.Parent = parent.Name
		}
		for _, cv := range info.Captures {
			capture := CaptureJSON{
				Name:    cv.Name,
				Binding: uint32(cv.Binding),
				Type:    table.Format(cv.Type),
				Mode:    cv.Mode.String(),
				Span:    cv.Span,
			}
			if cv.Inferred != cv.Mode {
				capture.Inferred = cv.Inferred.String()
			}
			cj.Captures = append(cj.Captures, capture)
		}
		if v, ok := views[info.Name]; ok {
			cj.Environment = &v
		}
		out.Closures = append(out.Closures, cj)
	}
	return out, nil
}
