package hir

import (
	"capsule/internal/ast"
)

// EnvironmentView is the serializable form of an Environment.
type EnvironmentView struct {
	Name             string      `json:"name" msgpack:"name"`
	Closure          string      `json:"closure" msgpack:"closure"`
	Trait            string      `json:"trait" msgpack:"trait"`
	CoercibleToFnPtr bool        `json:"coercible_to_fn_ptr" msgpack:"coercible_to_fn_ptr"`
	Fields           []FieldView `json:"fields" msgpack:"fields"`
	Method           string      `json:"method" msgpack:"method"`
	Body             string      `json:"body" msgpack:"body"`
	Ctor             string      `json:"ctor" msgpack:"ctor"`
}

// FieldView is the serializable form of a Field.
type FieldView struct {
	Name      string `json:"name" msgpack:"name"`
	Type      string `json:"type" msgpack:"type"`
	Ownership string `json:"ownership" msgpack:"ownership"`
}

// View renders every environment to strings so the result can be encoded
// or cached without the builder.
func (m *Module) View(b *ast.Builder) []EnvironmentView {
	p := NewPrinter(nil, b, m.symbols)
	out := make([]EnvironmentView, 0, len(m.Environments))
	for i := range m.Environments {
		env := &m.Environments[i]
		fields := make([]FieldView, 0, len(env.Fields))
		for _, f := range env.Fields {
			fields = append(fields, FieldView{
				Name:      f.Name,
				Type:      p.table.Format(f.Type),
				Ownership: f.Ownership.String(),
			})
		}
		out = append(out, EnvironmentView{
			Name:             env.Name,
			Closure:          m.symbols.Closure(env.Closure).Name,
			Trait:            env.Trait.String(),
			CoercibleToFnPtr: len(env.Fields) == 0,
			Fields:           fields,
			Method:           p.Signature(env),
			Body:             p.Body(env.Method.Body, 0),
			Ctor:             p.Expr(env.Ctor),
		})
	}
	return out
}
