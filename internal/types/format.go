package types

import (
	"strings"
)

// Format renders a type the way it is written in source.
func (t *Table) Format(id TypeID) string {
	var sb strings.Builder
	t.format(&sb, id)
	return sb.String()
}

func (t *Table) format(sb *strings.Builder, id TypeID) {
	tt, ok := t.Lookup(id)
	if !ok {
		sb.WriteString("_")
		return
	}
	switch tt.Kind {
	case KindUnit:
		sb.WriteString("()")
	case KindBool, KindInt, KindFloat, KindString:
		sb.WriteString(tt.Kind.String())
	case KindReference:
		sb.WriteByte('&')
		if tt.Mutable {
			sb.WriteString("mut ")
		}
		t.format(sb, tt.Elem)
	case KindFn, KindBound:
		if tt.Kind == KindFn {
			sb.WriteString("fn")
		} else {
			sb.WriteString(tt.Bound.String())
		}
		info, _ := t.FnInfo(id)
		sb.WriteByte('(')
		for i, p := range info.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			t.format(sb, p)
		}
		sb.WriteByte(')')
		if info.Result != t.Builtins().Unit {
			sb.WriteString(" -> ")
			t.format(sb, info.Result)
		}
	case KindNominal:
		info, _ := t.NominalInfo(id)
		sb.WriteString(t.strings.MustLookup(info.Name))
	case KindClosure:
		info, _ := t.ClosureInfo(id)
		sb.WriteString("closure ")
		sb.WriteString(info.Name)
	default:
		sb.WriteString(tt.Kind.String())
	}
}
