package types //nolint:revive

import (
	"slices"
)

// FnInfo stores the parameter and result types shared by plain function
// values and Fn/FnMut/FnOnce bounds.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// RegisterFn creates or finds the plain function type fn(params) -> result.
func (in *Interner) RegisterFn(params []TypeID, result TypeID) TypeID {
	return in.Intern(Type{Kind: KindFn, Payload: in.sigSlot(params, result)})
}

// RegisterBound creates or finds the callable bound kind(params) -> result.
func (in *Interner) RegisterBound(kind BoundKind, params []TypeID, result TypeID) TypeID {
	return in.Intern(Type{Kind: KindBound, Bound: kind, Payload: in.sigSlot(params, result)})
}

// FnInfo retrieves signature metadata for fn and bound types.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || (tt.Kind != KindFn && tt.Kind != KindBound) {
		return nil, false
	}
	if int(tt.Payload) >= len(in.sigs) {
		return nil, false
	}
	return &in.sigs[tt.Payload], true
}

// sigSlot deduplicates signatures so structurally equal fn types share a
// payload and therefore a TypeID.
func (in *Interner) sigSlot(params []TypeID, result TypeID) uint32 {
	for i := 1; i < len(in.sigs); i++ {
		info := in.sigs[i]
		if info.Result == result && slices.Equal(info.Params, params) {
			return slot(i, "fn info")
		}
	}
	in.sigs = append(in.sigs, FnInfo{
		Params: slices.Clone(params),
		Result: result,
	})
	return slot(len(in.sigs)-1, "fn info")
}
