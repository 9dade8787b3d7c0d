package script

// Ref is an opaque handle to a script function. The zero Ref stands for
// null/undefined.
type Ref struct {
	rt     Runtime
	gen    uint64
	handle any
}

// NewRef stamps handle with the runtime's current generation.
func NewRef(rt Runtime, handle any) Ref {
	if rt == nil || handle == nil {
		return Ref{}
	}
	return Ref{rt: rt, gen: rt.Generation(), handle: handle}
}

func (r Ref) Valid() bool {
	return r.rt != nil && r.handle != nil
}

// Stale reports whether the ref can no longer be called, either because it
// is the zero Ref or because its script context has been recreated.
func (r Ref) Stale() bool {
	return !r.Valid() || r.rt.Generation() != r.gen
}

func (r Ref) Runtime() Runtime {
	return r.rt
}

func (r Ref) Handle() any {
	return r.handle
}
