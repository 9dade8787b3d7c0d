package script

import (
	"log/slog"
	"sync/atomic"
)

// Fire delivers args to ref on a later turn of its runtime. A zero ref is a
// no-op, and a ref that goes stale before its turn comes is dropped. Fire
// never calls into script inline, so it is safe from inside a native method.
func Fire(ref Ref, args ...any) bool {
	if !ref.Valid() {
		return false
	}

	rt := ref.Runtime()
	return rt.Post(func() {
		if ref.Stale() {
			return
		}
		if err := rt.Call(ref, args...); err != nil {
			slog.Debug("script callback failed", "runtime", rt.ID(), "err", err)
		}
	})
}

// FireWithError calls ref as function(error, data) with a new Error carrying
// message and a null data argument.
func FireWithError(ref Ref, message string) bool {
	return Fire(ref, &Error{Message: message}, Null)
}

// FireWithData calls ref as function(error, data) with a null error.
func FireWithData(ref Ref, data any) bool {
	if data == nil {
		data = Null
	}
	return Fire(ref, Null, data)
}

// Pending is a callback that fires at most once. The first Fire, FireWith*
// or Cancel settles it; later ones do nothing.
type Pending struct {
	ref     Ref
	invoked atomic.Bool
}

func NewPending(ref Ref) *Pending {
	return &Pending{ref: ref}
}

// Fire schedules the callback unless the pending was already settled. It
// reports whether a call was scheduled.
func (p *Pending) Fire(args ...any) bool {
	if !p.invoked.CompareAndSwap(false, true) {
		return false
	}
	return Fire(p.ref, args...)
}

func (p *Pending) FireWithError(message string) bool {
	return p.Fire(&Error{Message: message}, Null)
}

func (p *Pending) FireWithData(data any) bool {
	if data == nil {
		data = Null
	}
	return p.Fire(Null, data)
}

// Cancel settles the pending without calling it. It reports false when it
// was already settled.
func (p *Pending) Cancel() bool {
	return p.invoked.CompareAndSwap(false, true)
}

func (p *Pending) Invoked() bool {
	return p.invoked.Load()
}
