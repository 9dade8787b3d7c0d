package session

import (
	"log/slog"
	"runtime"
	"weak"

	"github.com/arko-chat/hybrid/internal/api"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
	"github.com/puzpuzpuz/xsync/v4"
)

const (
	// CapabilityName is the global script sees the capability tree under.
	CapabilityName = "NativeBridge"
	// ReadyCallback is called with the tree whenever a new script context
	// gets one.
	ReadyCallback = "nativeBridgeReady"
)

// Session is the capability tree currently bound into one script runtime.
type Session struct {
	API     *api.API
	Runtime script.Runtime

	surface weak.Pointer[surface.Surface]
}

// Surface returns the surface the session was bound for, or nil once it is
// gone.
func (s *Session) Surface() *surface.Surface {
	return s.surface.Value()
}

var _ surface.Binder = (*Registry)(nil)

// Registry binds capability trees into script runtimes and keeps weak,
// enumerable membership of every live surface.
type Registry struct {
	cfg    api.Config
	logger *slog.Logger

	sessions *xsync.Map[string, *Session]
	surfaces *xsync.Map[string, weak.Pointer[surface.Surface]]
}

func NewRegistry(cfg api.Config, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		sessions: xsync.NewMap[string, *Session](),
		surfaces: xsync.NewMap[string, weak.Pointer[surface.Surface]](),
	}
}

// Track adds s to the live set until it is garbage collected.
func (r *Registry) Track(s *surface.Surface) {
	id := s.ID()
	r.surfaces.Store(id, weak.Make(s))
	runtime.AddCleanup(s, func(id string) {
		r.surfaces.Delete(id)
	}, id)
}

// EnsureBound installs the surface's capability tree into its runtime,
// creating the tree on first use. Binding a tree that is already installed
// is a no-op from script's point of view.
func (r *Registry) EnsureBound(s *surface.Surface) surface.Capabilities {
	a, ok := s.Capabilities().(*api.API)
	if !ok || a == nil {
		a = api.New(s, r.cfg, r.logger.With("surface", s.ID()))
		s.SetCapabilities(a)
		if s.OnScreen() {
			// the surface appeared before it had a tree
			a.Appeared()
		}
	} else if a.Owner() != s {
		a.RebindParent(s)
	}

	rt := s.Renderer().Runtime()
	if rt == nil {
		return a
	}
	if err := rt.Expose(CapabilityName, a.Exposure()); err != nil {
		// retried when the runtime announces its next context
		r.logger.Debug("bind deferred", "surface", s.ID(), "runtime", rt.ID(), "err", err)
		return a
	}

	r.sessions.Store(rt.ID(), &Session{API: a, Runtime: rt, surface: weak.Make(s)})
	return a
}

// Reset detaches the surface's tree. The next EnsureBound builds a new one.
func (r *Registry) Reset(s *surface.Surface) {
	a, _ := s.Capabilities().(*api.API)
	s.SetCapabilities(nil)
	if a == nil {
		return
	}
	a.RebindParent(nil)

	rt := s.Renderer().Runtime()
	if rt == nil {
		return
	}
	r.sessions.Compute(rt.ID(), func(cur *Session, loaded bool) (*Session, xsync.ComputeOp) {
		if loaded && cur.API == a {
			return nil, xsync.DeleteOp
		}
		return cur, xsync.CancelOp
	})
}

// ContextCreated re-binds every live surface that currently owns content
// in rt and signals the ready callback.
func (r *Registry) ContextCreated(rt script.Runtime) {
	r.surfaces.Range(func(id string, p weak.Pointer[surface.Surface]) bool {
		s := p.Value()
		if s == nil {
			r.surfaces.Delete(id)
			return true
		}

		ren := s.Renderer()
		cur := ren.Runtime()
		if cur == nil || cur.ID() != rt.ID() || ren.Owner() != s.ID() {
			return true
		}

		r.logger.Debug("script context created", "surface", id, "runtime", rt.ID())
		r.EnsureBound(s)
		rt.Signal(ReadyCallback, CapabilityName)
		return true
	})
}

// Session returns the tree currently bound into the runtime with the given
// id.
func (r *Registry) Session(runtimeID string) (*Session, bool) {
	return r.sessions.Load(runtimeID)
}

// Surfaces returns every live tracked surface.
func (r *Registry) Surfaces() []*surface.Surface {
	var out []*surface.Surface
	r.surfaces.Range(func(_ string, p weak.Pointer[surface.Surface]) bool {
		if s := p.Value(); s != nil {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Surface looks up a live surface by id.
func (r *Registry) Surface(id string) *surface.Surface {
	p, ok := r.surfaces.Load(id)
	if !ok {
		return nil
	}
	return p.Value()
}
