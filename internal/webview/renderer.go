package webview

import (
	"context"
	"errors"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/arko-chat/hybrid/internal/script"
)

var _ bridge.Renderer = (*Renderer)(nil)

// ErrCaptureUnsupported is returned by Capture. The webview library cannot
// read pixels back.
var ErrCaptureUnsupported = errors.New("webview: capture not supported")

// Renderer is page content shown in a window. Loop-confined.
type Renderer struct {
	id   string
	host *Host
	rt   *remote.Runtime
	win  *window

	owner    bridge.SurfaceID
	delegate bridge.Delegate
	history  []bridge.Page
	loading  bool
	hidden   bool

	cancelNav context.CancelFunc
}

func (r *Renderer) ID() string {
	return r.id
}

func (r *Renderer) Runtime() script.Runtime {
	return r.rt
}

func (r *Renderer) Attach(id bridge.SurfaceID, d bridge.Delegate) {
	r.owner = id
	r.delegate = d
	r.host.bySurface[id] = r
	if r.win != nil && r.host.windowOf[id] == nil {
		r.host.windowOf[id] = r.win
		if r.win.surface == "" {
			r.win.surface = id
		}
	}
}

func (r *Renderer) Owner() bridge.SurfaceID {
	return r.owner
}

func (r *Renderer) Render(page bridge.Page) {
	r.history = append(r.history, page)
	r.show()
}

func (r *Renderer) show() {
	r.loading = true
	if r.win == nil || r.win.view == nil {
		// nothing on screen will report the load
		r.host.Dispatch(func() {
			if r.win == nil && r.loading {
				r.loading = false
				if r.delegate != nil {
					r.delegate.DidFinishLoad()
				}
			}
		})
		return
	}
	r.win.load(r)
}

func (r *Renderer) current() (bridge.Page, bool) {
	if len(r.history) == 0 {
		return bridge.Page{}, false
	}
	return r.history[len(r.history)-1], true
}

func (r *Renderer) fail(err error) {
	r.loading = false
	r.host.logger.Warn("render failed", "renderer", r.id, "err", err)
	if r.delegate != nil {
		r.delegate.DidFailLoad(err)
	}
}

func (r *Renderer) SetHidden(hidden bool) {
	r.hidden = hidden
	if r.win != nil {
		r.win.render()
	}
}

func (r *Renderer) Capture() ([]byte, error) {
	return nil, ErrCaptureUnsupported
}

func (r *Renderer) CanGoBack() bool {
	return len(r.history) > 1
}

func (r *Renderer) GoBack() {
	if !r.CanGoBack() {
		return
	}
	r.history = r.history[:len(r.history)-1]
	r.show()
}

func (r *Renderer) StopLoading() {
	if r.cancelNav != nil {
		r.cancelNav()
		r.cancelNav = nil
	}
}

// navContext starts a link navigation, cancelling the previous one.
func (r *Renderer) navContext() context.Context {
	r.StopLoading()
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelNav = cancel
	return ctx
}
