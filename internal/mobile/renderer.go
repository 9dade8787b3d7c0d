package mobile

import (
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/arko-chat/hybrid/internal/script"
)

var _ bridge.Renderer = (*Renderer)(nil)

// Renderer is a native web view. History lives in the view, since links the
// page follows natively never pass through Render.
type Renderer struct {
	id   string
	host *Host
	rt   *remote.Runtime

	owner    bridge.SurfaceID
	delegate bridge.Delegate
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
}

func (r *Renderer) Owner() bridge.SurfaceID {
	return r.owner
}

func (r *Renderer) Render(page bridge.Page) {
	r.host.shell.LoadHTML(r.id, page.URL, page.MIMEType, page.Charset, page.Body)
}

func (r *Renderer) SetHidden(hidden bool) {
	r.host.shell.SetWebViewHidden(r.id, hidden)
}

func (r *Renderer) Capture() ([]byte, error) {
	return r.host.shell.CaptureWebView(r.id)
}

func (r *Renderer) CanGoBack() bool {
	return r.host.shell.CanGoBack(r.id)
}

func (r *Renderer) GoBack() {
	if !r.CanGoBack() {
		return
	}
	r.host.shell.GoBack(r.id)
}

func (r *Renderer) StopLoading() {
	r.host.shell.StopLoading(r.id)
}
