package webview

import (
	"encoding/json"
	"fmt"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/toqueteos/webbrowser"
	wv "github.com/webview/webview_go"
)

// window is one native window. It shows a single renderer and the chrome of
// the surface on top of it. Fields are loop-confined; view is only touched
// through view.Dispatch.
type window struct {
	host     *Host
	main     bool
	view     wv.WebView
	renderer *Renderer
	surface  bridge.SurfaceID
	gone     bool
}

// bind installs the callbacks chrome.js and the bridge shim use. It runs on
// the window's thread before Run.
func (w *window) bind(v wv.WebView) {
	h := w.host
	post := func(fn func()) {
		h.Dispatch(func() {
			if !w.gone {
				fn()
			}
		})
	}

	bindings := map[string]any{
		"__nativeBridgeSend": func(raw string) {
			post(func() {
				if w.renderer == nil {
					return
				}
				if err := w.renderer.rt.Receive([]byte(raw)); err != nil {
					h.logger.Debug("bad bridge message", "renderer", w.renderer.id, "err", err)
				}
			})
		},
		"__hybridReady": func() {
			post(w.loaded)
		},
		"__hybridTap": func(id string) {
			post(func() {
				if c := h.chrome[w.surface]; c != nil && c.onTap != nil {
					c.onTap(id)
				}
			})
		},
		"__hybridBack": func() {
			post(func() { h.back(w.surface) })
		},
		"__hybridRetry": func() {
			post(func() {
				if c := h.chrome[w.surface]; c != nil && c.retry != nil {
					c.retry()
				}
			})
		},
		"__hybridAlert": func(alertID, index int) {
			post(func() { h.resolveAlert(alertID, index) })
		},
		"__hybridNavigate": func(rawURL string) {
			post(func() {
				if w.renderer != nil {
					h.navigate(w.renderer, rawURL)
				}
			})
		},
		"openExternal": func(rawURL string) error {
			return webbrowser.Open(rawURL)
		},
	}
	for name, fn := range bindings {
		if err := v.Bind(name, fn); err != nil {
			h.logger.Error("bind failed", "name", name, "err", err)
		}
	}

	v.Init(chromeScript)
	v.Init(remote.Shim)
}

// attach hands a freshly created child view to the window.
func (w *window) attach(v wv.WebView) {
	w.view = v
	if w.gone {
		v.Dispatch(v.Terminate)
		return
	}
	if w.renderer != nil {
		w.load(w.renderer)
	}
	w.render()
}

// show makes r the renderer of this window.
func (w *window) show(r *Renderer) {
	if w.renderer != nil && w.renderer != r {
		w.renderer.win = nil
		w.renderer.rt.SetSender(nil)
	}
	w.renderer = r
	r.win = w
	r.rt.SetSender(remote.SenderFunc(w.send))
	if w.view != nil {
		w.load(r)
	}
}

// load puts r's current page into the view.
func (w *window) load(r *Renderer) {
	page, ok := r.current()
	if !ok {
		return
	}

	v := w.view
	if !isHTML(page) {
		v.Dispatch(func() { v.Navigate(page.URL) })
		return
	}

	html, err := pageHTML(page)
	if err != nil {
		r.fail(err)
		return
	}
	v.Dispatch(func() { v.SetHtml(html) })
}

func (w *window) send(msg []byte) error {
	v := w.view
	if v == nil || w.gone {
		return remote.ErrNoSender
	}
	src := "window.__nativeBridgeReceive && window.__nativeBridgeReceive(" + string(msg) + ")"
	v.Dispatch(func() { v.Eval(src) })
	return nil
}

// loaded runs when the page in the view finished parsing.
func (w *window) loaded() {
	if r := w.renderer; r != nil && r.loading {
		r.loading = false
		if r.delegate != nil {
			r.delegate.DidFinishLoad()
		}
	}
	w.render()
}

// render pushes the chrome of the window's surface into the page.
func (w *window) render() {
	v := w.view
	if v == nil || w.gone {
		return
	}

	h := w.host
	state := chromeState{}
	if c := h.chrome[w.surface]; c != nil {
		state = chromeState{
			Title:        c.title,
			Left:         toButtonJSON(c.left),
			Right:        toButtonJSON(c.right),
			Back:         c.pushed && !c.backHidden,
			TabBarHidden: c.tabBarHidden,
			Error:        c.errMessage,
			Placeholder:  c.placeholder,
		}
	}
	if w.renderer != nil {
		state.Hidden = w.renderer.hidden
	}
	if a := h.alertFor(w.surface); a != nil {
		state.Alert = &alertJSON{
			ID:      a.id,
			Title:   a.alert.Title,
			Message: a.alert.Message,
			Actions: a.alert.Actions,
		}
	}

	data, err := json.Marshal(state)
	if err != nil {
		h.logger.Error("chrome encode failed", "err", err)
		return
	}

	title := BASE_TITLE
	if state.Title != "" {
		title = fmt.Sprintf("%s | %s", BASE_TITLE, state.Title)
	}
	src := "window.__hybridChrome && window.__hybridChrome.update(" + string(data) + ")"
	v.Dispatch(func() {
		v.SetTitle(title)
		v.Eval(src)
	})
}

func (w *window) close() {
	if w.gone {
		return
	}
	w.gone = true
	if w.renderer != nil {
		w.renderer.win = nil
		w.renderer.rt.SetSender(nil)
	}
	if v := w.view; v != nil {
		v.Dispatch(v.Terminate)
	}
}

// closed runs after the user closed a child window. A surface still shown
// in it is sent away the way its Done button would.
func (w *window) closed() {
	if w.gone {
		return
	}
	w.gone = true

	h := w.host
	if w.renderer != nil {
		w.renderer.win = nil
		w.renderer.rt.SetSender(nil)
	}
	if h.windowOf[w.surface] != w {
		return
	}
	c := h.chrome[w.surface]
	if c == nil || c.onTap == nil {
		return
	}
	for _, b := range []*bridge.BarButton{c.right, c.left} {
		if b != nil && b.ID == "done" {
			c.onTap(b.ID)
			return
		}
	}
}
