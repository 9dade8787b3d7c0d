package webview

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/toqueteos/webbrowser"
	wv "github.com/webview/webview_go"
)

const BASE_TITLE = "Hybrid"

//go:embed chrome.js
var chromeScript string

var _ bridge.NativeBridge = (*Host)(nil)

// Factory creates a native window. Production code passes wv.New.
type Factory func(debug bool) wv.WebView

type Options struct {
	Width  int
	Height int
	Debug  bool
}

// surfaceChrome is the chrome of one surface. Loop-confined.
type surfaceChrome struct {
	title        string
	left, right  *bridge.BarButton
	onTap        func(string)
	pushed       bool
	backHidden   bool
	tabBarHidden bool
	errMessage   string
	retry        func()
	placeholder  string
}

type pendingAlert struct {
	id      int
	surface bridge.SurfaceID
	alert   bridge.Alert
	done    func(int)
}

// Host is the desktop shell. The first renderer lives in the main window;
// every later one gets a child window of its own. Surfaces that share a
// renderer share its window, which draws the chrome of the surface on top.
type Host struct {
	loop    *loop.Loop
	loader  surface.Loader
	logger  *slog.Logger
	opts    Options
	newView Factory

	mu        sync.RWMutex
	onContext func(script.Runtime)
	onBack    func(bridge.SurfaceID)

	main         *window
	childWindows *xsync.Map[string, wv.WebView]
	stopped      atomic.Bool

	// loop-confined
	renderers map[string]*Renderer
	bySurface map[bridge.SurfaceID]*Renderer
	windowOf  map[bridge.SurfaceID]*window
	chrome    map[bridge.SurfaceID]*surfaceChrome
	alerts    []*pendingAlert
	nextAlert int
}

// NewHost creates the main window. Call it on the thread that will call
// Run.
func NewHost(l *loop.Loop, loader surface.Loader, newView Factory, opts Options, logger *slog.Logger) *Host {
	h := &Host{
		loop:         l,
		loader:       loader,
		logger:       logger,
		opts:         opts,
		newView:      newView,
		childWindows: xsync.NewMap[string, wv.WebView](),
		renderers:    make(map[string]*Renderer),
		bySurface:    make(map[bridge.SurfaceID]*Renderer),
		windowOf:     make(map[bridge.SurfaceID]*window),
		chrome:       make(map[bridge.SurfaceID]*surfaceChrome),
	}

	v := newView(opts.Debug)
	v.SetTitle(BASE_TITLE)
	v.SetSize(opts.Width, opts.Height, wv.HintMin)
	h.main = &window{host: h, main: true}
	h.main.bind(v)
	h.main.view = v
	return h
}

// Run shows the main window until it is closed. Child windows go with it.
func (h *Host) Run() {
	h.main.view.Run()
	h.stopped.Store(true)

	h.childWindows.Range(func(_ string, v wv.WebView) bool {
		v.Dispatch(v.Terminate)
		return true
	})
	h.logger.Info("main window closed")
}

// Close asks the main window to close. It does nothing once Run returned.
func (h *Host) Close() {
	if h.stopped.Load() {
		return
	}
	v := h.main.view
	v.Dispatch(v.Terminate)
}

func (h *Host) OnContext(fn func(script.Runtime)) {
	h.mu.Lock()
	h.onContext = fn
	h.mu.Unlock()

	h.Dispatch(func() {
		for _, r := range h.renderers {
			r.rt.OnContext(fn)
		}
	})
}

// SetOnBack sets what the chrome's back button does, typically the
// service's host pop.
func (h *Host) SetOnBack(fn func(bridge.SurfaceID)) {
	h.mu.Lock()
	h.onBack = fn
	h.mu.Unlock()
}

func (h *Host) Dispatch(fn func()) {
	if !h.loop.Post(fn) {
		h.logger.Debug("dispatch after close dropped")
	}
}

func (h *Host) NewRenderer() (bridge.Renderer, error) {
	id := ulid.Make().String()
	rt := remote.New(id, h.loop, h.logger)

	h.mu.RLock()
	if h.onContext != nil {
		rt.OnContext(h.onContext)
	}
	h.mu.RUnlock()

	r := &Renderer{id: id, host: h, rt: rt}
	h.renderers[id] = r

	if h.main.renderer == nil {
		h.main.show(r)
	}
	h.logger.Debug("renderer created", "renderer", id, "main", r.win == h.main)
	return r, nil
}

func (h *Host) chromeOf(id bridge.SurfaceID) *surfaceChrome {
	c, ok := h.chrome[id]
	if !ok {
		c = &surfaceChrome{}
		h.chrome[id] = c
	}
	return c
}

// refresh redraws the window currently showing surface id.
func (h *Host) refresh(id bridge.SurfaceID) {
	if w := h.windowOf[id]; w != nil && w.surface == id {
		w.render()
	}
}

func (h *Host) SetTitle(id bridge.SurfaceID, title string) {
	h.chromeOf(id).title = title
	h.refresh(id)
}

func (h *Host) SetButtons(id bridge.SurfaceID, left, right *bridge.BarButton, onTap func(string)) {
	c := h.chromeOf(id)
	c.left, c.right, c.onTap = left, right, onTap
	h.refresh(id)
}

func (h *Host) SetBackHidden(id bridge.SurfaceID, hidden bool) {
	h.chromeOf(id).backHidden = hidden
	h.refresh(id)
}

func (h *Host) SetTabBarHidden(id bridge.SurfaceID, hidden bool) {
	h.chromeOf(id).tabBarHidden = hidden
	h.refresh(id)
}

func (h *Host) ShowAlert(id bridge.SurfaceID, alert bridge.Alert, done func(int)) {
	h.nextAlert++
	h.alerts = append(h.alerts, &pendingAlert{id: h.nextAlert, surface: id, alert: alert, done: done})
	h.refresh(id)
}

// alertFor returns the oldest alert waiting on surface id.
func (h *Host) alertFor(id bridge.SurfaceID) *pendingAlert {
	for _, a := range h.alerts {
		if a.surface == id {
			return a
		}
	}
	return nil
}

func (h *Host) resolveAlert(alertID, index int) {
	for i, a := range h.alerts {
		if a.id != alertID {
			continue
		}
		h.alerts = append(h.alerts[:i], h.alerts[i+1:]...)
		a.done(index)
		h.refresh(a.surface)
		return
	}
}

// Share opens the first shared URL in the system browser. Desktop has no
// share sheet.
func (h *Host) Share(id bridge.SurfaceID, items []string) {
	for _, item := range items {
		u, err := url.Parse(item)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if err := webbrowser.Open(item); err != nil {
			h.logger.Warn("share failed", "surface", id, "url", item, "err", err)
		}
		return
	}
	h.logger.Info("nothing to share", "surface", id, "items", strings.Join(items, " "))
}

func (h *Host) ShowError(id bridge.SurfaceID, message string, retry func()) {
	c := h.chromeOf(id)
	c.errMessage, c.retry = message, retry
	h.refresh(id)
}

func (h *Host) HideError(id bridge.SurfaceID) {
	c := h.chromeOf(id)
	c.errMessage, c.retry = "", nil
	h.refresh(id)
}

func (h *Host) SetPlaceholder(id bridge.SurfaceID, image []byte) {
	h.chromeOf(id).placeholder = dataURL(image)
	h.refresh(id)
}

// Transitioned moves the window of the target surface onto it. A surface
// with a renderer that has no window yet opens a child window; removing the
// last surface of a child window closes it.
func (h *Host) Transitioned(kind string, from, to bridge.SurfaceID) {
	h.logger.Debug("transition", "kind", kind, "from", from, "to", to)

	fromWin := h.windowOf[from]
	toWin := h.windowOf[to]
	if toWin == nil {
		if r := h.bySurface[to]; r != nil && r.win == nil {
			toWin = h.openChild(r)
		} else {
			toWin = fromWin
		}
	}
	if toWin == nil {
		toWin = h.main
	}
	h.windowOf[to] = toWin

	if kind == surface.Push.String() {
		h.chromeOf(to).pushed = true
	}

	toWin.surface = to
	toWin.render()

	switch kind {
	case surface.Pop.String(), surface.Dismiss.String():
		delete(h.windowOf, from)
		delete(h.chrome, from)
		delete(h.bySurface, from)
		if fromWin != nil && fromWin != toWin && !fromWin.main {
			fromWin.close()
		}
	}
}

func (h *Host) openChild(r *Renderer) *window {
	w := &window{host: h}
	w.show(r)

	go func() {
		v := h.newView(h.opts.Debug)
		v.SetTitle(BASE_TITLE)
		v.SetSize(h.opts.Width, h.opts.Height, wv.HintNone)
		w.bind(v)

		h.childWindows.Store(r.id, v)
		h.Dispatch(func() { w.attach(v) })
		v.Run()

		h.childWindows.Delete(r.id)
		h.Dispatch(w.closed)
	}()
	return w
}

func (h *Host) back(id bridge.SurfaceID) {
	h.mu.RLock()
	onBack := h.onBack
	h.mu.RUnlock()

	if onBack == nil {
		h.logger.Debug("back without handler", "surface", id)
		return
	}
	onBack(id)
}

// navigate follows a link clicked in r's page when its owner allows it.
func (h *Host) navigate(r *Renderer, rawURL string) {
	if r.delegate != nil && !r.delegate.ShouldStartLoad(rawURL) {
		return
	}
	if h.loader == nil {
		h.logger.Warn("no loader, navigation dropped", "url", rawURL)
		return
	}

	ctx := r.navContext()
	go func() {
		page, err := h.loader.Load(ctx, rawURL)
		h.Dispatch(func() {
			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				r.fail(fmt.Errorf("navigate %s: %w", rawURL, err))
				return
			}
			r.Render(page)
		})
	}()
}
