package mobile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/middleware"
	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/ws"
	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v4"
)

var (
	ErrUnknownRenderer = errors.New("mobile: unknown renderer")
	ErrNoServer        = errors.New("mobile: bridge server address not set")
)

var _ bridge.NativeBridge = (*Host)(nil)

type buttonJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
}

type alertJSON struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
}

// Host adapts a native Shell to the NativeBridge. Each renderer's script
// runtime is reached over the websocket hub.
type Host struct {
	loop   *loop.Loop
	hub    *ws.Hub
	shell  Shell
	logger *slog.Logger

	mu        sync.RWMutex
	server    string
	onContext func(script.Runtime)

	renderers *xsync.Map[string, *Renderer]

	// loop-confined
	taps      map[bridge.SurfaceID]func(string)
	retries   map[bridge.SurfaceID]func()
	alerts    map[int]func(int)
	nextAlert int
}

func NewHost(l *loop.Loop, hub *ws.Hub, shell Shell, logger *slog.Logger) *Host {
	return &Host{
		loop:      l,
		hub:       hub,
		shell:     shell,
		logger:    logger,
		renderers: xsync.NewMap[string, *Renderer](),
		taps:      make(map[bridge.SurfaceID]func(string)),
		retries:   make(map[bridge.SurfaceID]func()),
		alerts:    make(map[int]func(int)),
	}
}

// SetServer records the base URL of the bridge server, such as
// "http://127.0.0.1:53211". Renderers created before it is set fail.
func (h *Host) SetServer(base string) {
	h.mu.Lock()
	h.server = base
	h.mu.Unlock()
}

func (h *Host) OnContext(fn func(script.Runtime)) {
	h.mu.Lock()
	h.onContext = fn
	h.mu.Unlock()

	h.renderers.Range(func(_ string, r *Renderer) bool {
		r.rt.OnContext(fn)
		return true
	})
}

func (h *Host) Dispatch(fn func()) {
	if !h.loop.Post(fn) {
		h.logger.Debug("dispatch after close dropped")
	}
}

func (h *Host) scriptURL(id string) (string, error) {
	h.mu.RLock()
	server := h.server
	h.mu.RUnlock()
	if server == "" {
		return "", ErrNoServer
	}

	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("mobile: server address: %w", err)
	}
	u.Path = "/bridge.js"
	u.RawQuery = url.Values{middleware.RendererParam: {id}}.Encode()
	return u.String(), nil
}

func (h *Host) NewRenderer() (bridge.Renderer, error) {
	id := ulid.Make().String()
	src, err := h.scriptURL(id)
	if err != nil {
		return nil, err
	}

	rt := remote.New(id, h.loop, h.logger)
	h.mu.RLock()
	if h.onContext != nil {
		rt.OnContext(h.onContext)
	}
	h.mu.RUnlock()

	r := &Renderer{id: id, host: h, rt: rt}
	h.renderers.Store(id, r)
	h.hub.Add(rt)

	if err := h.shell.CreateWebView(id, src); err != nil {
		h.renderers.Delete(id)
		h.hub.Remove(id)
		rt.Close()
		return nil, fmt.Errorf("mobile: create web view: %w", err)
	}
	h.logger.Debug("renderer created", "renderer", id)
	return r, nil
}

func (h *Host) renderer(id string) (*Renderer, error) {
	r, ok := h.renderers.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRenderer, id)
	}
	return r, nil
}

func (h *Host) SetTitle(id bridge.SurfaceID, title string) {
	h.shell.SetTitle(id, title)
}

func (h *Host) SetButtons(id bridge.SurfaceID, left, right *bridge.BarButton, onTap func(string)) {
	if onTap == nil {
		delete(h.taps, id)
	} else {
		h.taps[id] = onTap
	}

	payload := struct {
		Left  *buttonJSON `json:"left"`
		Right *buttonJSON `json:"right"`
	}{toButtonJSON(left), toButtonJSON(right)}
	data, _ := json.Marshal(payload)
	h.shell.SetButtons(id, string(data))
}

func toButtonJSON(b *bridge.BarButton) *buttonJSON {
	if b == nil {
		return nil
	}
	return &buttonJSON{ID: b.ID, Title: b.Title, Image: b.Image}
}

func (h *Host) SetBackHidden(id bridge.SurfaceID, hidden bool) {
	h.shell.SetBackHidden(id, hidden)
}

func (h *Host) SetTabBarHidden(id bridge.SurfaceID, hidden bool) {
	h.shell.SetTabBarHidden(id, hidden)
}

func (h *Host) ShowAlert(id bridge.SurfaceID, alert bridge.Alert, done func(int)) {
	h.nextAlert++
	alertID := h.nextAlert
	h.alerts[alertID] = done

	data, _ := json.Marshal(alertJSON{
		Title:   alert.Title,
		Message: alert.Message,
		Actions: alert.Actions,
	})
	h.shell.ShowAlert(id, alertID, string(data))
}

func (h *Host) Share(id bridge.SurfaceID, items []string) {
	data, _ := json.Marshal(items)
	h.shell.Share(id, string(data))
}

func (h *Host) ShowError(id bridge.SurfaceID, message string, retry func()) {
	h.retries[id] = retry
	h.shell.ShowError(id, message)
}

func (h *Host) HideError(id bridge.SurfaceID) {
	delete(h.retries, id)
	h.shell.HideError(id)
}

func (h *Host) SetPlaceholder(id bridge.SurfaceID, image []byte) {
	h.shell.SetPlaceholder(id, image)
}

func (h *Host) Transitioned(kind string, from, to bridge.SurfaceID) {
	h.shell.Transition(kind, from, to)
}
