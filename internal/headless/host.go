package headless

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/jsvm"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/script"
)

var _ bridge.NativeBridge = (*Host)(nil)

// Transition is one recorded surface change.
type Transition struct {
	Kind string
	From bridge.SurfaceID
	To   bridge.SurfaceID
}

// Alert is a recorded alert. Done is nil once the alert is resolved.
type Alert struct {
	Surface bridge.SurfaceID
	bridge.Alert
	done     func(int)
	callback func(int)
}

type buttons struct {
	left, right *bridge.BarButton
	onTap       func(string)
}

// Host is an in-memory NativeBridge. It records every chrome command and
// exposes helpers that play the part of the user.
type Host struct {
	loop   *loop.Loop
	logger *slog.Logger

	onContext func(script.Runtime)
	pages     Pages

	mu           sync.Mutex
	renderers    []*Renderer
	titles       map[bridge.SurfaceID]string
	buttons      map[bridge.SurfaceID]buttons
	backHidden   map[bridge.SurfaceID]bool
	tabBarHidden map[bridge.SurfaceID]bool
	alerts       []*Alert
	shares       [][]string
	errors       map[bridge.SurfaceID]string
	retries      map[bridge.SurfaceID]func()
	placeholders map[bridge.SurfaceID][]byte
	transitions  []Transition
}

func NewHost(l *loop.Loop, logger *slog.Logger) *Host {
	return &Host{
		loop:         l,
		logger:       logger,
		titles:       make(map[bridge.SurfaceID]string),
		buttons:      make(map[bridge.SurfaceID]buttons),
		backHidden:   make(map[bridge.SurfaceID]bool),
		tabBarHidden: make(map[bridge.SurfaceID]bool),
		errors:       make(map[bridge.SurfaceID]string),
		retries:      make(map[bridge.SurfaceID]func()),
		placeholders: make(map[bridge.SurfaceID][]byte),
	}
}

// SetPages sets the content renderers fetch when script follows a link.
func (h *Host) SetPages(p Pages) {
	h.pages = p
}

// OnContext registers fn on every renderer's runtime, including ones
// created later.
func (h *Host) OnContext(fn func(script.Runtime)) {
	h.mu.Lock()
	h.onContext = fn
	renderers := append([]*Renderer(nil), h.renderers...)
	h.mu.Unlock()

	for _, r := range renderers {
		r.vm.OnContext(fn)
	}
}

func (h *Host) Dispatch(fn func()) {
	if !h.loop.Post(fn) {
		h.logger.Debug("dispatch after close dropped")
	}
}

func (h *Host) NewRenderer() (bridge.Renderer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := fmt.Sprintf("headless-%d", len(h.renderers)+1)
	r := &Renderer{
		id:     id,
		host:   h,
		vm:     jsvm.New(id, h.loop, h.logger),
		logger: h.logger.With("renderer", id),
	}
	if h.onContext != nil {
		r.vm.OnContext(h.onContext)
	}
	h.renderers = append(h.renderers, r)
	return r, nil
}

func (h *Host) SetTitle(id bridge.SurfaceID, title string) {
	h.mu.Lock()
	h.titles[id] = title
	h.mu.Unlock()
}

func (h *Host) SetButtons(id bridge.SurfaceID, left, right *bridge.BarButton, onTap func(string)) {
	h.mu.Lock()
	h.buttons[id] = buttons{left: left, right: right, onTap: onTap}
	h.mu.Unlock()
}

func (h *Host) SetBackHidden(id bridge.SurfaceID, hidden bool) {
	h.mu.Lock()
	h.backHidden[id] = hidden
	h.mu.Unlock()
}

func (h *Host) SetTabBarHidden(id bridge.SurfaceID, hidden bool) {
	h.mu.Lock()
	h.tabBarHidden[id] = hidden
	h.mu.Unlock()
}

func (h *Host) ShowAlert(id bridge.SurfaceID, alert bridge.Alert, done func(int)) {
	h.mu.Lock()
	h.alerts = append(h.alerts, &Alert{Surface: id, Alert: alert, done: done, callback: done})
	h.mu.Unlock()
}

func (h *Host) Share(id bridge.SurfaceID, items []string) {
	h.mu.Lock()
	h.shares = append(h.shares, append([]string(nil), items...))
	h.mu.Unlock()
}

func (h *Host) ShowError(id bridge.SurfaceID, message string, retry func()) {
	h.mu.Lock()
	h.errors[id] = message
	h.retries[id] = retry
	h.mu.Unlock()
}

func (h *Host) HideError(id bridge.SurfaceID) {
	h.mu.Lock()
	delete(h.errors, id)
	delete(h.retries, id)
	h.mu.Unlock()
}

func (h *Host) SetPlaceholder(id bridge.SurfaceID, image []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if image == nil {
		delete(h.placeholders, id)
		return
	}
	h.placeholders[id] = image
}

func (h *Host) Transitioned(kind string, from, to bridge.SurfaceID) {
	h.mu.Lock()
	h.transitions = append(h.transitions, Transition{Kind: kind, From: from, To: to})
	h.mu.Unlock()
}
