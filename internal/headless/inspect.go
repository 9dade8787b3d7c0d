package headless

import (
	"github.com/arko-chat/hybrid/internal/bridge"
)

func (h *Host) Renderers() []*Renderer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Renderer(nil), h.renderers...)
}

func (h *Host) Title(id bridge.SurfaceID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.titles[id]
}

// Buttons returns the left and right chrome buttons of a surface.
func (h *Host) Buttons(id bridge.SurfaceID) (left, right *bridge.BarButton) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.buttons[id]
	return b.left, b.right
}

// Tap simulates a tap on the chrome button with the given id. The tap is
// delivered on the owner loop. It reports false when no such button is
// shown.
func (h *Host) Tap(id bridge.SurfaceID, buttonID string) bool {
	h.mu.Lock()
	b := h.buttons[id]
	h.mu.Unlock()

	for _, btn := range []*bridge.BarButton{b.left, b.right} {
		if btn != nil && btn.ID == buttonID && b.onTap != nil {
			h.Dispatch(func() { b.onTap(buttonID) })
			return true
		}
	}
	return false
}

func (h *Host) BackHidden(id bridge.SurfaceID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.backHidden[id]
}

func (h *Host) TabBarHidden(id bridge.SurfaceID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tabBarHidden[id]
}

// Alerts returns every alert shown so far.
func (h *Host) Alerts() []Alert {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Alert, len(h.alerts))
	for i, a := range h.alerts {
		out[i] = *a
	}
	return out
}

// VisibleAlerts counts alerts still waiting for the user.
func (h *Host) VisibleAlerts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, a := range h.alerts {
		if a.done != nil {
			n++
		}
	}
	return n
}

// Select taps action index on the oldest visible alert.
func (h *Host) Select(index int) bool {
	return h.resolveAlert(index)
}

// DismissAlert makes the oldest visible alert go away without a selection.
func (h *Host) DismissAlert() bool {
	return h.resolveAlert(-1)
}

func (h *Host) resolveAlert(index int) bool {
	h.mu.Lock()
	var done func(int)
	for _, a := range h.alerts {
		if a.done != nil {
			done = a.done
			a.done = nil
			break
		}
	}
	h.mu.Unlock()

	if done == nil {
		return false
	}
	h.Dispatch(func() { done(index) })
	return true
}

// Deliver hands index to alert i even when it was already resolved, as a
// host that reports both a tap and a system dismissal would.
func (h *Host) Deliver(i, index int) bool {
	h.mu.Lock()
	if i < 0 || i >= len(h.alerts) {
		h.mu.Unlock()
		return false
	}
	a := h.alerts[i]
	a.done = nil
	cb := a.callback
	h.mu.Unlock()

	h.Dispatch(func() { cb(index) })
	return true
}

func (h *Host) Shares() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]string(nil), h.shares...)
}

func (h *Host) Error(id bridge.SurfaceID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errors[id]
}

// Retry taps the retry control of a surface's error display.
func (h *Host) Retry(id bridge.SurfaceID) bool {
	h.mu.Lock()
	retry := h.retries[id]
	h.mu.Unlock()

	if retry == nil {
		return false
	}
	h.Dispatch(retry)
	return true
}

func (h *Host) Placeholder(id bridge.SurfaceID) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.placeholders[id]
}

func (h *Host) Transitions() []Transition {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Transition(nil), h.transitions...)
}
