package mobile

import (
	"errors"
	"time"
)

// ShouldStartLoadTimeout bounds how long a native navigation waits for the
// owning surface's decision before it is allowed.
var ShouldStartLoadTimeout = 2 * time.Second

// The methods below are called by the native app from any thread. They hand
// the event to the owner loop.

func (h *Host) TapButton(surfaceID, buttonID string) {
	h.Dispatch(func() {
		onTap, ok := h.taps[surfaceID]
		if !ok {
			h.logger.Debug("tap without buttons", "surface", surfaceID, "button", buttonID)
			return
		}
		onTap(buttonID)
	})
}

// AlertDone reports the selected action index, or -1 when the alert went
// away without a selection.
func (h *Host) AlertDone(alertID, index int) {
	h.Dispatch(func() {
		done, ok := h.alerts[alertID]
		if !ok {
			return
		}
		delete(h.alerts, alertID)
		done(index)
	})
}

func (h *Host) Retry(surfaceID string) {
	h.Dispatch(func() {
		if retry, ok := h.retries[surfaceID]; ok {
			retry()
		}
	})
}

// ShouldStartLoad asks the surface owning rendererID whether its web view
// may navigate to url. It blocks until the owner loop answers.
func (h *Host) ShouldStartLoad(rendererID, url string) (bool, error) {
	r, err := h.renderer(rendererID)
	if err != nil {
		return false, err
	}

	answer := make(chan bool, 1)
	posted := h.loop.Post(func() {
		if r.delegate == nil {
			answer <- true
			return
		}
		answer <- r.delegate.ShouldStartLoad(url)
	})
	if !posted {
		return true, nil
	}

	select {
	case ok := <-answer:
		return ok, nil
	case <-time.After(ShouldStartLoadTimeout):
		h.logger.Warn("navigation decision timed out", "renderer", rendererID, "url", url)
		return true, nil
	}
}

func (h *Host) DidFinishLoad(rendererID string) error {
	r, err := h.renderer(rendererID)
	if err != nil {
		return err
	}
	h.Dispatch(func() {
		if r.delegate != nil {
			r.delegate.DidFinishLoad()
		}
	})
	return nil
}

func (h *Host) DidFailLoad(rendererID, message string) error {
	r, err := h.renderer(rendererID)
	if err != nil {
		return err
	}
	h.Dispatch(func() {
		if r.delegate != nil {
			r.delegate.DidFailLoad(errors.New(message))
		}
	})
	return nil
}

// DestroyWebView tells the host the native view for rendererID is gone.
func (h *Host) DestroyWebView(rendererID string) error {
	r, err := h.renderer(rendererID)
	if err != nil {
		return err
	}
	h.renderers.Delete(rendererID)
	h.hub.Remove(rendererID)
	r.rt.Close()
	return nil
}
