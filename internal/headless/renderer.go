package headless

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/jsvm"
	"github.com/arko-chat/hybrid/internal/script"
)

var _ bridge.Renderer = (*Renderer)(nil)

// ErrNoPage is returned by Capture before anything was rendered.
var ErrNoPage = errors.New("headless: nothing rendered")

// Renderer runs page scripts in a goja context. Rendering a page discards
// the previous context, like a browser navigation does. Every method must be
// called on the owner loop.
type Renderer struct {
	id     string
	host   *Host
	vm     *jsvm.VM
	logger *slog.Logger

	owner    bridge.SurfaceID
	delegate bridge.Delegate

	history []bridge.Page
	hidden  bool
	stopped int
}

func (r *Renderer) ID() string {
	return r.id
}

func (r *Renderer) Runtime() script.Runtime {
	return r.vm
}

// VM exposes the underlying script context for tests.
func (r *Renderer) VM() *jsvm.VM {
	return r.vm
}

func (r *Renderer) Attach(id bridge.SurfaceID, d bridge.Delegate) {
	r.owner = id
	r.delegate = d
}

func (r *Renderer) Owner() bridge.SurfaceID {
	return r.owner
}

// Render shows page and records it in the history.
func (r *Renderer) Render(page bridge.Page) {
	r.history = append(r.history, page)
	r.show(page)
}

func (r *Renderer) show(page bridge.Page) {
	r.logger.Debug("render", "url", page.URL, "mime", page.MIMEType)
	r.vm.Reset()

	scripts, err := inlineScripts(page)
	if err != nil {
		r.fail(err)
		return
	}
	for i, src := range scripts {
		if _, err := r.vm.RunString(src); err != nil {
			r.logger.Warn("page script failed", "url", page.URL, "script", i, "err", err)
		}
	}

	if r.delegate != nil {
		r.delegate.DidFinishLoad()
	}
}

func (r *Renderer) fail(err error) {
	r.logger.Warn("render failed", "err", err)
	if r.delegate != nil {
		r.delegate.DidFailLoad(err)
	}
}

func (r *Renderer) SetHidden(hidden bool) {
	r.hidden = hidden
}

func (r *Renderer) Hidden() bool {
	return r.hidden
}

// Capture returns a deterministic stand-in image of the current page.
func (r *Renderer) Capture() ([]byte, error) {
	page, ok := r.Current()
	if !ok {
		return nil, ErrNoPage
	}
	return fmt.Appendf(nil, "capture:%s:%s", r.id, page.URL), nil
}

func (r *Renderer) CanGoBack() bool {
	return len(r.history) > 1
}

func (r *Renderer) GoBack() {
	if !r.CanGoBack() {
		return
	}
	r.history = r.history[:len(r.history)-1]
	r.show(r.history[len(r.history)-1])
}

func (r *Renderer) StopLoading() {
	r.stopped++
}

// Stopped counts StopLoading calls.
func (r *Renderer) Stopped() int {
	return r.stopped
}

// Current returns the page on screen.
func (r *Renderer) Current() (bridge.Page, bool) {
	if len(r.history) == 0 {
		return bridge.Page{}, false
	}
	return r.history[len(r.history)-1], true
}

// Navigate simulates the page following a link. The owning surface decides
// whether the navigation happens. Allowed navigations are fetched through
// the host's pages, when set, and rendered on a later turn.
func (r *Renderer) Navigate(url string) bool {
	if r.delegate != nil && !r.delegate.ShouldStartLoad(url) {
		return false
	}

	pages := r.host.pages
	if pages == nil {
		return true
	}
	page, err := pages.Load(context.Background(), url)
	r.host.Dispatch(func() {
		if err != nil {
			r.fail(err)
			return
		}
		r.Render(page)
	})
	return true
}

// Eval runs src in the current context.
func (r *Renderer) Eval(src string) (any, error) {
	v, err := r.vm.RunString(src)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

func inlineScripts(page bridge.Page) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.URL, err)
	}

	var out []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		out = append(out, s.Text())
	})
	return out, nil
}
