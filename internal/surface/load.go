package surface

import (
	"context"
	"errors"
	"fmt"

	"github.com/arko-chat/hybrid/internal/bridge"
)

var _ bridge.Delegate = (*Surface)(nil)

// Load fetches rawURL and renders it. A load still in flight is cancelled
// and its result ignored. The bound capability tree is dropped so the page's
// new script context gets a fresh one.
func (s *Surface) Load(rawURL string) {
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.env.Binder.Reset(s)

	s.url = rawURL
	s.loadSeq++
	seq := s.loadSeq

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelLoad = cancel

	go func() {
		defer cancel()
		page, err := s.env.Loader.Load(ctx, rawURL)
		s.env.Native.Dispatch(func() {
			s.finishLoad(seq, page, err)
		})
	}()
}

// Reload retries the last URL, as the error display's retry control does.
func (s *Surface) Reload() {
	if s.url == "" {
		return
	}
	s.Load(s.url)
}

func (s *Surface) finishLoad(seq uint64, page bridge.Page, err error) {
	if seq != s.loadSeq {
		return
	}
	s.cancelLoad = nil

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.env.Logger.Warn("load failed", "surface", s.id, "url", s.url, "err", err)
		s.renderError()
		return
	}

	if s.title == "" && page.Title != "" && s.AppearedFrom() == External {
		s.SetTitle(page.Title)
	}
	s.renderer.Render(page)
}

func (s *Surface) renderError() {
	if !s.env.ShowErrorDisplay {
		return
	}
	feature := s.env.FeatureName
	if feature == "" {
		feature = "This feature"
	}

	s.renderer.SetHidden(true)
	s.env.Native.ShowError(s.id, fmt.Sprintf("Sorry!\n %s isn't working right now.", feature), s.Reload)
	s.errorShown = true
}

func (s *Surface) ShouldStartLoad(rawURL string) bool {
	if s.interceptsReturn(rawURL) {
		s.env.Logger.Debug("intercepted external return", "surface", s.id, "url", rawURL)
		s.returnFromExternal(rawURL)
		return false
	}
	return true
}

func (s *Surface) DidFinishLoad() {
	if !s.errorShown {
		return
	}
	s.env.Native.HideError(s.id)
	s.errorShown = false
	s.ShowContent()
}

func (s *Surface) DidFailLoad(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.env.Logger.Warn("content failed", "surface", s.id, "err", err)
	s.renderError()
}
