package surface

import (
	"net/url"
	"strings"
	"weak"

	"github.com/arko-chat/hybrid/internal/bridge"
)

const (
	externalBack = "back"
	externalDone = "done"
)

// PresentExternalURL shows url in a new surface with its own content,
// presented over s. Navigation inside it that reaches opts.ReturnURL is
// sent back to s.
func (s *Surface) PresentExternalURL(opts ExternalOptions) (*Surface, error) {
	s.env.Logger.Debug("present external url", "surface", s.id, "url", opts.URL, "return_url", opts.ReturnURL)

	r, err := s.env.Native.NewRenderer()
	if err != nil {
		return nil, err
	}

	ext := newSurface(s.env, r)
	ext.presenting = weak.Make(s)
	ext.storedAppearance = External
	ext.returnURL = opts.ReturnURL
	ext.stack = &Stack{surfaces: []*Surface{ext}, presenter: s}
	s.presented = ext.stack

	r.Attach(ext.id, ext)
	s.env.Binder.EnsureBound(ext)
	ext.Load(opts.URL)
	ext.SetTitle(opts.Title)
	s.env.Native.SetButtons(ext.id,
		&bridge.BarButton{ID: externalBack, Title: "Back"},
		&bridge.BarButton{ID: externalDone, Title: "Done"},
		ext.externalButtonTapped,
	)

	s.disappearedBy = External
	transition(External, s, ext, false)
	return ext, nil
}

// DismissExternalURL loads rawURL in the presenting surface, or in s when
// there is none, and dismisses s.
func (s *Surface) DismissExternalURL(rawURL string) {
	s.env.Logger.Debug("dismiss external url", "surface", s.id, "url", rawURL)
	s.returnFromExternal(rawURL)
}

func (s *Surface) externalButtonTapped(id string) {
	switch id {
	case externalBack:
		if s.renderer.CanGoBack() {
			s.renderer.GoBack()
			return
		}
		s.returnAndDismiss()
	case externalDone:
		s.returnAndDismiss()
	}
}

func (s *Surface) returnAndDismiss() {
	if p := s.Presenting(); p != nil {
		p.ShowContent()
	}
	s.dismissExternal()
}

func (s *Surface) returnFromExternal(rawURL string) {
	target := s.Presenting()
	if target == nil {
		target = s
	}
	target.Load(rawURL)
	s.dismissExternal()
}

func (s *Surface) dismissExternal() {
	if s.stack.presenter == nil {
		return
	}
	s.disappearedBy = External
	s.closeStack(Dismiss, s)
}

// interceptsReturn reports whether a navigation to rawURL is a return from
// an external surface.
func (s *Surface) interceptsReturn(rawURL string) bool {
	if s.AppearedFrom() != External || s.returnURL == "" {
		return false
	}
	requested, ok := withoutQuery(rawURL)
	if !ok {
		return false
	}
	ret, ok := withoutQuery(s.returnURL)
	if !ok {
		return false
	}
	return strings.HasPrefix(requested, ret)
}

func withoutQuery(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}
