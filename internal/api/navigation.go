package api

import (
	"net/url"

	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

type Navigation struct {
	node
	onBack script.Ref
}

func (n *Navigation) animateForward(args script.Args) (any, error) {
	opts, err := decodeSurfaceOptions(args, 0)
	cb := args.Func(1)
	n.logger.Debug("navigation.animateForward", "title", opts.Title, "err", err)
	if err != nil {
		script.FireWithError(cb, err.Error())
		return nil, nil
	}

	n.dispatch("navigation.animateForward", func(s *surface.Surface) {
		s.NavigateForward(opts)
		script.FireWithData(cb, nil)
	})
	return nil, nil
}

func (n *Navigation) animateBackward(script.Args) (any, error) {
	n.logger.Debug("navigation.animateBackward")
	n.dispatch("navigation.animateBackward", (*surface.Surface).NavigateBackward)
	return nil, nil
}

func (n *Navigation) popToRoot(script.Args) (any, error) {
	n.logger.Debug("navigation.popToRoot")
	n.dispatch("navigation.popToRoot", (*surface.Surface).PopToRoot)
	return nil, nil
}

func (n *Navigation) setOnBack(args script.Args) (any, error) {
	n.logger.Debug("navigation.setOnBack")
	n.onBack = args.Func(0)
	return nil, nil
}

func (n *Navigation) presentModal(args script.Args) (any, error) {
	opts, err := decodeSurfaceOptions(args, 0)
	n.logger.Debug("navigation.presentModal", "title", opts.Title, "err", err)
	if err != nil {
		return nil, err
	}

	n.dispatch("navigation.presentModal", func(s *surface.Surface) {
		s.PresentModal(opts)
	})
	return nil, nil
}

func (n *Navigation) dismissModal(script.Args) (any, error) {
	n.logger.Debug("navigation.dismissModal")
	n.dispatch("navigation.dismissModal", (*surface.Surface).DismissModal)
	return nil, nil
}

type externalOptions struct {
	URL       string `json:"url"`
	ReturnURL string `json:"returnURL"`
	Title     string `json:"title"`
}

func (o externalOptions) validate() (surface.ExternalOptions, error) {
	if !validURL(o.URL) {
		return surface.ExternalOptions{}, ErrInvalidURL
	}
	ret := o.ReturnURL
	if ret != "" && !validURL(ret) {
		ret = ""
	}
	return surface.ExternalOptions{URL: o.URL, ReturnURL: ret, Title: o.Title}, nil
}

func (n *Navigation) presentExternalURL(args script.Args) (any, error) {
	cb := args.Func(1)

	var raw externalOptions
	if err := args.Decode(0, &raw); err != nil {
		n.logger.Debug("navigation.presentExternalURL", "err", err)
		script.FireWithError(cb, ErrInvalidOptions.Message)
		return nil, nil
	}
	opts, err := raw.validate()
	n.logger.Debug("navigation.presentExternalURL", "url", raw.URL, "return_url", raw.ReturnURL, "err", err)
	if err != nil {
		script.FireWithError(cb, err.Error())
		return nil, nil
	}

	n.dispatch("navigation.presentExternalURL", func(s *surface.Surface) {
		if _, err := s.PresentExternalURL(opts); err != nil {
			n.logger.Warn("present external url failed", "url", opts.URL, "err", err)
			script.FireWithError(cb, err.Error())
			return
		}
		script.FireWithData(cb, nil)
	})
	return nil, nil
}

func (n *Navigation) dismissExternalURL(args script.Args) (any, error) {
	raw, _ := args.String(0)
	n.logger.Debug("navigation.dismissExternalURL", "url", raw)
	if !validURL(raw) {
		return nil, nil
	}

	n.dispatch("navigation.dismissExternalURL", func(s *surface.Surface) {
		s.DismissExternalURL(raw)
	})
	return nil, nil
}

// back runs when the owner is removed without a pop. A registered onBack
// handler replaces the default step back in content history.
func (n *Navigation) back() {
	n.logger.Debug("navigation.back")
	if !n.onBack.Stale() {
		script.Fire(n.onBack)
		return
	}
	if s := n.Owner(); s != nil {
		s.StepBack()
	}
}

func validURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}
