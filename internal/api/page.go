package api

import (
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

type shareOptions struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

func (a *API) share(args script.Args) (any, error) {
	var opts shareOptions
	if err := args.Decode(0, &opts); err != nil {
		return nil, ErrInvalidOptions
	}
	a.logger.Debug("share", "url", opts.URL)
	if opts.Message == "" || opts.URL == "" {
		a.logger.Warn("share ignored", "err", ErrMissingShareItems)
		return nil, nil
	}

	a.dispatch("share", func(s *surface.Surface) {
		s.Native().Share(s.ID(), []string{opts.URL, opts.Message})
	})
	return nil, nil
}

func (a *API) log(args script.Args) (any, error) {
	var value any
	if err := args.Decode(0, &value); err != nil {
		value, _ = args.String(0)
	}
	a.logger.Info("script log", "value", value)
	return nil, nil
}

// newState replaces the bound tree with a fresh one.
func (a *API) newState(script.Args) (any, error) {
	a.logger.Debug("newState")
	a.dispatch("newState", func(s *surface.Surface) {
		s.RenewBridge()
	})
	return nil, nil
}

type pageState struct {
	Title string `json:"title"`
}

func (a *API) updatePageState(args script.Args) (any, error) {
	var state pageState
	if err := args.Decode(0, &state); err != nil {
		return nil, ErrInvalidOptions
	}
	a.logger.Debug("updatePageState", "title", state.Title)
	if state.Title == "" {
		return nil, nil
	}

	a.dispatch("updatePageState", func(s *surface.Surface) {
		s.SetTitle(state.Title)
	})
	return nil, nil
}
