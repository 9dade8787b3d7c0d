package api

import (
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

type NavigationBar struct {
	node
	hideBackOnClear bool
}

func (nb *NavigationBar) setTitle(args script.Args) (any, error) {
	title, _ := args.String(0)
	cb := args.Func(1)
	nb.logger.Debug("navigationBar.setTitle", "title", title)

	nb.dispatch("navigationBar.setTitle", func(s *surface.Surface) {
		s.SetTitle(title)
		script.FireWithData(cb, nil)
	})
	return nil, nil
}

func (nb *NavigationBar) setButtons(args script.Args) (any, error) {
	cb := args.Func(1)
	testCb := args.Func(2)

	var buttons []*bridge.BarButton
	if !args.Missing(0) {
		var items []any
		if err := args.Decode(0, &items); err != nil {
			return nil, ErrInvalidOptions
		}
		buttons = parseButtons(items)
	}
	nb.logger.Debug("navigationBar.setButtons", "buttons", len(buttons))

	nb.dispatch("navigationBar.setButtons", func(s *surface.Surface) {
		nb.configureButtons(s, buttons, cb)
		script.Fire(testCb)
	})
	return nil, nil
}

// configureButtons installs up to two buttons. An empty set clears both
// sides.
func (nb *NavigationBar) configureButtons(s *surface.Surface, buttons []*bridge.BarButton, cb script.Ref) {
	var left, right *bridge.BarButton
	if len(buttons) > 0 {
		left = buttons[0]
	}
	if len(buttons) > 1 {
		right = buttons[1]
	}

	native := s.Native()
	if left == nil && right == nil {
		if len(buttons) == 0 && nb.hideBackOnClear {
			native.SetBackHidden(s.ID(), true)
		}
		native.SetButtons(s.ID(), nil, nil, nil)
		return
	}

	native.SetButtons(s.ID(), left, right, func(id string) {
		nb.logger.Debug("navigationBar button tapped", "id", id)
		script.Fire(cb, id)
	})
}
