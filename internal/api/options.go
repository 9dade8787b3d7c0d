package api

import (
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

type surfaceOptions struct {
	Title                string `json:"title"`
	TabBarHidden         bool   `json:"tabBarHidden"`
	NavigationBarButtons []any  `json:"navigationBarButtons"`
}

// decodeSurfaceOptions reads the options of a forward or modal transition.
// Missing options are not an error.
func decodeSurfaceOptions(args script.Args, i int) (surface.Options, error) {
	if args.Missing(i) {
		return surface.Options{}, nil
	}

	var raw surfaceOptions
	if err := args.Decode(i, &raw); err != nil {
		return surface.Options{}, ErrInvalidOptions
	}

	opts := surface.Options{
		Title:        raw.Title,
		TabBarHidden: raw.TabBarHidden,
		OnAppear:     args.Prop(i, "onAppear"),
		OnButtonTap:  args.Prop(i, "onNavigationBarButtonTap"),
	}
	if raw.NavigationBarButtons != nil {
		opts.HasButtons = true
		opts.Buttons = parseButtons(raw.NavigationBarButtons)
	}
	return opts, nil
}

// parseButtons maps script button descriptions onto the left (0) and right
// (1) slots. Entries without an id and title leave their slot empty.
func parseButtons(items []any) []*bridge.BarButton {
	buttons := make([]*bridge.BarButton, 0, 2)
	for i, item := range items {
		if i > 1 {
			break
		}
		buttons = append(buttons, parseButton(item))
	}
	return buttons
}

func parseButton(item any) *bridge.BarButton {
	m, ok := item.(map[string]any)
	if !ok {
		return nil
	}
	id, _ := m["id"].(string)
	title, _ := m["title"].(string)
	if id == "" || title == "" {
		return nil
	}
	image, _ := m["image"].(string)
	return &bridge.BarButton{ID: id, Title: title, Image: image}
}
