package api

import (
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

type TabBar struct {
	node
}

func (tb *TabBar) show(script.Args) (any, error) {
	tb.setHidden(false)
	return nil, nil
}

func (tb *TabBar) hide(script.Args) (any, error) {
	tb.setHidden(true)
	return nil, nil
}

func (tb *TabBar) setHidden(hidden bool) {
	tb.logger.Debug("tabBar.setHidden", "hidden", hidden)
	tb.dispatch("tabBar.setHidden", func(s *surface.Surface) {
		s.Native().SetTabBarHidden(s.ID(), hidden)
	})
}

// View tracks appearance of the owner so onAppear fires once per
// appearance.
type View struct {
	node

	onAppear    script.Ref
	onDisappear script.Ref

	visible     bool
	appearances uint64
	firedFor    uint64
}

func (v *View) show(args script.Args) (any, error) {
	cb := args.Func(0)
	v.logger.Debug("view.show")

	v.dispatch("view.show", func(s *surface.Surface) {
		s.ShowContent()
		script.FireWithData(cb, nil)
	})
	return nil, nil
}

func (v *View) setOnAppearMethod(args script.Args) (any, error) {
	v.logger.Debug("view.setOnAppear")
	v.setOnAppear(args.Func(0))
	return nil, nil
}

func (v *View) setOnDisappear(args script.Args) (any, error) {
	v.logger.Debug("view.setOnDisappear")
	v.onDisappear = args.Func(0)
	return nil, nil
}

// setOnAppear replaces the appear handler. A handler registered while the
// view is already visible fires right away.
func (v *View) setOnAppear(ref script.Ref) {
	v.onAppear = ref
	v.firedFor = 0
	if v.visible {
		v.fireAppear()
	}
}

func (v *View) appeared() {
	if !v.visible {
		v.visible = true
		v.appearances++
	}
	v.fireAppear()
}

func (v *View) disappeared() {
	v.visible = false
	script.Fire(v.onDisappear)
}

func (v *View) fireAppear() {
	if v.firedFor == v.appearances || v.onAppear.Stale() {
		return
	}
	if script.Fire(v.onAppear) {
		v.firedFor = v.appearances
	}
}
