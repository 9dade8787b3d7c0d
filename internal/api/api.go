package api

import (
	"log/slog"
	"strings"
	"sync"
	"weak"

	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/surface"
)

// Version is reported to script by NativeBridge.version().
const Version = "0.0.7"

type DismissPolicy int

const (
	// DismissSilent drops the dialog callback when an alert goes away
	// without a selection.
	DismissSilent DismissPolicy = iota
	// DismissError reports such a dismissal as an error.
	DismissError
)

func ParseDismissPolicy(s string) DismissPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "error") {
		return DismissError
	}
	return DismissSilent
}

type Config struct {
	Device     string
	Platform   string
	AppVersion string

	// HideBackOnClear hides the back control when script clears the
	// navigation bar buttons.
	HideBackOnClear bool
	DismissPolicy   DismissPolicy
}

// owner is the single relation between a capability tree and the surface
// it acts on. Every node of a tree shares one owner.
type owner struct {
	mu  sync.RWMutex
	ref weak.Pointer[surface.Surface]
}

func (o *owner) get() *surface.Surface {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ref.Value()
}

func (o *owner) set(s *surface.Surface) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s == nil {
		o.ref = weak.Pointer[surface.Surface]{}
		return
	}
	o.ref = weak.Make(s)
}

type node struct {
	owner  *owner
	logger *slog.Logger
}

// Owner returns the surface this node acts on, or nil when detached.
func (n *node) Owner() *surface.Surface {
	return n.owner.get()
}

// dispatch runs fn against the owner on a later turn of the owner loop.
func (n *node) dispatch(name string, fn func(s *surface.Surface)) {
	s := n.Owner()
	if s == nil {
		n.logger.Debug("command dropped, tree is detached", "command", name)
		return
	}
	s.Native().Dispatch(func() {
		if cur := n.Owner(); cur != nil {
			fn(cur)
		}
	})
}

var _ surface.Capabilities = (*API)(nil)

// API is the capability tree exposed to script as NativeBridge.
type API struct {
	node
	cfg Config

	Navigation    *Navigation
	NavigationBar *NavigationBar
	TabBar        *TabBar
	View          *View
	Dialog        *Dialog

	exposure *script.Exposure
}

func New(s *surface.Surface, cfg Config, logger *slog.Logger) *API {
	o := &owner{}
	o.set(s)
	n := node{owner: o, logger: logger}

	a := &API{
		node:          n,
		cfg:           cfg,
		Navigation:    &Navigation{node: n},
		NavigationBar: &NavigationBar{node: n, hideBackOnClear: cfg.HideBackOnClear},
		TabBar:        &TabBar{node: n},
		View:          &View{node: n},
		Dialog:        &Dialog{node: n, policy: cfg.DismissPolicy},
	}
	a.exposure = a.buildExposure()
	return a
}

// Exposure is the method table installed into script. It is built once so
// re-binding the same tree is idempotent.
func (a *API) Exposure() *script.Exposure {
	return a.exposure
}

// RebindParent hands the tree and all of its nodes to s.
func (a *API) RebindParent(s *surface.Surface) {
	a.owner.set(s)
}

func (a *API) Appeared() {
	a.View.appeared()
}

func (a *API) Disappeared() {
	a.View.disappeared()
}

func (a *API) Back() {
	a.Navigation.back()
}

// Configure applies forward or modal options to a freshly created surface.
func (a *API) Configure(opts surface.Options) {
	s := a.Owner()
	if s == nil {
		return
	}
	s.SetTitle(opts.Title)
	s.Native().SetTabBarHidden(s.ID(), opts.TabBarHidden)
	a.View.setOnAppear(opts.OnAppear)
	if opts.HasButtons {
		a.NavigationBar.configureButtons(s, opts.Buttons, opts.OnButtonTap)
	}
}

func (a *API) Info() map[string]string {
	return map[string]string{
		"device":     a.cfg.Device,
		"platform":   a.cfg.Platform,
		"appVersion": a.cfg.AppVersion,
	}
}

func (a *API) buildExposure() *script.Exposure {
	return &script.Exposure{
		Methods: map[string]script.Method{
			"dialog":          a.Dialog.show,
			"share":           a.share,
			"log":             a.log,
			"newState":        a.newState,
			"updatePageState": a.updatePageState,

			"navigation.animateForward":     a.Navigation.animateForward,
			"navigation.animateBackward":    a.Navigation.animateBackward,
			"navigation.popToRoot":          a.Navigation.popToRoot,
			"navigation.setOnBack":          a.Navigation.setOnBack,
			"navigation.presentModal":       a.Navigation.presentModal,
			"navigation.dismissModal":       a.Navigation.dismissModal,
			"navigation.presentExternalURL": a.Navigation.presentExternalURL,
			"navigation.dismissExternalURL": a.Navigation.dismissExternalURL,

			"navigationBar.setTitle":   a.NavigationBar.setTitle,
			"navigationBar.setButtons": a.NavigationBar.setButtons,

			"tabBar.show": a.TabBar.show,
			"tabBar.hide": a.TabBar.hide,

			"view.show":           a.View.show,
			"view.setOnAppear":    a.View.setOnAppearMethod,
			"view.setOnDisappear": a.View.setOnDisappear,
		},
		Values: map[string]any{
			"info":    a.Info(),
			"version": Version,
		},
	}
}
