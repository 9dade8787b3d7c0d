package api_test

import (
	"runtime"
	"testing"

	"github.com/arko-chat/hybrid/internal/api"
	"github.com/arko-chat/hybrid/internal/config"
	"github.com/arko-chat/hybrid/internal/headless"
	"github.com/arko-chat/hybrid/internal/hybridtest"
	"github.com/arko-chat/hybrid/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	homeURL   = "https://app.test/home"
	detailURL = "https://app.test/detail"
)

func start(t *testing.T, script string, opts ...hybridtest.Option) (*hybridtest.Env, *surface.Surface) {
	t.Helper()
	pages := headless.Pages{
		homeURL:   hybridtest.Page("Home", script),
		detailURL: hybridtest.Page("Detail", ""),
	}
	env := hybridtest.New(t, pages, opts...)
	return env, env.Start(homeURL)
}

func TestVersionAndInfo(t *testing.T) {
	env, root := start(t, "")

	assert.Equal(t, api.Version, env.Eval(root, "NativeBridge.version()"))
	assert.Equal(t, "desktop", env.Eval(root, "NativeBridge.info().device"))
	assert.Equal(t, runtime.GOOS, env.Eval(root, "NativeBridge.info().platform"))
	assert.Equal(t, "2.1.0", env.Eval(root, "NativeBridge.info().appVersion"))
}

func TestMethodsAreExposed(t *testing.T) {
	env, root := start(t, "")

	for _, path := range []string{
		"dialog", "share", "log", "newState", "updatePageState",
		"navigation.animateForward", "navigation.animateBackward", "navigation.popToRoot",
		"navigation.setOnBack", "navigation.presentModal", "navigation.dismissModal",
		"navigation.presentExternalURL", "navigation.dismissExternalURL",
		"navigationBar.setTitle", "navigationBar.setButtons",
		"tabBar.show", "tabBar.hide",
		"view.show", "view.setOnAppear", "view.setOnDisappear",
	} {
		assert.Equal(t, "function", env.Eval(root, "typeof NativeBridge."+path), path)
	}
}

func TestDialogSelection(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.dialog({
		title: "Delete?",
		message: "This cannot be undone",
		actions: [{id: "ok", label: "Delete"}, {id: "cancel", label: "Cancel"}]
	}, function(err, id) { record("picked", err, id); });`)

	alerts := env.Host.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "Delete?", alerts[0].Title)
	assert.Equal(t, "This cannot be undone", alerts[0].Message)
	assert.Equal(t, []string{"Delete", "Cancel"}, alerts[0].Actions)
	assert.Equal(t, root.ID(), alerts[0].Surface)

	require.True(t, env.Host.Select(1))
	env.Drain()
	assert.Equal(t, []string{"picked,null,cancel"}, env.Events(root))
	assert.Zero(t, env.Host.VisibleAlerts())
}

func TestDialogOneAtATime(t *testing.T) {
	env, root := start(t, "")

	show := `NativeBridge.dialog({title: "T", actions: [{id: "a", label: "A"}]}, function(err, id) { record(id); });`
	env.Eval(root, show)
	env.Eval(root, show)
	assert.Len(t, env.Host.Alerts(), 1)

	require.True(t, env.Host.Select(0))
	env.Drain()
	assert.Equal(t, []string{"a"}, env.Events(root))

	env.Eval(root, show)
	assert.Len(t, env.Host.Alerts(), 2)
	assert.Equal(t, 1, env.Host.VisibleAlerts())
}

func TestDialogCompletesOnce(t *testing.T) {
	env, root := start(t, "", func(c *config.Config) { c.DialogDismiss = "error" })

	env.Eval(root, `NativeBridge.dialog({title: "T", actions: [{id: "a", label: "A"}]}, function(err, id) { record(err, id); });`)
	require.True(t, env.Host.Select(0))
	env.Drain()
	require.True(t, env.Host.Deliver(0, -1))
	require.True(t, env.Host.Deliver(0, 0))
	env.Drain()

	assert.Equal(t, []string{"null,a"}, env.Events(root))
}

func TestDialogValidation(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    *api.ValidationError
	}{
		{"no title or message", `{actions: [{id: "a", label: "A"}]}`, api.ErrEmptyTitleAndMessage},
		{"no actions", `{title: "T"}`, api.ErrMissingAction},
		{"empty actions", `{title: "T", actions: []}`, api.ErrMissingAction},
		{"action without label", `{message: "M", actions: [{id: "a"}]}`, api.ErrInvalidAction},
		{"not an object", `"nope"`, api.ErrInvalidOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, root := start(t, "")
			env.Eval(root, `NativeBridge.dialog(`+tt.options+`, function(err, id) { record(err, id); });`)

			assert.Empty(t, env.Host.Alerts())
			assert.Equal(t, []string{"error:" + tt.want.Message + ",null"}, env.Events(root))
		})
	}
}

func TestDialogDismissPolicy(t *testing.T) {
	show := `NativeBridge.dialog({title: "T", actions: [{id: "a", label: "A"}]}, function(err, id) { record(err, id); });`

	t.Run("silent", func(t *testing.T) {
		env, root := start(t, "")
		env.Eval(root, show)
		require.True(t, env.Host.DismissAlert())
		env.Drain()
		assert.Empty(t, env.Events(root))

		// the next dialog is allowed again
		env.Eval(root, show)
		assert.Equal(t, 1, env.Host.VisibleAlerts())
	})

	t.Run("error", func(t *testing.T) {
		env, root := start(t, "", func(c *config.Config) { c.DialogDismiss = "error" })
		env.Eval(root, show)
		require.True(t, env.Host.DismissAlert())
		env.Drain()
		assert.Equal(t, []string{"error:Dialog was dismissed without selecting an action.,null"}, env.Events(root))
	})
}

func TestSetTitle(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigationBar.setTitle("Inbox", function(err) { record("titled", err); });`)
	assert.Equal(t, "Inbox", env.Host.Title(root.ID()))
	assert.Equal(t, "Inbox", root.Title())
	assert.Equal(t, []string{"titled,null"}, env.Events(root))

	env.Eval(root, `NativeBridge.updatePageState({title: "Archive"});`)
	assert.Equal(t, "Archive", env.Host.Title(root.ID()))
}

func TestSetButtonsRoundTrip(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigationBar.setButtons(
		[{id: "edit", title: "Edit"}, {id: "add", title: "Add", image: "plus"}],
		function(id) { record("tap", id); },
		function() { record("configured"); }
	);`)

	left, right := env.Host.Buttons(root.ID())
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, "edit", left.ID)
	assert.Equal(t, "Add", right.Title)
	assert.Equal(t, "plus", right.Image)
	assert.Equal(t, []string{"configured"}, env.Events(root))

	require.True(t, env.Host.Tap(root.ID(), "add"))
	env.Drain()
	assert.Equal(t, []string{"configured", "tap,add"}, env.Events(root))

	assert.False(t, env.Host.Tap(root.ID(), "missing"))
}

func TestSetButtonsTapOrder(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigationBar.setButtons(
		[{id: "cancel", title: "Cancel"}, {id: "done", title: "Done"}],
		function(id) { record(id); }
	);`)

	require.True(t, env.Host.Tap(root.ID(), "cancel"))
	env.Drain()
	require.True(t, env.Host.Tap(root.ID(), "done"))
	env.Drain()
	assert.Equal(t, []string{"cancel", "done"}, env.Events(root))
}

func TestSetButtonsClearTwice(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigationBar.setButtons([{id: "x", title: "X"}], function() {});`)
	env.Eval(root, `NativeBridge.navigationBar.setButtons(null);`)
	got := env.Eval(root, `(function() {
		try { NativeBridge.navigationBar.setButtons(null, null); return "ok"; }
		catch (e) { return e.message; }
	})()`)

	assert.Equal(t, "ok", got)
	left, right := env.Host.Buttons(root.ID())
	assert.Nil(t, left)
	assert.Nil(t, right)
}

func TestSetButtonsClear(t *testing.T) {
	for _, arg := range []string{"null", "[]"} {
		t.Run(arg, func(t *testing.T) {
			env, root := start(t, "")
			env.Eval(root, `NativeBridge.navigationBar.setButtons([{id: "x", title: "X"}], function() {});`)
			env.Eval(root, `NativeBridge.navigationBar.setButtons(`+arg+`);`)

			left, right := env.Host.Buttons(root.ID())
			assert.Nil(t, left)
			assert.Nil(t, right)
			assert.True(t, env.Host.BackHidden(root.ID()))
		})
	}

	t.Run("back kept", func(t *testing.T) {
		env, root := start(t, "", func(c *config.Config) { c.HideBackOnClear = false })
		env.Eval(root, `NativeBridge.navigationBar.setButtons(null);`)
		assert.False(t, env.Host.BackHidden(root.ID()))
	})
}

func TestTabBar(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.tabBar.hide();`)
	assert.True(t, env.Host.TabBarHidden(root.ID()))
	env.Eval(root, `NativeBridge.tabBar.show();`)
	assert.False(t, env.Host.TabBarHidden(root.ID()))
}

func TestShare(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.share({message: "Look", url: "https://example.com/a"});`)
	env.Eval(root, `NativeBridge.share({message: "No url"});`)
	assert.Equal(t, [][]string{{"https://example.com/a", "Look"}}, env.Host.Shares())
}

func TestAnimateForward(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigation.animateForward({
		title: "Detail",
		tabBarHidden: true,
		onAppear: function() { record("appear"); },
		navigationBarButtons: [{id: "save", title: "Save"}],
		onNavigationBarButtonTap: function(id) { record("tap", id); }
	}, function(err) { record("forward", err); });`)

	require.Equal(t, 2, root.Stack().Len())
	next := root.Stack().Top()
	assert.Equal(t, surface.Push, next.AppearedFrom())
	assert.Equal(t, "Detail", env.Host.Title(next.ID()))
	assert.True(t, env.Host.TabBarHidden(next.ID()))
	assert.Equal(t, []string{"appear", "forward,null"}, env.Events(root))

	require.True(t, env.Host.Tap(next.ID(), "save"))
	env.Drain()
	assert.Contains(t, env.Events(root), "tap,save")

	transitions := env.Host.Transitions()
	require.NotEmpty(t, transitions)
	last := transitions[len(transitions)-1]
	assert.Equal(t, headless.Transition{Kind: "push", From: root.ID(), To: next.ID()}, last)
}

func TestAnimateForwardRejectsBadOptions(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigation.animateForward("nope", function(err) { record(err); });`)
	assert.Equal(t, 1, root.Stack().Len())
	assert.Equal(t, []string{"error:" + api.ErrInvalidOptions.Message}, env.Events(root))
}

func TestAnimateBackwardAndOnAppear(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.view.setOnAppear(function() { record("root appear"); });`)
	env.Eval(root, `NativeBridge.view.setOnDisappear(function() { record("root disappear"); });`)
	// the root is already on screen, so a late registration fires once
	assert.Equal(t, []string{"root appear"}, env.Events(root))

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Next"});`)
	require.Equal(t, 2, root.Stack().Len())

	env.Eval(root, `NativeBridge.navigation.animateBackward();`)
	assert.Equal(t, 1, root.Stack().Len())
	assert.Equal(t, surface.Pop, root.AppearedFrom())
	assert.Equal(t, []string{"root appear", "root disappear", "root appear"}, env.Events(root))
}

func TestOnAppearFiresOncePerAppearance(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.view.setOnAppear(function() { record("appear"); });`)
	caps := root.Capabilities()
	require.NotNil(t, caps)

	caps.Appeared()
	caps.Appeared()
	env.Drain()
	assert.Equal(t, []string{"appear"}, env.Events(root))

	caps.Disappeared()
	caps.Appeared()
	caps.Appeared()
	env.Drain()
	assert.Equal(t, []string{"appear", "appear"}, env.Events(root))
}

func TestEarlierBridgeReferenceActsOnTop(t *testing.T) {
	env, root := start(t, "var first = NativeBridge;")

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Next"});`)
	require.Equal(t, 2, root.Stack().Len())
	next := root.Stack().Top()

	env.Eval(root, `first.navigation.animateBackward();`)
	assert.Equal(t, 1, root.Stack().Len())
	assert.Equal(t, surface.Pop, next.DisappearedBy())
	assert.Equal(t, surface.Pop, root.AppearedFrom())
	assert.Equal(t, homeURL, env.CurrentURL(root), "no implicit back in content history")

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Again"});`)
	assert.Equal(t, 2, root.Stack().Len(), "the live bridge still works")
}

func TestEarlierBridgeReferencePopsToRoot(t *testing.T) {
	env, root := start(t, "var first = NativeBridge;")

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "One"});`)
	mid := root.Stack().Top()
	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Two"});`)
	require.Equal(t, 3, root.Stack().Len())
	top := root.Stack().Top()

	env.Eval(root, `first.navigation.popToRoot();`)
	assert.Equal(t, 1, root.Stack().Len())
	assert.Equal(t, surface.Pop, top.DisappearedBy())
	assert.Equal(t, surface.Pop, root.AppearedFrom())

	midAPI, ok := mid.Capabilities().(*api.API)
	require.True(t, ok)
	assert.Nil(t, midAPI.Owner(), "skipped surface is detached")

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Again"});`)
	assert.Equal(t, 2, root.Stack().Len())
}

func TestPopToRoot(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "One"});`)
	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Two"});`)
	require.Equal(t, 3, root.Stack().Len())

	env.Eval(root, `NativeBridge.navigation.popToRoot();`)
	assert.Equal(t, 1, root.Stack().Len())
	assert.Same(t, root, root.Stack().Top())
}

func TestSetOnBackRunsOnHostPop(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigation.animateForward({title: "Next"});`)
	next := root.Stack().Top()
	env.Eval(root, `NativeBridge.navigation.setOnBack(function() { record("back"); });`)

	require.NoError(t, env.Service.HostPop(next.ID()))
	env.Drain()
	assert.Equal(t, 1, root.Stack().Len())
	assert.Contains(t, env.Events(root), "back")
}

func TestModal(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigation.presentModal({title: "Compose"});`)
	require.NotNil(t, root.Presented())
	modal := root.Presented().Top()
	assert.Equal(t, surface.Modal, modal.AppearedFrom())
	assert.Equal(t, "Compose", env.Host.Title(modal.ID()))

	env.Eval(root, `NativeBridge.navigation.dismissModal();`)
	assert.Nil(t, root.Presented())
	assert.Equal(t, surface.Dismiss, root.AppearedFrom())
}

func TestPresentModalThrowsOnBadOptions(t *testing.T) {
	env, root := start(t, "")

	got := env.Eval(root, `(function() {
		try { NativeBridge.navigation.presentModal(42); return "no throw"; }
		catch (e) { return e.message; }
	})()`)
	assert.Equal(t, api.ErrInvalidOptions.Message, got)
	assert.Nil(t, root.Presented())
}

func TestPresentExternalURLValidation(t *testing.T) {
	env, root := start(t, "")

	env.Eval(root, `NativeBridge.navigation.presentExternalURL({url: "not a url"}, function(err) { record(err); });`)
	assert.Nil(t, root.Presented())
	assert.Equal(t, []string{"error:" + api.ErrInvalidURL.Message}, env.Events(root))
}

func TestNewState(t *testing.T) {
	env, root := start(t, "var first = NativeBridge;")

	assert.Equal(t, true, env.Eval(root, "first === NativeBridge"))
	env.Eval(root, "NativeBridge.newState();")
	assert.Equal(t, false, env.Eval(root, "first === NativeBridge"))
	assert.Equal(t, "function", env.Eval(root, "typeof NativeBridge.dialog"))
}

func TestViewShow(t *testing.T) {
	env, root := start(t, "")

	env.Renderer(root).SetHidden(true)
	env.Eval(root, `NativeBridge.view.show(function(err) { record("shown", err); });`)
	assert.False(t, env.Renderer(root).Hidden())
	assert.Equal(t, []string{"shown,null"}, env.Events(root))
}

func TestLog(t *testing.T) {
	env, root := start(t, "")

	assert.Nil(t, env.Eval(root, `NativeBridge.log({a: 1}); NativeBridge.log("text");`))
}
