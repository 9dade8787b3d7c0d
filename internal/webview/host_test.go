package webview

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/headless"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wv "github.com/webview/webview_go"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeView struct {
	mu       sync.Mutex
	title    string
	html     []string
	evals    []string
	navs     []string
	inits    []string
	bindings map[string]any
	done     chan struct{}
	once     sync.Once
}

var _ wv.WebView = (*fakeView)(nil)

func newFakeView() *fakeView {
	return &fakeView{bindings: make(map[string]any), done: make(chan struct{})}
}

func (f *fakeView) Run()                           { <-f.done }
func (f *fakeView) Terminate()                     { f.once.Do(func() { close(f.done) }) }
func (f *fakeView) Dispatch(fn func())             { fn() }
func (f *fakeView) Destroy()                       { f.Terminate() }
func (f *fakeView) Window() unsafe.Pointer         { return nil }
func (f *fakeView) SetSize(w, h int, hint wv.Hint) {}
func (f *fakeView) Unbind(name string) error       { return nil }

func (f *fakeView) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

func (f *fakeView) Navigate(url string) {
	f.mu.Lock()
	f.navs = append(f.navs, url)
	f.mu.Unlock()
}

func (f *fakeView) SetHtml(html string) {
	f.mu.Lock()
	f.html = append(f.html, html)
	f.mu.Unlock()
}

func (f *fakeView) Init(js string) {
	f.mu.Lock()
	f.inits = append(f.inits, js)
	f.mu.Unlock()
}

func (f *fakeView) Eval(js string) {
	f.mu.Lock()
	f.evals = append(f.evals, js)
	f.mu.Unlock()
}

func (f *fakeView) Bind(name string, fn any) error {
	f.mu.Lock()
	f.bindings[name] = fn
	f.mu.Unlock()
	return nil
}

func (f *fakeView) binding(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bindings[name]
}

func (f *fakeView) lastHTML() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.html) == 0 {
		return ""
	}
	return f.html[len(f.html)-1]
}

func (f *fakeView) lastEval() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.evals) == 0 {
		return ""
	}
	return f.evals[len(f.evals)-1]
}

func (f *fakeView) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *fakeView) ready()                { f.binding("__hybridReady").(func())() }
func (f *fakeView) tap(id string)         { f.binding("__hybridTap").(func(string))(id) }
func (f *fakeView) back()                 { f.binding("__hybridBack").(func())() }
func (f *fakeView) retry()                { f.binding("__hybridRetry").(func())() }
func (f *fakeView) alert(id, index int)   { f.binding("__hybridAlert").(func(int, int))(id, index) }
func (f *fakeView) navigate(url string)   { f.binding("__hybridNavigate").(func(string))(url) }
func (f *fakeView) sendBridge(raw string) { f.binding("__nativeBridgeSend").(func(string))(raw) }

type fakeDelegate struct {
	allow    bool
	finished int
	failed   []error
	asked    []string
}

func (d *fakeDelegate) ShouldStartLoad(url string) bool {
	d.asked = append(d.asked, url)
	return d.allow
}
func (d *fakeDelegate) DidFinishLoad()        { d.finished++ }
func (d *fakeDelegate) DidFailLoad(err error) { d.failed = append(d.failed, err) }

type fixture struct {
	t     *testing.T
	host  *Host
	loop  *loop.Loop
	mu    sync.Mutex
	views []*fakeView
}

func newFixture(t *testing.T, pages headless.Pages) *fixture {
	t.Helper()
	f := &fixture{t: t, loop: loop.New(testLogger)}
	t.Cleanup(f.loop.Close)

	factory := func(bool) wv.WebView {
		v := newFakeView()
		f.mu.Lock()
		f.views = append(f.views, v)
		f.mu.Unlock()
		return v
	}

	if pages == nil {
		f.host = NewHost(f.loop, nil, factory, Options{Width: 800, Height: 600}, testLogger)
	} else {
		f.host = NewHost(f.loop, pages, factory, Options{Width: 800, Height: 600}, testLogger)
	}
	return f
}

func (f *fixture) view(i int) *fakeView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.views) {
		return nil
	}
	return f.views[i]
}

func (f *fixture) waitFor(cond func() bool) {
	f.t.Helper()
	require.Eventually(f.t, func() bool {
		f.loop.Drain()
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func (f *fixture) root(d bridge.Delegate) *Renderer {
	f.t.Helper()
	r, err := f.host.NewRenderer()
	require.NoError(f.t, err)
	r.Attach("root", d)
	return r.(*Renderer)
}

func TestMainWindowSetup(t *testing.T) {
	f := newFixture(t, nil)
	main := f.view(0)
	require.NotNil(t, main)

	assert.Equal(t, BASE_TITLE, main.Title())
	require.Len(t, main.inits, 2)
	assert.Contains(t, main.inits[0], "__hybridChrome")
	assert.Contains(t, main.inits[1], "__nativeBridgeReceive")
	for _, name := range []string{"__nativeBridgeSend", "__hybridReady", "__hybridTap", "__hybridBack",
		"__hybridRetry", "__hybridAlert", "__hybridNavigate", "openExternal"} {
		assert.NotNil(t, main.binding(name), name)
	}
}

func TestRenderInjectsBaseAndReportsLoad(t *testing.T) {
	f := newFixture(t, nil)
	d := &fakeDelegate{}
	r := f.root(d)

	r.Render(bridge.Page{
		URL:      "https://app.test/inbox/index.html",
		MIMEType: "text/html",
		Body:     []byte(`<html><head><title>Inbox</title></head><body><a href="next.html">n</a></body></html>`),
	})

	html := f.view(0).lastHTML()
	assert.Contains(t, html, `<base href="https://app.test/inbox/index.html"/>`)
	assert.Contains(t, html, `<a href="next.html">n</a>`)

	f.view(0).ready()
	f.view(0).ready()
	f.loop.Drain()
	assert.Equal(t, 1, d.finished)
}

func TestNonHTMLNavigatesDirectly(t *testing.T) {
	f := newFixture(t, nil)
	r := f.root(&fakeDelegate{})

	r.Render(bridge.Page{URL: "https://app.test/a.pdf", MIMEType: "application/pdf"})
	assert.Equal(t, []string{"https://app.test/a.pdf"}, f.view(0).navs)
}

func TestBridgeMessagesReachRuntime(t *testing.T) {
	f := newFixture(t, nil)
	r := f.root(&fakeDelegate{})

	var got script.Runtime
	f.host.OnContext(func(rt script.Runtime) {
		got = rt
		require.NoError(t, rt.Expose("NativeBridge", &script.Exposure{
			Values: map[string]any{"version": "1"},
		}))
	})
	f.loop.Drain()

	f.view(0).sendBridge(`{"type":"ready"}`)
	f.waitFor(func() bool { return got != nil })

	assert.Equal(t, r.ID(), got.ID())
	last := f.view(0).lastEval()
	assert.True(t, strings.HasPrefix(last, "window.__nativeBridgeReceive && window.__nativeBridgeReceive({"))
	assert.Contains(t, last, `"type":"expose"`)
}

func TestChromeFollowsSurface(t *testing.T) {
	f := newFixture(t, nil)
	f.root(&fakeDelegate{})
	main := f.view(0)

	var tapped []string
	f.host.SetTitle("root", "Inbox")
	f.host.SetButtons("root", nil, &bridge.BarButton{ID: "compose", Title: "Compose"}, func(id string) {
		tapped = append(tapped, id)
	})

	assert.Equal(t, "Hybrid | Inbox", main.Title())
	assert.Contains(t, main.lastEval(), `"title":"Inbox"`)
	assert.Contains(t, main.lastEval(), `"right":{"id":"compose","title":"Compose"}`)

	main.tap("compose")
	f.loop.Drain()
	assert.Equal(t, []string{"compose"}, tapped)

	f.host.SetTitle("root", "")
	assert.Equal(t, BASE_TITLE, main.Title())
}

func TestPushShowsBackButton(t *testing.T) {
	f := newFixture(t, nil)
	f.root(&fakeDelegate{})
	main := f.view(0)

	var backs []bridge.SurfaceID
	f.host.SetOnBack(func(id bridge.SurfaceID) { backs = append(backs, id) })

	f.host.SetTitle("next", "Message")
	f.host.Transitioned("push", "root", "next")
	assert.Contains(t, main.lastEval(), `"back":true`)
	assert.Equal(t, "Hybrid | Message", main.Title())

	main.back()
	f.loop.Drain()
	assert.Equal(t, []bridge.SurfaceID{"next"}, backs)

	f.host.SetBackHidden("next", true)
	assert.Contains(t, main.lastEval(), `"back":false`)

	f.host.Transitioned("pop", "next", "root")
	assert.Contains(t, main.lastEval(), `"back":false`)
	assert.Equal(t, BASE_TITLE, main.Title())
	assert.NotContains(t, f.host.chrome, bridge.SurfaceID("next"))
}

func TestAlertResolvesOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.root(&fakeDelegate{})
	main := f.view(0)

	var got []int
	f.host.ShowAlert("root", bridge.Alert{Title: "Archive?", Actions: []string{"Yes", "No"}}, func(i int) {
		got = append(got, i)
	})
	assert.Contains(t, main.lastEval(), `"alert":{"id":1,"title":"Archive?","message":"","actions":["Yes","No"]}`)

	main.alert(1, 1)
	main.alert(1, 0)
	f.loop.Drain()
	assert.Equal(t, []int{1}, got)
	assert.NotContains(t, main.lastEval(), `"alert"`)
}

func TestErrorDisplayAndRetry(t *testing.T) {
	f := newFixture(t, nil)
	r := f.root(&fakeDelegate{})
	main := f.view(0)

	retried := 0
	r.SetHidden(true)
	f.host.ShowError("root", "Sorry!", func() { retried++ })
	assert.Contains(t, main.lastEval(), `"hidden":true`)
	assert.Contains(t, main.lastEval(), `"error":"Sorry!"`)

	main.retry()
	f.loop.Drain()
	assert.Equal(t, 1, retried)

	f.host.HideError("root")
	assert.NotContains(t, main.lastEval(), `"error"`)
	main.retry()
	f.loop.Drain()
	assert.Equal(t, 1, retried)
}

func TestPlaceholder(t *testing.T) {
	f := newFixture(t, nil)
	f.root(&fakeDelegate{})

	f.host.SetPlaceholder("root", []byte("\x89PNG\r\n\x1a\n"))
	assert.Contains(t, f.view(0).lastEval(), `"placeholder":"data:image/png;base64,`)

	f.host.SetPlaceholder("root", nil)
	assert.NotContains(t, f.view(0).lastEval(), `"placeholder"`)
}

func TestExternalSurfaceOpensChildWindow(t *testing.T) {
	f := newFixture(t, nil)
	f.root(&fakeDelegate{})

	ext, err := f.host.NewRenderer()
	require.NoError(t, err)
	ext.Attach("ext", &fakeDelegate{})
	ext.Render(bridge.Page{URL: "https://help.test/", MIMEType: "text/html", Body: []byte("<p>help</p>")})

	f.host.Transitioned("external", "root", "ext")
	f.waitFor(func() bool {
		v := f.view(1)
		return v != nil && v.lastHTML() != ""
	})
	child := f.view(1)
	assert.Contains(t, child.lastHTML(), "<p>help</p>")
	assert.Empty(t, f.view(0).html)

	f.host.Transitioned("dismiss", "ext", "root")
	select {
	case <-child.done:
	case <-time.After(2 * time.Second):
		t.Fatal("child window not closed")
	}
}

func TestClosingChildWindowTapsDone(t *testing.T) {
	f := newFixture(t, nil)
	f.root(&fakeDelegate{})

	ext, err := f.host.NewRenderer()
	require.NoError(t, err)
	ext.Attach("ext", &fakeDelegate{})

	var tapped []string
	f.host.SetButtons("ext",
		&bridge.BarButton{ID: "back", Title: "Back"},
		&bridge.BarButton{ID: "done", Title: "Done"},
		func(id string) { tapped = append(tapped, id) })
	f.host.Transitioned("external", "root", "ext")

	f.waitFor(func() bool { return f.view(1) != nil })
	f.view(1).Terminate()
	f.waitFor(func() bool { return len(tapped) == 1 })
	assert.Equal(t, []string{"done"}, tapped)
}

func TestLinkNavigationAsksOwner(t *testing.T) {
	f := newFixture(t, headless.Pages{
		"https://app.test/next.html": "<html><head><title>Next</title></head><body>next</body></html>",
	})
	d := &fakeDelegate{}
	r := f.root(d)
	main := f.view(0)

	main.navigate("https://app.test/next.html")
	f.loop.Drain()
	assert.Equal(t, []string{"https://app.test/next.html"}, d.asked)
	assert.Empty(t, main.html)

	d.allow = true
	main.navigate("https://app.test/next.html")
	f.waitFor(func() bool { return main.lastHTML() != "" })
	assert.Contains(t, main.lastHTML(), "next")
	assert.False(t, r.CanGoBack())

	main.navigate("https://app.test/missing.html")
	f.waitFor(func() bool { return len(d.failed) == 1 })
}

func TestGoBackRerenders(t *testing.T) {
	f := newFixture(t, nil)
	r := f.root(&fakeDelegate{})

	r.Render(bridge.Page{URL: "https://a.test/1", MIMEType: "text/html", Body: []byte("one")})
	r.Render(bridge.Page{URL: "https://a.test/2", MIMEType: "text/html", Body: []byte("two")})
	require.True(t, r.CanGoBack())

	r.GoBack()
	assert.False(t, r.CanGoBack())
	assert.Contains(t, f.view(0).lastHTML(), "one")
}

func TestCaptureUnsupported(t *testing.T) {
	f := newFixture(t, nil)
	r := f.root(&fakeDelegate{})
	_, err := r.Capture()
	assert.ErrorIs(t, err, ErrCaptureUnsupported)
}

func TestPageHTMLKeepsExistingBase(t *testing.T) {
	html, err := pageHTML(bridge.Page{
		URL:  "https://a.test/",
		Body: []byte(`<html><head><base href="https://cdn.test/"></head><body></body></html>`),
	})
	require.NoError(t, err)
	assert.Contains(t, html, `<base href="https://cdn.test/"/>`)
	assert.NotContains(t, html, `https://a.test/`)
}

func TestPageHTMLEscapesURL(t *testing.T) {
	html, err := pageHTML(bridge.Page{URL: `https://a.test/?q="x"`, Body: []byte("<p>x</p>")})
	require.NoError(t, err)
	assert.Contains(t, html, `<base href="https://a.test/?q=&#34;x&#34;"/>`)
}
