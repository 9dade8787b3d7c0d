package surface

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/stretchr/testify/require"
)

type fakeNative struct {
	loop      *loop.Loop
	renderers []*fakeRenderer

	titles       map[string]string
	buttons      map[string][2]*bridge.BarButton
	taps         map[string]func(string)
	placeholders map[string][]byte
	errors       map[string]string
	retries      map[string]func()
	transitions  []string
}

func newFakeNative(l *loop.Loop) *fakeNative {
	return &fakeNative{
		loop:         l,
		titles:       make(map[string]string),
		buttons:      make(map[string][2]*bridge.BarButton),
		taps:         make(map[string]func(string)),
		placeholders: make(map[string][]byte),
		errors:       make(map[string]string),
		retries:      make(map[string]func()),
	}
}

func (n *fakeNative) Dispatch(fn func()) { n.loop.Post(fn) }

func (n *fakeNative) NewRenderer() (bridge.Renderer, error) {
	r := &fakeRenderer{id: fmt.Sprintf("r%d", len(n.renderers)+1)}
	n.renderers = append(n.renderers, r)
	return r, nil
}

func (n *fakeNative) SetTitle(id bridge.SurfaceID, title string) { n.titles[id] = title }

func (n *fakeNative) SetButtons(id bridge.SurfaceID, left, right *bridge.BarButton, onTap func(string)) {
	n.buttons[id] = [2]*bridge.BarButton{left, right}
	n.taps[id] = onTap
}

func (n *fakeNative) SetBackHidden(bridge.SurfaceID, bool)                {}
func (n *fakeNative) SetTabBarHidden(bridge.SurfaceID, bool)              {}
func (n *fakeNative) ShowAlert(bridge.SurfaceID, bridge.Alert, func(int)) {}
func (n *fakeNative) Share(bridge.SurfaceID, []string)                    {}

func (n *fakeNative) ShowError(id bridge.SurfaceID, message string, retry func()) {
	n.errors[id] = message
	n.retries[id] = retry
}

func (n *fakeNative) HideError(id bridge.SurfaceID) { delete(n.errors, id) }

func (n *fakeNative) SetPlaceholder(id bridge.SurfaceID, image []byte) {
	if image == nil {
		delete(n.placeholders, id)
		return
	}
	n.placeholders[id] = image
}

func (n *fakeNative) Transitioned(kind string, from, to bridge.SurfaceID) {
	n.transitions = append(n.transitions, kind)
}

type fakeRenderer struct {
	id       string
	owner    string
	delegate bridge.Delegate
	rendered []bridge.Page
	hidden   bool
	history  int
	stopped  int
}

func (r *fakeRenderer) ID() string              { return r.id }
func (r *fakeRenderer) Runtime() script.Runtime { return nil }
func (r *fakeRenderer) Owner() bridge.SurfaceID { return r.owner }
func (r *fakeRenderer) Render(p bridge.Page)    { r.rendered = append(r.rendered, p) }
func (r *fakeRenderer) SetHidden(hidden bool)   { r.hidden = hidden }
func (r *fakeRenderer) CanGoBack() bool         { return r.history > 0 }
func (r *fakeRenderer) StopLoading()            { r.stopped++ }

func (r *fakeRenderer) Attach(id bridge.SurfaceID, d bridge.Delegate) {
	r.owner = id
	r.delegate = d
}

func (r *fakeRenderer) Capture() ([]byte, error) {
	return []byte("shot:" + r.owner), nil
}

func (r *fakeRenderer) GoBack() {
	if r.history > 0 {
		r.history--
	}
}

type fakeCaps struct {
	owner  *Surface
	events []string
	opts   *Options
}

func (c *fakeCaps) Appeared()               { c.events = append(c.events, "appeared") }
func (c *fakeCaps) Disappeared()            { c.events = append(c.events, "disappeared") }
func (c *fakeCaps) Back()                   { c.events = append(c.events, "back") }
func (c *fakeCaps) RebindParent(s *Surface) { c.owner = s }
func (c *fakeCaps) Configure(opts Options)  { c.opts = &opts }

type fakeBinder struct {
	tracked []*Surface
	bound   []string
	resets  int
}

func (b *fakeBinder) Track(s *Surface) { b.tracked = append(b.tracked, s) }

func (b *fakeBinder) EnsureBound(s *Surface) Capabilities {
	b.bound = append(b.bound, s.ID())
	c, ok := s.Capabilities().(*fakeCaps)
	if !ok {
		c = &fakeCaps{}
		s.SetCapabilities(c)
	}
	c.RebindParent(s)
	return c
}

func (b *fakeBinder) Reset(s *Surface) {
	b.resets++
	if c := s.Capabilities(); c != nil {
		c.RebindParent(nil)
	}
	s.SetCapabilities(nil)
}

type fakeSnapshots struct {
	images map[string][]byte
}

func (f *fakeSnapshots) Persist(image []byte) string {
	id := fmt.Sprintf("snap-%d", len(f.images)+1)
	f.images[id] = image
	return id
}

func (f *fakeSnapshots) Retrieve(id string) ([]byte, bool) {
	img, ok := f.images[id]
	return img, ok
}

type fakeLoader struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, url string) (bridge.Page, error)
	calls []string
}

func (f *fakeLoader) Load(ctx context.Context, url string) (bridge.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	fn := f.fn
	f.mu.Unlock()

	if fn == nil {
		return bridge.Page{URL: url, Title: "Page " + url}, nil
	}
	return fn(ctx, url)
}

func (f *fakeLoader) set(fn func(ctx context.Context, url string) (bridge.Page, error)) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
}

type harness struct {
	env    *Env
	loop   *loop.Loop
	native *fakeNative
	binder *fakeBinder
	loader *fakeLoader
	snaps  *fakeSnapshots
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := loop.New(logger)
	t.Cleanup(l.Close)

	h := &harness{
		loop:   l,
		native: newFakeNative(l),
		binder: &fakeBinder{},
		loader: &fakeLoader{},
		snaps:  &fakeSnapshots{images: make(map[string][]byte)},
	}
	h.env = &Env{
		Native:           h.native,
		Snapshots:        h.snaps,
		Loader:           h.loader,
		Binder:           h.binder,
		Logger:           logger,
		ShowErrorDisplay: true,
	}
	return h
}

// root returns a bound root surface that has appeared.
func (h *harness) root(t *testing.T) *Surface {
	t.Helper()
	s, err := NewRoot(h.env)
	require.NoError(t, err)
	h.binder.EnsureBound(s)
	s.WillAppear()
	s.DidAppear()
	return s
}

func (h *harness) eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.loop.Drain()
		return cond()
	}, 2*time.Second, 5*time.Millisecond)
}

func capsOf(s *Surface) *fakeCaps {
	c, _ := s.Capabilities().(*fakeCaps)
	return c
}
