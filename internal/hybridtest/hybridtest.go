// Package hybridtest runs the full bridge against the headless host so
// behaviour can be checked from page JavaScript.
package hybridtest

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/arko-chat/hybrid/internal/config"
	"github.com/arko-chat/hybrid/internal/headless"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/service"
	"github.com/arko-chat/hybrid/internal/surface"
	"github.com/stretchr/testify/require"
)

// Prelude defines `events` and `record(...)` for pages. record joins its
// arguments with commas; null prints as "null" and errors as "error:<msg>".
const Prelude = `
var events = [];
function record() {
	var parts = [];
	for (var i = 0; i < arguments.length; i++) {
		var a = arguments[i];
		if (a === null) parts.push("null");
		else if (a === undefined) parts.push("undefined");
		else if (a instanceof Error) parts.push("error:" + a.message);
		else parts.push(String(a));
	}
	events.push(parts.join(","));
}
`

// Page returns an HTML page titled title that runs the prelude followed by
// script.
func Page(title, script string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body><script>%s</script><script>%s</script></body></html>",
		title, Prelude, script)
}

type Env struct {
	T       testing.TB
	Loop    *loop.Loop
	Host    *headless.Host
	Service *service.HybridService
	Config  *config.Config
}

type Option func(*config.Config)

func New(t testing.TB, pages headless.Pages, opts ...Option) *Env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default("")
	cfg.SnapshotDir = ""
	cfg.AppVersion = "2.1.0"
	for _, opt := range opts {
		opt(&cfg)
	}

	l := loop.New(logger)
	host := headless.NewHost(l, logger)
	host.SetPages(pages)

	svc, err := service.New(&cfg, l, host, pages, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.Close()
		l.Close()
	})

	return &Env{T: t, Loop: l, Host: host, Service: svc, Config: &cfg}
}

// Start opens the root surface on url and waits for it to render.
func (e *Env) Start(url string) *surface.Surface {
	e.T.Helper()
	require.NoError(e.T, e.Service.Start(url))
	e.WaitFor(func() bool {
		root := e.Service.Root()
		return root != nil && e.CurrentURL(root) == url
	})
	e.Drain()
	return e.Service.Root()
}

func (e *Env) Drain() {
	e.Loop.Drain()
}

// WaitFor drains the loop until cond holds.
func (e *Env) WaitFor(cond func() bool) {
	e.T.Helper()
	require.Eventually(e.T, func() bool {
		e.Loop.Drain()
		return cond()
	}, 3*time.Second, 5*time.Millisecond)
}

func (e *Env) Renderer(s *surface.Surface) *headless.Renderer {
	return s.Renderer().(*headless.Renderer)
}

func (e *Env) CurrentURL(s *surface.Surface) string {
	page, ok := e.Renderer(s).Current()
	if !ok {
		return ""
	}
	return page.URL
}

// Eval runs src in the surface's script context and drains the loop.
func (e *Env) Eval(s *surface.Surface, src string) any {
	e.T.Helper()
	v, err := e.Renderer(s).Eval(src)
	require.NoError(e.T, err)
	e.Drain()
	return v
}

// Events returns what page script passed to record so far.
func (e *Env) Events(s *surface.Surface) []string {
	e.T.Helper()
	v, err := e.Renderer(s).Eval(`events.join("\n")`)
	require.NoError(e.T, err)
	joined, _ := v.(string)
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}
