package mobile

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/config"
	"github.com/arko-chat/hybrid/internal/handlers"
	"github.com/arko-chat/hybrid/internal/loader"
	"github.com/arko-chat/hybrid/internal/logger"
	"github.com/arko-chat/hybrid/internal/loop"
	mhost "github.com/arko-chat/hybrid/internal/mobile"
	"github.com/arko-chat/hybrid/internal/router"
	"github.com/arko-chat/hybrid/internal/service"
	"github.com/arko-chat/hybrid/internal/ws"
)

var errNotRunning = errors.New("server not running")

// Shell is implemented by the native app. See internal/mobile.Shell.
type Shell interface {
	mhost.Shell
}

var (
	mu       sync.Mutex
	shell    Shell
	svc      *service.HybridService
	stopFunc func()
)

func RegisterShell(s Shell) {
	mu.Lock()
	shell = s
	mu.Unlock()
}

// Start brings up the bridge server and opens the start page. It returns
// the server's base URL.
func Start(dataDir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if stopFunc != nil {
		return "", fmt.Errorf("server already running")
	}
	if shell == nil {
		return "", fmt.Errorf("call RegisterShell before Start")
	}

	cfg, err := config.LoadFrom(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	slogger := logger.New(logger.Options{Debug: cfg.Debug})

	l := loop.New(slogger)
	wsHub := ws.NewHub(slogger)
	h := handlers.New(wsHub, slogger)
	mux := router.New(h)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	addr := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)
	slogger.Info("mobile server starting", "addr", addr)

	nh := mhost.NewHost(l, wsHub, shell, slogger)
	nh.SetServer(addr)
	bridge.Register(nh)

	s, err := service.New(cfg, l, nh, loader.New(loader.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.LoadTimeout),
	}, slogger), slogger)
	if err != nil {
		listener.Close()
		return "", fmt.Errorf("failed to start service: %w", err)
	}

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			slogger.Error("server error", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	startURL := cfg.StartURL
	if startURL == "" {
		startURL = addr + "/"
	}
	if err := s.Start(startURL); err != nil {
		slogger.Error("failed to open start page", "err", err)
	}

	svc = s
	stopFunc = func() {
		bridge.Register(nil)
		srv.Close()
		listener.Close()
		cancel()
		l.Close()
		if err := s.Close(); err != nil {
			slogger.Error("failed to close service", "err", err)
		}
	}

	return addr, nil
}

func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if stopFunc != nil {
		stopFunc()
		stopFunc = nil
		svc = nil
	}
}

// current resolves the registered host and the running service.
func current() (*mhost.Host, *service.HybridService, error) {
	mu.Lock()
	defer mu.Unlock()
	if svc == nil {
		return nil, nil, errNotRunning
	}
	b, err := bridge.Safe()
	if err != nil {
		return nil, nil, err
	}
	h, ok := b.(*mhost.Host)
	if !ok {
		return nil, nil, fmt.Errorf("registered bridge is %T, not the mobile host", b)
	}
	return h, svc, nil
}

func TapButton(surfaceID, buttonID string) {
	if h, _, err := current(); err == nil {
		h.TapButton(surfaceID, buttonID)
	}
}

func AlertDone(alertID, index int) {
	if h, _, err := current(); err == nil {
		h.AlertDone(alertID, index)
	}
}

func Retry(surfaceID string) {
	if h, _, err := current(); err == nil {
		h.Retry(surfaceID)
	}
}

// ShouldStartLoad reports whether the web view of rendererID may navigate
// to url.
func ShouldStartLoad(rendererID, url string) bool {
	h, _, err := current()
	if err != nil {
		return true
	}
	ok, err := h.ShouldStartLoad(rendererID, url)
	if err != nil {
		return true
	}
	return ok
}

func DidFinishLoad(rendererID string) error {
	h, _, err := current()
	if err != nil {
		return err
	}
	return h.DidFinishLoad(rendererID)
}

func DidFailLoad(rendererID, message string) error {
	h, _, err := current()
	if err != nil {
		return err
	}
	return h.DidFailLoad(rendererID, message)
}

func DestroyWebView(rendererID string) error {
	h, _, err := current()
	if err != nil {
		return err
	}
	return h.DestroyWebView(rendererID)
}

// HostPop reports that the app removed surfaceID from its navigation stack,
// for example after a back swipe.
func HostPop(surfaceID string) error {
	_, s, err := current()
	if err != nil {
		return err
	}
	return s.HostPop(surfaceID)
}
