package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/config"
	"github.com/arko-chat/hybrid/internal/handlers"
	"github.com/arko-chat/hybrid/internal/loader"
	"github.com/arko-chat/hybrid/internal/logger"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/router"
	"github.com/arko-chat/hybrid/internal/service"
	"github.com/arko-chat/hybrid/internal/webview"
	"github.com/arko-chat/hybrid/internal/ws"
	wv "github.com/webview/webview_go"
	"golang.org/x/sync/errgroup"
)

func init() {
	// the native window must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	os.Setenv("WEBKIT_DISABLE_COMPOSITING_MODE", "0")
	os.Setenv("WEBVIEW2_ADDITIONAL_BROWSER_ARGUMENTS", "--enable-gpu")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	slogger := logger.New(logger.Options{Debug: cfg.Debug})

	l := loop.New(slogger)
	wsHub := ws.NewHub(slogger)
	h := handlers.New(wsHub, slogger)
	mux := router.New(h)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		slogger.Error("failed to listen", "addr", cfg.ListenAddr, "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("http://127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)
	slogger.Info("server starting", "addr", addr)

	ld := loader.New(loader.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.LoadTimeout),
	}, slogger)

	desk := webview.NewHost(l, ld, wv.New, webview.Options{
		Width:  cfg.WindowWidth,
		Height: cfg.WindowHeight,
		Debug:  cfg.Debug,
	}, slogger)
	bridge.Register(desk)

	svc, err := service.New(cfg, l, desk, ld, slogger)
	if err != nil {
		slogger.Error("failed to start service", "err", err)
		os.Exit(1)
	}
	desk.SetOnBack(func(id bridge.SurfaceID) {
		if err := svc.HostPop(id); err != nil {
			slogger.Debug("back ignored", "surface", id, "err", err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Handler: mux}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := l.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		desk.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	startURL := cfg.StartURL
	if startURL == "" {
		startURL = addr + "/"
	}
	if err := svc.Start(startURL); err != nil {
		slogger.Error("failed to open start page", "err", err)
	}

	desk.Run()

	slogger.Info("window closed, shutting down")
	stop()
	l.Close()
	if err := g.Wait(); err != nil {
		slogger.Error("shutdown", "err", err)
	}
	if err := svc.Close(); err != nil {
		slogger.Error("failed to close service", "err", err)
	}
}
