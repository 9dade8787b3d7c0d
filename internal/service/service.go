package service

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/arko-chat/hybrid/internal/api"
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/arko-chat/hybrid/internal/config"
	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/arko-chat/hybrid/internal/session"
	"github.com/arko-chat/hybrid/internal/snapshot"
	"github.com/arko-chat/hybrid/internal/surface"
)

var (
	ErrClosed         = errors.New("service closed")
	ErrUnknownSurface = errors.New("unknown surface")
)

// Host is a NativeBridge that reports new script contexts.
type Host interface {
	bridge.NativeBridge
	OnContext(fn func(script.Runtime))
}

// HybridService wires a host shell to the surface model. Everything it
// touches runs on the owner loop.
type HybridService struct {
	loop      *loop.Loop
	host      Host
	registry  *session.Registry
	snapshots *snapshot.Store
	env       *surface.Env
	logger    *slog.Logger

	mu   sync.Mutex
	root *surface.Surface
}

func New(
	cfg *config.Config,
	l *loop.Loop,
	host Host,
	loader surface.Loader,
	logger *slog.Logger,
) (*HybridService, error) {
	snaps, err := snapshot.Open(snapshot.Options{
		Dir:       cfg.SnapshotDir,
		CacheSize: cfg.SnapshotCacheSize,
		TTL:       time.Duration(cfg.SnapshotTTL),
	}, logger.With("component", "snapshot"))
	if err != nil {
		return nil, err
	}

	registry := session.NewRegistry(APIConfig(cfg), logger.With("component", "session"))
	host.OnContext(registry.ContextCreated)

	return &HybridService{
		loop:      l,
		host:      host,
		registry:  registry,
		snapshots: snaps,
		env: &surface.Env{
			Native:           host,
			Snapshots:        snaps,
			Loader:           loader,
			Binder:           registry,
			Logger:           logger.With("component", "surface"),
			ShowErrorDisplay: cfg.ShowErrorDisplay,
			FeatureName:      cfg.FeatureName,
		},
		logger: logger,
	}, nil
}

// APIConfig derives the capability tree settings from cfg.
func APIConfig(cfg *config.Config) api.Config {
	return api.Config{
		Device:          cfg.Device,
		Platform:        runtime.GOOS,
		AppVersion:      cfg.AppVersion,
		HideBackOnClear: cfg.HideBackOnClear,
		DismissPolicy:   api.ParseDismissPolicy(cfg.DialogDismiss),
	}
}

func (s *HybridService) Registry() *session.Registry {
	return s.registry
}

// Start opens the root surface on url. The work happens on the owner loop.
func (s *HybridService) Start(url string) error {
	s.logger.Info("starting", "url", url)
	ok := s.loop.Post(func() {
		root, err := surface.NewRoot(s.env)
		if err != nil {
			s.logger.Error("failed to create root surface", "err", err)
			return
		}

		s.mu.Lock()
		s.root = root
		s.mu.Unlock()

		root.Start(url)
	})
	if !ok {
		return ErrClosed
	}
	return nil
}

// Root returns the root surface once Start has run.
func (s *HybridService) Root() *surface.Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Top returns the surface on screen: the top of the innermost presented
// stack. Call it on the owner loop.
func (s *HybridService) Top() *surface.Surface {
	top := s.Root()
	for top != nil {
		top = top.Stack().Top()
		presented := top.Presented()
		if presented == nil {
			return top
		}
		top = presented.Top()
	}
	return nil
}

// Do runs fn against the live surface id on the owner loop.
func (s *HybridService) Do(id string, fn func(*surface.Surface)) error {
	ok := s.loop.Post(func() {
		sf := s.registry.Surface(id)
		if sf == nil {
			s.logger.Debug("surface gone", "surface", id)
			return
		}
		fn(sf)
	})
	if !ok {
		return ErrClosed
	}
	return nil
}

// HostPop reports that the host removed surface id from its stack on its
// own, as a system back gesture does.
func (s *HybridService) HostPop(id string) error {
	if s.registry.Surface(id) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSurface, id)
	}
	return s.Do(id, func(sf *surface.Surface) {
		if sf.Stack().Top() != sf {
			s.logger.Debug("host pop ignored, surface is not on top", "surface", id)
			return
		}
		sf.Stack().HostPop()
	})
}

// Close flushes snapshots. The loop is owned by the caller.
func (s *HybridService) Close() error {
	return s.snapshots.Close()
}
