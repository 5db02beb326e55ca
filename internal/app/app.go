// Package app wires the capture components for one process.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bryanchriswhite/godotshot/internal/bridge"
	"github.com/bryanchriswhite/godotshot/internal/capture"
	"github.com/bryanchriswhite/godotshot/internal/config"
	"github.com/bryanchriswhite/godotshot/internal/hostpath"
	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/bryanchriswhite/godotshot/internal/window"
)

// Options override collaborators, mainly for tests.
type Options struct {
	Runner  bridge.Runner
	Clock   func() time.Time
	Sleeper func(context.Context, time.Duration) error
	// WSL overrides detection when non-nil.
	WSL *bool
}

// App holds every piece of mutable process state: caches, throttle and the
// resolved temp directory.
type App struct {
	Config   *config.Config
	WSL      bool
	Paths    hostpath.Mapper
	Gateway  *bridge.Gateway
	TempDir  *bridge.TempDir
	Registry *window.Registry
	Capture  *capture.Service

	backend string
	closers []io.Closer
}

// New builds the components selected by cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	log := logger.WithComponent("app")

	format, err := capture.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	wsl := hostpath.IsWSL()
	if opts.WSL != nil {
		wsl = *opts.WSL
	}
	if !wsl && cfg.Backend == config.BackendBridge {
		log.Warn().Msg("This server is designed to run in WSL. Some features may not work correctly.")
	}

	a := &App{
		Config:  cfg,
		WSL:     wsl,
		Paths:   hostpath.Mapper{WSL: wsl},
		backend: cfg.Backend,
	}
	a.Gateway = bridge.NewGateway(bridge.Options{
		Runner:  opts.Runner,
		Retries: cfg.BridgeRetries,
		Clock:   opts.Clock,
	})
	a.TempDir = bridge.NewTempDir(a.Gateway, cfg.TempDir, wsl)

	var lister window.Lister
	var backend capture.Backend
	switch cfg.Backend {
	case config.BackendX11:
		x11, err := window.NewX11Lister()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize x11 backend: %w", err)
		}
		a.closers = append(a.closers, x11)
		lister = x11
		backend = capture.NewX11Backend(x11, cfg.Quality)
	default:
		lister = window.NewBridgeLister(a.Gateway, a.TempDir, a.Paths)
		backend = capture.NewBridgeBackend(a.Gateway, a.TempDir, a.Paths, lister)
	}

	alternate := cfg.UseNirCmd
	a.Registry = window.NewRegistry(lister, opts.Clock)
	a.Capture = capture.NewService(
		backend,
		capture.NewThrottle(capture.MinInterval, opts.Clock, opts.Sleeper),
		capture.Options{Format: format, AlternateTool: &alternate},
	)

	log.Info().
		Str("backend", backend.Name()).
		Bool("wsl", wsl).
		Str("format", string(format)).
		Bool("nircmd", alternate).
		Msg("Capture pipeline ready")
	return a, nil
}

// Available reports whether captures can run. The bridge backend asks the
// host; the native backend is always ready once constructed.
func (a *App) Available(ctx context.Context) bool {
	if a.backend == config.BackendX11 {
		return true
	}
	return a.Gateway.Available(ctx)
}

// Close releases display connections.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
