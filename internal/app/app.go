// Package app wires configuration into the objects both binaries run:
// resources, channels, the latch store and the scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/domain"
	"github.com/hamed0406/resourcewatch/internal/notify"
	"github.com/hamed0406/resourcewatch/internal/probe"
	"github.com/hamed0406/resourcewatch/internal/repo"
	"github.com/hamed0406/resourcewatch/internal/repo/memory"
	"github.com/hamed0406/resourcewatch/internal/repo/postgres"
	redisstore "github.com/hamed0406/resourcewatch/internal/repo/redis"
	"github.com/hamed0406/resourcewatch/internal/resource"
	"github.com/hamed0406/resourcewatch/internal/scheduler"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *probe.Registry
	Dispatcher *notify.Dispatcher
	Resources  []*resource.Resource
	Latches    repo.LatchStore
	Runner     *scheduler.Runner
	Codes      domain.ExitCodes

	closers []io.Closer
}

// Build resolves every resource and opens the configured latch store.
// Resource configuration errors are fatal: all of them are returned at once.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	codes, err := cfg.Codes()
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Registry: probe.DefaultRegistry(), Codes: codes}

	channels, err := notify.FromConfig(cfg.Notifications.Channels, logger)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if c, ok := ch.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}
	a.Dispatcher = notify.NewDispatcher(logger, nil, channels...).WithTimeout(cfg.Notifications.Timeout)

	a.Resources, err = Resources(cfg, a.Registry, a.Dispatcher, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	seen := make(map[probe.Checker]bool)
	for _, r := range a.Resources {
		checkers := []probe.Checker{r.Checker()}
		for _, t := range r.Targets() {
			checkers = append(checkers, t.Checker())
		}
		for _, c := range checkers {
			c = unwrap(c)
			if seen[c] {
				continue
			}
			seen[c] = true
			if cl, ok := c.(io.Closer); ok {
				a.closers = append(a.closers, cl)
			}
		}
	}

	a.Latches, err = a.openLatches(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Runner = scheduler.NewRunner(logger, a.Resources, a.Latches,
		cfg.Schedule.Spec, cfg.Schedule.Timeout, cfg.Schedule.Concurrency)
	logger.Info("app_ready",
		zap.Int("resources", len(a.Resources)),
		zap.Strings("channels", a.Dispatcher.Channels()),
		zap.String("store", cfg.Store.Driver),
	)
	return a, nil
}

// Resources builds the configured resources without any side effects.
func Resources(cfg *config.Config, reg *probe.Registry, d *notify.Dispatcher, logger *zap.Logger) ([]*resource.Resource, error) {
	if len(cfg.Resources) == 0 {
		return nil, errors.New("no resources configured")
	}
	f := resource.NewFactory(reg, cfg.Defaults, cfg.Notifications, d, logger)
	return f.NewAll(cfg.Resources)
}

// Find returns the resource with the given slug.
func (a *App) Find(slug string) (*resource.Resource, bool) {
	for _, r := range a.Resources {
		if r.Slug() == slug {
			return r, true
		}
	}
	return nil, false
}

func (a *App) openLatches(ctx context.Context) (repo.LatchStore, error) {
	switch a.Config.Store.Driver {
	case "", "memory":
		return memory.New(), nil
	case "postgres":
		s, err := postgres.New(ctx, a.Config.Store.DatabaseURL, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("postgres latch store: %w", err)
		}
		a.closers = append(a.closers, closeFunc(s.Close))
		return s, nil
	case "redis":
		s, err := redisstore.New(ctx, a.Config.Store.RedisURL, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("redis latch store: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", a.Config.Store.Driver)
}

// Close releases connections held by checkers, channels and the store.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.Logger.Warn("close_error", zap.Error(err))
		}
	}
	a.closers = nil
}

func unwrap(c probe.Checker) probe.Checker {
	for {
		r, ok := c.(*probe.Retry)
		if !ok {
			return c
		}
		c = r.Inner
	}
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}
