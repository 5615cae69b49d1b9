package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/introspection"

	"github.com/aretw0/stickies/pkg/adapters/fs"
	"github.com/aretw0/stickies/pkg/adapters/redis"
	"github.com/aretw0/stickies/pkg/adapters/s3"
	"github.com/aretw0/stickies/pkg/adapters/sqlite"
	"github.com/aretw0/stickies/pkg/core"
	"github.com/aretw0/stickies/pkg/notify"
	"github.com/aretw0/stickies/pkg/reminder"
)

// App is a wired store and scheduler sharing one backend.
type App struct {
	Config    Config
	Backend   core.Backend
	Store     *core.Store
	Scheduler *reminder.Scheduler

	logger  *slog.Logger
	closers []io.Closer
}

// Open builds the backend named by cfg, loads the store from it and
// attaches a scheduler. The scheduler is not started.
//
// Corrupt persisted data does not fail Open: the returned App holds an empty
// store and the error wraps core.ErrCorruptState.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, _ := cfg.Location()

	app := &App{Config: cfg, logger: logger}

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = app.openBackend(ctx, o)
		if err != nil {
			return nil, err
		}
	}
	app.Backend = backend

	store, err := core.Open(ctx, backend,
		core.WithLogger(logger),
		core.WithClock(o.clock),
		core.WithLocation(loc),
		core.WithEventBuffer(cfg.EventBuffer),
	)
	if store == nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = store

	sink := o.notifier
	if sink == nil {
		sink = notify.Log{Logger: logger}
	}
	app.Scheduler = reminder.New(store, sink,
		reminder.WithClock(o.clock),
		reminder.WithInterval(cfg.PollInterval),
		reminder.WithPolicy(cfg.Policy()),
		reminder.WithLogger(logger),
	)

	return app, err
}

func (a *App) openBackend(ctx context.Context, o *options) (core.Backend, error) {
	cfg := a.Config
	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)

	switch cfg.Backend {
	case BackendFile:
		dir := ResolveDataDir(cfg.DataDir, useTemp)
		a.logSandbox(useTemp, cfg.DataDir, dir)

		b := fs.NewBackend(fs.Config{Dir: dir, Key: cfg.Key, Logger: a.logger})
		if err := b.Initialize(ctx); err != nil {
			return nil, err
		}
		return b, nil

	case BackendSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			dir := ResolveDataDir(cfg.DataDir, useTemp)
			if err := (fs.NewBackend(fs.Config{Dir: dir})).Initialize(ctx); err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "notes.db")
		}
		a.logSandbox(useTemp, cfg.SQLite.Path, path)

		b, err := sqlite.Open(ctx, sqlite.Config{DSN: "file:" + path, Key: cfg.Key, Logger: a.logger})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b)
		return b, nil

	case BackendRedis:
		rc := cfg.Redis
		if rc.Key == "" {
			rc.Key = cfg.Key
		}
		b, err := redis.New(ctx, rc, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b)
		return b, nil

	case BackendS3:
		sc := cfg.S3
		if sc.Key == "" {
			sc.Key = cfg.Key
		}
		return s3.New(ctx, sc, a.logger)

	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

func (a *App) logSandbox(useTemp bool, requested, resolved string) {
	if useTemp {
		a.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", requested, "resolved_path", resolved)
	}
}

// Watch reports changes to the persisted notes made by other processes.
// Only the file backend supports it.
func (a *App) Watch(ctx context.Context) (<-chan core.Event, error) {
	w, ok := a.Backend.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("backend %q does not support watching", a.Config.Backend)
	}
	return w.Watch(ctx)
}

// Component is an introspectable part of the app.
type Component interface {
	introspection.Introspectable
	introspection.Component
}

// Components lists every introspectable part of the app.
func (a *App) Components() []Component {
	components := []Component{a.Store, a.Scheduler}
	if c, ok := a.Backend.(Component); ok {
		components = append(components, c)
	}
	return components
}

// Close stops the scheduler if running and releases backend connections.
func (a *App) Close() error {
	var errs []error
	if a.Scheduler != nil {
		errs = append(errs, a.Scheduler.Stop(context.Background()))
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
