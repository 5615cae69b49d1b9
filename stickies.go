package stickies

import (
	"context"
	"log/slog"

	"github.com/aretw0/stickies/internal/platform"
	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
)

// --- Types ---

// Config is the application configuration.
type Config = platform.Config

// App is a wired store and scheduler sharing one backend.
type App = platform.App

// --- Configuration ---

// Option configures Open.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithBackend injects a custom backend, skipping Config.Backend.
func WithBackend(b core.Backend) Option {
	return platform.WithBackend(b)
}

// WithClock replaces the wall clock (useful for testing).
func WithClock(c clock.Clock) Option {
	return platform.WithClock(c)
}

// WithNotifier sets the sink reminders are delivered to.
func WithNotifier(n core.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithForceTemp forces file and sqlite data into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// LoadConfig reads a YAML config file (optional) and the STICKIES_* environment.
func LoadConfig(path string) (Config, error) {
	return platform.LoadConfig(path)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// FindConfig looks upwards from dir for a .stickies.yaml file.
func FindConfig(dir string) (string, error) {
	return platform.FindConfig(dir)
}

// --- Factory ---

// Open builds the configured backend, store and scheduler.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	return platform.Open(ctx, cfg, opts...)
}
