package platform

import (
	"log/slog"

	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
)

// options holds the wiring overrides for Open.
type options struct {
	backend   core.Backend
	logger    *slog.Logger
	clock     clock.Clock
	notifier  core.Notifier
	forceTemp bool
	devSafety bool
}

// Option configures Open.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		clock:     clock.Real(),
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackend injects a backend (e.g. a mock), skipping Config.Backend.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithClock replaces the wall clock for the store and scheduler.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithNotifier sets the sink reminders are delivered to.
// Without it reminders are only logged.
func WithNotifier(n core.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithForceTemp forces file and sqlite data into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. Enabled by default.
//
// CAUTION: disabling it lets development builds write to the real data dir.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
