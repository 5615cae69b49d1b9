// Package reminder runs the periodic check that fires due note reminders.
//
// A Scheduler reads a snapshot of the store on every tick, moves each due
// reminder from Armed to Fired through the store (so the transition is
// persisted first), then hands one Notification per reminder to the sink.
// Because Fired is terminal and persisted before delivery, a reminder is
// delivered at most once.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
)

// DefaultInterval is the poll interval between ticks.
const DefaultInterval = 60 * time.Second

// MatchPolicy decides when an Armed reminder is due.
type MatchPolicy int

const (
	// MatchCatchUp fires on the first tick whose minute is at or after the
	// reminder's minute. Reminders whose minute was missed (suspended
	// process, long interval) fire late instead of never.
	MatchCatchUp MatchPolicy = iota
	// MatchExactMinute fires only on a tick landing on the same calendar
	// day, hour and minute as the reminder, in the store's time zone.
	// A minute without a tick skips the reminder for good.
	MatchExactMinute
)

func (p MatchPolicy) String() string {
	switch p {
	case MatchCatchUp:
		return "catch-up"
	case MatchExactMinute:
		return "exact-minute"
	default:
		return fmt.Sprintf("MatchPolicy(%d)", int(p))
	}
}

// ParseMatchPolicy parses "catch-up" or "exact-minute". Empty means catch-up.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "catch-up", "catchup":
		return MatchCatchUp, nil
	case "exact-minute", "exact":
		return MatchExactMinute, nil
	default:
		return 0, fmt.Errorf("unknown match policy: %q", s)
	}
}

// Due reports whether a reminder at `at` is due at `now` under policy p.
func (p MatchPolicy) Due(at, now time.Time, loc *time.Location) bool {
	switch p {
	case MatchExactMinute:
		if loc == nil {
			loc = time.Local
		}
		a, n := at.In(loc), now.In(loc)
		return core.SameDay(a, n, loc) && a.Hour() == n.Hour() && a.Minute() == n.Minute()
	default:
		return !now.Truncate(time.Minute).Before(at.Truncate(time.Minute))
	}
}

// Scheduler fires due reminders from a Store into a Notifier.
type Scheduler struct {
	store    *core.Store
	sink     core.Notifier
	clock    clock.Clock
	interval time.Duration
	policy   MatchPolicy
	logger   *slog.Logger

	mu       sync.Mutex
	stats    stats
	running  *tickWorker
	live     atomic.Int32 // tick loops currently running, including supervised ones
	tickLock sync.Mutex   // serializes Tick
}

type stats struct {
	ticks    uint64
	fired    uint64
	failures uint64
	lastTick *time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock driving ticks and due checks.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithInterval sets the poll interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithPolicy sets the match policy.
func WithPolicy(p MatchPolicy) Option {
	return func(s *Scheduler) {
		s.policy = p
	}
}

// WithLogger sets the logger for the scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler. It does nothing until Start or Tick is called.
func New(store *core.Store, sink core.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		sink:     sink,
		clock:    clock.Real(),
		interval: DefaultInterval,
		policy:   MatchCatchUp,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the poll interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Policy returns the match policy.
func (s *Scheduler) Policy() MatchPolicy { return s.policy }

// Tick runs one reminder check over the current store snapshot and returns
// how many reminders fired. A failure on one note never stops the others.
func (s *Scheduler) Tick(ctx context.Context) int {
	s.tickLock.Lock()
	defer s.tickLock.Unlock()

	now := s.clock.Now()
	loc := s.store.Location()

	var due []core.Note
	for n := range s.store.ListNotes(core.Filter{}) {
		at, ok := n.Reminder.Time()
		if !ok || !n.Reminder.Armed() {
			continue
		}
		if s.policy.Due(at, now, loc) {
			due = append(due, n)
		}
	}

	fired := 0
	for _, n := range due {
		if s.fire(ctx, n, now) {
			fired++
		}
	}

	s.mu.Lock()
	s.stats.ticks++
	s.stats.fired += uint64(fired)
	s.stats.lastTick = &now
	s.mu.Unlock()

	if fired > 0 || len(due) > 0 {
		s.logger.Debug("tick", "due", len(due), "fired", fired)
	}
	return fired
}

// fire transitions one note to Fired and delivers its notification.
// It reports whether the transition happened.
func (s *Scheduler) fire(ctx context.Context, n core.Note, now time.Time) (fired bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.recordFailure()
			if s.logger.Enabled(ctx, slog.LevelDebug) {
				s.logger.Error("reminder panic", "id", n.ID, "error", recovered, "stack", string(debug.Stack()))
			} else {
				s.logger.Error("reminder panic", "id", n.ID, "error", recovered)
			}
		}
	}()

	note, ok, err := s.store.MarkFired(ctx, n.ID)
	if err != nil {
		// Nothing was delivered, so the note stays Armed and is retried next tick.
		s.recordFailure()
		s.logger.Error("failed to mark reminder fired", "id", n.ID, "error", err)
		return false
	}
	if !ok {
		return false
	}
	fired = true

	err = s.sink.Notify(ctx, core.Notification{
		NoteID:    note.ID,
		Title:     note.Title,
		Body:      note.Content,
		Timestamp: now,
	})
	if err != nil {
		s.recordFailure()
		s.logger.Warn("reminder delivery failed", "id", note.ID, "error", err)
		return fired
	}

	s.logger.Info("reminder fired", "id", note.ID, "title", note.Title)
	return fired
}

func (s *Scheduler) recordFailure() {
	s.mu.Lock()
	s.stats.failures++
	s.mu.Unlock()
}
