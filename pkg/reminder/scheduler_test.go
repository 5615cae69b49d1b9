package reminder

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
)

type memBackend struct {
	mu       sync.Mutex
	data     []byte
	failSave bool
}

func (m *memBackend) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, core.ErrNoState
	}
	return slices.Clone(m.data), nil
}

func (m *memBackend) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("read-only filesystem")
	}
	m.data = slices.Clone(data)
	return nil
}

func (m *memBackend) setFailSave(v bool) {
	m.mu.Lock()
	m.failSave = v
	m.mu.Unlock()
}

// recorder is a Notifier that remembers every call.
type recorder struct {
	mu    sync.Mutex
	calls []core.Notification
	err   error
	ch    chan core.Notification
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan core.Notification, 16)}
}

func (r *recorder) Notify(ctx context.Context, n core.Notification) error {
	r.mu.Lock()
	r.calls = append(r.calls, n)
	err := r.err
	r.mu.Unlock()
	select {
	case r.ch <- n:
	default:
	}
	return err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

var now0 = time.Date(2026, 10, 15, 18, 4, 0, 0, time.UTC)

func setup(t *testing.T, opts ...Option) (*core.Store, *memBackend, *clock.Fake, *recorder, *Scheduler) {
	t.Helper()
	backend := &memBackend{}
	fc := clock.NewFake(now0)
	store, err := core.Open(context.Background(), backend, core.WithClock(fc), core.WithLocation(time.UTC))
	require.NoError(t, err)

	rec := newRecorder()
	sched := New(store, rec, append([]Option{WithClock(fc)}, opts...)...)
	return store, backend, fc, rec, sched
}

func addReminder(t *testing.T, store *core.Store, title string, at time.Time) core.Note {
	t.Helper()
	n, err := store.AddNote(context.Background(), core.Draft{
		Title: title, Content: title + " body", Reminder: true, ReminderTime: at,
	})
	require.NoError(t, err)
	return n
}

func TestScheduler_BuyMilkScenario(t *testing.T) {
	ctx := context.Background()
	store, _, fc, rec, sched := setup(t)

	note, err := store.AddNote(ctx, core.Draft{
		Title: "Buy milk", Content: "2%", Category: core.CategoryTodos,
		Reminder: true, ReminderTime: now0.Add(time.Minute),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, sched.Tick(ctx), "not due yet")

	fc.Advance(time.Minute + 20*time.Second)
	assert.Equal(t, 1, sched.Tick(ctx))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "Buy milk", rec.calls[0].Title)
	assert.Equal(t, "2%", rec.calls[0].Body)
	assert.Equal(t, note.ID, rec.calls[0].NoteID)
	assert.True(t, rec.calls[0].Timestamp.Equal(fc.Now()))

	fc.Advance(10 * time.Second)
	assert.Equal(t, 0, sched.Tick(ctx), "second tick in the same minute")
	assert.Equal(t, 1, rec.count())

	got, _ := store.Get(note.ID)
	assert.True(t, got.Reminder.Fired())
}

func TestScheduler_Policies(t *testing.T) {
	ctx := context.Background()

	t.Run("Catch-up Fires Missed Minute", func(t *testing.T) {
		store, _, fc, rec, sched := setup(t)
		addReminder(t, store, "missed", now0.Add(2*time.Minute))

		fc.Advance(10 * time.Minute)
		assert.Equal(t, 1, sched.Tick(ctx))
		assert.Equal(t, 1, rec.count())
	})

	t.Run("Catch-up Fires Past Reminder On Next Tick", func(t *testing.T) {
		store, _, _, rec, sched := setup(t)
		addReminder(t, store, "yesterday", now0.Add(-24*time.Hour))

		assert.Equal(t, 1, sched.Tick(ctx))
		assert.Equal(t, 1, rec.count())
	})

	t.Run("Catch-up Fires Within The Reminder Minute", func(t *testing.T) {
		store, _, _, rec, sched := setup(t)
		addReminder(t, store, "later this minute", now0.Add(45*time.Second))

		assert.Equal(t, 1, sched.Tick(ctx))
		assert.Equal(t, 1, rec.count())
	})

	t.Run("Exact Minute Skips Missed Minute", func(t *testing.T) {
		store, _, fc, rec, sched := setup(t, WithPolicy(MatchExactMinute))
		addReminder(t, store, "missed", now0.Add(2*time.Minute))

		fc.Advance(10 * time.Minute)
		assert.Equal(t, 0, sched.Tick(ctx))
		assert.Equal(t, 0, rec.count())
	})

	t.Run("Exact Minute Requires Same Day", func(t *testing.T) {
		store, _, _, rec, sched := setup(t, WithPolicy(MatchExactMinute))
		addReminder(t, store, "yesterday same time", now0.Add(-24*time.Hour))

		assert.Equal(t, 0, sched.Tick(ctx))
		assert.Equal(t, 0, rec.count())
	})

	t.Run("Exact Minute Matches Hour And Minute", func(t *testing.T) {
		store, _, _, rec, sched := setup(t, WithPolicy(MatchExactMinute))
		addReminder(t, store, "now", now0.Add(30*time.Second))

		assert.Equal(t, 1, sched.Tick(ctx))
		assert.Equal(t, 1, rec.count())
	})
}

func TestMatchPolicy_Due(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 30, 45, 0, time.UTC)

	assert.True(t, MatchCatchUp.Due(at, at.Add(-45*time.Second), time.UTC))
	assert.False(t, MatchCatchUp.Due(at, at.Add(-46*time.Second), time.UTC))
	assert.True(t, MatchCatchUp.Due(at, at.Add(48*time.Hour), time.UTC))

	assert.True(t, MatchExactMinute.Due(at, at.Add(14*time.Second), time.UTC))
	assert.False(t, MatchExactMinute.Due(at, at.Add(15*time.Second), time.UTC))

	// 10:30 UTC is 19:30 in Tokyo; both are on Jan 1 there too.
	tokyo := time.FixedZone("JST", 9*60*60)
	assert.True(t, MatchExactMinute.Due(at, at, tokyo))
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MatchCatchUp, p)

	p, err = ParseMatchPolicy("Exact-Minute")
	require.NoError(t, err)
	assert.Equal(t, MatchExactMinute, p)
	assert.Equal(t, "exact-minute", p.String())

	_, err = ParseMatchPolicy("whenever")
	assert.Error(t, err)
}

func TestScheduler_FailureSemantics(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivery Error Still Marks Fired", func(t *testing.T) {
		store, _, _, rec, sched := setup(t)
		rec.err = core.ErrDelivery
		a := addReminder(t, store, "a", now0)
		b := addReminder(t, store, "b", now0)

		assert.Equal(t, 2, sched.Tick(ctx), "a failed delivery must not stop other notes")
		assert.Equal(t, 0, sched.Tick(ctx), "failed deliveries are not retried")
		assert.Equal(t, 2, rec.count())

		for _, id := range []string{a.ID, b.ID} {
			got, _ := store.Get(id)
			assert.True(t, got.Reminder.Fired())
		}

		st := sched.State().(SchedulerState)
		assert.Equal(t, uint64(2), st.Failures)
		assert.Equal(t, uint64(2), st.Fired)
	})

	t.Run("Panicking Sink Does Not Abort Tick", func(t *testing.T) {
		store, backend, fc, _, _ := setup(t)
		_ = backend
		var calls int
		sink := core.NotifierFunc(func(ctx context.Context, n core.Notification) error {
			calls++
			if n.Title == "first" {
				panic("sink exploded")
			}
			return nil
		})
		sched := New(store, sink, WithClock(fc))
		addReminder(t, store, "first", now0)
		addReminder(t, store, "second", now0)

		assert.Equal(t, 2, sched.Tick(ctx))
		assert.Equal(t, 2, calls)
		assert.Equal(t, 0, sched.Tick(ctx))
		assert.Equal(t, 2, calls)
	})

	t.Run("Unpersisted Transition Is Not Delivered", func(t *testing.T) {
		store, backend, _, rec, sched := setup(t)
		addReminder(t, store, "a", now0)

		backend.setFailSave(true)
		assert.Equal(t, 0, sched.Tick(ctx))
		assert.Equal(t, 0, rec.count())

		backend.setFailSave(false)
		assert.Equal(t, 1, sched.Tick(ctx), "retried once the store can persist again")
		assert.Equal(t, 1, rec.count())
	})

	t.Run("Deleted Before Tick", func(t *testing.T) {
		store, _, _, rec, sched := setup(t)
		n := addReminder(t, store, "gone", now0)
		require.NoError(t, store.DeleteNote(ctx, n.ID))

		assert.Equal(t, 0, sched.Tick(ctx))
		assert.Equal(t, 0, rec.count())
	})
}

func TestScheduler_FiredStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store, backend, fc, rec, sched := setup(t)
	addReminder(t, store, "once", now0)
	require.Equal(t, 1, sched.Tick(ctx))

	restarted, err := core.Open(ctx, backend, core.WithClock(fc), core.WithLocation(time.UTC))
	require.NoError(t, err)
	again := New(restarted, rec, WithClock(fc))

	assert.Equal(t, 0, again.Tick(ctx))
	assert.Equal(t, 1, rec.count())
}

func TestScheduler_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, _, fc, rec, sched := setup(t, WithInterval(time.Minute))
	addReminder(t, store, "Buy milk", now0.Add(time.Minute))

	require.NoError(t, sched.Start(ctx))
	assert.Error(t, sched.Start(ctx), "double start")
	assert.True(t, sched.State().(SchedulerState).Running)
	require.Equal(t, 1, fc.Tickers())

	fc.Advance(time.Minute)
	select {
	case n := <-rec.ch:
		assert.Equal(t, "Buy milk", n.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reminder")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sched.Stop(stopCtx))
	require.Eventually(t, func() bool { return fc.Tickers() == 0 }, 2*time.Second, 10*time.Millisecond)

	ticks := sched.State().(SchedulerState).Ticks
	addReminder(t, store, "after stop", fc.Now())
	fc.Advance(5 * time.Minute)
	time.Sleep(50 * time.Millisecond)

	st := sched.State().(SchedulerState)
	assert.False(t, st.Running)
	assert.Equal(t, ticks, st.Ticks, "no ticks after Stop")
	assert.Equal(t, 1, rec.count())

	require.NoError(t, sched.Stop(stopCtx), "stopping an idle scheduler is a no-op")
}

func TestScheduler_Defaults(t *testing.T) {
	_, _, _, _, sched := setup(t, WithInterval(-time.Second))
	assert.Equal(t, DefaultInterval, sched.Interval())
	assert.Equal(t, MatchCatchUp, sched.Policy())
	assert.Equal(t, "scheduler", sched.ComponentType())
}

func TestScheduler_SupervisedWorkerReportsRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _, fc, _, sched := setup(t, WithInterval(time.Minute))

	w := sched.NewWorker()
	require.NoError(t, w.Start(ctx))
	assert.True(t, sched.State().(SchedulerState).Running, "a worker started outside Start counts as running")
	require.Equal(t, 1, fc.Tickers())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, w.Stop(stopCtx))
	require.Eventually(t, func() bool {
		return !sched.State().(SchedulerState).Running
	}, 2*time.Second, 10*time.Millisecond)
}
