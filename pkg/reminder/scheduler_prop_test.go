package reminder

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
)

// testAtMostOnce drives random tick sequences over random reminders and checks
// that no note is ever delivered twice and, under catch-up, that every note
// due by the last tick was delivered.
func testAtMostOnce(t *rapid.T) {
	ctx := context.Background()
	policy := rapid.SampledFrom([]MatchPolicy{MatchCatchUp, MatchExactMinute}).Draw(t, "policy")

	fc := clock.NewFake(now0)
	store, err := core.Open(ctx, &memBackend{}, core.WithClock(fc), core.WithLocation(time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	delivered := map[string]int{}
	sink := core.NotifierFunc(func(ctx context.Context, n core.Notification) error {
		delivered[n.NoteID]++
		return nil
	})
	sched := New(store, sink, WithClock(fc), WithPolicy(policy))

	offsets := rapid.SliceOfN(rapid.IntRange(-120, 600), 1, 8).Draw(t, "offsetsSeconds")
	reminders := map[string]time.Time{}
	for i, off := range offsets {
		at := now0.Add(time.Duration(off) * time.Second)
		n, err := store.AddNote(ctx, core.Draft{
			Title: "n", Content: "c", Reminder: true, ReminderTime: at,
		})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		reminders[n.ID] = at
	}

	steps := rapid.SliceOfN(rapid.IntRange(0, 180), 1, 20).Draw(t, "stepsSeconds")
	for _, step := range steps {
		fc.Advance(time.Duration(step) * time.Second)
		sched.Tick(ctx)
	}

	for id, count := range delivered {
		if count > 1 {
			t.Fatalf("note %s delivered %d times", id, count)
		}
		got, ok := store.Get(id)
		if !ok || !got.Reminder.Fired() {
			t.Fatalf("delivered note %s is not Fired", id)
		}
	}

	if policy == MatchCatchUp {
		now := fc.Now()
		for id, at := range reminders {
			if MatchCatchUp.Due(at, now, time.UTC) && delivered[id] != 1 {
				t.Fatalf("note %s due at %s was not delivered by %s", id, at, now)
			}
		}
	}
}

func TestScheduler_AtMostOnce(t *testing.T) {
	rapid.Check(t, testAtMostOnce)
}
