package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/stickies"
	"github.com/aretw0/stickies/pkg/clock"
	"github.com/aretw0/stickies/pkg/core"
	"github.com/aretw0/stickies/pkg/notify"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	backend := flag.String("backend", "file", "Backend to benchmark: file or sqlite")
	keep := flag.Bool("keep", false, "Keep the benchmark data after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "stickies_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	cfg := stickies.DefaultConfig()
	cfg.Backend = *backend
	cfg.DataDir = benchDir
	cfg.Timezone = "UTC"

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	fc := clock.NewFake(start)

	ctx := context.Background()
	app, err := stickies.Open(ctx, cfg,
		stickies.WithLogger(logger),
		stickies.WithClock(fc),
		stickies.WithNotifier(notify.Log{Logger: logger}),
	)
	if err != nil {
		panic(err)
	}

	// 1. Write-through inserts. Every fourth note carries a reminder.
	fmt.Printf("Adding %d notes to %s backend in %s...\n", *count, *backend, benchDir)
	categories := core.Categories()
	startAdd := time.Now()
	for i := range *count {
		draft := core.Draft{
			Title:    fmt.Sprintf("Note %d", i),
			Content:  fmt.Sprintf("Benchmark note number %d", i),
			Category: categories[i%len(categories)],
		}
		if i%4 == 0 {
			draft.Reminder = true
			draft.ReminderTime = start.Add(time.Duration(i) * time.Second)
		}
		if _, err := app.Store.AddNote(ctx, draft); err != nil {
			panic(err)
		}
	}
	addDuration := time.Since(startAdd)
	if err := app.Close(); err != nil {
		panic(err)
	}

	// 2. Cold open: load and decode everything.
	startOpen := time.Now()
	app, err = stickies.Open(ctx, cfg,
		stickies.WithLogger(logger),
		stickies.WithClock(fc),
		stickies.WithNotifier(notify.Log{Logger: logger}),
	)
	if err != nil {
		panic(err)
	}
	defer app.Close()
	openDuration := time.Since(startOpen)

	// 3. Filtered listing.
	startList := time.Now()
	matches := 0
	for range app.Store.ListNotes(core.Filter{SearchText: "number 9", Category: core.CategoryWork}) {
		matches++
	}
	listDuration := time.Since(startList)

	// 4. One tick firing every reminder.
	fc.Advance(time.Duration(*count) * time.Second)
	startTick := time.Now()
	fired := app.Scheduler.Tick(ctx)
	tickDuration := time.Since(startTick)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes, %s):\n", *count, *backend)
	fmt.Printf("  Add:  %v (%v/note)\n", addDuration, addDuration/time.Duration(max(*count, 1)))
	fmt.Printf("  Open: %v (Items: %d)\n", openDuration, app.Store.Len())
	fmt.Printf("  List: %v (Matches: %d)\n", listDuration, matches)
	fmt.Printf("  Tick: %v (Fired: %d)\n", tickDuration, fired)
	fmt.Printf("--------------------------------------------------\n")
}
