// Package stickies is the composition root for the sticky-notes store and
// its reminder scheduler.
//
// Notes live in a core.Store that writes every mutation through to a
// key-value Backend: a JSON file (default), a SQLite table, a Redis key or
// an S3 object. A reminder.Scheduler polls the store and delivers each due
// reminder at most once to a core.Notifier.
//
// Usage:
//
//	cfg, err := stickies.LoadConfig("")
//	app, err := stickies.Open(ctx, cfg,
//		stickies.WithLogger(logger),
//		stickies.WithNotifier(notify.NewWriter(os.Stdout)),
//	)
//	defer app.Close()
//
//	note, err := app.Store.AddNote(ctx, core.Draft{
//		Title:        "Buy milk",
//		Content:      "2%",
//		Category:     core.CategoryTodos,
//		Reminder:     true,
//		ReminderTime: time.Now().Add(time.Hour),
//	})
//
//	err = app.Scheduler.Start(ctx)
package stickies
