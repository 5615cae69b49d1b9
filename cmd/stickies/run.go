package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"

	"github.com/aretw0/stickies"
	lcadapter "github.com/aretw0/stickies/pkg/adapters/lifecycle"
	"github.com/aretw0/stickies/pkg/core"
	"github.com/aretw0/stickies/pkg/notify"
	"github.com/aretw0/stickies/pkg/reminder"
)

var runWatch bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deliver reminders until interrupted",
	Long: `Run the reminder scheduler in the foreground. Due reminders are
printed to stdout and logged. Overdue reminders fire on the first check.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		sink := notify.Multi(notify.NewWriter(out), notify.Log{Logger: slog.Default()})

		app, err := openApp(ctx, stickies.WithNotifier(sink))
		if err != nil {
			return err
		}
		defer app.Close()

		sup := supervisor.New("stickies", supervisor.StrategyOneForOne, schedulerSpec(app.Scheduler))
		if err := sup.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		logEvents(ctx, lcadapter.NewSource(app.Store))
		if runWatch {
			if events, err := app.Watch(ctx); err != nil {
				slog.Warn("not watching for external changes", "error", err)
			} else {
				reloadOnChange(ctx, app.Store, lcadapter.NewChannelSource(events), nil)
			}
		}

		app.Scheduler.Tick(ctx)
		fmt.Fprintf(out, "Checking %d notes every %s (%s). Press Ctrl+C to stop.\n",
			app.Store.Len(), app.Scheduler.Interval(), app.Scheduler.Policy())

		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sup.Stop(stopCtx)
	},
}

// schedulerSpec restarts the tick loop if it ever fails.
func schedulerSpec(s *reminder.Scheduler) supervisor.Spec {
	return supervisor.Spec{
		Name: "reminder-scheduler",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return s.NewWorker(), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     10 * time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}
}

// logEvents logs every event emitted by src until ctx is done.
func logEvents(ctx context.Context, src lifecycle.Source) {
	if err := src.Start(ctx); err != nil {
		slog.Warn("event source failed to start", "error", err)
		return
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for e := range src.Events() {
			slog.Info("event", "event", e.String())
		}
		return nil
	})
}

// reloadOnChange reloads store whenever src reports an external change,
// then calls onReload (if set) with the new note count.
func reloadOnChange(ctx context.Context, store *core.Store, src lifecycle.Source, onReload func(int)) {
	if err := src.Start(ctx); err != nil {
		slog.Warn("change source failed to start", "error", err)
		return
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for e := range src.Events() {
			if err := store.Reload(ctx); err != nil {
				slog.Error("reload failed", "event", e.String(), "error", err)
				continue
			}
			slog.Debug("reloaded after external change", "count", store.Len())
			if onReload != nil {
				onReload(store.Len())
			}
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		slog.Error("reload loop panic", "error", err)
	}))
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runWatch, "watch", true, "Reload when another process changes the notes (file backend)")
}
