package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/stickies/pkg/clock"
)

// tickWorker owns the ticker of one scheduler run.
type tickWorker struct {
	*worker.BaseWorker
	sched  *Scheduler
	ticker clock.Ticker
	cancel context.CancelFunc
	done   atomic.Bool
}

// NewWorker returns a fresh lifecycle worker that ticks s until stopped.
// Supervisors call it to restart the loop; each worker can only be started once.
func (s *Scheduler) NewWorker() worker.Worker {
	return s.newTickWorker()
}

func (s *Scheduler) newTickWorker() *tickWorker {
	return &tickWorker{
		BaseWorker: worker.NewBaseWorker("reminder-scheduler"),
		sched:      s,
	}
}

func (w *tickWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("scheduler already started (status: %s)", status)
	}

	w.ticker = w.sched.clock.NewTicker(w.sched.interval)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.sched.live.Add(1)
	w.SetStatus(worker.StatusRunning)
	if err := w.StartFunc(runCtx, w.run); err != nil {
		w.release()
		return err
	}
	return nil
}

// release drops this worker from the scheduler's live count exactly once.
func (w *tickWorker) release() {
	if w.done.CompareAndSwap(false, true) {
		w.sched.live.Add(-1)
	}
}

func (w *tickWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *tickWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"interval":          w.sched.interval.String(),
			"policy":            w.sched.policy.String(),
		}
	})
}

// run is the tick loop. A tick already in progress when ctx is cancelled
// runs to completion over its snapshot.
func (w *tickWorker) run(ctx context.Context) (err error) {
	logger := w.sched.logger
	defer w.release()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("scheduler panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("scheduler panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("scheduler panic", "error", err)
			}
		}
	}()
	defer w.ticker.Stop()

	logger.Debug("scheduler started", "interval", w.sched.interval, "policy", w.sched.policy)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("scheduler stopped")
			return nil
		case <-w.ticker.C():
			w.sched.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Start begins ticking in the background until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running != nil {
		return errors.New("scheduler is already running")
	}
	w := s.newTickWorker()
	if err := w.Start(ctx); err != nil {
		return err
	}
	s.running = w
	return nil
}

// Stop cancels future ticks and waits for the loop to exit.
// Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	w := s.running
	s.running = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop(ctx)
}
