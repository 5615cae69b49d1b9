package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/stickies/pkg/core"
)

// DebounceDelay is how long the watcher waits for a burst of writes to settle.
const DebounceDelay = 50 * time.Millisecond

type watchWorker struct {
	*worker.BaseWorker
	backend   *Backend
	events    chan<- core.Event
	closeOut  bool
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(backend *Backend, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		backend:    backend,
		events:     events,
	}
}

// Watch reports changes made to the data file by other processes.
// Writes made through this Backend are not reported. The channel is closed
// once ctx is done.
func (b *Backend) Watch(ctx context.Context) (<-chan core.Event, error) {
	events := make(chan core.Event, 1)
	w := newWatchWorker(b, events)
	w.closeOut = true
	if err := w.Start(ctx); err != nil {
		close(events)
		return nil, err
	}
	return events, nil
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// The file is replaced by rename, so watch its directory.
	if err := watcher.Add(filepath.Dir(w.backend.Path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.backend.Path), err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(DebounceDelay)
	w.backend.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.backend.Path,
		}
	})
}

// relevant reports whether event touches the data file with an operation
// that may have changed its content.
func (w *watchWorker) relevant(event fsnotify.Event) bool {
	if isTempFile(event.Name) {
		return false
	}
	if filepath.Base(event.Name) != filepath.Base(w.backend.Path) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// processFilesystemEvent filters out our own writes and debounces the rest.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	logger := w.backend.config.Logger
	logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if !w.relevant(event) {
		return false
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		data, err := os.ReadFile(w.backend.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("failed to read changed file", "path", w.backend.Path, "error", err)
			return false
		}
		if err == nil && w.backend.isOwnWrite(data) {
			return false
		}
	}

	w.sendEvent(ctx, core.Event{
		Type:      core.EventModify,
		ID:        w.backend.config.Key,
		Timestamp: time.Now().Unix(),
	})
	return true
}

// sendEvent enqueues an event via the debouncer, protecting against channel
// closure during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.backend.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.backend.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Every in-flight delivery must finish before the channel can be closed.
	if w.debouncer.stopAndWait(5*time.Second) && w.closeOut {
		close(w.events)
	}
	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.backend.config.Logger.Error("fsnotify error", "error", wErr)
		}
	}
}
