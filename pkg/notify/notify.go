// Package notify provides Notifier sinks for fired reminders.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stickies/pkg/core"
)

// Log reports reminders through a structured logger.
type Log struct {
	Logger *slog.Logger
}

// Notify implements core.Notifier.
func (l Log) Notify(ctx context.Context, n core.Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "reminder",
		"id", n.NoteID,
		"title", n.Title,
		"body", n.Body,
		"timestamp", n.Timestamp.Format(time.RFC3339),
	)
	return nil
}

// Writer prints reminders as human-readable lines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer sink printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify implements core.Notifier.
func (w *Writer) Notify(ctx context.Context, n core.Notification) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := fmt.Fprintf(w.w, "[%s] Reminder: %s\n  %s\n", n.Timestamp.Format("Jan 02, 2006 15:04"), n.Title, n.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrDelivery, err)
	}
	return nil
}

// Multi fans a notification out to every sink. All sinks are attempted;
// their errors are joined.
func Multi(sinks ...core.Notifier) core.Notifier {
	return core.NotifierFunc(func(ctx context.Context, n core.Notification) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Notify(ctx, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
