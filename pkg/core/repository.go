package core

import (
	"context"
	"time"
)

// DefaultKey is the name of the single key holding the serialized notes.
const DefaultKey = "sticky_notes_data"

// Backend is the key-value persistence contract of the Store.
// One key holds the JSON array of every note; adapters decide where that key lives
// (file, SQLite row, Redis key, S3 object).
type Backend interface {
	// Load returns the stored bytes, or ErrNoState if nothing was ever saved.
	Load(ctx context.Context) ([]byte, error)

	// Save durably replaces the stored bytes.
	Save(ctx context.Context, data []byte) error
}

// Notification is the payload handed to a Notifier when a reminder fires.
type Notification struct {
	NoteID    string
	Title     string
	Body      string
	Timestamp time.Time
}

// Notifier is the platform sink that displays reminders. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Watchable is implemented by backends that can report changes made to the
// persisted state by other processes. Events carry EventModify.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
