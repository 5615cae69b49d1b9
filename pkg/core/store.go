package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/stickies/pkg/clock"
)

// Store is the single source of truth for the note collection.
// Every mutation is written through to the Backend before it returns;
// a failed write rolls the in-memory collection back.
type Store struct {
	mu      sync.RWMutex
	notes   []Note // most-recent-first; replaced, never mutated in place
	backend Backend

	clock    clock.Clock
	location *time.Location
	logger   *slog.Logger
	newID    func() (string, error)

	eventBuffer int
	events      *broker
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the source of creation timestamps.
func WithClock(c clock.Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation sets the time zone used for calendar-day filtering.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(fn func() (string, error)) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithEventBuffer sets the capacity of each subscriber channel.
func WithEventBuffer(size int) StoreOption {
	return func(s *Store) {
		s.eventBuffer = size
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Open creates a Store and loads its collection from backend.
//
// A backend without prior state yields an empty store. Data that fails to
// decode also yields an empty, usable store, returned together with an error
// wrapping ErrCorruptState. Any other load failure returns a nil store.
func Open(ctx context.Context, backend Backend, opts ...StoreOption) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store requires a backend")
	}

	s := &Store{
		backend:  backend,
		clock:    clock.Real(),
		location: time.Local,
		logger:   slog.New(slog.DiscardHandler),
		newID:    newUUIDv7,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = newBroker(s.eventBuffer, s.logger)

	notes, err := s.load(ctx)
	switch {
	case errors.Is(err, ErrCorruptState):
		s.logger.Error("persisted notes are corrupt, starting empty", "error", err)
		return s, err
	case err != nil:
		return nil, err
	}

	s.notes = notes
	s.logger.Debug("store loaded", "count", len(notes))
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]Note, error) {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoState) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrIO, err)
	}
	return DecodeNotes(data)
}

// Reload replaces the in-memory collection with the backend's current state.
// On failure the current collection is kept. A reminder already Fired in
// memory stays Fired even if the backend still holds it Armed.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range notes {
		if idx := s.indexOf(notes[i].ID); idx >= 0 && s.notes[idx].Reminder.Fired() && !notes[i].Reminder.Fired() {
			notes[i].Reminder = s.notes[idx].Reminder
		}
	}
	s.notes = notes

	s.logger.Debug("store reloaded", "count", len(notes))
	return nil
}

// persist writes next through to the backend. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, next []Note) error {
	data, err := EncodeNotes(next)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrIO, err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: save: %w", ErrIO, err)
	}
	return nil
}

// AddNote validates draft, assigns id and creation time, inserts the note at
// the head of the collection and persists it.
func (s *Store) AddNote(ctx context.Context, draft Draft) (Note, error) {
	category, reminder, err := draft.validate()
	if err != nil {
		return Note{}, err
	}

	id, err := s.newID()
	if err != nil {
		return Note{}, fmt.Errorf("failed to generate note id: %w", err)
	}

	note := Note{
		ID:        id,
		Title:     draft.Title,
		Content:   draft.Content,
		Category:  category,
		CreatedAt: s.clock.Now(),
		Reminder:  reminder,
	}

	s.mu.Lock()
	if slices.ContainsFunc(s.notes, func(n Note) bool { return n.ID == id }) {
		s.mu.Unlock()
		return Note{}, fmt.Errorf("duplicate note id %s", id)
	}
	next := make([]Note, 0, len(s.notes)+1)
	next = append(next, note)
	next = append(next, s.notes...)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to persist new note", "id", id, "error", err)
		return Note{}, err
	}
	s.notes = next
	s.publish(EventCreate, note)
	s.mu.Unlock()

	s.logger.Debug("note added", "id", id, "category", category, "reminder", reminder.State())
	return note, nil
}

// DeleteNote removes the note with id. Deleting an absent id is a no-op.
// If the removal cannot be persisted the note stays visible and the error
// wraps ErrIO.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.notes[idx]
	next := slices.Delete(slices.Clone(s.notes), idx, idx+1)
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to persist deletion", "id", id, "error", err)
		return err
	}
	s.notes = next
	s.publish(EventDelete, removed)
	s.mu.Unlock()

	s.logger.Debug("note deleted", "id", id)
	return nil
}

// MarkFired moves an Armed reminder to Fired and persists the change.
// ok is false when the note is gone or its reminder is not Armed; in that
// case nothing is written.
func (s *Store) MarkFired(ctx context.Context, id string) (note Note, ok bool, err error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Note{}, false, nil
	}
	if !s.notes[idx].Reminder.Armed() {
		n := s.notes[idx]
		s.mu.Unlock()
		return n, false, nil
	}

	next := slices.Clone(s.notes)
	next[idx].Reminder = next[idx].Reminder.fire()
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return Note{}, false, err
	}
	s.notes = next
	note = next[idx]
	s.publish(EventRemind, note)
	s.mu.Unlock()

	return note, true, nil
}

// ListNotes returns a lazy, order-preserving sequence of the notes matching
// filter. The sequence iterates over the snapshot taken when ListNotes is called.
func (s *Store) ListNotes(filter Filter) iter.Seq[Note] {
	s.mu.RLock()
	snapshot := s.notes
	s.mu.RUnlock()

	loc := s.location
	return func(yield func(Note) bool) {
		for _, n := range snapshot {
			if !filter.Match(n, loc) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Get returns the note with id.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.notes[idx], true
	}
	return Note{}, false
}

// Len returns the number of notes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Now returns the current time from the store's clock.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Location returns the time zone used for calendar-day matching.
func (s *Store) Location() *time.Location {
	return s.location
}

// Subscribe returns a channel of store events that is closed when ctx is done.
// Slow subscribers lose events rather than block mutations.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	return s.events.subscribe(ctx)
}

// publish runs with s.mu held so subscribers see events in commit order.
// The broker never blocks.
func (s *Store) publish(t EventType, n Note) {
	s.events.publish(Event{
		Type:      t,
		ID:        n.ID,
		Title:     n.Title,
		Timestamp: s.clock.Now().Unix(),
	})
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}
