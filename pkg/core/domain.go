package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventDelete EventType = "DELETE"
	EventRemind EventType = "REMIND"
	// EventModify reports that the persisted state changed outside this process.
	EventModify EventType = "MODIFY"
)

// Event is an advisory notice for the presentation layer.
type Event struct {
	Type      EventType
	ID        string
	Title     string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	if e.Title == "" {
		return fmt.Sprintf("%s %s", e.Type, e.ID)
	}
	return fmt.Sprintf("%s %s (%s)", e.Type, e.ID, e.Title)
}

// DefaultEventBuffer is the per-subscriber channel capacity.
const DefaultEventBuffer = 100

// broker fans events out to subscribers without ever blocking the publisher.
type broker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	logger *slog.Logger
}

func newBroker(buffer int, logger *slog.Logger) *broker {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &broker{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// subscribe registers a channel that is closed once ctx is done.
func (b *broker) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

func (b *broker) publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event dropped, subscriber is full", "type", e.Type, "id", e.ID)
		}
	}
}

func (b *broker) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
