package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Notes           int    `json:"notes"`
	Armed           int    `json:"armed"`
	Fired           int    `json:"fired"`
	Subscribers     int    `json:"subscribers"`
	EventBufferSize int    `json:"event_buffer_size"`
	Location        string `json:"location"`
	BackendType     string `json:"backend_type"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	snapshot := s.notes
	s.mu.RUnlock()

	st := StoreState{
		Notes:           len(snapshot),
		Subscribers:     s.events.len(),
		EventBufferSize: s.events.buffer,
		Location:        s.location.String(),
		BackendType:     "unknown",
	}
	for _, n := range snapshot {
		switch n.Reminder.State() {
		case ReminderArmed:
			st.Armed++
		case ReminderFired:
			st.Fired++
		}
	}

	// Try to get component type if the backend implements introspection.Component
	if comp, ok := s.backend.(introspection.Component); ok {
		st.BackendType = comp.ComponentType()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
