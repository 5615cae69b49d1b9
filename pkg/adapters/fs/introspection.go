package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// BackendState exposes internal state for observability.
type BackendState struct {
	Path          string     `json:"path"`
	Perm          string     `json:"perm"`
	Saves         uint64     `json:"saves"`
	LastSave      *time.Time `json:"last_save,omitempty"`
	WatcherActive bool       `json:"watcher_active"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BackendState{
		Path:          b.Path,
		Perm:          b.config.Perm.String(),
		Saves:         b.saves,
		LastSave:      b.lastSave,
		WatcherActive: b.watcherActive,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "backend"
}

var _ introspection.Introspectable = (*Backend)(nil)
var _ introspection.Component = (*Backend)(nil)

func (b *Backend) setWatcherActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watcherActive = active
}
