package reminder

import (
	"time"

	"github.com/aretw0/introspection"
)

// SchedulerState exposes internal state for observability.
type SchedulerState struct {
	Running  bool       `json:"running"`
	Interval string     `json:"interval"`
	Policy   string     `json:"policy"`
	Ticks    uint64     `json:"ticks"`
	Fired    uint64     `json:"fired"`
	Failures uint64     `json:"failures"`
	LastTick *time.Time `json:"last_tick,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Scheduler) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SchedulerState{
		Running:  s.live.Load() > 0,
		Interval: s.interval.String(),
		Policy:   s.policy.String(),
		Ticks:    s.stats.ticks,
		Fired:    s.stats.fired,
		Failures: s.stats.failures,
		LastTick: s.stats.lastTick,
	}
}

// ComponentType implements introspection.Component.
func (s *Scheduler) ComponentType() string {
	return "scheduler"
}

var _ introspection.Introspectable = (*Scheduler)(nil)
var _ introspection.Component = (*Scheduler)(nil)
