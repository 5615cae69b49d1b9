// Package lifecycle exposes store events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/stickies/pkg/core"
)

// Subscriber is satisfied by *core.Store.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan core.Event
}

type storeSource struct {
	subscribe func(ctx context.Context) <-chan core.Event
	out       chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits the store's events from
// the moment Start is called until its context is done.
func NewSource(store Subscriber) lifecycle.Source {
	return &storeSource{
		subscribe: store.Subscribe,
		out:       make(chan lifecycle.Event),
	}
}

// NewChannelSource bridges an existing event channel, such as the one
// returned by a Watchable backend.
func NewChannelSource(events <-chan core.Event) lifecycle.Source {
	return &storeSource{
		subscribe: func(context.Context) <-chan core.Event { return events },
		out:       make(chan lifecycle.Event),
	}
}

func (s *storeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *storeSource) Start(ctx context.Context) error {
	events := s.subscribe(ctx)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				// core.Event implements lifecycle.Event (has String())
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
