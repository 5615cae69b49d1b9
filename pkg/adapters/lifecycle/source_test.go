package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stickies/pkg/adapters/lifecycle"
	"github.com/aretw0/stickies/pkg/core"
)

type memBackend struct{ data []byte }

func (m *memBackend) Load(ctx context.Context) ([]byte, error) {
	if m.data == nil {
		return nil, core.ErrNoState
	}
	return m.data, nil
}

func (m *memBackend) Save(ctx context.Context, data []byte) error {
	m.data = data
	return nil
}

func TestSource_BridgesStoreEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := core.Open(ctx, &memBackend{})
	require.NoError(t, err)

	src := lifecycle.NewSource(store)
	require.NoError(t, src.Start(ctx))

	note, err := store.AddNote(ctx, core.Draft{Title: "Buy milk", Content: "2%"})
	require.NoError(t, err)

	select {
	case e := <-src.Events():
		assert.Equal(t, "CREATE "+note.ID+" (Buy milk)", e.String())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-src.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond, "events channel closes on cancel")
}

func TestChannelSource_ClosesWithInput(t *testing.T) {
	ctx := context.Background()
	in := make(chan core.Event, 1)
	in <- core.Event{Type: core.EventModify, ID: core.DefaultKey}
	close(in)

	src := lifecycle.NewChannelSource(in)
	require.NoError(t, src.Start(ctx))

	e, ok := <-src.Events()
	require.True(t, ok)
	assert.Equal(t, "MODIFY "+core.DefaultKey, e.String())

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not close")
	}
}
