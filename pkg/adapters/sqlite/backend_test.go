package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stickies/pkg/adapters/sqlite"
	"github.com/aretw0/stickies/pkg/core"
)

func openTemp(t *testing.T, key string) (*sqlite.Backend, string) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "notes.db")
	b, err := sqlite.Open(context.Background(), sqlite.Config{DSN: dsn, Key: key})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, dsn
}

func TestBackend_LoadSave(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t, "")

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, core.ErrNoState)

	require.NoError(t, b.Save(ctx, []byte(`[{"id":"1"}]`)))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	require.NoError(t, b.Save(ctx, []byte(`[]`)), "second save updates the same row")
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestBackend_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	b, dsn := openTemp(t, "")
	require.NoError(t, b.Save(ctx, []byte(`[]`)))
	require.NoError(t, b.Close())

	again, err := sqlite.Open(ctx, sqlite.Config{DSN: dsn})
	require.NoError(t, err)
	defer again.Close()

	got, err := again.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestBackend_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	b, dsn := openTemp(t, "home")
	require.NoError(t, b.Save(ctx, []byte(`["home"]`)))

	work, err := sqlite.Open(ctx, sqlite.Config{DSN: dsn, Key: "work"})
	require.NoError(t, err)
	defer work.Close()

	_, err = work.Load(ctx)
	assert.ErrorIs(t, err, core.ErrNoState)
}

func TestBackend_WithStore(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t, "")

	store, err := core.Open(ctx, b)
	require.NoError(t, err)
	note, err := store.AddNote(ctx, core.Draft{Title: "Buy milk", Content: "2%"})
	require.NoError(t, err)

	reopened, err := core.Open(ctx, b)
	require.NoError(t, err)
	got, ok := reopened.Get(note.ID)
	require.True(t, ok)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, core.CategoryPersonal, got.Category)
}
