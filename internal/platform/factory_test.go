package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mimir/internal/platform"
	"github.com/aretw0/mimir/pkg/adapters/fs"
	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/state"
)

func newSeededStore(t *testing.T, dir string, n int) *fs.Store {
	t.Helper()
	store := fs.NewStore(fs.Config{Path: dir})
	require.NoError(t, store.Initialize(context.Background()))
	for i := range n {
		note := core.NewNote("note", "body", core.NoRef)
		note.CreatedAt = note.CreatedAt.Add(-time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(context.Background(), note))
	}
	return store
}

func TestNew(t *testing.T) {
	t.Run("Creates Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "notes")

		st, err := platform.New(dir)
		require.NoError(t, err)
		assert.Equal(t, state.LoadEager, st.Mode())
		assert.DirExists(t, dir)

		n, err := st.CreateNote(context.Background(), "first", "", core.NoRef)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, n.ID.String()+".json"))
	})

	t.Run("Must Exist", func(t *testing.T) {
		_, err := platform.New(filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
		assert.Error(t, err)
	})

	t.Run("Custom System Dir", func(t *testing.T) {
		dir := t.TempDir()
		newSeededStore(t, dir, 0)

		st, err := platform.New(dir, platform.WithSystemDir(".custom-sys"))
		require.NoError(t, err)
		_, err = st.CreateNote(context.Background(), "x", "", core.NoRef)
		require.NoError(t, err)

		store, err := platform.Open(dir, platform.WithSystemDir(".custom-sys"))
		require.NoError(t, err)
		_, err = store.ListMetadata(context.Background())
		require.NoError(t, err)

		assert.DirExists(t, filepath.Join(dir, ".custom-sys"))
		assert.NoDirExists(t, filepath.Join(dir, ".mimir"))
	})

	t.Run("Load Mode Options", func(t *testing.T) {
		dir := t.TempDir()
		newSeededStore(t, dir, 5)

		st, err := platform.New(dir, platform.WithLazyThreshold(3), platform.WithPageSize(2), platform.WithPrefetchPages(-1))
		require.NoError(t, err)
		assert.Equal(t, state.LoadLazy, st.Mode())
		assert.Len(t, st.Notes(), 2)
		assert.Equal(t, 5, st.TotalNotes())

		st, err = platform.New(dir, platform.WithLoadMode(state.LoadEager), platform.WithLazyThreshold(3))
		require.NoError(t, err)
		assert.Equal(t, state.LoadEager, st.Mode())
	})

	t.Run("Injected Store", func(t *testing.T) {
		store := newSeededStore(t, t.TempDir(), 2)

		st, err := platform.New("ignored", platform.WithStore(store))
		require.NoError(t, err)
		assert.Len(t, st.Notes(), 2)

		got, err := platform.Open("ignored", platform.WithStore(store))
		require.NoError(t, err)
		assert.Same(t, store, got)
	})
}

func TestReadOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Directory Is Not Created", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		_, err := platform.New(dir, platform.WithReadOnly(true))
		assert.Error(t, err)
		assert.NoDirExists(t, dir)
	})

	t.Run("Writes Are Rejected", func(t *testing.T) {
		dir := t.TempDir()
		newSeededStore(t, dir, 1)

		st, err := platform.New(dir, platform.WithReadOnly(true))
		require.NoError(t, err)
		require.Len(t, st.Notes(), 1)

		_, err = st.CreateNote(ctx, "forbidden", "", core.NoRef)
		assert.ErrorIs(t, err, core.ErrReadOnly)
		assert.ErrorIs(t, st.DeleteNote(ctx, st.Notes()[0].ID), core.ErrReadOnly)
		_, err = st.CreateGroup(ctx, "g", core.NoRef, nil)
		assert.ErrorIs(t, err, core.ErrReadOnly)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotEqual(t, fs.GroupsFile, e.Name())
		}
	})
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchErrs := make(chan error, 10)
	st, err := platform.New(dir, platform.WithWatcherErrorHandler(func(err error) { watchErrs <- err }))
	require.NoError(t, err)

	_, err = platform.Watch(ctx, st, platform.WithWatchPattern("["))
	assert.Error(t, err)

	events, err := platform.Watch(ctx, st)
	require.NoError(t, err)

	// A second process writes a note.
	other := fs.NewStore(fs.Config{Path: dir})
	require.NoError(t, other.Initialize(ctx))
	n := core.NewNote("external", "", core.NoRef)
	require.NoError(t, other.Save(ctx, n))

	select {
	case e := <-events:
		assert.Equal(t, n.ID, e.ID)
		require.NoError(t, st.ApplyEvent(ctx, e))
		_, ok := st.Note(n.ID)
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	assert.Empty(t, watchErrs)
}
