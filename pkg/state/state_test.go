package state_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/loader"
	"github.com/aretw0/mimir/pkg/state"
	"github.com/aretw0/mimir/pkg/validation"
)

var errDisk = errors.New("disk full")

func newState(t *testing.T, store core.NoteStore, cfg state.Config) *state.State {
	t.Helper()
	s, err := state.New(context.Background(), store, cfg)
	require.NoError(t, err)
	return s
}

func ptr(s string) *string { return &s }

func TestParseLoadMode(t *testing.T) {
	for in, want := range map[string]state.LoadMode{"": state.LoadAuto, "auto": state.LoadAuto, "eager": state.LoadEager, "lazy": state.LoadLazy} {
		got, err := state.ParseLoadMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := state.ParseLoadMode("sometimes")
	assert.Error(t, err)
}

func TestNew_LoadModes(t *testing.T) {
	t.Run("Auto Below Threshold Is Eager", func(t *testing.T) {
		store := newMemStore()
		store.seed(10)
		s := newState(t, store, state.Config{})
		assert.Equal(t, state.LoadEager, s.Mode())
		assert.Len(t, s.Notes(), 10)
		_, ok := s.LoaderStats()
		assert.False(t, ok)
	})

	t.Run("Auto Above Threshold Is Lazy", func(t *testing.T) {
		store := newMemStore()
		store.seed(30)
		s := newState(t, store, state.Config{LazyThreshold: 25, Loader: loader.Config{PageSize: 10, PrefetchPages: -1}})
		assert.Equal(t, state.LoadLazy, s.Mode())
		assert.Len(t, s.Notes(), 10, "only the first page is loaded")
		assert.Equal(t, 30, s.TotalNotes())

		stats, ok := s.LoaderStats()
		require.True(t, ok)
		assert.Equal(t, 1, stats.CurrentPage)
	})

	t.Run("Lazy Falls Back To Eager", func(t *testing.T) {
		store := newMemStore()
		store.seed(5)
		store.listMetaErr = errDisk
		s := newState(t, store, state.Config{LoadMode: state.LoadLazy})
		assert.Equal(t, state.LoadEager, s.Mode())
		assert.Len(t, s.Notes(), 5)
	})

	t.Run("Eager List Failure Is Returned", func(t *testing.T) {
		store := newMemStore()
		store.listErr = errDisk
		_, err := state.New(context.Background(), store, state.Config{LoadMode: state.LoadEager})
		assert.ErrorIs(t, err, errDisk)
	})

	t.Run("Repairs Stored Groups", func(t *testing.T) {
		store := newMemStore()
		root := core.Group{ID: uuid.New(), Name: "root"}
		store.groups = []core.Group{root, {ID: uuid.New(), Name: "child", ParentID: core.Ref(root.ID), Level: 5}}
		s := newState(t, store, state.Config{})
		require.NoError(t, s.GroupTree().Check())
	})
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()

	t.Run("Persists And Inserts", func(t *testing.T) {
		store := newMemStore()
		s := newState(t, store, state.Config{})

		n, err := s.CreateNote(ctx, "  Hello  ", "world", core.NoRef)
		require.NoError(t, err)
		assert.Equal(t, "Hello", n.Title)
		assert.Contains(t, store.notes, n.ID)
		got, ok := s.Note(n.ID)
		require.True(t, ok)
		assert.Equal(t, n, got)
	})

	t.Run("Validation Reports Every Problem", func(t *testing.T) {
		store := newMemStore()
		s := newState(t, store, state.Config{})

		_, err := s.CreateNote(ctx, " ", strings.Repeat("x", validation.MaxContentLength+1), core.NoRef)
		assert.ErrorIs(t, err, validation.ErrEmptyTitle)
		assert.ErrorIs(t, err, validation.ErrContentTooLong)
		assert.Empty(t, store.notes)
		assert.Empty(t, s.Notes())
	})

	t.Run("Unknown Group Is Rejected", func(t *testing.T) {
		s := newState(t, newMemStore(), state.Config{})
		_, err := s.CreateNote(ctx, "x", "", core.Ref(uuid.New()))
		assert.ErrorIs(t, err, validation.ErrGroupNotFound)
	})

	t.Run("Store Failure Leaves Memory Untouched", func(t *testing.T) {
		store := newMemStore()
		store.saveAllErr = errDisk
		s := newState(t, store, state.Config{})

		_, err := s.CreateNote(ctx, "x", "", core.NoRef)
		assert.ErrorIs(t, err, errDisk)
		assert.Empty(t, s.Notes())
	})
}

func TestNoteOrdering(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(3)
	s := newState(t, store, state.Config{})

	order := func() []uuid.UUID {
		var out []uuid.UUID
		for _, n := range s.Notes() {
			out = append(out, n.ID)
		}
		return out
	}
	assert.Equal(t, ids, order(), "newest first")

	pinned, err := s.TogglePin(ctx, ids[2])
	require.NoError(t, err)
	assert.True(t, pinned)
	assert.Equal(t, []uuid.UUID{ids[2], ids[0], ids[1]}, order(), "pinned first")
	assert.True(t, store.notes[ids[2]].Pinned)

	pinned, err = s.TogglePin(ctx, ids[2])
	require.NoError(t, err)
	assert.False(t, pinned)
	assert.Equal(t, ids, order())
}

func TestUpdateNote(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(1)
	s := newState(t, store, state.Config{})
	before := store.notes[ids[0]]

	t.Run("Blank Title Is Ignored", func(t *testing.T) {
		n, err := s.UpdateNote(ctx, ids[0], ptr("   "), ptr("new content"))
		require.NoError(t, err)
		assert.Equal(t, before.Title, n.Title)
		assert.Equal(t, "new content", n.Content)
		assert.True(t, n.UpdatedAt.After(before.UpdatedAt))
		assert.Equal(t, before.CreatedAt, n.CreatedAt)
	})

	t.Run("Idempotent Upsert", func(t *testing.T) {
		first, err := s.UpdateNote(ctx, ids[0], nil, ptr("v1"))
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		second, err := s.UpdateNote(ctx, ids[0], nil, ptr("v2"))
		require.NoError(t, err)

		assert.Len(t, store.notes, 1)
		assert.Equal(t, "v2", store.notes[ids[0]].Content)
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("No Change Keeps UpdatedAt", func(t *testing.T) {
		current, _ := s.Note(ids[0])
		time.Sleep(time.Millisecond)

		n, err := s.UpdateNote(ctx, ids[0], nil, nil)
		require.NoError(t, err)
		assert.Equal(t, current.UpdatedAt, n.UpdatedAt)

		n, err = s.UpdateNote(ctx, ids[0], ptr(" "), ptr(current.Content))
		require.NoError(t, err)
		assert.Equal(t, current.UpdatedAt, n.UpdatedAt)
		assert.True(t, store.notes[ids[0]].UpdatedAt.Equal(current.UpdatedAt))
	})

	t.Run("Title Is Trimmed And Checked", func(t *testing.T) {
		n, err := s.UpdateNote(ctx, ids[0], ptr(" Renamed "), nil)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", n.Title)

		_, err = s.UpdateNote(ctx, ids[0], ptr(strings.Repeat("t", validation.MaxTitleLength+1)), nil)
		assert.ErrorIs(t, err, validation.ErrTitleTooLong)
		got, _ := s.Note(ids[0])
		assert.Equal(t, "Renamed", got.Title)
	})

	t.Run("Store Failure Leaves Memory Untouched", func(t *testing.T) {
		store.saveErr[ids[0]] = errDisk
		defer delete(store.saveErr, ids[0])

		_, err := s.UpdateNote(ctx, ids[0], nil, ptr("lost"))
		assert.ErrorIs(t, err, errDisk)
		got, _ := s.Note(ids[0])
		assert.NotEqual(t, "lost", got.Content)
	})

	t.Run("Unknown Note", func(t *testing.T) {
		_, err := s.UpdateNote(ctx, uuid.New(), ptr("x"), nil)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestSetNoteGroup(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(1)
	s := newState(t, store, state.Config{})

	g, err := s.CreateGroup(ctx, "Work", core.NoRef, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetNoteGroup(ctx, ids[0], core.Ref(g.ID)))
	assert.Equal(t, core.Ref(g.ID), store.notes[ids[0]].GroupID)
	assert.Len(t, s.NotesInGroup(core.Ref(g.ID)), 1)
	assert.Empty(t, s.UngroupedNotes())
	assert.Equal(t, map[uuid.UUID]int{g.ID: 1}, s.GroupNoteCounts())

	assert.ErrorIs(t, s.SetNoteGroup(ctx, ids[0], core.Ref(uuid.New())), validation.ErrGroupNotFound)

	require.NoError(t, s.SetNoteGroup(ctx, ids[0], core.NoRef))
	assert.Len(t, s.UngroupedNotes(), 1)
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(2)
	s := newState(t, store, state.Config{})

	require.NoError(t, s.DeleteNote(ctx, ids[0]))
	assert.NotContains(t, store.notes, ids[0])
	_, ok := s.Note(ids[0])
	assert.False(t, ok)

	assert.ErrorIs(t, s.DeleteNote(ctx, ids[0]), core.ErrNotFound)

	// Removed behind our back: the stale copy is forgotten, the error surfaces.
	delete(store.notes, ids[1])
	assert.ErrorIs(t, s.DeleteNote(ctx, ids[1]), core.ErrNotFound)
	assert.Empty(t, s.Notes())
}

func TestLazyPaging(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(45)
	s := newState(t, store, state.Config{LoadMode: state.LoadLazy, Loader: loader.Config{PageSize: 20}})
	require.Len(t, s.Notes(), 20)

	t.Run("Top Of List Is Within A Page", func(t *testing.T) {
		loaded, err := s.LoadMoreIfNeeded(ctx, loader.Range{First: 0, Last: -1})
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Len(t, s.Notes(), 40)

		loaded, err = s.LoadMoreIfNeeded(ctx, loader.Range{First: 0, Last: 5})
		require.NoError(t, err)
		assert.False(t, loaded)
	})

	t.Run("Near Boundary Loads The Rest", func(t *testing.T) {
		loaded, err := s.LoadMoreIfNeeded(ctx, loader.Range{First: 25, Last: 35})
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Len(t, s.Notes(), 45)

		loaded, err = s.LoadMoreIfNeeded(ctx, loader.Range{First: 40, Last: 44})
		require.NoError(t, err)
		assert.False(t, loaded, "nothing left")
	})

	t.Run("Create Keeps Pager Position", func(t *testing.T) {
		_, err := s.CreateNote(ctx, "fresh", "", core.NoRef)
		require.NoError(t, err)
		assert.Len(t, s.Notes(), 46)
		assert.Equal(t, 46, s.TotalNotes())

		stats, _ := s.LoaderStats()
		assert.Equal(t, 3, stats.CurrentPage)

		seen := make(map[uuid.UUID]bool)
		for _, n := range s.Notes() {
			require.False(t, seen[n.ID], "duplicate %s", n.ID)
			seen[n.ID] = true
		}
	})

	t.Run("Switch To Eager", func(t *testing.T) {
		require.NoError(t, s.SwitchLoadMode(ctx, state.LoadEager))
		assert.Equal(t, state.LoadEager, s.Mode())
		assert.Len(t, s.Notes(), 46)
		assert.False(t, s.IsNoteCached(46))
		assert.True(t, s.IsNoteCached(45))

		loaded, err := s.LoadMoreIfNeeded(ctx, loader.Range{First: 40, Last: 45})
		require.NoError(t, err)
		assert.False(t, loaded)
	})
}

func TestLazyDeleteKeepsEveryNoteReachable(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(45)
	s := newState(t, store, state.Config{LoadMode: state.LoadLazy, Loader: loader.Config{PageSize: 20}})
	require.Len(t, s.Notes(), 20)

	require.NoError(t, s.DeleteNote(ctx, ids[0]))
	assert.Equal(t, 44, s.TotalNotes())

	for range 10 {
		_, err := s.LoadMoreIfNeeded(ctx, loader.Range{First: 0, Last: 1000})
		require.NoError(t, err)
	}
	require.Len(t, s.Notes(), 44)

	for _, id := range ids[1:] {
		_, ok := s.Note(id)
		assert.True(t, ok, "note %s never loaded", id)
	}
}

func TestPage(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(25)

	for _, mode := range []state.LoadMode{state.LoadEager, state.LoadLazy} {
		t.Run(string(mode), func(t *testing.T) {
			s := newState(t, store, state.Config{LoadMode: mode, Loader: loader.Config{PageSize: 10}})

			page, err := s.Page(ctx, 2)
			require.NoError(t, err)
			require.Len(t, page, 5)
			assert.Equal(t, ids[20], page[0].ID)

			page, err = s.Page(ctx, 3)
			require.NoError(t, err)
			assert.Empty(t, page)
		})
	}
}

func TestLazyMetadata(t *testing.T) {
	store := newMemStore()
	ids := store.seed(5)
	s := newState(t, store, state.Config{LoadMode: state.LoadLazy, Loader: loader.Config{PageSize: 2, PrefetchPages: -1}})

	m, ok := s.NoteMetadata(4)
	require.True(t, ok)
	assert.Equal(t, ids[4], m.ID)
	assert.True(t, s.IsNoteCached(1))
	assert.False(t, s.IsNoteCached(4))

	eager := newState(t, store, state.Config{LoadMode: state.LoadEager})
	_, ok = eager.NoteMetadata(0)
	assert.False(t, ok)
}

func TestScratchpad(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.scratchpad = "start:"
	ids := store.seed(1)
	s := newState(t, store, state.Config{})
	assert.Equal(t, "start:", s.Scratchpad())

	require.NoError(t, s.AppendNoteToScratchpad(ctx, ids[0]))
	assert.Equal(t, "start:content", s.Scratchpad())
	assert.Equal(t, "start:content", store.scratchpad)

	require.NoError(t, s.SetScratchpad(ctx, "reset"))
	assert.Equal(t, "reset", store.scratchpad)

	store.saveAllErr = errDisk
	assert.ErrorIs(t, s.SetScratchpad(ctx, "lost"), errDisk)
	assert.Equal(t, "reset", s.Scratchpad())

	assert.ErrorIs(t, s.AppendNoteToScratchpad(ctx, uuid.New()), core.ErrNotFound)

	bare := newState(t, bareStore{newMemStore()}, state.Config{})
	assert.ErrorIs(t, bare.SetScratchpad(ctx, "x"), state.ErrUnsupported)
	_, err := bare.Watch(ctx, "")
	assert.ErrorIs(t, err, state.ErrUnsupported)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ids := store.seed(3)
	s := newState(t, store, state.Config{})
	_, err := s.TogglePin(ctx, ids[1])
	require.NoError(t, err)
	_, err = s.CreateGroup(ctx, "g", core.NoRef, nil)
	require.NoError(t, err)

	snap, ok := s.State().(state.Snapshot)
	require.True(t, ok)
	assert.Equal(t, state.LoadEager, snap.Mode)
	assert.Equal(t, 3, snap.TotalNotes)
	assert.Equal(t, 1, snap.PinnedNotes)
	assert.Equal(t, 1, snap.Groups)
	assert.Nil(t, snap.Loader)
	assert.Equal(t, "state", s.ComponentType())
}
