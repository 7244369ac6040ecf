package state_test

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
)

// memStore is an in-memory core.NoteStore with injectable failures.
type memStore struct {
	notes      map[uuid.UUID]core.Note
	groups     []core.Group
	scratchpad string

	saveErr       map[uuid.UUID]error
	saveAllErr    error
	saveGroupsErr error
	listErr       error
	listMetaErr   error
	saves         int
	groupSaves    int
}

func newMemStore() *memStore {
	return &memStore{
		notes:   make(map[uuid.UUID]core.Note),
		saveErr: make(map[uuid.UUID]error),
	}
}

// seed stores n notes created one minute apart, newest first, and returns
// their IDs in that order.
func (m *memStore) seed(n int) []uuid.UUID {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, n)
	for i := range n {
		note := core.NewNote(fmt.Sprintf("note %d", i), "content", core.NoRef)
		note.CreatedAt = base.Add(-time.Duration(i) * time.Minute)
		m.notes[note.ID] = note
		ids[i] = note.ID
	}
	return ids
}

func (m *memStore) sorted() []core.Note {
	out := make([]core.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b core.Note) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), bytes.Compare(a.ID[:], b.ID[:]))
	})
	return out
}

func (m *memStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var ids []uuid.UUID
	for _, n := range m.sorted() {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

func (m *memStore) ListMetadata(ctx context.Context) ([]core.NoteMetadata, error) {
	if m.listMetaErr != nil {
		return nil, m.listMetaErr
	}
	var out []core.NoteMetadata
	for _, n := range m.sorted() {
		out = append(out, n.Metadata())
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (core.Note, error) {
	n, ok := m.notes[id]
	if !ok {
		return core.Note{}, fmt.Errorf("note %s: %w", id, core.ErrNotFound)
	}
	return n, nil
}

func (m *memStore) List(ctx context.Context) ([]core.Note, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(), nil
}

func (m *memStore) Save(ctx context.Context, n core.Note) error {
	if err := m.saveErr[n.ID]; err != nil {
		return err
	}
	if m.saveAllErr != nil {
		return m.saveAllErr
	}
	m.saves++
	m.notes[n.ID] = n
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("note %s: %w", id, core.ErrNotFound)
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) LoadGroups(ctx context.Context) ([]core.Group, error) {
	return slices.Clone(m.groups), nil
}

func (m *memStore) SaveGroups(ctx context.Context, groups []core.Group) error {
	if m.saveGroupsErr != nil {
		return m.saveGroupsErr
	}
	m.groupSaves++
	m.groups = slices.Clone(groups)
	return nil
}

func (m *memStore) Initialize(ctx context.Context) error { return nil }

func (m *memStore) LoadScratchpad(ctx context.Context) (string, error) {
	return m.scratchpad, nil
}

func (m *memStore) SaveScratchpad(ctx context.Context, text string) error {
	if m.saveAllErr != nil {
		return m.saveAllErr
	}
	m.scratchpad = text
	return nil
}

// bareStore hides the optional capabilities of memStore.
type bareStore struct {
	core.NoteStore
}
