package state

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/grouptree"
)

// Groups returns a snapshot of the groups in insertion order.
func (s *State) Groups() []core.Group {
	return s.tree.Groups()
}

// Group returns the group with id.
func (s *State) Group(id uuid.UUID) (core.Group, bool) {
	return s.tree.Get(id)
}

// GroupTree returns an independent copy of the hierarchy for rendering.
func (s *State) GroupTree() *grouptree.Tree {
	return s.tree.Clone()
}

// NotesInGroup returns the in-memory notes directly in groupID, in display
// order. An unset groupID selects the ungrouped notes.
func (s *State) NotesInGroup(groupID uuid.NullUUID) []core.Note {
	var out []core.Note
	for _, n := range s.notes {
		if n.GroupID == groupID {
			out = append(out, n)
		}
	}
	return out
}

// UngroupedNotes returns the in-memory notes that belong to no group.
func (s *State) UngroupedNotes() []core.Note {
	return s.NotesInGroup(core.NoRef)
}

// GroupNoteCounts returns the number of notes directly in each group. In
// lazy mode the counts come from the metadata index and cover every note.
func (s *State) GroupNoteCounts() map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, id := range s.memberScan() {
		if id.Valid {
			counts[id.UUID]++
		}
	}
	return counts
}

// memberScan returns the group reference of every known note.
func (s *State) memberScan() []uuid.NullUUID {
	if s.loader == nil {
		refs := make([]uuid.NullUUID, len(s.notes))
		for i, n := range s.notes {
			refs[i] = n.GroupID
		}
		return refs
	}
	refs := make([]uuid.NullUUID, 0, s.loader.TotalCount())
	for i := range s.loader.TotalCount() {
		if m, ok := s.loader.Metadata(i); ok {
			refs = append(refs, m.GroupID)
		}
	}
	return refs
}

// members returns the IDs of every known note directly in groupID.
func (s *State) members(groupID uuid.UUID) []uuid.UUID {
	ref := core.Ref(groupID)
	var ids []uuid.UUID
	for _, n := range s.notes {
		if n.GroupID == ref {
			ids = append(ids, n.ID)
		}
	}
	if s.loader != nil {
		for i := range s.loader.TotalCount() {
			if m, ok := s.loader.Metadata(i); ok && m.GroupID == ref && !slices.Contains(ids, m.ID) {
				ids = append(ids, m.ID)
			}
		}
	}
	return ids
}

// CreateGroup validates and persists a new group, then assigns to it every
// note of noteIDs that is not in a group yet. The assignment is best-effort:
// a note that fails to save is logged and left where it was.
func (s *State) CreateGroup(ctx context.Context, name string, parentID uuid.NullUUID, noteIDs []uuid.UUID) (core.Group, error) {
	log := s.logger.With("op", "create", "entity", "group")

	next := s.tree.Clone()
	g, err := next.Create(name, parentID)
	if err != nil {
		log.Error("validation failed", "error", err)
		return core.Group{}, err
	}
	log = log.With("id", g.ID)
	log.Info("creating group", "name", g.Name)

	if err := s.store.SaveGroups(ctx, next.Groups()); err != nil {
		log.Error("save failed", "error", err)
		return core.Group{}, fmt.Errorf("failed to save groups: %w", err)
	}
	s.tree = next

	moved := s.reassign(ctx, noteIDs, core.Ref(g.ID), func(n core.Note) bool { return !n.GroupID.Valid })
	if moved > 0 {
		log.Info("notes added to group", "count", moved)
	}
	log.Info("group created")
	return g, nil
}

// UpdateGroup renames and/or reparents a group. Reparenting recomputes the
// level of the whole subtree.
func (s *State) UpdateGroup(ctx context.Context, id uuid.UUID, name string, parentID uuid.NullUUID) error {
	log := s.logger.With("op", "update", "entity", "group", "id", id)

	next := s.tree.Clone()
	change, err := next.Update(id, name, parentID)
	if err != nil {
		log.Error("validation failed", "error", err)
		return err
	}

	if err := s.store.SaveGroups(ctx, next.Groups()); err != nil {
		log.Error("save failed", "error", err)
		return fmt.Errorf("failed to save groups: %w", err)
	}
	s.tree = next

	if change.Reparented {
		log.Info("group hierarchy updated", "old_parent", change.OldParent.UUID, "new_parent", parentID.UUID)
	}
	if change.Renamed() {
		log.Info("group renamed", "from", change.OldName, "to", change.NewName)
	}
	log.Info("group updated")
	return nil
}

// DeleteGroup removes a group. Its notes and child groups move to its
// parent, or to the root level when it had none. Notes are moved first and
// best-effort; the group collection is then saved in one write.
func (s *State) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	log := s.logger.With("op", "delete", "entity", "group", "id", id)

	g, ok := s.tree.Get(id)
	if !ok {
		err := fmt.Errorf("group %s: %w", id, core.ErrNotFound)
		log.Error("delete failed", "error", err)
		return err
	}

	moved := s.reassign(ctx, s.members(id), g.ParentID, func(n core.Note) bool { return n.GroupID == core.Ref(id) })

	next := s.tree.Clone()
	removal, err := next.Delete(id)
	if err != nil {
		return err
	}
	if err := s.store.SaveGroups(ctx, next.Groups()); err != nil {
		log.Error("save failed", "error", err)
		return fmt.Errorf("failed to save groups: %w", err)
	}
	s.tree = next

	log.Info("group deleted", "notes_moved", moved, "children_moved", len(removal.Children))
	return nil
}

// ToggleGroupCollapsed flips the collapsed flag and returns the new value.
func (s *State) ToggleGroupCollapsed(ctx context.Context, id uuid.UUID) (bool, error) {
	next := s.tree.Clone()
	collapsed, err := next.ToggleCollapsed(id)
	if err != nil {
		return false, err
	}
	if err := s.store.SaveGroups(ctx, next.Groups()); err != nil {
		s.logger.Error("save failed", "op", "toggle", "entity", "group", "id", id, "error", err)
		return false, fmt.Errorf("failed to save groups: %w", err)
	}
	s.tree = next
	return collapsed, nil
}

// reassign points every note of ids accepted by want at groupID, saving each
// one individually. Failures are logged and skipped. It returns how many
// notes were moved.
func (s *State) reassign(ctx context.Context, ids []uuid.UUID, groupID uuid.NullUUID, want func(core.Note) bool) int {
	moved := 0
	for _, id := range ids {
		log := s.logger.With("op", "update", "entity", "note", "id", id)

		n, err := s.lookup(ctx, id)
		if err != nil {
			log.Error("failed to load note", "error", err)
			continue
		}
		if !want(n) {
			continue
		}
		n.GroupID = groupID

		if err := s.store.Save(ctx, n); err != nil {
			log.Error("save failed", "error", err)
			continue
		}
		// Only notes already in memory are committed; others stay on disk
		// until their page is loaded.
		if s.indexOf(id) >= 0 {
			s.commit(n)
		} else if s.loader != nil {
			s.loader.Update(n)
		}
		moved++
	}
	return moved
}
