package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/validation"
)

// Notes returns a copy of the in-memory notes, pinned first then newest
// first. In lazy mode this is the loaded prefix only.
func (s *State) Notes() []core.Note {
	return slices.Clone(s.notes)
}

// Note returns the in-memory note with id.
func (s *State) Note(id uuid.UUID) (core.Note, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.notes[i], true
	}
	return core.Note{}, false
}

func (s *State) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.notes, func(n core.Note) bool { return n.ID == id })
}

// Lookup returns the note with id from memory, or reads it from the store
// when it has not been loaded yet.
func (s *State) Lookup(ctx context.Context, id uuid.UUID) (core.Note, error) {
	return s.lookup(ctx, id)
}

func (s *State) lookup(ctx context.Context, id uuid.UUID) (core.Note, error) {
	if n, ok := s.Note(id); ok {
		return n, nil
	}
	return s.store.Get(ctx, id)
}

// commit replaces or inserts n in memory and re-sorts.
func (s *State) commit(n core.Note) {
	if i := s.indexOf(n.ID); i >= 0 {
		s.notes[i] = n
	} else {
		s.notes = append(s.notes, n)
	}
	sortNotes(s.notes)
	if s.loader != nil {
		s.loader.Update(n)
	}
}

func (s *State) drop(id uuid.UUID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.notes = slices.Delete(s.notes, i, i+1)
	return true
}

func (s *State) checkGroupRef(groupID uuid.NullUUID) error {
	if groupID.Valid && !s.tree.Contains(groupID.UUID) {
		return &validation.Error{Kind: validation.GroupNotFound, GroupID: groupID.UUID}
	}
	return nil
}

// CreateNote validates, persists and inserts a new note.
func (s *State) CreateNote(ctx context.Context, title, content string, groupID uuid.NullUUID) (core.Note, error) {
	log := s.logger.With("op", "create", "entity", "note")

	if err := validation.Note(title, content).Err(); err != nil {
		log.Error("validation failed", "error", err)
		return core.Note{}, err
	}
	if err := s.checkGroupRef(groupID); err != nil {
		log.Error("validation failed", "error", err)
		return core.Note{}, err
	}

	n := core.NewNote(title, content, groupID)
	log = log.With("id", n.ID)
	log.Info("creating note", "title", n.Title)

	if err := s.store.Save(ctx, n); err != nil {
		log.Error("save failed", "error", err)
		return core.Note{}, fmt.Errorf("failed to save note: %w", err)
	}
	s.commit(n)
	s.reindex(ctx)

	log.Info("note created")
	return n, nil
}

// UpdateNote changes the title and/or content of a note. A nil field is left
// alone; a blank title is ignored. When neither field changes the note is
// returned as is, without a write or a new UpdatedAt.
func (s *State) UpdateNote(ctx context.Context, id uuid.UUID, title, content *string) (core.Note, error) {
	log := s.logger.With("op", "update", "entity", "note", "id", id)

	n, err := s.lookup(ctx, id)
	if err != nil {
		return core.Note{}, err
	}

	var r validation.Result
	changed := false
	if title != nil && strings.TrimSpace(*title) != "" {
		r.Errors = append(r.Errors, validation.Title(*title).Errors...)
		trimmed := strings.TrimSpace(*title)
		changed = changed || trimmed != n.Title
		n.Title = trimmed
	}
	if content != nil {
		if len(*content) > validation.MaxContentLength {
			r.Add(&validation.Error{Kind: validation.ContentTooLong, Length: len(*content)})
		}
		changed = changed || *content != n.Content
		n.Content = *content
	}
	if err := r.Err(); err != nil {
		log.Error("validation failed", "error", err)
		return core.Note{}, err
	}
	if !changed {
		log.Debug("nothing to update")
		return n, nil
	}
	n.Touch()

	if err := s.store.Save(ctx, n); err != nil {
		log.Error("save failed", "error", err)
		return core.Note{}, fmt.Errorf("failed to save note: %w", err)
	}
	s.commit(n)
	log.Info("note updated")
	return n, nil
}

// TogglePin flips the pinned flag and returns the new value.
func (s *State) TogglePin(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := s.lookup(ctx, id)
	if err != nil {
		return false, err
	}
	n.Pinned = !n.Pinned

	if err := s.store.Save(ctx, n); err != nil {
		s.logger.Error("save failed", "op", "pin", "entity", "note", "id", id, "error", err)
		return false, fmt.Errorf("failed to save note: %w", err)
	}
	s.commit(n)
	return n.Pinned, nil
}

// SetNoteGroup moves a note into groupID, or out of any group when groupID
// is unset.
func (s *State) SetNoteGroup(ctx context.Context, id uuid.UUID, groupID uuid.NullUUID) error {
	log := s.logger.With("op", "move", "entity", "note", "id", id)
	if err := s.checkGroupRef(groupID); err != nil {
		log.Error("validation failed", "error", err)
		return err
	}

	n, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if n.GroupID == groupID {
		return nil
	}
	n.GroupID = groupID

	if err := s.store.Save(ctx, n); err != nil {
		log.Error("save failed", "error", err)
		return fmt.Errorf("failed to save note: %w", err)
	}
	s.commit(n)
	return nil
}

// DeleteNote removes a note from the store and from memory. Deleting an
// unknown note returns core.ErrNotFound.
func (s *State) DeleteNote(ctx context.Context, id uuid.UUID) error {
	log := s.logger.With("op", "delete", "entity", "note", "id", id)

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) && s.drop(id) {
			// Already gone from disk; forget the stale copy.
			s.reindex(ctx)
		}
		log.Error("delete failed", "error", err)
		return err
	}
	s.drop(id)
	s.reindex(ctx)
	log.Info("note deleted")
	return nil
}
