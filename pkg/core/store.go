package core

import (
	"context"

	"github.com/google/uuid"
)

// NoteStore defines the contract for storing and retrieving notes and groups.
// Adhering to this interface keeps the state layer independent of the
// underlying storage mechanism.
//
// All operations are synchronous: they complete (or fail) before returning.
type NoteStore interface {
	// ListIDs enumerates note identifiers without parsing note content.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListMetadata returns the summary of every note, newest first.
	ListMetadata(ctx context.Context) ([]NoteMetadata, error)

	// Get retrieves a note by its ID. It returns ErrNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (Note, error)

	// List loads every note, sorted by creation time descending.
	List(ctx context.Context) ([]Note, error)

	// Save persists a note. It creates if not exists, or replaces it if it does.
	Save(ctx context.Context, n Note) error

	// Delete removes a note by its ID. It returns ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// LoadGroups reads the whole group collection.
	LoadGroups(ctx context.Context) ([]Group, error)

	// SaveGroups replaces the whole group collection atomically.
	SaveGroups(ctx context.Context, groups []Group) error

	// Initialize ensures the underlying storage is ready (e.g., create directories).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for stores that can report changes made
// outside of this process.
type Watchable interface {
	// Watch emits events for notes whose storage name matches pattern.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Scratchpad defines an interface for stores that keep a single free-form
// text buffer next to the notes.
type Scratchpad interface {
	LoadScratchpad(ctx context.Context) (string, error)
	SaveScratchpad(ctx context.Context, text string) error
}
