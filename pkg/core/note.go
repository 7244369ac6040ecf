package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is the central entity of the domain.
// It is persisted as one JSON document per note; the field tags must stay
// compatible with stores written by earlier versions of the application.
type Note struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Pinned    bool          `json:"pinned"`
	GroupID   uuid.NullUUID `json:"group_id"`
}

// NewNote builds a fresh, unpinned note stamped with the current time.
// The title is trimmed; validation is the caller's concern.
func NewNote(title, content string, groupID uuid.NullUUID) Note {
	now := time.Now().UTC()
	return Note{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		GroupID:   groupID,
	}
}

// Touch refreshes UpdatedAt.
func (n *Note) Touch() {
	n.UpdatedAt = time.Now().UTC()
}

// Metadata returns the lightweight summary of the note.
func (n Note) Metadata() NoteMetadata {
	return NoteMetadata{
		ID:            n.ID,
		Title:         n.Title,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		Pinned:        n.Pinned,
		GroupID:       n.GroupID,
		ContentLength: len(n.Content),
	}
}

// NoteMetadata is the cheap, content-free view of a note used for list rendering.
type NoteMetadata struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Pinned        bool          `json:"pinned"`
	GroupID       uuid.NullUUID `json:"group_id"`
	ContentLength int           `json:"content_length"`
}

// Ref wraps id as a set optional reference.
func Ref(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}

// NoRef is the unset optional reference (ungrouped note, root group).
var NoRef = uuid.NullUUID{}
