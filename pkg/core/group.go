package core

import "github.com/google/uuid"

// Group is a named, optionally nested container for notes.
// Level is derived from the parent chain and is never set by callers directly.
type Group struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Collapsed bool          `json:"collapsed"`
	ParentID  uuid.NullUUID `json:"parent_id"`
	Level     int           `json:"level"`
}

// IsRoot reports whether the group has no parent.
func (g Group) IsRoot() bool {
	return !g.ParentID.Valid
}
