package core

import (
	"fmt"

	"github.com/google/uuid"
)

// EventType represents the type of change observed in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
	// EventGroups signals that the group collection file changed.
	EventGroups EventType = "GROUPS"
)

// Event represents a change made to the store, usually by another process.
type Event struct {
	Type      EventType
	ID        uuid.UUID // Zero for EventGroups.
	Timestamp int64     // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	if e.Type == EventGroups {
		return string(e.Type)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
