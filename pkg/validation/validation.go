// Package validation holds the pure checks shared by the note and group
// mutation paths. Checks never fail fast: every problem found is collected
// into a Result so callers can report them in one round trip.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
)

// Limits. Lengths are measured in bytes.
const (
	MaxTitleLength     = 255
	MaxContentLength   = 1 << 20
	MaxGroupNameLength = 100
	MaxGroupDepth      = 10
)

// Kind classifies a validation failure.
type Kind int

const (
	EmptyTitle Kind = iota + 1
	TitleTooLong
	ContentTooLong
	EmptyGroupName
	GroupNameTooLong
	CircularGroupDependency
	GroupNotFound
	InvalidGroupHierarchy
)

// Error is a single validation failure. Length is set for the *TooLong kinds,
// GroupID for CircularGroupDependency and GroupNotFound.
type Error struct {
	Kind    Kind
	Length  int
	GroupID uuid.UUID
}

// Sentinels for errors.Is. They match any Error of the same Kind.
var (
	ErrEmptyTitle              = &Error{Kind: EmptyTitle}
	ErrTitleTooLong            = &Error{Kind: TitleTooLong}
	ErrContentTooLong          = &Error{Kind: ContentTooLong}
	ErrEmptyGroupName          = &Error{Kind: EmptyGroupName}
	ErrGroupNameTooLong        = &Error{Kind: GroupNameTooLong}
	ErrCircularGroupDependency = &Error{Kind: CircularGroupDependency}
	ErrGroupNotFound           = &Error{Kind: GroupNotFound}
	ErrInvalidGroupHierarchy   = &Error{Kind: InvalidGroupHierarchy}
)

func (e *Error) Error() string {
	switch e.Kind {
	case EmptyTitle:
		return "note title cannot be empty"
	case TitleTooLong:
		return fmt.Sprintf("note title too long: %d bytes (max %d)", e.Length, MaxTitleLength)
	case ContentTooLong:
		return fmt.Sprintf("note content too long: %d bytes (max %d)", e.Length, MaxContentLength)
	case EmptyGroupName:
		return "group name cannot be empty"
	case GroupNameTooLong:
		return fmt.Sprintf("group name too long: %d bytes (max %d)", e.Length, MaxGroupNameLength)
	case CircularGroupDependency:
		return fmt.Sprintf("circular dependency detected for group %s", e.GroupID)
	case GroupNotFound:
		return fmt.Sprintf("group %s not found", e.GroupID)
	case InvalidGroupHierarchy:
		return fmt.Sprintf("invalid group hierarchy (max depth %d)", MaxGroupDepth)
	default:
		return "invalid input"
	}
}

// Is matches errors of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Result aggregates every failure found by a check.
type Result struct {
	Errors []*Error
}

// Valid reports whether no failure was recorded.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Add records a failure.
func (r *Result) Add(err *Error) {
	r.Errors = append(r.Errors, err)
}

// Has reports whether a failure of kind k was recorded.
func (r Result) Has(k Kind) bool {
	for _, e := range r.Errors {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// Err returns nil when valid, otherwise all failures joined into one error.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Message renders all failures as one human-readable line.
func (r Result) Message() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, ", ")
}

// Note checks the fields of a note being created or edited.
func Note(title, content string) Result {
	var r Result
	titleFields(&r, title)
	if len(content) > MaxContentLength {
		r.Add(&Error{Kind: ContentTooLong, Length: len(content)})
	}
	return r
}

// Title checks a note title alone.
func Title(title string) Result {
	var r Result
	titleFields(&r, title)
	return r
}

func titleFields(r *Result, title string) {
	if strings.TrimSpace(title) == "" {
		r.Add(&Error{Kind: EmptyTitle})
	} else if len(title) > MaxTitleLength {
		r.Add(&Error{Kind: TitleTooLong, Length: len(title)})
	}
}

// GroupName checks a group name alone.
func GroupName(name string) Result {
	var r Result
	if strings.TrimSpace(name) == "" {
		r.Add(&Error{Kind: EmptyGroupName})
	} else if len(name) > MaxGroupNameLength {
		r.Add(&Error{Kind: GroupNameTooLong, Length: len(name)})
	}
	return r
}

// GroupCreation checks the name and, when parentID is set, that the parent
// exists and still has room for a child below MaxGroupDepth.
func GroupCreation(name string, parentID uuid.NullUUID, groups []core.Group) Result {
	r := GroupName(name)
	if !parentID.Valid {
		return r
	}
	parent, ok := find(groups, parentID.UUID)
	if !ok {
		r.Add(&Error{Kind: GroupNotFound, GroupID: parentID.UUID})
		return r
	}
	if parent.Level >= MaxGroupDepth {
		r.Add(&Error{Kind: InvalidGroupHierarchy})
	}
	return r
}

// ParentChange checks that groupID may be moved under newParentID: the new
// parent must exist and must not be groupID itself or one of its descendants.
func ParentChange(groupID uuid.UUID, newParentID uuid.NullUUID, groups []core.Group) Result {
	var r Result
	if !newParentID.Valid {
		return r
	}
	if _, ok := find(groups, newParentID.UUID); !ok {
		r.Add(&Error{Kind: GroupNotFound, GroupID: newParentID.UUID})
		return r
	}
	if WouldCreateCycle(groupID, newParentID.UUID, groups) {
		r.Add(&Error{Kind: CircularGroupDependency, GroupID: groupID})
	}
	return r
}

// WouldCreateCycle walks the ancestor chain starting at newParentID and
// reports whether it reaches groupID. A loop that does not pass through
// groupID (corrupted data) stops the walk without reporting a cycle.
func WouldCreateCycle(groupID, newParentID uuid.UUID, groups []core.Group) bool {
	parents := make(map[uuid.UUID]uuid.NullUUID, len(groups))
	for _, g := range groups {
		parents[g.ID] = g.ParentID
	}

	visited := make(map[uuid.UUID]bool)
	current := newParentID
	for {
		if current == groupID {
			return true
		}
		if visited[current] {
			return false
		}
		visited[current] = true

		parent, ok := parents[current]
		if !ok || !parent.Valid {
			return false
		}
		current = parent.UUID
	}
}

func find(groups []core.Group, id uuid.UUID) (core.Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return core.Group{}, false
}
