// Package grouptree maintains the hierarchy of note groups.
//
// A Tree owns an ordered list of groups and keeps three invariants after every
// successful operation:
//
//   - the parent relation is acyclic;
//   - every parent reference points at a group in the tree;
//   - Level equals the number of edges to the group's root, and never exceeds
//     validation.MaxGroupDepth.
//
// The tree is purely in-memory. Persistence is the caller's concern: the usual
// pattern is Clone, mutate the clone, save its Groups, then swap it in.
package grouptree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/validation"
)

// Tree is the group hierarchy. The zero value is an empty tree.
type Tree struct {
	groups []core.Group
}

// New builds a tree from a snapshot of groups. The snapshot is copied as is;
// call Repair on data read from an untrusted source.
func New(groups []core.Group) *Tree {
	t := &Tree{groups: make([]core.Group, len(groups))}
	copy(t.groups, groups)
	return t
}

// Clone returns an independent copy of the tree.
func (t *Tree) Clone() *Tree {
	return New(t.groups)
}

// Groups returns a copy of all groups in insertion order.
func (t *Tree) Groups() []core.Group {
	out := make([]core.Group, len(t.groups))
	copy(out, t.groups)
	return out
}

// Len returns the number of groups.
func (t *Tree) Len() int {
	return len(t.groups)
}

// Get returns the group with the given ID.
func (t *Tree) Get(id uuid.UUID) (core.Group, bool) {
	if i := t.indexOf(id); i >= 0 {
		return t.groups[i], true
	}
	return core.Group{}, false
}

// Contains reports whether a group with the given ID exists.
func (t *Tree) Contains(id uuid.UUID) bool {
	return t.indexOf(id) >= 0
}

// Create validates and appends a new group under parentID (root when unset).
func (t *Tree) Create(name string, parentID uuid.NullUUID) (core.Group, error) {
	if r := validation.GroupCreation(name, parentID, t.groups); !r.Valid() {
		return core.Group{}, r.Err()
	}

	g := core.Group{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(name),
		ParentID: parentID,
	}
	if parentID.Valid {
		parent, _ := t.Get(parentID.UUID)
		g.Level = parent.Level + 1
	}

	t.groups = append(t.groups, g)
	return g, nil
}

// Change describes what Update did.
type Change struct {
	OldName    string
	NewName    string
	OldParent  uuid.NullUUID
	Reparented bool
}

// Renamed reports whether the name actually changed.
func (c Change) Renamed() bool {
	return c.OldName != c.NewName
}

// Update renames the group and moves it under newParentID.
// The parent is checked first (existence, cycles, depth), then the name.
// When the parent changes, the level of the group and of all its
// descendants is recomputed.
func (t *Tree) Update(id uuid.UUID, name string, newParentID uuid.NullUUID) (Change, error) {
	i := t.indexOf(id)
	if i < 0 {
		return Change{}, &validation.Error{Kind: validation.GroupNotFound, GroupID: id}
	}

	if r := validation.ParentChange(id, newParentID, t.groups); !r.Valid() {
		return Change{}, r.Err()
	}

	newLevel := 0
	if newParentID.Valid {
		parent, _ := t.Get(newParentID.UUID)
		newLevel = parent.Level + 1
	}

	g := t.groups[i]
	if g.ParentID != newParentID && newLevel+t.height(id) > validation.MaxGroupDepth {
		return Change{}, validation.ErrInvalidGroupHierarchy
	}

	if r := validation.GroupName(name); !r.Valid() {
		return Change{}, r.Err()
	}

	change := Change{
		OldName:    g.Name,
		NewName:    strings.TrimSpace(name),
		OldParent:  g.ParentID,
		Reparented: g.ParentID != newParentID,
	}

	t.groups[i].Name = change.NewName
	if change.Reparented {
		t.groups[i].ParentID = newParentID
		t.relevel(id, newLevel)
	}
	return change, nil
}

// Removal describes what Delete did.
type Removal struct {
	Group    core.Group
	Children []uuid.UUID // Direct children moved to Group.ParentID.
}

// Delete removes the group. Its direct children are reparented to the
// deleted group's parent (or become roots) and every level below is
// recomputed.
func (t *Tree) Delete(id uuid.UUID) (Removal, error) {
	i := t.indexOf(id)
	if i < 0 {
		return Removal{}, fmt.Errorf("group %s: %w", id, core.ErrNotFound)
	}

	removed := t.groups[i]
	t.groups = append(t.groups[:i], t.groups[i+1:]...)

	newLevel := 0
	if removed.ParentID.Valid {
		if parent, ok := t.Get(removed.ParentID.UUID); ok {
			newLevel = parent.Level + 1
		}
	}

	var children []uuid.UUID
	for j := range t.groups {
		if t.groups[j].ParentID == core.Ref(id) {
			t.groups[j].ParentID = removed.ParentID
			children = append(children, t.groups[j].ID)
		}
	}
	for _, child := range children {
		t.relevel(child, newLevel)
	}

	return Removal{Group: removed, Children: children}, nil
}

// ToggleCollapsed flips the collapsed flag and returns the new value.
func (t *Tree) ToggleCollapsed(id uuid.UUID) (bool, error) {
	i := t.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("group %s: %w", id, core.ErrNotFound)
	}
	t.groups[i].Collapsed = !t.groups[i].Collapsed
	return t.groups[i].Collapsed, nil
}

// relevel sets the level of id and recomputes every descendant with an
// explicit worklist. Hierarchies loaded from disk may be arbitrarily deep.
func (t *Tree) relevel(id uuid.UUID, level int) {
	type item struct {
		id    uuid.UUID
		level int
	}

	if i := t.indexOf(id); i >= 0 {
		t.groups[i].Level = level
	}

	visited := map[uuid.UUID]bool{id: true}
	stack := []item{{id, level}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for j := range t.groups {
			g := &t.groups[j]
			if g.ParentID != core.Ref(cur.id) || visited[g.ID] {
				continue
			}
			visited[g.ID] = true
			g.Level = cur.level + 1
			stack = append(stack, item{g.ID, g.Level})
		}
	}
}

// height returns the number of edges from id down to its deepest descendant.
func (t *Tree) height(id uuid.UUID) int {
	type item struct {
		id    uuid.UUID
		depth int
	}

	max := 0
	visited := map[uuid.UUID]bool{id: true}
	stack := []item{{id, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.depth > max {
			max = cur.depth
		}
		for _, g := range t.groups {
			if g.ParentID == core.Ref(cur.id) && !visited[g.ID] {
				visited[g.ID] = true
				stack = append(stack, item{g.ID, cur.depth + 1})
			}
		}
	}
	return max
}

func (t *Tree) indexOf(id uuid.UUID) int {
	for i := range t.groups {
		if t.groups[i].ID == id {
			return i
		}
	}
	return -1
}
