package grouptree

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
	"github.com/aretw0/mimir/pkg/validation"
)

// Roots returns the groups without a parent, in insertion order.
func (t *Tree) Roots() []core.Group {
	var out []core.Group
	for _, g := range t.groups {
		if g.IsRoot() {
			out = append(out, g)
		}
	}
	return out
}

// Children returns the direct children of id, in insertion order.
func (t *Tree) Children(id uuid.UUID) []core.Group {
	var out []core.Group
	for _, g := range t.groups {
		if g.ParentID == core.Ref(id) {
			out = append(out, g)
		}
	}
	return out
}

// Descendants returns the IDs of every group below id.
func (t *Tree) Descendants(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	visited := map[uuid.UUID]bool{id: true}
	stack := []uuid.UUID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, g := range t.groups {
			if g.ParentID == core.Ref(cur) && !visited[g.ID] {
				visited[g.ID] = true
				out = append(out, g.ID)
				stack = append(stack, g.ID)
			}
		}
	}
	return out
}

// Path returns the ancestors of id from its root down to id itself.
func (t *Tree) Path(id uuid.UUID) []core.Group {
	var rev []core.Group
	visited := make(map[uuid.UUID]bool)
	cur, ok := t.Get(id)
	for ok && !visited[cur.ID] {
		visited[cur.ID] = true
		rev = append(rev, cur)
		if cur.IsRoot() {
			break
		}
		cur, ok = t.Get(cur.ParentID.UUID)
	}

	out := make([]core.Group, len(rev))
	for i, g := range rev {
		out[len(rev)-1-i] = g
	}
	return out
}

// Walk visits the hierarchy depth-first, parents before children, siblings in
// insertion order. depth is the distance from the root being walked.
// Returning false from fn skips the children of that group.
func (t *Tree) Walk(fn func(g core.Group, depth int) bool) {
	type item struct {
		g     core.Group
		depth int
	}

	roots := t.Roots()
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], 0})
	}

	visited := make(map[uuid.UUID]bool)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur.g.ID] {
			continue
		}
		visited[cur.g.ID] = true

		if !fn(cur.g, cur.depth) {
			continue
		}
		children := t.Children(cur.g.ID)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{children[i], cur.depth + 1})
		}
	}
}

// Repair restores the invariants on data read from disk: dangling parent
// references are cleared, groups caught in a parent loop become roots,
// groups deeper than the maximum are lifted to the root and every level is
// recomputed. It reports whether anything changed.
func (t *Tree) Repair() bool {
	changed := false

	for i := range t.groups {
		p := t.groups[i].ParentID
		if p.Valid && (p.UUID == t.groups[i].ID || !t.Contains(p.UUID)) {
			t.groups[i].ParentID = core.NoRef
			changed = true
		}
	}

	// Break loops: a group whose ancestor walk revisits a node is cut loose.
	for i := range t.groups {
		if !t.groups[i].ParentID.Valid {
			continue
		}
		if validation.WouldCreateCycle(t.groups[i].ID, t.groups[i].ParentID.UUID, t.groups) {
			t.groups[i].ParentID = core.NoRef
			changed = true
		}
	}

	for _, root := range t.Roots() {
		before := t.Groups()
		t.relevel(root.ID, 0)
		for j, g := range t.groups {
			if g.Level != before[j].Level {
				changed = true
			}
		}
	}

	for i := range t.groups {
		if t.groups[i].Level > validation.MaxGroupDepth {
			t.groups[i].ParentID = core.NoRef
			t.relevel(t.groups[i].ID, 0)
			changed = true
		}
	}

	return changed
}

// Check verifies the tree invariants and returns the first violation found.
func (t *Tree) Check() error {
	seen := make(map[uuid.UUID]bool, len(t.groups))
	for _, g := range t.groups {
		if seen[g.ID] {
			return fmt.Errorf("duplicate group %s", g.ID)
		}
		seen[g.ID] = true
	}

	for _, g := range t.groups {
		if g.IsRoot() {
			if g.Level != 0 {
				return fmt.Errorf("root group %s has level %d", g.ID, g.Level)
			}
			continue
		}
		parent, ok := t.Get(g.ParentID.UUID)
		if !ok {
			return fmt.Errorf("group %s references missing parent %s", g.ID, g.ParentID.UUID)
		}
		if g.Level != parent.Level+1 {
			return fmt.Errorf("group %s has level %d, parent has %d", g.ID, g.Level, parent.Level)
		}
		if g.Level > validation.MaxGroupDepth {
			return fmt.Errorf("group %s exceeds max depth", g.ID)
		}
		if steps := len(t.Path(g.ID)) - 1; steps != g.Level {
			return fmt.Errorf("group %s is %d steps from its root, level says %d", g.ID, steps, g.Level)
		}
	}
	return nil
}
