package wm

import (
	"github.com/glasskit/windowd/internal/domain/geometry"
)

// TaskGroup is a group of screen units presented together: one stack
// with its own identity, bounds, and windowing mode. Task groups nest
// for split-screen and embedding; leaf task groups directly contain
// screen units.
type TaskGroup struct {
	c  *Container
	wm *Manager

	ID       int
	Affinity string

	// BaseIntent and Description are opaque launch metadata carried
	// for the organizer and recents, never interpreted by the core.
	BaseIntent  string
	Description string

	ResizeMode         ResizeMode
	CreatedByOrganizer bool

	// reuse marks an empty task group that should survive until its
	// next launch instead of being garbage collected.
	reuse bool

	forceHidden bool
	everVisible bool

	// lastNonFullscreenBounds caches the freeform placement to restore
	// the next time this task enters a bounds-persisting mode. Never
	// consulted while fullscreen.
	lastNonFullscreenBounds geometry.Rect

	// At most one descendant unit is resumed, and at most one pausing.
	resumedUnit *ScreenUnit
	pausingUnit *ScreenUnit

	// lastPausedUnit is reference hygiene only: cleared on process
	// death so nothing waits on a pause that can no longer complete.
	lastPausedUnit *ScreenUnit

	// Affiliation chain for recents grouping. Mutating it never
	// affects parent/child relationships.
	prevAffiliate *TaskGroup
	nextAffiliate *TaskGroup

	// dirty marks organizer-relevant state changes awaiting dispatch.
	dirty bool
}

// Container returns the underlying tree node.
func (t *TaskGroup) Container() *Container { return t.c }

// Mode returns the resolved windowing mode.
func (t *TaskGroup) Mode() WindowingMode { return t.c.resolved.Mode }

// Type returns the resolved activity type.
func (t *TaskGroup) Type() ActivityType { return t.c.resolved.Type }

// Bounds returns the resolved bounds.
func (t *TaskGroup) Bounds() geometry.Rect { return t.c.resolved.Bounds }

// ResumedUnit returns the unit currently resumed in this task group.
func (t *TaskGroup) ResumedUnit() *ScreenUnit { return t.resumedUnit }

// PausingUnit returns the unit currently awaiting a pause ack.
func (t *TaskGroup) PausingUnit() *ScreenUnit { return t.pausingUnit }

// IsLeaf reports whether this task group directly contains units
// rather than child task groups. An empty task group counts as leaf.
func (t *TaskGroup) IsLeaf() bool {
	for _, ch := range t.c.children {
		if ch.kind == KindTask {
			return false
		}
	}
	return true
}

// parentTaskGroup returns the parent when it is itself a task group.
func (t *TaskGroup) parentTaskGroup() *TaskGroup {
	return t.c.parentTask()
}

// TopRunningUnit returns the topmost descendant unit that still counts
// as running, or nil.
func (t *TaskGroup) TopRunningUnit() *ScreenUnit {
	var found *ScreenUnit
	t.c.ForAllDescendants(func(c *Container) bool {
		if c.kind == KindUnit && c.unit.Running() {
			found = c.unit
			return false
		}
		return true
	}, true)
	return found
}

// TopUnit returns the topmost descendant unit regardless of state.
func (t *TaskGroup) TopUnit() *ScreenUnit {
	var found *ScreenUnit
	t.c.ForAllDescendants(func(c *Container) bool {
		if c.kind == KindUnit {
			found = c.unit
			return false
		}
		return true
	}, true)
	return found
}

// HasRunningUnits reports whether any descendant unit is running.
func (t *TaskGroup) HasRunningUnits() bool {
	return t.TopRunningUnit() != nil
}

// UnitCount counts all descendant units.
func (t *TaskGroup) UnitCount() int {
	n := 0
	t.c.ForAllDescendants(func(c *Container) bool {
		if c.kind == KindUnit {
			n++
		}
		return true
	}, false)
	return n
}

// forAllLeafTasks visits every leaf task group in the subtree rooted
// at t, including t itself when it is a leaf, topmost first.
func (t *TaskGroup) forAllLeafTasks(visit func(*TaskGroup) bool) bool {
	if t.IsLeaf() {
		return visit(t)
	}
	for i := len(t.c.children) - 1; i >= 0; i-- {
		ch := t.c.children[i]
		if ch.kind == KindTask {
			if !ch.task.forAllLeafTasks(visit) {
				return false
			}
		}
	}
	return true
}

// isFocusable reports whether the task group can hold input focus:
// attached, not force-hidden, and with something running (home counts
// even when empty, it always has an implicit presence).
func (t *TaskGroup) isFocusable() bool {
	if !t.c.Attached() || t.forceHidden {
		return false
	}
	return t.HasRunningUnits() || t.Type() == TypeHome
}

// markDirty queues this task group for organizer dispatch at the end
// of the current mutation batch.
func (t *TaskGroup) markDirty() {
	if t.wm != nil {
		t.wm.noteTaskChanged(t)
	}
}

// SetNextAffiliate links n after t in the affiliation chain, detaching
// n from any previous position. Pure list surgery, parent/child links
// are untouched.
func (t *TaskGroup) SetNextAffiliate(n *TaskGroup) {
	if n != nil {
		n.RemoveFromAffiliationChain()
	}
	if old := t.nextAffiliate; old != nil {
		old.prevAffiliate = nil
	}
	t.nextAffiliate = n
	if n != nil {
		n.prevAffiliate = t
	}
}

// RemoveFromAffiliationChain splices t out of the chain.
func (t *TaskGroup) RemoveFromAffiliationChain() {
	if t.prevAffiliate != nil {
		t.prevAffiliate.nextAffiliate = t.nextAffiliate
	}
	if t.nextAffiliate != nil {
		t.nextAffiliate.prevAffiliate = t.prevAffiliate
	}
	t.prevAffiliate = nil
	t.nextAffiliate = nil
}

// AffiliatedTasks returns the chain t belongs to, front to back.
func (t *TaskGroup) AffiliatedTasks() []*TaskGroup {
	head := t
	for head.prevAffiliate != nil {
		head = head.prevAffiliate
	}
	var out []*TaskGroup
	for n := head; n != nil; n = n.nextAffiliate {
		out = append(out, n)
	}
	return out
}

// shouldBeRemoved reports whether an empty task group can be garbage
// collected: no children, not organizer-owned, not marked for reuse.
func (t *TaskGroup) shouldBeRemoved() bool {
	return t.c.ChildCount() == 0 && !t.CreatedByOrganizer && !t.reuse
}
