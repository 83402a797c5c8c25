package wm

import (
	"errors"
	"fmt"
	"math"
)

// Position sentinels for PositionChildAt. They are preserved as
// sentinels when the child is already at that extreme so repeated
// move-to-top calls do not churn the sibling list.
const (
	PositionTop    = math.MaxInt32
	PositionBottom = math.MinInt32
)

var (
	// ErrDetached is returned when an operation targets a container
	// that is no longer attached to any display. This is a caller
	// programming error, not a lifecycle race.
	ErrDetached = errors.New("container is detached from the hierarchy")
	// ErrNotChild is returned when a child operation is invoked with a
	// container that does not belong to the parent.
	ErrNotChild = errors.New("container is not a child of this parent")
)

// ContainerKind tags what a Container node represents.
type ContainerKind int

const (
	KindDisplay ContainerKind = iota
	KindTask
	KindUnit
)

func (k ContainerKind) String() string {
	switch k {
	case KindDisplay:
		return "display"
	case KindTask:
		return "task"
	case KindUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// Container is one node of the window hierarchy: display at the root,
// task groups below (possibly nested for split-screen), screen units
// at the leaves. Children are kept in z-order, index 0 at the bottom.
// The parent pointer is a non-owning back-reference maintained only by
// AddChild/RemoveChild; nothing else may set it.
type Container struct {
	kind     ContainerKind
	parent   *Container
	children []*Container

	// requested is the override configuration, distinct from resolved.
	// resolved is always re-derivable from (requested, parent resolved)
	// and is only stored as a cache of that derivation.
	requested Configuration
	resolved  Configuration

	alwaysOnTop    bool
	hiddenFromUser bool // "cannot show for current user"

	// Exactly one of these is non-nil, matching kind.
	display *Display
	task    *TaskGroup
	unit    *ScreenUnit
}

// Kind returns the node's kind tag.
func (c *Container) Kind() ContainerKind { return c.kind }

// Parent returns the parent container, nil at the root.
func (c *Container) Parent() *Container { return c.parent }

// ChildCount returns the number of direct children.
func (c *Container) ChildCount() int { return len(c.children) }

// ChildAt returns the child at z-index i, 0 being the bottom.
func (c *Container) ChildAt(i int) *Container { return c.children[i] }

// Resolved returns a copy of the resolved configuration.
func (c *Container) Resolved() Configuration { return c.resolved }

// Requested returns a copy of the requested override configuration.
func (c *Container) Requested() Configuration { return c.requested }

// Task returns the task group this node represents, or nil.
func (c *Container) Task() *TaskGroup { return c.task }

// Unit returns the screen unit this node represents, or nil.
func (c *Container) Unit() *ScreenUnit { return c.unit }

// AddChild inserts child at the given z-index (or a sentinel). The
// child must currently be parentless.
func (c *Container) AddChild(child *Container, position int) error {
	if child.parent != nil {
		return fmt.Errorf("container already has a parent: %w", ErrNotChild)
	}
	idx := c.adjustedPosition(child, position)
	c.children = append(c.children, nil)
	copy(c.children[idx+1:], c.children[idx:])
	c.children[idx] = child
	child.parent = c
	c.notifyLayoutNeeded()
	return nil
}

// RemoveChild unlinks child from this container.
func (c *Container) RemoveChild(child *Container) error {
	idx := c.indexOf(child)
	if idx < 0 {
		return ErrNotChild
	}
	c.children = append(c.children[:idx], c.children[idx+1:]...)
	child.parent = nil
	c.notifyLayoutNeeded()
	return nil
}

// PositionChildAt moves child to the given z-index or sentinel. When
// the child already sits at the requested extreme the call is a no-op,
// preserving the sentinel semantics instead of resolving it to a
// numeric index.
func (c *Container) PositionChildAt(position int, child *Container, includingParents bool) error {
	idx := c.indexOf(child)
	if idx < 0 {
		return ErrNotChild
	}

	// Already at the requested extreme: keep the sentinel and skip the
	// local splice, but still let the move ripple to ancestors below.
	atExtreme := (position == PositionTop && idx == len(c.children)-1) ||
		(position == PositionBottom && idx == 0)

	if !atExtreme {
		c.children = append(c.children[:idx], c.children[idx+1:]...)
		target := c.adjustedPosition(child, position)
		c.children = append(c.children, nil)
		copy(c.children[target+1:], c.children[target:])
		c.children[target] = child
		c.notifyLayoutNeeded()
	}

	if includingParents && c.parent != nil {
		switch position {
		case PositionTop:
			return c.parent.PositionChildAt(PositionTop, c, true)
		case PositionBottom:
			return c.parent.PositionChildAt(PositionBottom, c, true)
		}
	}
	return nil
}

// adjustedPosition clamps a requested insert position: children hidden
// from the current user sit below all that can show, and always-on-top
// children sit above all that are not. The returned index is valid for
// an insert into children with the moving child already removed.
func (c *Container) adjustedPosition(child *Container, position int) int {
	n := len(c.children)

	idx := position
	switch position {
	case PositionTop:
		idx = n
	case PositionBottom:
		idx = 0
	default:
		if idx < 0 {
			idx = 0
		}
		if idx > n {
			idx = n
		}
	}

	if child.hiddenFromUser {
		// Keep below every child that can show.
		limit := 0
		for i := 0; i < n; i++ {
			if c.children[i].hiddenFromUser {
				limit = i + 1
			} else {
				break
			}
		}
		if idx > limit {
			idx = limit
		}
		return idx
	}

	// Keep non-always-on-top children below the always-on-top band.
	if !child.alwaysOnTop {
		limit := n
		for i := n - 1; i >= 0; i-- {
			if c.children[i].alwaysOnTop {
				limit = i
			} else {
				break
			}
		}
		if idx > limit {
			idx = limit
		}
	}
	// Keep visible children above the hidden band at the bottom.
	floor := 0
	for i := 0; i < n; i++ {
		if c.children[i].hiddenFromUser {
			floor = i + 1
		} else {
			break
		}
	}
	if idx < floor {
		idx = floor
	}
	return idx
}

func (c *Container) indexOf(child *Container) int {
	for i, ch := range c.children {
		if ch == child {
			return i
		}
	}
	return -1
}

// ForAllDescendants visits every descendant. With topToBottom set the
// walk starts at the topmost child; the visitor returns false to stop
// early. Returns false if the walk was stopped.
func (c *Container) ForAllDescendants(visit func(*Container) bool, topToBottom bool) bool {
	if topToBottom {
		for i := len(c.children) - 1; i >= 0; i-- {
			ch := c.children[i]
			if !ch.ForAllDescendants(visit, true) {
				return false
			}
			if !visit(ch) {
				return false
			}
		}
		return true
	}
	for _, ch := range c.children {
		if !visit(ch) {
			return false
		}
		if !ch.ForAllDescendants(visit, false) {
			return false
		}
	}
	return true
}

// IsDescendantOf reports whether c sits somewhere below ancestor.
func (c *Container) IsDescendantOf(ancestor *Container) bool {
	for p := c.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Display walks up to the owning display, nil when detached.
func (c *Container) Display() *Display {
	for n := c; n != nil; n = n.parent {
		if n.kind == KindDisplay {
			return n.display
		}
	}
	return nil
}

// Attached reports whether the container is reachable from a display.
func (c *Container) Attached() bool { return c.Display() != nil }

// parentTask returns the owning task group when the immediate parent
// is one.
func (c *Container) parentTask() *TaskGroup {
	if c.parent != nil && c.parent.kind == KindTask {
		return c.parent.task
	}
	return nil
}

// notifyLayoutNeeded marks the owning display dirty. Every successful
// add/remove/position lands here.
func (c *Container) notifyLayoutNeeded() {
	if d := c.Display(); d != nil {
		d.layoutNeeded = true
	}
}
