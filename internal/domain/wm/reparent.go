package wm

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// MoveMode controls where a reparented task group lands in its new
// parent's z-order.
type MoveMode int

const (
	// MoveKeepAtFront moves the stack to the front of the new parent
	// only if it was front in its old one; otherwise the requested
	// position is honored as-is.
	MoveKeepAtFront MoveMode = iota
	// MoveAlwaysToFront forces the stack to the top of the new parent.
	MoveAlwaysToFront
	// MoveToBottom sends the stack to the back of the new parent.
	MoveToBottom
)

func (m MoveMode) String() string {
	switch m {
	case MoveKeepAtFront:
		return "keep-at-front"
	case MoveAlwaysToFront:
		return "always-to-front"
	case MoveToBottom:
		return "to-bottom"
	default:
		return fmt.Sprintf("move-mode(%d)", int(m))
	}
}

// ParseMoveMode maps the wire string form back to the mode. Empty
// means keep-at-front, the conservative default.
func ParseMoveMode(s string) (MoveMode, error) {
	switch s {
	case "", "keep-at-front":
		return MoveKeepAtFront, nil
	case "always-to-front":
		return MoveAlwaysToFront, nil
	case "to-bottom":
		return MoveToBottom, nil
	}
	return 0, fmt.Errorf("unknown move mode %q", s)
}

// ErrWouldCycle is returned when a reparent target sits inside the
// moving subtree.
var ErrWouldCycle = errors.New("target is a descendant of the moving task group")

// ReparentRequest describes one move. Exactly one of TargetDisplayID
// and TargetTaskID names the new parent; a zero TargetTaskID means the
// display itself.
type ReparentRequest struct {
	TaskID          int
	TargetDisplayID int
	TargetTaskID    int

	Position    int
	MoveMode    MoveMode
	Animate     bool
	DeferResume bool
	Reason      string
}

// Reparent moves a task group under a new parent, re-resolves its
// configuration against the new ancestry, and re-evaluates visibility
// and resume on both ends. The returned bool reports whether the tree
// actually changed.
func (m *Manager) Reparent(req ReparentRequest) (bool, error) {
	moved := false
	err := m.mutate("reparent", func() error {
		t := m.tasks[req.TaskID]
		if t == nil {
			m.recordReparent("unknown")
			return fmt.Errorf("reparent task %d: %w", req.TaskID, ErrNoSuchTask)
		}
		if !t.c.Attached() {
			m.recordReparent("detached")
			return fmt.Errorf("reparent task %d: %w", req.TaskID, ErrDetached)
		}

		target, err := m.reparentTarget(req)
		if err != nil {
			m.recordReparent("bad-target")
			return err
		}
		if target.IsDescendantOf(t.c) || target == t.c {
			m.recordReparent("cycle")
			return fmt.Errorf("reparent task %d: %w", req.TaskID, ErrWouldCycle)
		}
		if target == t.c.parent {
			// Same parent: a pure z-order move.
			moved = m.repositionInParent(t, req)
			return nil
		}

		newDisplay := target.Display()
		oldDisplay := t.c.Display()
		if target.kind == KindDisplay && newDisplay.SingleTaskInstance &&
			len(newDisplay.topLevelTasks()) > 0 {
			m.recordReparent("display-full")
			return fmt.Errorf("reparent task %d to display %d: %w",
				req.TaskID, newDisplay.ID, ErrDisplayFull)
		}
		if t.Mode() == ModePinned && newDisplay != oldDisplay {
			if old := newDisplay.pinnedTask(); old != nil && old != t {
				m.dismissPinned(old)
			}
		}

		wasFront := oldDisplay.focusedTask == t ||
			oldDisplay.nextFocusableTask(nil) == t
		resumed := t.resumedUnit

		m.logger.Info("reparenting task",
			zap.Int("task", t.ID),
			zap.Int("from", oldDisplay.ID),
			zap.Int("to", newDisplay.ID),
			zap.String("mode", req.MoveMode.String()),
			zap.String("reason", req.Reason),
		)
		if req.Animate {
			m.compositor.PrepareTransition(TransitionToFront)
		}

		oldParent := t.c.parent
		if err := oldParent.RemoveChild(t.c); err != nil {
			m.recordReparent("detached")
			return err
		}
		if oldDisplay.focusedTask == t {
			oldDisplay.focusedTask = nil
		}

		position := req.Position
		switch req.MoveMode {
		case MoveAlwaysToFront:
			position = PositionTop
		case MoveToBottom:
			position = PositionBottom
		case MoveKeepAtFront:
			if wasFront {
				position = PositionTop
			}
		}
		if err := target.AddChild(t.c, position); err != nil {
			// Re-home rather than leak a detached subtree.
			_ = oldParent.AddChild(t.c, PositionTop)
			m.recordReparent("add-failed")
			return err
		}
		moved = true

		// An old intermediate task group emptied by the move goes away.
		if oldParent.kind == KindTask && oldParent.task.shouldBeRemoved() {
			m.removeTask(oldParent.task)
		}

		t.ResolveOverrideConfiguration(target.resolved)
		resolveSubtree(t.c)

		m.ensureVisibilityPass(nil)
		if !req.DeferResume {
			// Resumed-state transfer happens regardless of ordering:
			// the moved stack's top unit competes for resume on the
			// new display even when it did not land at the front.
			if resumed != nil || wasFront {
				m.resumeTop(t)
			} else if next := newDisplay.nextFocusableTask(nil); next != nil {
				m.resumeTop(next)
			}
			if oldDisplay != newDisplay {
				if next := oldDisplay.nextFocusableTask(nil); next != nil {
					m.resumeTop(next)
				}
			}
		}
		t.markDirty()
		m.recordReparent("moved")
		return nil
	})
	return moved, err
}

// reparentTarget resolves the destination container.
func (m *Manager) reparentTarget(req ReparentRequest) (*Container, error) {
	if req.TargetTaskID != 0 {
		target := m.tasks[req.TargetTaskID]
		if target == nil {
			return nil, fmt.Errorf("reparent target task %d: %w", req.TargetTaskID, ErrNoSuchTask)
		}
		if !target.c.Attached() {
			return nil, fmt.Errorf("reparent target task %d: %w", req.TargetTaskID, ErrDetached)
		}
		return target.c, nil
	}
	d, ok := m.displays[req.TargetDisplayID]
	if !ok {
		return nil, fmt.Errorf("reparent target display %d: %w", req.TargetDisplayID, ErrNoSuchDisplay)
	}
	return d.c, nil
}

// repositionInParent handles the degenerate reparent onto the current
// parent: only the z-order moves.
func (m *Manager) repositionInParent(t *TaskGroup, req ReparentRequest) bool {
	position := req.Position
	switch req.MoveMode {
	case MoveAlwaysToFront:
		position = PositionTop
	case MoveToBottom:
		position = PositionBottom
	case MoveKeepAtFront:
		d := t.c.Display()
		if d.focusedTask == t || d.nextFocusableTask(nil) == t {
			position = PositionTop
		}
	}
	before := t.c.parent.indexOf(t.c)
	if err := t.c.parent.PositionChildAt(position, t.c, false); err != nil {
		m.recordReparent("detached")
		return false
	}
	changed := t.c.parent.indexOf(t.c) != before
	if changed {
		m.ensureVisibilityPass(nil)
		if !req.DeferResume {
			m.resumeTop(t)
		}
		t.markDirty()
	}
	m.recordReparent("repositioned")
	return changed
}

func (m *Manager) recordReparent(status string) {
	if m.metrics != nil {
		m.metrics.RecordReparent(status)
	}
}
