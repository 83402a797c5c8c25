package wm

import (
	"github.com/glasskit/windowd/internal/domain/geometry"
)

// Display is the root container of one focus domain. Its top-level
// children are task group stacks; at most one of them holds the
// domain's resumed unit.
type Display struct {
	c *Container

	ID   int
	Name string

	// StableInsets reserve decor space (status/navigation strips).
	StableInsets geometry.Insets

	FreeformCapable    bool
	SingleTaskInstance bool

	sleeping bool

	// layoutNeeded is set by tree mutations and drained by the next
	// visibility pass.
	layoutNeeded bool

	// focusedTask is the top-level stack owning the domain's resumed
	// unit; nil when nothing is resumed.
	focusedTask *TaskGroup
}

func newDisplay(id int, name string, bounds geometry.Rect, density int, insets geometry.Insets) *Display {
	d := &Display{
		ID:           id,
		Name:         name,
		StableInsets: insets,
	}
	d.c = &Container{kind: KindDisplay, display: d}
	d.c.requested = Configuration{
		Bounds:     bounds,
		Mode:       ModeFullscreen,
		DensityDPI: density,
	}
	d.resolveConfiguration()
	return d
}

// resolveConfiguration derives the display's own resolved fields. The
// display has no parent, so the override is authoritative.
func (d *Display) resolveConfiguration() {
	cfg := d.c.requested
	cfg.AppBounds = cfg.Bounds.Inset(d.StableInsets)
	cfg.ScreenWidthDp = pxToDp(cfg.AppBounds.Width(), cfg.DensityDPI)
	cfg.ScreenHeightDp = pxToDp(cfg.AppBounds.Height(), cfg.DensityDPI)
	cfg.SmallestWidthDp = min(cfg.ScreenWidthDp, cfg.ScreenHeightDp)
	cfg.Layout = layoutClass(cfg.SmallestWidthDp)
	if cfg.Bounds.Width() <= cfg.Bounds.Height() {
		cfg.Orientation = OrientationPortrait
	} else {
		cfg.Orientation = OrientationLandscape
	}
	d.c.resolved = cfg
}

// Container returns the root tree node.
func (d *Display) Container() *Container { return d.c }

// Bounds returns the full display rectangle.
func (d *Display) Bounds() geometry.Rect { return d.c.resolved.Bounds }

// NonDecorBounds returns the display rectangle minus stable insets.
// Derived configuration fields for an override that escapes its parent
// are computed against this, not the parent's app bounds.
func (d *Display) NonDecorBounds() geometry.Rect {
	return d.c.resolved.Bounds.Inset(d.StableInsets)
}

// Sleeping reports whether the display is asleep.
func (d *Display) Sleeping() bool { return d.sleeping }

// FocusedTask returns the stack holding this domain's resumed unit.
func (d *Display) FocusedTask() *TaskGroup { return d.focusedTask }

// topLevelTasks returns the display's direct task group children,
// bottom to top.
func (d *Display) topLevelTasks() []*TaskGroup {
	out := make([]*TaskGroup, 0, len(d.c.children))
	for _, ch := range d.c.children {
		if ch.kind == KindTask {
			out = append(out, ch.task)
		}
	}
	return out
}

// pinnedTask returns the display's pinned (picture-in-picture) stack,
// nil when absent. At most one exists per display.
func (d *Display) pinnedTask() *TaskGroup {
	for _, t := range d.topLevelTasks() {
		if t.Mode() == ModePinned {
			return t
		}
	}
	return nil
}

// forAllLeafTasks visits every leaf task group on the display, topmost
// stack first.
func (d *Display) forAllLeafTasks(visit func(*TaskGroup) bool) {
	for i := len(d.c.children) - 1; i >= 0; i-- {
		ch := d.c.children[i]
		if ch.kind == KindTask {
			if !ch.task.forAllLeafTasks(visit) {
				return
			}
		}
	}
}

// nextFocusableTask returns the topmost focusable stack other than
// skip, or nil when none exists.
func (d *Display) nextFocusableTask(skip *TaskGroup) *TaskGroup {
	var found *TaskGroup
	d.forAllLeafTasks(func(t *TaskGroup) bool {
		if t != skip && t.isFocusable() {
			found = t
			return false
		}
		return true
	})
	return found
}

// homeTask returns the home stack if the display has one.
func (d *Display) homeTask() *TaskGroup {
	var found *TaskGroup
	d.forAllLeafTasks(func(t *TaskGroup) bool {
		if t.Type() == TypeHome {
			found = t
			return false
		}
		return true
	})
	return found
}
