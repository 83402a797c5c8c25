package wm

import (
	"github.com/glasskit/windowd/internal/domain/geometry"
)

const (
	// minTaskSizeDp is the floor for either dimension of a freeform
	// task.
	minTaskSizeDp = 220
	// minVisibleDp is how much of a freeform task must stay within its
	// parent bounds on each axis.
	minVisibleDp = 48
)

// ResolveOverrideConfiguration derives t's resolved configuration from
// its requested override and the parent's resolved configuration. It
// is idempotent and safe to re-enter any number of times as ancestors
// change; given unchanged inputs the output is bit-identical.
func (t *TaskGroup) ResolveOverrideConfiguration(parent Configuration) {
	req := t.c.requested
	out := Configuration{}

	// Activity type sticks once requested, otherwise inherits.
	out.Type = req.Type
	if out.Type == TypeUndefined {
		out.Type = parent.Type
	}

	// Windowing mode: undefined inherits, except a home task under a
	// split parent adopts the split mode so the launcher can sit in a
	// split slot.
	out.Mode = req.Mode
	if out.Mode == ModeUndefined {
		if out.Type == TypeHome && parent.Mode.InSplit() {
			out.Mode = parent.Mode
		} else if out.Type == TypeHome {
			out.Mode = ModeFullscreen
		} else {
			out.Mode = parent.Mode
		}
	}
	if out.Mode == ModeUndefined {
		out.Mode = ModeFullscreen
	}

	out.DensityDPI = req.DensityDPI
	if out.DensityDPI == 0 {
		out.DensityDPI = parent.DensityDPI
	}

	bounds := req.Bounds
	if t.IsLeaf() {
		switch out.Mode {
		case ModeFullscreen:
			// Fullscreen ignores any requested bounds and either fills
			// the parent or letterboxes an orientation mismatch.
			bounds = t.orientationFitBounds(parent)
		case ModeFreeform, ModeMulti:
			if bounds.IsEmpty() && !t.lastNonFullscreenBounds.IsEmpty() {
				// Restore the cached multi-window placement.
				bounds = t.lastNonFullscreenBounds
			}
			if !bounds.IsEmpty() {
				bounds = t.adjustFreeformBounds(bounds, parent)
			}
		}
	}

	// Empty bounds means inherit the parent fully, never zero-size.
	if bounds.IsEmpty() {
		out.Bounds = parent.Bounds
		out.AppBounds = parent.AppBounds
	} else {
		out.Bounds = bounds
		out.AppBounds = t.deriveAppBounds(bounds, parent)
	}

	out.ScreenWidthDp = pxToDp(out.AppBounds.Width(), out.DensityDPI)
	out.ScreenHeightDp = pxToDp(out.AppBounds.Height(), out.DensityDPI)
	out.SmallestWidthDp = min(out.ScreenWidthDp, out.ScreenHeightDp)
	out.Layout = layoutClass(out.SmallestWidthDp)
	if out.Bounds.Width() <= out.Bounds.Height() {
		out.Orientation = OrientationPortrait
	} else {
		out.Orientation = OrientationLandscape
	}

	changed := t.c.resolved != out
	t.c.resolved = out

	// The cache only tracks explicit placements in bounds-persisting
	// modes; fullscreen must never write or read it.
	if out.Mode.PersistsTaskBounds() && !req.Bounds.IsEmpty() {
		t.lastNonFullscreenBounds = req.Bounds
	}

	if changed {
		t.markDirty()
	}
}

// orientationFitBounds computes the letterbox/pillarbox rectangle for
// a fullscreen leaf whose required orientation disagrees with the
// parent's. An empty result means "fill parent".
func (t *TaskGroup) orientationFitBounds(parent Configuration) geometry.Rect {
	required := t.requiredOrientation()
	if required == OrientationUnspecified || parent.Orientation == OrientationUnspecified {
		return geometry.Rect{}
	}
	if required == parent.Orientation {
		return geometry.Rect{}
	}

	pb := parent.Bounds
	pw, ph := pb.Width(), pb.Height()
	if pw <= 0 || ph <= 0 {
		return geometry.Rect{}
	}

	if required == OrientationPortrait {
		// Pillarbox: full height, width scaled to the swapped aspect.
		w := ph * ph / pw
		if w >= pw {
			return geometry.Rect{}
		}
		r := geometry.NewRect(0, 0, w, ph)
		return r.CenterIn(pb)
	}
	// Letterbox: full width, height scaled to the swapped aspect.
	h := pw * pw / ph
	if h >= ph {
		return geometry.Rect{}
	}
	r := geometry.NewRect(0, 0, pw, h)
	return r.CenterIn(pb)
}

// requiredOrientation is the task's own requested orientation or, for
// a leaf, the top unit's.
func (t *TaskGroup) requiredOrientation() Orientation {
	if o := t.c.requested.Orientation; o != OrientationUnspecified {
		return o
	}
	if top := t.TopUnit(); top != nil {
		return top.requiredOrientation
	}
	return OrientationUnspecified
}

// adjustFreeformBounds clamps a freeform placement: respect the
// minimum-dimension floor, keep a minimum visible overlap with the
// parent, then shift out of the stable-inset regions. Overlaps are
// always corrected by shifting, never by shrinking below minimum size.
func (t *TaskGroup) adjustFreeformBounds(b geometry.Rect, parent Configuration) geometry.Rect {
	density := parent.DensityDPI
	minSize := dpToPx(minTaskSizeDp, density)
	minVisible := dpToPx(minVisibleDp, density)
	pb := parent.Bounds

	b = t.adjustForMinimalSize(b, minSize)

	// Keep at least minVisible pixels of the task inside the parent on
	// each axis so it can always be grabbed.
	if b.Left > pb.Right-minVisible {
		b = b.Offset(pb.Right-minVisible-b.Left, 0)
	}
	if b.Right < pb.Left+minVisible {
		b = b.Offset(pb.Left+minVisible-b.Right, 0)
	}
	if b.Top > pb.Bottom-minVisible {
		b = b.Offset(0, pb.Bottom-minVisible-b.Top)
	}
	if b.Bottom < pb.Top+minVisible {
		b = b.Offset(0, pb.Top+minVisible-b.Bottom)
	}

	// Shift below/inside the stable insets rather than clipping.
	if d := t.c.Display(); d != nil {
		frame := d.Bounds().Inset(d.StableInsets)
		if b.Top < frame.Top {
			b = b.Offset(0, frame.Top-b.Top)
		}
		if b.Left < frame.Left {
			b = b.Offset(frame.Left-b.Left, 0)
		}
	}
	return b
}

// adjustForMinimalSize grows an under-sized rectangle to the floor.
// The growth direction follows the edge that matched the previous
// resolved bounds: a task anchored at its right edge grows leftward.
// This tie-break is historical; it keeps resizes visually stable but
// is not load-bearing beyond that.
func (t *TaskGroup) adjustForMinimalSize(b geometry.Rect, minSize int) geometry.Rect {
	prev := t.c.resolved.Bounds
	if b.Width() < minSize {
		if prev.Right == b.Right && prev.Left != b.Left {
			b.Left = b.Right - minSize
		} else {
			b.Right = b.Left + minSize
		}
	}
	if b.Height() < minSize {
		if prev.Bottom == b.Bottom && prev.Top != b.Top {
			b.Top = b.Bottom - minSize
		} else {
			b.Bottom = b.Top + minSize
		}
	}
	return b
}

// deriveAppBounds intersects the task bounds with the containing app
// frame. When the override escapes its parent, the display's non-decor
// bounds contain it instead so the oversized placement is not clipped
// back down by the nominal parent.
func (t *TaskGroup) deriveAppBounds(bounds geometry.Rect, parent Configuration) geometry.Rect {
	containing := parent.AppBounds
	if !parent.Bounds.Contains(bounds) {
		if d := t.c.Display(); d != nil {
			containing = d.NonDecorBounds()
		}
	}
	app := bounds.Intersect(containing)
	if app.IsEmpty() {
		return bounds
	}
	return app
}

// resolveSubtree re-resolves every task group below c against its
// parent's resolved configuration, in z-order. Units simply adopt the
// owning task's resolved configuration.
func resolveSubtree(c *Container) {
	for _, ch := range c.children {
		switch ch.kind {
		case KindTask:
			ch.task.ResolveOverrideConfiguration(c.resolved)
		case KindUnit:
			ch.resolved = c.resolved
		}
		resolveSubtree(ch)
	}
}
