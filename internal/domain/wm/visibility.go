package wm

// Visibility classifies how much of a task group the user can see.
type Visibility int

const (
	Invisible Visibility = iota
	Visible
	VisibleBehindTranslucent
)

// String returns the string representation of the classification.
func (v Visibility) String() string {
	switch v {
	case Invisible:
		return "invisible"
	case Visible:
		return "visible"
	case VisibleBehindTranslucent:
		return "visible-behind-translucent"
	default:
		return "unknown"
	}
}

// Visibility classifies t by walking the siblings above it top-down
// and accounting for occlusion across windowing modes. The starting
// unit, when given, is known to be in the process of becoming visible
// and counts as running content for its task even before first draw.
//
// The top-down scan means the first opaque occluder wins immediately,
// which keeps the walk O(children).
func (t *TaskGroup) Visibility(starting *ScreenUnit) Visibility {
	v := t.computeVisibility(starting)
	if t.wm != nil {
		t.wm.recordVisibility(v)
	}
	return v
}

func (t *TaskGroup) computeVisibility(starting *ScreenUnit) Visibility {
	if !t.c.Attached() || t.forceHidden {
		return Invisible
	}

	behindTranslucent := false
	if parent := t.parentTaskGroup(); parent != nil {
		switch parent.computeVisibility(starting) {
		case Invisible:
			return Invisible
		case VisibleBehindTranslucent:
			behindTranslucent = true
		}
	}

	var (
		gotTranslucentFullscreen bool
		gotTranslucentPrimary    bool
		gotTranslucentSecondary  bool
		gotOpaquePrimary         bool
		gotOpaqueSecondary       bool
	)

	siblings := t.c.parent.children
	selfIdx := t.c.parent.indexOf(t.c)
	for i := len(siblings) - 1; i > selfIdx; i-- {
		sib := siblings[i]
		if sib.kind != KindTask {
			continue
		}
		s := sib.task
		if !s.HasRunningUnits() && !(starting != nil && starting.c.IsDescendantOf(s.c)) {
			continue
		}

		mode := s.Mode()
		if mode == ModePinned {
			// Picture-in-picture floats above everything and never
			// occludes a full stack.
			continue
		}

		top := s.TopRunningUnit()
		opaque := top != nil && top.Occludes()

		switch mode {
		case ModeFullscreen:
			if opaque {
				return Invisible
			}
			gotTranslucentFullscreen = true

		case ModeSplitPrimary:
			if opaque {
				gotOpaquePrimary = true
				if t.Mode() == ModeSplitPrimary {
					// Two opaque occupants cannot share one slot.
					return Invisible
				}
			} else {
				gotTranslucentPrimary = true
			}

		case ModeSplitSecondary:
			if opaque {
				gotOpaqueSecondary = true
				if t.Mode() == ModeSplitSecondary {
					return Invisible
				}
			} else {
				gotTranslucentSecondary = true
			}
		}

		if gotOpaquePrimary && gotOpaqueSecondary {
			// Both split slots covered: full occlusion.
			return Invisible
		}

		if t.Type() == TypeAssistant && mode.InSplit() {
			// Assistant cannot render under split-screen.
			return Invisible
		}
	}

	hasContent := t.HasRunningUnits() ||
		(starting != nil && starting.c.IsDescendantOf(t.c)) ||
		t.Type() == TypeHome
	if !hasContent {
		return Invisible
	}

	switch t.Mode() {
	case ModeFullscreen, ModeUndefined, ModeFreeform, ModeMulti:
		if gotTranslucentFullscreen {
			behindTranslucent = true
		}
	case ModeSplitPrimary:
		if gotTranslucentPrimary {
			behindTranslucent = true
		}
	case ModeSplitSecondary:
		if gotTranslucentSecondary {
			behindTranslucent = true
		}
	}

	if behindTranslucent {
		return VisibleBehindTranslucent
	}
	return Visible
}
