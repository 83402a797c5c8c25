package wm

import (
	"encoding/json"
	"fmt"

	"github.com/glasskit/windowd/internal/domain/geometry"
)

// WindowingMode is the layout policy applied to a container. Undefined
// inherits from the nearest ancestor that defines one.
type WindowingMode int

const (
	ModeUndefined WindowingMode = iota
	ModeFullscreen
	ModeFreeform
	ModeSplitPrimary
	ModeSplitSecondary
	ModePinned
	ModeMulti
)

// String returns the string representation of the mode.
func (m WindowingMode) String() string {
	switch m {
	case ModeUndefined:
		return "undefined"
	case ModeFullscreen:
		return "fullscreen"
	case ModeFreeform:
		return "freeform"
	case ModeSplitPrimary:
		return "split-primary"
	case ModeSplitSecondary:
		return "split-secondary"
	case ModePinned:
		return "pinned"
	case ModeMulti:
		return "multi-window"
	default:
		return "unknown"
	}
}

// ParseWindowingMode maps the wire string form back to the mode. Empty
// means undefined so callers can omit the field.
func ParseWindowingMode(s string) (WindowingMode, error) {
	switch s {
	case "", "undefined":
		return ModeUndefined, nil
	case "fullscreen":
		return ModeFullscreen, nil
	case "freeform":
		return ModeFreeform, nil
	case "split-primary":
		return ModeSplitPrimary, nil
	case "split-secondary":
		return ModeSplitSecondary, nil
	case "pinned":
		return ModePinned, nil
	case "multi-window":
		return ModeMulti, nil
	}
	return 0, fmt.Errorf("unknown windowing mode %q", s)
}

// MarshalJSON emits the String form; every wire surface carries enums
// as strings.
func (m WindowingMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *WindowingMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseWindowingMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// PersistsTaskBounds reports whether tasks in this mode keep their
// last bounds across mode changes. Only these modes may read or write
// a task group's last-non-fullscreen bounds.
func (m WindowingMode) PersistsTaskBounds() bool {
	return m == ModeFreeform || m == ModeMulti
}

// InSplit reports whether the mode is one of the two split slots.
func (m WindowingMode) InSplit() bool {
	return m == ModeSplitPrimary || m == ModeSplitSecondary
}

// ActivityType classifies what a container presents.
type ActivityType int

const (
	TypeUndefined ActivityType = iota
	TypeStandard
	TypeHome
	TypeRecents
	TypeAssistant
)

// String returns the string representation of the type.
func (t ActivityType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeStandard:
		return "standard"
	case TypeHome:
		return "home"
	case TypeRecents:
		return "recents"
	case TypeAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// ParseActivityType maps the wire string form back to the type.
func ParseActivityType(s string) (ActivityType, error) {
	switch s {
	case "", "undefined":
		return TypeUndefined, nil
	case "standard":
		return TypeStandard, nil
	case "home":
		return TypeHome, nil
	case "recents":
		return TypeRecents, nil
	case "assistant":
		return TypeAssistant, nil
	}
	return 0, fmt.Errorf("unknown activity type %q", s)
}

func (t ActivityType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ActivityType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseActivityType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Orientation is the requested or derived screen orientation.
type Orientation int

const (
	OrientationUnspecified Orientation = iota
	OrientationPortrait
	OrientationLandscape
)

func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscape:
		return "landscape"
	default:
		return "unspecified"
	}
}

// ParseOrientation maps the wire string form back to the orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "", "unspecified":
		return OrientationUnspecified, nil
	case "portrait":
		return OrientationPortrait, nil
	case "landscape":
		return OrientationLandscape, nil
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}

func (o Orientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Orientation) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseOrientation(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ScreenLayout is the coarse size class derived from smallest width.
type ScreenLayout int

const (
	LayoutSmall ScreenLayout = iota
	LayoutNormal
	LayoutLarge
	LayoutXLarge
)

func (l ScreenLayout) String() string {
	switch l {
	case LayoutSmall:
		return "small"
	case LayoutNormal:
		return "normal"
	case LayoutLarge:
		return "large"
	case LayoutXLarge:
		return "xlarge"
	default:
		return "unknown"
	}
}

// ResizeMode constrains how a task group may be resized.
type ResizeMode int

const (
	ResizeModeUnresizeable ResizeMode = iota
	ResizeModeResizeable
	ResizeModeForceResizeable
)

// String returns the string representation of the mode.
func (m ResizeMode) String() string {
	switch m {
	case ResizeModeUnresizeable:
		return "unresizeable"
	case ResizeModeResizeable:
		return "resizeable"
	case ResizeModeForceResizeable:
		return "force-resizeable"
	default:
		return "unknown"
	}
}

// ParseResizeMode maps the wire string form back to the mode.
func ParseResizeMode(s string) (ResizeMode, error) {
	switch s {
	case "", "unresizeable":
		return ResizeModeUnresizeable, nil
	case "resizeable":
		return ResizeModeResizeable, nil
	case "force-resizeable":
		return ResizeModeForceResizeable, nil
	}
	return 0, fmt.Errorf("unknown resize mode %q", s)
}

func (m ResizeMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *ResizeMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseResizeMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Configuration is the resolved presentation state of a container. The
// requested override uses the same shape with zero values meaning
// "unset / inherit".
type Configuration struct {
	// Bounds is the container's rectangle in display coordinates. An
	// empty rectangle inherits the parent bounds fully; it never means
	// a zero-size visible window.
	Bounds geometry.Rect `json:"bounds"`
	// AppBounds is the portion of Bounds available to app content
	// after display decor is removed.
	AppBounds geometry.Rect `json:"app_bounds"`

	Mode WindowingMode `json:"windowing_mode"`
	Type ActivityType  `json:"activity_type"`

	DensityDPI  int          `json:"density_dpi"`
	Orientation Orientation  `json:"orientation"`
	Layout      ScreenLayout `json:"screen_layout"`

	ScreenWidthDp     int `json:"screen_width_dp"`
	ScreenHeightDp    int `json:"screen_height_dp"`
	SmallestWidthDp   int `json:"smallest_width_dp"`
}

// densityBaseline is the dpi at which one dp equals one px.
const densityBaseline = 160

// pxToDp converts pixels to density-independent units, truncating after
// the floating multiply.
func pxToDp(px, densityDPI int) int {
	if densityDPI <= 0 {
		densityDPI = densityBaseline
	}
	return int(float64(px) * densityBaseline / float64(densityDPI))
}

// dpToPx converts density-independent units to pixels, truncating.
func dpToPx(dp, densityDPI int) int {
	if densityDPI <= 0 {
		densityDPI = densityBaseline
	}
	return int(float64(dp) * float64(densityDPI) / densityBaseline)
}

// layoutClass derives the coarse size bucket from smallest width dp.
func layoutClass(smallestWidthDp int) ScreenLayout {
	switch {
	case smallestWidthDp < 426:
		return LayoutSmall
	case smallestWidthDp < 600:
		return LayoutNormal
	case smallestWidthDp < 960:
		return LayoutLarge
	default:
		return LayoutXLarge
	}
}
