// Package geometry provides the integer rectangle and inset math used
// by bounds resolution. Coordinates are edge-based (left/top inclusive,
// right/bottom exclusive) and an empty rectangle means "inherit".
package geometry

import "fmt"

// Rect is an axis-aligned integer rectangle.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// NewRect builds a rectangle from its four edges.
func NewRect(left, top, right, bottom int) Rect {
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Width returns the horizontal extent. Negative for inverted rects.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent. Negative for inverted rects.
func (r Rect) Height() int { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool { return r.Left >= r.Right || r.Top >= r.Bottom }

// Equal reports exact edge equality.
func (r Rect) Equal(o Rect) bool { return r == o }

// Contains reports whether o lies fully inside r.
func (r Rect) Contains(o Rect) bool {
	return !r.IsEmpty() && !o.IsEmpty() &&
		r.Left <= o.Left && r.Top <= o.Top &&
		r.Right >= o.Right && r.Bottom >= o.Bottom
}

// ContainsPoint reports whether the point (x, y) lies inside r.
func (r Rect) ContainsPoint(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Intersect returns the overlap of r and o, or an empty rectangle when
// they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).IsEmpty()
}

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// OffsetTo returns r moved so its top-left corner sits at (x, y).
func (r Rect) OffsetTo(x, y int) Rect {
	return r.Offset(x-r.Left, y-r.Top)
}

// CenterIn returns r centered inside the container, preserving size.
func (r Rect) CenterIn(container Rect) Rect {
	dx := container.Left + (container.Width()-r.Width())/2 - r.Left
	dy := container.Top + (container.Height()-r.Height())/2 - r.Top
	return r.Offset(dx, dy)
}

// Inset returns r shrunk by the given insets on each edge.
func (r Rect) Inset(in Insets) Rect {
	return Rect{
		Left:   r.Left + in.Left,
		Top:    r.Top + in.Top,
		Right:  r.Right - in.Right,
		Bottom: r.Bottom - in.Bottom,
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// Insets describes reserved space along each edge of a display, such as
// a status bar or navigation strip.
type Insets struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// IsZero reports whether no edge reserves any space.
func (in Insets) IsZero() bool { return in == Insets{} }
