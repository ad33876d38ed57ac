package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidScale indicates a zoom factor that cannot convert coordinates.
var ErrInvalidScale = errors.New("geometry: scale must be positive")

// Scale is the active render zoom factor. It is the only way to cross
// between screen space and document space.
type Scale float64

// NewScale validates a raw zoom factor.
func NewScale(value float64) (Scale, error) {
	if value <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScale, value)
	}
	return Scale(value), nil
}

// ScreenPoint is a position in on-screen pixels at the current zoom.
type ScreenPoint struct {
	X float64
	Y float64
}

// DocPoint is a position in unscaled document space, the only form that
// is ever persisted.
type DocPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScreenRect is an axis-aligned rectangle in on-screen pixels.
type ScreenRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DocRect is an axis-aligned rectangle in unscaled document space.
type DocRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToDoc projects a captured screen position into document space.
func (s Scale) ToDoc(p ScreenPoint) DocPoint {
	return DocPoint{X: p.X / float64(s), Y: p.Y / float64(s)}
}

// ToScreen projects a persisted document position onto the screen.
func (s Scale) ToScreen(p DocPoint) ScreenPoint {
	return ScreenPoint{X: p.X * float64(s), Y: p.Y * float64(s)}
}

// RectToDoc projects a captured screen rectangle into document space.
func (s Scale) RectToDoc(r ScreenRect) DocRect {
	return DocRect{
		X:      r.X / float64(s),
		Y:      r.Y / float64(s),
		Width:  r.Width / float64(s),
		Height: r.Height / float64(s),
	}
}

// RectToScreen projects a persisted rectangle onto the screen.
func (s Scale) RectToScreen(r DocRect) ScreenRect {
	return ScreenRect{
		X:      r.X * float64(s),
		Y:      r.Y * float64(s),
		Width:  r.Width * float64(s),
		Height: r.Height * float64(s),
	}
}

// Tolerance converts a screen-pixel hit tolerance into document units.
func (s Scale) Tolerance(screenPixels float64) float64 {
	return screenPixels / float64(s)
}

// DocRectFromCorners builds a normalized rectangle from any two opposite
// corners, regardless of drag direction.
func DocRectFromCorners(a, b DocPoint) DocRect {
	rect := DocRect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}
	if rect.Width < 0 {
		rect.X += rect.Width
		rect.Width = -rect.Width
	}
	if rect.Height < 0 {
		rect.Y += rect.Height
		rect.Height = -rect.Height
	}
	return rect
}

// Translate shifts a point by the given document-space deltas.
func (p DocPoint) Translate(dx, dy float64) DocPoint {
	return DocPoint{X: p.X + dx, Y: p.Y + dy}
}

// TranslatePath shifts every point of a path by the given deltas.
func TranslatePath(path []DocPoint, dx, dy float64) []DocPoint {
	moved := make([]DocPoint, len(path))
	for i, p := range path {
		moved[i] = p.Translate(dx, dy)
	}
	return moved
}
