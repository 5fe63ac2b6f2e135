package picker

import "messprotokoll/internal/domain"

// DefaultPickRadiusPixels is the screen-space pick tolerance used when the
// caller does not specify one.
const DefaultPickRadiusPixels = 50

// Transform is the current view transform of the drawing viewport:
// screen = drawing * Scale + Offset. Pick requests arrive in screen
// coordinates and are unprojected through it, which keeps the effective pick
// tolerance zoom-invariant in screen space.
type Transform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Identity is the transform of an unzoomed, unpanned view.
var Identity = Transform{Scale: 1}

// ToDrawing converts a screen position to drawing coordinates.
func (t Transform) ToDrawing(sx, sy float64) domain.Point {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return domain.Point{X: (sx - t.OffsetX) / scale, Y: (sy - t.OffsetY) / scale}
}

// RadiusToDrawing converts a pixel radius to drawing units by unprojecting
// two screen points a fixed pixel offset apart and measuring their distance.
func (t Transform) RadiusToDrawing(pixels float64) float64 {
	p1 := t.ToDrawing(0, 0)
	p2 := t.ToDrawing(pixels, 0)
	d := p2.X - p1.X
	if d < 0 {
		d = -d
	}
	return d
}
