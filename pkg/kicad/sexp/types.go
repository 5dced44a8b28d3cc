// Package sexp provides shared S-expression parsing infrastructure for KiCad files.
// It holds the millimetre-based types common to the board and rules parsers
// together with the conversion into KiCad's internal nanometre unit.
package sexp

import "math"

// Coordinate conversion constants.
// KiCad files store millimetres; the board engine works in integer nanometres.
const (
	NanometersToMM = 1e-6 // Convert nm to mm (multiply by this)
	MMToNanometers = 1e6  // Convert mm to nm (multiply by this)
)

// ToNanometers converts millimetres to integer nanometres, rounding half away from zero.
func ToNanometers(mm float64) int64 {
	return int64(math.Round(mm * MMToNanometers))
}

// ToMillimeters converts integer nanometres back to millimetres.
func ToMillimeters(nm int64) float64 {
	return float64(nm) / MMToNanometers
}

// Position represents a 2D coordinate in the KiCad coordinate system, in mm.
// Y grows downwards as in the KiCad editor.
type Position struct {
	X float64
	Y float64
}

// Angle represents rotation in degrees (counter-clockwise, as displayed by KiCad)
type Angle float64

// PositionAngle combines position with rotation
type PositionAngle struct {
	Position
	Angle Angle
}

// Size represents dimensions in mm
type Size struct {
	Width  float64
	Height float64
}

// Max returns the larger of the two dimensions
func (s Size) Max() float64 {
	return math.Max(s.Width, s.Height)
}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Position // Minimum (top-left) corner
	Max Position // Maximum (bottom-right) corner
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// Contains checks if a position is within the bounding box
func (bb BoundingBox) Contains(pos Position) bool {
	return pos.X >= bb.Min.X && pos.X <= bb.Max.X &&
		pos.Y >= bb.Min.Y && pos.Y <= bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos Position) {
	bb.Min.X = math.Min(bb.Min.X, pos.X)
	bb.Min.Y = math.Min(bb.Min.Y, pos.Y)
	bb.Max.X = math.Max(bb.Max.X, pos.X)
	bb.Max.Y = math.Max(bb.Max.Y, pos.Y)
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// UUID represents a unique identifier (used in KiCad v6+ files)
type UUID string

// GrLine represents a line graphic element
type GrLine struct {
	Start Position
	End   Position
	Width float64
	Layer string
}

// GrCircle represents a circle graphic element.
// KiCad defines circles by center and a point on the circumference.
type GrCircle struct {
	Center Position
	End    Position
	Width  float64
	Layer  string
}

// Radius returns the circle radius in mm
func (c GrCircle) Radius() float64 {
	return math.Hypot(c.End.X-c.Center.X, c.End.Y-c.Center.Y)
}

// GrArc represents an arc defined by three points: start, mid (on arc), and end
type GrArc struct {
	Start Position
	Mid   Position
	End   Position
	Width float64
	Layer string
}

// GrRect represents a rectangle graphic element
type GrRect struct {
	Start Position
	End   Position
	Width float64
	Layer string
}

// GrPoly represents a polygon graphic element
type GrPoly struct {
	Points []Position
	Width  float64
	Layer  string
}

// Graphics contains the board-level graphic elements
type Graphics struct {
	Lines   []GrLine
	Circles []GrCircle
	Arcs    []GrArc
	Rects   []GrRect
	Polys   []GrPoly
}
