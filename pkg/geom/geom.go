// Package geom provides the integer geometry used by the grid generator and
// the clearance engine. Coordinates are KiCad internal units (nanometres);
// KiCad keeps them within int32 range, so products of coordinate differences
// always fit in int64.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in nanometres. Y grows downwards, as in KiCad.
type Point struct {
	X, Y int64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y int64) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Vec converts the point to a gonum vector
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Distance returns the Euclidean distance between two points
func Distance(p, q Point) float64 {
	return r2.Norm(r2.Sub(p.Vec(), q.Vec()))
}

// DistanceToSegment returns the distance from p to the closest point of the
// segment a-b. The projection parameter is clamped to [0,1]; a zero-length
// segment degrades to the point distance.
func DistanceToSegment(p, a, b Point) float64 {
	ab := r2.Sub(b.Vec(), a.Vec())
	ap := r2.Sub(p.Vec(), a.Vec())

	lenSq := r2.Norm2(ab)
	if lenSq == 0 {
		return r2.Norm(ap)
	}

	t := r2.Dot(ap, ab) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := r2.Add(a.Vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.Vec(), closest))
}

// Region is an area that grid positions are restricted to
type Region interface {
	// Contains reports whether p lies inside the region or on its boundary
	Contains(p Point) bool
	// Bounds returns the axis-aligned bounding box of the region
	Bounds() Rect
}
