package geom

// Rect is an axis-aligned rectangle with inclusive edges
type Rect struct {
	Min, Max Point
}

// R builds a rectangle from two opposite corners in any order
func R(x0, y0, x1, y1 int64) Rect {
	return Rect{
		Min: Point{X: min(x0, x1), Y: min(y0, y1)},
		Max: Point{X: max(x0, x1), Y: max(y0, y1)},
	}
}

// Contains reports whether p lies inside r or on its edge
func (r Rect) Contains(p Point) bool {
	return r.Min.X <= p.X && p.X <= r.Max.X &&
		r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

// Bounds returns r itself
func (r Rect) Bounds() Rect {
	return r
}

// Empty reports whether r has zero area
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Dx returns the width of r
func (r Rect) Dx() int64 {
	return r.Max.X - r.Min.X
}

// Dy returns the height of r
func (r Rect) Dy() int64 {
	return r.Max.Y - r.Min.Y
}

// Inset shrinks r by d on every side. A negative d grows it.
func (r Rect) Inset(d int64) Rect {
	return Rect{
		Min: Point{X: r.Min.X + d, Y: r.Min.Y + d},
		Max: Point{X: r.Max.X - d, Y: r.Max.Y - d},
	}
}

// Union returns the smallest rectangle containing both r and s
func (r Rect) Union(s Rect) Rect {
	return Rect{
		Min: Point{X: min(r.Min.X, s.Min.X), Y: min(r.Min.Y, s.Min.Y)},
		Max: Point{X: max(r.Max.X, s.Max.X), Y: max(r.Max.Y, s.Max.Y)},
	}
}

// Corners returns the outline of r as a polygon
func (r Rect) Corners() Polygon {
	return Polygon{
		r.Min,
		{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		{X: r.Min.X, Y: r.Max.Y},
	}
}
