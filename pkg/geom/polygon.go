package geom

// Polygon is a closed simple outline; the last vertex connects to the first.
// Self-intersecting outlines are not rejected, containment for them follows
// the even-odd rule.
type Polygon []Point

// Contains reports whether p lies inside the polygon or on its outline
func (poly Polygon) Contains(p Point) bool {
	if len(poly) < 3 {
		return false
	}
	if poly.OnBoundary(p) {
		return true
	}
	return poly.crossings(p)
}

// ContainsStrict reports whether p lies inside the polygon and not on its outline
func (poly Polygon) ContainsStrict(p Point) bool {
	if len(poly) < 3 || poly.OnBoundary(p) {
		return false
	}
	return poly.crossings(p)
}

// OnBoundary reports whether p lies exactly on one of the polygon edges
func (poly Polygon) OnBoundary(p Point) bool {
	for i := range poly {
		if onSegment(p, poly[i], poly[(i+1)%len(poly)]) {
			return true
		}
	}
	return false
}

// crossings casts a ray towards +X and counts edge crossings (even-odd)
func (poly Polygon) crossings(p Point) bool {
	inside := false
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		// compare p.X against the edge's X at p.Y without dividing
		dy := b.Y - a.Y
		lhs := (p.X - a.X) * dy
		rhs := (p.Y - a.Y) * (b.X - a.X)
		if (dy > 0 && lhs < rhs) || (dy < 0 && lhs > rhs) {
			inside = !inside
		}
	}
	return inside
}

func onSegment(p, a, b Point) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if cross != 0 {
		return false
	}
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}

// Bounds returns the bounding box of the outline
func (poly Polygon) Bounds() Rect {
	if len(poly) == 0 {
		return Rect{}
	}
	r := Rect{Min: poly[0], Max: poly[0]}
	for _, p := range poly[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r
}

// Area returns the absolute enclosed area (shoelace formula) in nm²
func (poly Polygon) Area() float64 {
	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += float64(poly[i].X)*float64(poly[j].Y) - float64(poly[j].X)*float64(poly[i].Y)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// Shape is an outline with cutouts, such as a board with mounting slots.
// Points on a cutout edge still belong to the shape.
type Shape struct {
	Outer Polygon
	Holes []Polygon
}

// Contains reports whether p is inside the outer outline and not strictly inside a hole
func (s Shape) Contains(p Point) bool {
	if !s.Outer.Contains(p) {
		return false
	}
	for _, h := range s.Holes {
		if h.ContainsStrict(p) {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of the outer outline
func (s Shape) Bounds() Rect {
	return s.Outer.Bounds()
}

// Union is a region made of several members, e.g. multiple selected zones
type Union []Region

// Contains reports whether any member contains p
func (u Union) Contains(p Point) bool {
	for _, r := range u {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Bounds returns the smallest rectangle covering every member
func (u Union) Bounds() Rect {
	if len(u) == 0 {
		return Rect{}
	}
	b := u[0].Bounds()
	for _, r := range u[1:] {
		b = b.Union(r.Bounds())
	}
	return b
}
