package pcb

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoOutline is returned when the board has no Edge.Cuts graphics
var ErrNoOutline = errors.New("board has no Edge.Cuts outline")

const (
	// outlineTolerance is how far apart (mm) two endpoints may be and still join
	outlineTolerance = 1e-4
	// arcSegmentLength is the maximum chord length (mm) used to flatten arcs
	arcSegmentLength = 0.1
	// circleSegments is the number of chords used for full circles
	circleSegments = 72
)

// EdgeCuts returns the board-level graphics on the Edge.Cuts layer
func (b *Board) EdgeCuts() Graphics {
	var g Graphics
	for _, l := range b.Graphics.Lines {
		if l.Layer == EdgeCutsLayer {
			g.Lines = append(g.Lines, l)
		}
	}
	for _, c := range b.Graphics.Circles {
		if c.Layer == EdgeCutsLayer {
			g.Circles = append(g.Circles, c)
		}
	}
	for _, a := range b.Graphics.Arcs {
		if a.Layer == EdgeCutsLayer {
			g.Arcs = append(g.Arcs, a)
		}
	}
	for _, r := range b.Graphics.Rects {
		if r.Layer == EdgeCutsLayer {
			g.Rects = append(g.Rects, r)
		}
	}
	for _, p := range b.Graphics.Polys {
		if p.Layer == EdgeCutsLayer {
			g.Polys = append(g.Polys, p)
		}
	}
	return g
}

// Outline chains the Edge.Cuts graphics into closed loops. Loops are ordered
// by enclosed area, largest first, so the board outline comes first and
// cutouts follow.
func (b *Board) Outline() ([][]Position, error) {
	edges := b.EdgeCuts()

	var loops [][]Position
	var pieces [][]Position

	for _, r := range edges.Rects {
		loops = append(loops, []Position{
			{X: r.Start.X, Y: r.Start.Y},
			{X: r.End.X, Y: r.Start.Y},
			{X: r.End.X, Y: r.End.Y},
			{X: r.Start.X, Y: r.End.Y},
		})
	}
	for _, c := range edges.Circles {
		loops = append(loops, CirclePoints(c.Center, c.Radius(), circleSegments))
	}
	for _, p := range edges.Polys {
		if len(p.Points) >= 3 {
			loops = append(loops, append([]Position(nil), p.Points...))
		}
	}
	for _, l := range edges.Lines {
		pieces = append(pieces, []Position{l.Start, l.End})
	}
	for _, a := range edges.Arcs {
		pieces = append(pieces, ArcPoints(a.Start, a.Mid, a.End, arcSegmentLength))
	}

	if len(loops) == 0 && len(pieces) == 0 {
		return nil, ErrNoOutline
	}

	chained, err := chainPieces(pieces)
	if err != nil {
		return nil, err
	}
	loops = append(loops, chained...)

	sort.SliceStable(loops, func(i, j int) bool {
		return math.Abs(polygonArea(loops[i])) > math.Abs(polygonArea(loops[j]))
	})
	return loops, nil
}

// OutlineBoundingBox returns the bounding box of all Edge.Cuts loops
func (b *Board) OutlineBoundingBox() (BoundingBox, error) {
	loops, err := b.Outline()
	if err != nil {
		return BoundingBox{}, err
	}
	bbox := NewBoundingBox()
	for _, loop := range loops {
		for _, p := range loop {
			bbox.Expand(p)
		}
	}
	return bbox, nil
}

// chainPieces joins open polylines end to end into closed loops
func chainPieces(pieces [][]Position) ([][]Position, error) {
	used := make([]bool, len(pieces))
	var loops [][]Position

	for first := range pieces {
		if used[first] {
			continue
		}
		used[first] = true
		path := append([]Position(nil), pieces[first]...)

		for !samePoint(path[0], path[len(path)-1]) || len(path) < 3 {
			end := path[len(path)-1]
			next := -1
			reverse := false
			for i, piece := range pieces {
				if used[i] {
					continue
				}
				if samePoint(piece[0], end) {
					next = i
					break
				}
				if samePoint(piece[len(piece)-1], end) {
					next, reverse = i, true
					break
				}
			}
			if next < 0 {
				return nil, fmt.Errorf("Edge.Cuts outline is not closed near (%.4f, %.4f)", end.X, end.Y)
			}
			used[next] = true
			piece := pieces[next]
			if reverse {
				for i := len(piece) - 2; i >= 0; i-- {
					path = append(path, piece[i])
				}
			} else {
				path = append(path, piece[1:]...)
			}
		}

		loops = append(loops, path[:len(path)-1])
	}

	return loops, nil
}

func samePoint(a, b Position) bool {
	return math.Abs(a.X-b.X) <= outlineTolerance && math.Abs(a.Y-b.Y) <= outlineTolerance
}

// polygonArea returns the signed shoelace area of a closed loop
func polygonArea(pts []Position) float64 {
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return area / 2
}

// CirclePoints approximates a circle with n chords
func CirclePoints(center Position, radius float64, n int) []Position {
	pts := make([]Position, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Position{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
	}
	return pts
}

// ArcPoints flattens a three-point arc into a polyline from start to end
// whose chords are at most maxChord long. Collinear input degrades to the
// straight segment.
func ArcPoints(start, mid, end Position, maxChord float64) []Position {
	ax, ay := start.X, start.Y
	bx, by := mid.X, mid.Y
	cx, cy := end.X, end.Y

	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	if math.Abs(d) < 1e-12 {
		return []Position{start, end}
	}
	ux := ((ax*ax+ay*ay)*(by-cy) + (bx*bx+by*by)*(cy-ay) + (cx*cx+cy*cy)*(ay-by)) / d
	uy := ((ax*ax+ay*ay)*(cx-bx) + (bx*bx+by*by)*(ax-cx) + (cx*cx+cy*cy)*(bx-ax)) / d
	r := math.Hypot(ax-ux, ay-uy)

	a0 := math.Atan2(ay-uy, ax-ux)
	am := math.Atan2(by-uy, bx-ux)
	a1 := math.Atan2(cy-uy, cx-ux)

	// sweep from a0 to a1 in the direction that passes through am
	sweep := normalizeAngle(a1 - a0)
	if normalizeAngle(am-a0) > sweep {
		sweep -= 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(sweep) * r / maxChord))
	if n < 2 {
		n = 2
	}
	pts := make([]Position, 0, n+1)
	pts = append(pts, start)
	for i := 1; i < n; i++ {
		a := a0 + sweep*float64(i)/float64(n)
		pts = append(pts, Position{X: ux + r*math.Cos(a), Y: uy + r*math.Sin(a)})
	}
	return append(pts, end)
}

// normalizeAngle maps an angle into [0, 2π)
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
