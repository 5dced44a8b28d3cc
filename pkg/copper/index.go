package copper

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

// DefaultAnchorStep is the anchor spacing along tracks used when none is given (5 mm)
const DefaultAnchorStep int64 = 5000000

// Index holds the copper snapshot plus everything appended during a run.
// Every object is keyed in a k-d tree by anchors on its centre line: one
// for a via or pad, one per step of length for a track. No point of a
// centre line is further than half a step from an anchor of its object.
// The zero value is not usable; build one with NewIndex.
type Index struct {
	objects   []Object
	step      int64
	tree      *kdtree.Tree
	maxRadius float64
}

// anchor is one k-d tree key: a point on the centre line of objects[obj]
type anchor struct {
	x, y float64
	obj  int
}

// Compare implements kdtree.Comparable. Dimension 0 is X, 1 is Y.
func (a anchor) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	b := c.(anchor)
	if d == 0 {
		return a.x - b.x
	}
	return a.y - b.y
}

func (a anchor) Dims() int { return 2 }

// Distance is the squared Euclidean distance, as kdtree expects
func (a anchor) Distance(c kdtree.Comparable) float64 {
	b := c.(anchor)
	dx, dy := a.x-b.x, a.y-b.y
	return dx*dx + dy*dy
}

// anchors satisfies kdtree.Interface for the initial bulk build
type anchors []anchor

func (p anchors) Index(i int) kdtree.Comparable         { return p[i] }
func (p anchors) Len() int                              { return len(p) }
func (p anchors) Pivot(d kdtree.Dim) int                { return plane{anchors: p, Dim: d}.Pivot() }
func (p anchors) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane pivots anchors on one dimension
type plane struct {
	kdtree.Dim
	anchors
}

func (p plane) Less(i, j int) bool {
	return p.anchors[i].Compare(p.anchors[j], p.Dim) < 0
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfRandoms(p, 100)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.anchors = p.anchors[start:end]
	return p
}
func (p plane) Swap(i, j int) { p.anchors[i], p.anchors[j] = p.anchors[j], p.anchors[i] }

// NewIndex builds an index over a snapshot. step <= 0 selects DefaultAnchorStep.
func NewIndex(objects []Object, step int64) *Index {
	if step <= 0 {
		step = DefaultAnchorStep
	}
	idx := &Index{
		objects: make([]Object, 0, len(objects)),
		step:    step,
	}

	var keys anchors
	for _, o := range objects {
		keys = append(keys, idx.add(o)...)
	}
	idx.tree = kdtree.New(keys, false)
	return idx
}

// Append adds an object; the index only ever grows
func (idx *Index) Append(o Object) {
	for _, a := range idx.add(o) {
		idx.tree.Insert(a, false)
	}
}

// add records o and returns its anchors
func (idx *Index) add(o Object) []anchor {
	i := len(idx.objects)
	idx.objects = append(idx.objects, o)
	idx.maxRadius = math.Max(idx.maxRadius, o.RadiusF())

	ax, ay := float64(o.At.X), float64(o.At.Y)
	dx, dy := float64(o.End.X)-ax, float64(o.End.Y)-ay
	n := max(1, int(math.Ceil(math.Hypot(dx, dy)/float64(idx.step))))

	keys := make([]anchor, n)
	for k := range keys {
		t := (float64(k) + 0.5) / float64(n)
		keys[k] = anchor{x: ax + t*dx, y: ay + t*dy, obj: i}
	}
	return keys
}

// Len returns the number of indexed objects
func (idx *Index) Len() int {
	return len(idx.objects)
}

// All visits every object in insertion order until fn returns false
func (idx *Index) All(fn func(Object) bool) {
	for _, o := range idx.objects {
		if !fn(o) {
			return
		}
	}
}

// Objects returns the indexed objects in insertion order.
// The slice must not be modified.
func (idx *Index) Objects() []Object {
	return idx.objects
}

// Near visits, in insertion order and at most once each, every object whose
// copper edge lies within reach of p: centre-line distance minus radius is
// at most reach. Iteration stops when fn returns false.
func (idx *Index) Near(p geom.Point, reach int64, fn func(Object) bool) {
	if reach < 0 {
		reach = 0
	}
	limit := float64(reach)

	// an object within reach has an anchor within this radius of p
	search := limit + idx.maxRadius + float64(idx.step)/2 + 1
	keep := kdtree.NewDistKeeper(search * search)
	idx.tree.NearestSet(keep, anchor{x: float64(p.X), y: float64(p.Y)})

	var hits []int
	seen := make(map[int]struct{})
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		i := c.Comparable.(anchor).obj
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		o := idx.objects[i]
		if o.Distance(p)-o.RadiusF() <= limit+1 {
			hits = append(hits, i)
		}
	}
	slices.Sort(hits)
	for _, i := range hits {
		if !fn(idx.objects[i]) {
			return
		}
	}
}
