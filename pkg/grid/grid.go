// Package grid generates the candidate via positions of a rectangular or
// staggered lattice anchored to an origin point and clipped to a region.
package grid

import (
	"errors"
	"fmt"
	"iter"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

// ErrInvalidParameter is returned for unusable grid parameters
var ErrInvalidParameter = errors.New("invalid grid parameter")

// ErrInvalidSpacing is returned when the spacing is not positive
var ErrInvalidSpacing = fmt.Errorf("%w: spacing must be positive", ErrInvalidParameter)

// Spec describes the lattice
type Spec struct {
	Origin  geom.Point // a lattice point; rows and columns align to it
	Spacing int64      // pitch in both axes
	Stagger bool       // shift odd rows by half a pitch
	Margin  int64      // shrink the region bounding box by this much first
}

// Validate checks the spec for contract violations
func (s Spec) Validate() error {
	if s.Spacing <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidSpacing, s.Spacing)
	}
	if s.Margin < 0 {
		return fmt.Errorf("%w: margin must not be negative (got %d)", ErrInvalidParameter, s.Margin)
	}
	return nil
}

// Window is the part of the lattice that covers a region's (shrunk) bounding box
type Window struct {
	Box    geom.Rect // scan box after the margin was applied
	StartX int64     // first lattice column at or after Box.Min.X
	StartY int64     // first lattice row at or after Box.Min.Y
	Offset int64     // X shift applied to odd rows
}

// NewWindow computes the scan window for region. ok is false when the
// bounding box has no area, in which case no positions exist.
func NewWindow(region geom.Region, s Spec) (w Window, ok bool, err error) {
	if err := s.Validate(); err != nil {
		return Window{}, false, err
	}
	if region == nil {
		return Window{}, false, fmt.Errorf("%w: nil region", ErrInvalidParameter)
	}

	box := region.Bounds()
	if box.Empty() {
		return Window{}, false, nil
	}
	box = box.Inset(s.Margin)
	if box.Max.X < box.Min.X || box.Max.Y < box.Min.Y {
		return Window{}, false, nil
	}

	w = Window{
		Box:    box,
		StartX: s.Origin.X - floorDiv(s.Origin.X-box.Min.X, s.Spacing)*s.Spacing,
		StartY: s.Origin.Y - floorDiv(s.Origin.Y-box.Min.Y, s.Spacing)*s.Spacing,
	}
	if s.Stagger {
		w.Offset = halfRounded(s.Spacing)
	}
	return w, true, nil
}

// Positions returns the lattice points inside region in row-major order:
// rows by ascending Y, columns by ascending X. The sequence is lazy and can
// be ranged over any number of times with identical results.
func Positions(region geom.Region, s Spec) (iter.Seq[geom.Point], error) {
	w, ok, err := NewWindow(region, s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return func(func(geom.Point) bool) {}, nil
	}

	return func(yield func(geom.Point) bool) {
		row := 0
		for y := w.StartY; y <= w.Box.Max.Y; y += s.Spacing {
			x := w.StartX
			if row%2 == 1 {
				x += w.Offset
			}
			for ; x <= w.Box.Max.X; x += s.Spacing {
				p := geom.Point{X: x, Y: y}
				if region.Contains(p) && !yield(p) {
					return
				}
			}
			row++
		}
	}, nil
}

// Count returns the number of points Positions would yield
func Count(region geom.Region, s Spec) (int, error) {
	seq, err := Positions(region, s)
	if err != nil {
		return 0, err
	}
	n := 0
	for range seq {
		n++
	}
	return n, nil
}

// floorDiv divides rounding towards negative infinity
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// halfRounded returns v/2 rounded half away from zero
func halfRounded(v int64) int64 {
	if v >= 0 {
		return (v + 1) / 2
	}
	return (v - 1) / 2
}
