package boardhost

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/pcb"
)

// ErrNoZone is returned when no copper zone matches a selector
var ErrNoZone = errors.New("no matching zone")

// RegionKind selects how the placement region is built
type RegionKind string

const (
	RegionBoard RegionKind = "board"
	RegionZone  RegionKind = "zone"
	RegionRect  RegionKind = "rect"
)

// ParseRegionKind validates a region kind name
func ParseRegionKind(s string) (RegionKind, error) {
	switch k := RegionKind(s); k {
	case RegionBoard, RegionZone, RegionRect:
		return k, nil
	}
	return "", fmt.Errorf("unknown region %q (want board, zone or rect)", s)
}

// BoardRegion returns the area inside Edge.Cuts. Loops inside the largest
// outline are cutouts; loops outside it are further outlines.
func (h *Host) BoardRegion() (geom.Region, error) {
	loops, err := h.board.Outline()
	if err != nil {
		return nil, err
	}

	outer := polygon(loops[0])
	shape := geom.Shape{Outer: outer}
	var others geom.Union
	for _, loop := range loops[1:] {
		p := polygon(loop)
		if outer.ContainsStrict(p[0]) {
			shape.Holes = append(shape.Holes, p)
		} else {
			others = append(others, p)
		}
	}
	if len(others) == 0 {
		return shape, nil
	}
	return append(geom.Union{shape}, others...), nil
}

// ZoneRegion returns the union of the copper zone outlines whose net name
// or zone name equals selector
func (h *Host) ZoneRegion(selector string) (geom.Region, error) {
	var u geom.Union
	for _, z := range h.board.CopperZones() {
		if z.NetName == selector || (z.Name != "" && z.Name == selector) {
			u = append(u, polygon(z.Outline))
		}
	}
	if len(u) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoZone, selector)
	}
	if len(u) == 1 {
		return u[0], nil
	}
	return u, nil
}

func polygon(pts []pcb.Position) geom.Polygon {
	poly := make(geom.Polygon, len(pts))
	for i, p := range pts {
		poly[i] = Point(p)
	}
	return poly
}
