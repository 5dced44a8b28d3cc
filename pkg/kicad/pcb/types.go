package pcb

import (
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
)

// Shared types re-exported from the sexp package so callers can stay on pcb.*

const (
	NanometersToMM = sexp.NanometersToMM
	MMToNanometers = sexp.MMToNanometers
)

type Position = sexp.Position
type Angle = sexp.Angle
type PositionAngle = sexp.PositionAngle
type Size = sexp.Size
type BoundingBox = sexp.BoundingBox
type UUID = sexp.UUID

type GrLine = sexp.GrLine
type GrCircle = sexp.GrCircle
type GrArc = sexp.GrArc
type GrRect = sexp.GrRect
type GrPoly = sexp.GrPoly
type Graphics = sexp.Graphics

var NewBoundingBox = sexp.NewBoundingBox

// EdgeCutsLayer is the board outline layer
const EdgeCutsLayer = "Edge.Cuts"

// Layer represents a PCB layer
type Layer struct {
	Number int    // Layer ordinal
	Name   string // e.g. "F.Cu", "B.Cu", "Edge.Cuts"
	Type   string // e.g. "signal", "power", "user"
}

// IsCopper reports whether the layer carries copper
func (l Layer) IsCopper() bool {
	return l.Type == "signal" || l.Type == "power" || l.Type == "mixed" || l.Type == "jumper"
}

// Net represents an electrical net
type Net struct {
	Number int
	Name   string
}

// LayerSet represents a set of layer names
type LayerSet []string

// Contains reports whether the set includes the layer, honouring the
// "*.Cu" wildcard used by through-hole pads.
func (ls LayerSet) Contains(name string) bool {
	for _, l := range ls {
		if l == name {
			return true
		}
		if l == "*.Cu" && len(name) > 3 && name[len(name)-3:] == ".Cu" {
			return true
		}
	}
	return false
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	byNumber map[int]*Net
	byName   map[string]*Net
}

// NewNetMap creates a NetMap from a slice of nets
func NewNetMap(nets []Net) *NetMap {
	nm := &NetMap{
		byNumber: make(map[int]*Net, len(nets)),
		byName:   make(map[string]*Net, len(nets)),
	}
	for i := range nets {
		net := &nets[i]
		nm.byNumber[net.Number] = net
		// net 0 is the unnamed "no net" entry
		if net.Name != "" {
			nm.byName[net.Name] = net
		}
	}
	return nm
}

// GetByName retrieves a net by its name (e.g. "GND", "+5V")
func (nm *NetMap) GetByName(name string) (*Net, bool) {
	net, ok := nm.byName[name]
	return net, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*Net, bool) {
	net, ok := nm.byNumber[num]
	return net, ok
}
