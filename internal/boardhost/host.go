// Package boardhost adapts a parsed KiCad board to the placement host
// interface: net lookup, copper snapshots and via commits.
package boardhost

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/placement"
)

// ErrNoReferenceVia is returned when no via is close to the requested point
var ErrNoReferenceVia = errors.New("no via at reference point")

// arcChord is the maximum chord, in mm, used to flatten arc tracks
const arcChord = 0.1

// Host wraps a board. Committed vias are added to the board model and can
// be written back with pcb.Board.WriteAdded.
type Host struct {
	board *pcb.Board
	nets  *pcb.NetMap
	// LockVias marks committed vias as locked
	LockVias bool
}

// New returns a host for board
func New(board *pcb.Board) *Host {
	return &Host{board: board, nets: board.NetMap()}
}

// Board returns the wrapped board
func (h *Host) Board() *pcb.Board {
	return h.board
}

// FindNet implements placement.Host. The unconnected net has no name and
// is never found.
func (h *Host) FindNet(name string) (copper.NetID, bool) {
	if name == "" {
		return 0, false
	}
	n, ok := h.nets.GetByName(name)
	if !ok {
		return 0, false
	}
	return copper.NetID(n.Number), true
}

// NetNames maps net codes to names
func (h *Host) NetNames() map[copper.NetID]string {
	names := make(map[copper.NetID]string, len(h.board.Nets))
	for _, n := range h.board.Nets {
		names[copper.NetID(n.Number)] = n.Name
	}
	return names
}

// Snapshot implements placement.Host: every via, copper pad and track on
// any layer, in nanometres. Arc tracks are flattened into segments.
func (h *Host) Snapshot() []copper.Object {
	b := h.board
	objects := make([]copper.Object, 0, len(b.Vias)+len(b.Tracks)+8*len(b.Footprints))

	for _, v := range b.Vias {
		objects = append(objects, copper.NewVia(Point(v.Position), sexp.ToNanometers(v.Size), netID(v.Net)))
	}

	for i := range b.Footprints {
		fp := &b.Footprints[i]
		for _, pad := range fp.Pads {
			if !pad.IsCopper() {
				continue
			}
			size := sexp.ToNanometers(pad.Size.Max())
			objects = append(objects, copper.NewPad(Point(fp.PadPosition(pad)), size, netID(pad.Net)))
		}
	}

	for _, t := range b.Tracks {
		width := sexp.ToNanometers(t.Width)
		net := netID(t.Net)
		if t.Mid == nil {
			objects = append(objects, copper.NewTrack(Point(t.Start), Point(t.End), width, net))
			continue
		}
		pts := pcb.ArcPoints(t.Start, *t.Mid, t.End, arcChord)
		for j := 1; j < len(pts); j++ {
			objects = append(objects, copper.NewTrack(Point(pts[j-1]), Point(pts[j]), width, net))
		}
	}

	return objects
}

// AddVia implements placement.Host
func (h *Host) AddVia(at geom.Point, v placement.ViaSpec, net copper.NetID) error {
	n, ok := h.nets.GetByNumber(int(net))
	if !ok {
		return fmt.Errorf("net %d is not on the board", net)
	}
	layers := v.LayerPair()
	h.board.AddVia(pcb.Via{
		Position: Position(at),
		Size:     sexp.ToMillimeters(v.OuterDiameter),
		Drill:    sexp.ToMillimeters(v.Drill),
		Layers:   pcb.LayerSet{layers[0], layers[1]},
		Net:      n,
		Locked:   h.LockVias,
		UUID:     pcb.UUID(uuid.NewString()),
	})
	return nil
}

// Origin returns the board grid origin, or (0, 0) when none is set
func (h *Host) Origin() geom.Point {
	if h.board.Setup.HasGridOrigin {
		return Point(h.board.Setup.GridOrigin)
	}
	return geom.Point{}
}

// ReferenceVia returns the via closest to p within tolerance
func (h *Host) ReferenceVia(p geom.Point, tolerance int64) (pcb.Via, error) {
	best := -1
	bestDist := math.Inf(1)
	for i, v := range h.board.Vias {
		d := geom.Distance(p, Point(v.Position))
		if d <= float64(tolerance) && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return pcb.Via{}, fmt.Errorf("%w %v", ErrNoReferenceVia, p)
	}
	return h.board.Vias[best], nil
}

// Point converts a board position to nanometres
func Point(p pcb.Position) geom.Point {
	return geom.Pt(sexp.ToNanometers(p.X), sexp.ToNanometers(p.Y))
}

// Position converts nanometres to a board position
func Position(p geom.Point) pcb.Position {
	return pcb.Position{X: sexp.ToMillimeters(p.X), Y: sexp.ToMillimeters(p.Y)}
}

func netID(n *pcb.Net) copper.NetID {
	if n == nil {
		return 0
	}
	return copper.NetID(n.Number)
}
