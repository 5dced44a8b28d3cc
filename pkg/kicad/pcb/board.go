package pcb

import "sort"

// Board represents the parts of a KiCad PCB that matter for via placement
type Board struct {
	Version    int    // File format version
	Generator  string // Generator info (e.g. "pcbnew")
	General    General
	Layers     []Layer
	Setup      Setup
	Nets       []Net
	Footprints []Footprint
	Graphics   Graphics // Board-level graphics (gr_*)
	Tracks     []Track
	Vias       []Via
	Zones      []Zone

	added []Via
}

// General contains general board properties
type General struct {
	Thickness float64 // Board thickness in mm
}

// Setup contains the board setup values used as grid references
type Setup struct {
	AuxAxisOrigin Position
	GridOrigin    Position
	HasGridOrigin bool
}

// Footprint represents a component footprint
type Footprint struct {
	Library   string
	Name      string
	Layer     string
	Position  PositionAngle
	Reference string
	Value     string
	Pads      []Pad
}

// Pad represents a footprint pad. Position is relative to the footprint;
// use Footprint.PadPosition for board coordinates.
type Pad struct {
	Number   string
	Type     string // thru_hole, smd, connect, np_thru_hole
	Shape    string
	Position PositionAngle
	Size     Size
	Drill    float64
	Layers   LayerSet
	Net      *Net
}

// Track represents a copper track. Arc tracks carry a Mid point.
type Track struct {
	Start  Position
	Mid    *Position
	End    Position
	Width  float64
	Layer  string
	Net    *Net
	Locked bool
}

// Via represents a via
type Via struct {
	Position Position
	Size     float64 // Outer diameter in mm
	Drill    float64
	Layers   LayerSet
	Net      *Net
	Locked   bool
	UUID     UUID
}

// Zone represents a copper zone or rule area outline
type Zone struct {
	Name     string
	Net      *Net
	NetName  string
	Layers   LayerSet
	Outline  []Position
	RuleArea bool // keepout / rule area rather than copper
	UUID     UUID
}

// GetNet returns a net by name, or nil if not found
func (b *Board) GetNet(name string) *Net {
	for i := range b.Nets {
		if b.Nets[i].Name == name {
			return &b.Nets[i]
		}
	}
	return nil
}

// NetMap builds a lookup map over the board nets
func (b *Board) NetMap() *NetMap {
	return NewNetMap(b.Nets)
}

// AddVia appends a via to the in-memory board and records it as pending
// so it can be written back with WriteVias.
func (b *Board) AddVia(v Via) {
	b.Vias = append(b.Vias, v)
	b.added = append(b.added, v)
}

// AddedVias returns the vias added since parsing
func (b *Board) AddedVias() []Via {
	return b.added
}

// NetInfo summarises the copper attached to one net
type NetInfo struct {
	Net    Net
	Pads   int
	Tracks int
	Vias   int
	Zones  int
}

// NetSummary returns per-net object counts ordered by net number
func (b *Board) NetSummary() []NetInfo {
	byNumber := make(map[int]*NetInfo, len(b.Nets))
	out := make([]NetInfo, 0, len(b.Nets))
	for _, n := range b.Nets {
		out = append(out, NetInfo{Net: n})
	}
	for i := range out {
		byNumber[out[i].Net.Number] = &out[i]
	}

	count := func(n *Net, f func(*NetInfo)) {
		if n == nil {
			return
		}
		if info, ok := byNumber[n.Number]; ok {
			f(info)
		}
	}
	for _, fp := range b.Footprints {
		for _, pad := range fp.Pads {
			count(pad.Net, func(i *NetInfo) { i.Pads++ })
		}
	}
	for _, t := range b.Tracks {
		count(t.Net, func(i *NetInfo) { i.Tracks++ })
	}
	for _, v := range b.Vias {
		count(v.Net, func(i *NetInfo) { i.Vias++ })
	}
	for _, z := range b.Zones {
		count(z.Net, func(i *NetInfo) { i.Zones++ })
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Net.Number < out[j].Net.Number })
	return out
}

// CopperZones returns the zones that carry copper (not rule areas)
func (b *Board) CopperZones() []Zone {
	var zones []Zone
	for _, z := range b.Zones {
		if !z.RuleArea {
			zones = append(zones, z)
		}
	}
	return zones
}
