package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
)

// parseZone extracts a zone outline. Filled polygons are ignored: the
// placement engine works from outlines, not from computed copper fill.
// Expected format: (zone (net 1) (net_name "GND") (layer "F.Cu") (polygon (pts (xy x y) ...)) ...)
func parseZone(node kicadsexp.Sexp, netMap *NetMap) (*Zone, error) {
	zone := &Zone{
		Net:    lookupNet(node, netMap),
		Layers: parseLayerSet(node),
		UUID:   sexp.GetUUID(node),
	}

	if n, found := sexp.FindNode(node, "net_name"); found {
		zone.NetName, _ = sexp.GetQuotedString(n, 1)
	}
	if zone.NetName == "" && zone.Net != nil {
		zone.NetName = zone.Net.Name
	}
	if n, found := sexp.FindNode(node, "name"); found {
		zone.Name, _ = sexp.GetQuotedString(n, 1)
	}
	if _, found := sexp.FindNode(node, "keepout"); found {
		zone.RuleArea = true
	}

	polyNode, found := sexp.FindNode(node, "polygon")
	if !found {
		return nil, fmt.Errorf("missing required 'polygon' outline")
	}
	ptsNode, found := sexp.FindNode(polyNode, "pts")
	if !found {
		return nil, fmt.Errorf("missing required 'pts' in polygon")
	}
	points, err := sexp.GetPoints(ptsNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse zone outline: %w", err)
	}
	if len(points) < 3 {
		return nil, fmt.Errorf("zone outline has %d points, need at least 3", len(points))
	}
	zone.Outline = points

	return zone, nil
}

// parseZones extracts all zone definitions
func parseZones(root kicadsexp.Sexp, netMap *NetMap) ([]Zone, error) {
	zoneNodes := sexp.FindAllNodes(root, "zone")
	zones := make([]Zone, 0, len(zoneNodes))

	for i, zoneNode := range zoneNodes {
		zone, err := parseZone(zoneNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		zones = append(zones, *zone)
	}

	return zones, nil
}
