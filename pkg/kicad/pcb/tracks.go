package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
)

// parseSegment extracts a straight track or an arc track
// Expected format: (segment (start x y) (end x y) (width w) (layer "layer") (net n) ...)
// or (arc (start x y) (mid x y) (end x y) (width w) ...)
func parseSegment(node kicadsexp.Sexp, netMap *NetMap) (*Track, error) {
	track := &Track{Width: 0.15}

	start, err := sexp.FindPosition(node, "start")
	if err != nil {
		return nil, err
	}
	track.Start = start

	end, err := sexp.FindPosition(node, "end")
	if err != nil {
		return nil, err
	}
	track.End = end

	if _, found := sexp.FindNode(node, "mid"); found {
		mid, err := sexp.FindPosition(node, "mid")
		if err != nil {
			return nil, err
		}
		track.Mid = &mid
	}

	if widthNode, found := sexp.FindNode(node, "width"); found {
		width, err := sexp.GetFloat(widthNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse width: %w", err)
		}
		track.Width = width
	}

	layers := parseLayerSet(node)
	if len(layers) == 0 {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	track.Layer = layers[0]
	track.Net = lookupNet(node, netMap)
	track.Locked = sexp.HasFlag(node, "locked")

	return track, nil
}

// parseVia extracts a via definition
// Expected format: (via (at x y) (size diameter) (drill diameter) (layers "L1" "L2") (net n) ...)
func parseVia(node kicadsexp.Sexp, netMap *NetMap) (*Via, error) {
	via := &Via{}

	pos, err := sexp.FindPosition(node, "at")
	if err != nil {
		return nil, err
	}
	via.Position = pos

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	if via.Size, err = sexp.GetFloat(sizeNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse size: %w", err)
	}

	drillNode, found := sexp.FindNode(node, "drill")
	if !found {
		return nil, fmt.Errorf("missing required 'drill' field")
	}
	if via.Drill, err = sexp.GetFloat(drillNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse drill: %w", err)
	}

	via.Layers = parseLayerSet(node)
	if len(via.Layers) == 0 {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	via.Net = lookupNet(node, netMap)
	via.Locked = sexp.HasFlag(node, "locked")
	via.UUID = sexp.GetUUID(node)

	return via, nil
}

// parseTracks extracts all (segment ...) and (arc ...) tracks from the root node
func parseTracks(root kicadsexp.Sexp, netMap *NetMap) ([]Track, error) {
	var tracks []Track

	for _, kind := range []string{"segment", "arc"} {
		for _, node := range sexp.FindAllNodes(root, kind) {
			track, err := parseSegment(node, netMap)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", kind, err)
			}
			tracks = append(tracks, *track)
		}
	}

	return tracks, nil
}

// parseVias extracts all via definitions from the root node
func parseVias(root kicadsexp.Sexp, netMap *NetMap) ([]Via, error) {
	var vias []Via

	for _, viaNode := range sexp.FindAllNodes(root, "via") {
		via, err := parseVia(viaNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("failed to parse via: %w", err)
		}
		vias = append(vias, *via)
	}

	return vias, nil
}
