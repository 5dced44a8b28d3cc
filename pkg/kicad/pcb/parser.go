package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad board from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	root := sexps[0]
	rootName, err := sexp.GetNodeName(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get root node name: %w", err)
	}
	if rootName != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", rootName)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	board := &Board{
		Version:   version,
		Generator: generator,
	}

	if generalNode, found := sexp.FindNode(root, "general"); found {
		if thicknessNode, found := sexp.FindNode(generalNode, "thickness"); found {
			thickness, err := sexp.GetFloat(thicknessNode, 1)
			if err != nil {
				return nil, fmt.Errorf("failed to parse thickness: %w", err)
			}
			board.General.Thickness = thickness
		}
	}

	if layersNode, found := sexp.FindNode(root, "layers"); found {
		layers, err := parseLayers(layersNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layers section: %w", err)
		}
		board.Layers = layers
	}

	if setupNode, found := sexp.FindNode(root, "setup"); found {
		setup, err := parseSetup(setupNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse setup section: %w", err)
		}
		board.Setup = setup
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets
	netMap := NewNetMap(board.Nets)

	graphics, err := parseGraphics(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphics: %w", err)
	}
	board.Graphics = graphics

	tracks, err := parseTracks(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracks: %w", err)
	}
	board.Tracks = tracks

	vias, err := parseVias(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vias: %w", err)
	}
	board.Vias = vias

	footprints, err := parseFootprints(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprints: %w", err)
	}
	board.Footprints = footprints

	zones, err := parseZones(root, netMap)
	if err != nil {
		return nil, fmt.Errorf("failed to parse zones: %w", err)
	}
	board.Zones = zones

	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root kicadsexp.Sexp) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	if ver < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}

	gen := "unknown"
	if hostNode, found := sexp.FindNode(root, "host"); found {
		// (host pcbnew "(6.0.0)")
		if toolName, err := sexp.GetString(hostNode, 1); err == nil {
			gen = toolName
		}
	} else if genNode, found := sexp.FindNode(root, "generator"); found {
		if generatorName, err := sexp.GetString(genNode, 1); err == nil {
			gen = generatorName
		}
	}

	return ver, gen, nil
}

// parseLayers extracts layer definitions
// Expected format: (layers (0 "F.Cu" signal) (31 "B.Cu" signal) ...)
func parseLayers(node kicadsexp.Sexp) ([]Layer, error) {
	layerNodes := sexp.GetListItems(node)
	if len(layerNodes) == 0 {
		return nil, fmt.Errorf("no layers defined")
	}

	var layers []Layer
	for _, layerNode := range layerNodes {
		if layerNode.IsLeaf() {
			continue
		}

		number, err := sexp.GetInt(layerNode, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer number: %w", err)
		}
		name, err := sexp.GetQuotedString(layerNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer name: %w", err)
		}
		layerType, err := sexp.GetString(layerNode, 2)
		if err != nil {
			layerType = "user"
		}

		layers = append(layers, Layer{Number: number, Name: name, Type: layerType})
	}

	return layers, nil
}

// parseSetup extracts the grid and auxiliary axis origins
// Expected format: (setup (aux_axis_origin x y) (grid_origin x y) ...)
func parseSetup(node kicadsexp.Sexp) (Setup, error) {
	var setup Setup

	if n, found := sexp.FindNode(node, "aux_axis_origin"); found {
		pos, err := sexp.GetPosition(n)
		if err != nil {
			return setup, fmt.Errorf("failed to parse aux_axis_origin: %w", err)
		}
		setup.AuxAxisOrigin = pos
	}

	if n, found := sexp.FindNode(node, "grid_origin"); found {
		pos, err := sexp.GetPosition(n)
		if err != nil {
			return setup, fmt.Errorf("failed to parse grid_origin: %w", err)
		}
		setup.GridOrigin = pos
		setup.HasGridOrigin = true
	}

	return setup, nil
}

// parseNets extracts net definitions from the root node
// Expected format: (net 0 "") (net 1 "GND") (net 2 "+5V") ...
func parseNets(root kicadsexp.Sexp) ([]Net, error) {
	netNodes := sexp.FindAllNodes(root, "net")
	nets := make([]Net, 0, len(netNodes))

	for _, netNode := range netNodes {
		number, err := sexp.GetInt(netNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net number: %w", err)
		}

		// net 0 usually has an empty name
		name, _ := sexp.GetQuotedString(netNode, 2)
		nets = append(nets, Net{Number: number, Name: name})
	}

	return nets, nil
}

// lookupNet resolves the (net n ...) child of an object against the board nets
func lookupNet(node kicadsexp.Sexp, netMap *NetMap) *Net {
	netNode, found := sexp.FindNode(node, "net")
	if !found || netMap == nil {
		return nil
	}
	if num, err := sexp.GetInt(netNode, 1); err == nil {
		if net, ok := netMap.GetByNumber(num); ok {
			return net
		}
		return nil
	}
	// KiCad 9+ may reference nets by name only
	if name, err := sexp.GetQuotedString(netNode, 1); err == nil {
		if net, ok := netMap.GetByName(name); ok {
			return net
		}
	}
	return nil
}

// parseLayerSet reads (layers "F.Cu" "B.Cu") or a single (layer "F.Cu")
func parseLayerSet(node kicadsexp.Sexp) LayerSet {
	if layersNode, found := sexp.FindNode(node, "layers"); found {
		return LayerSet(sexp.GetStrings(layersNode))
	}
	if layerNode, found := sexp.FindNode(node, "layer"); found {
		if name, err := sexp.GetQuotedString(layerNode, 1); err == nil {
			return LayerSet{name}
		}
	}
	return nil
}
