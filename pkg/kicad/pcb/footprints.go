package pcb

import (
	"fmt"
	"math"
	"strings"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
)

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (layers ...) (net n) ...)
func parsePad(node kicadsexp.Sexp, netMap *NetMap) (*Pad, error) {
	pad := &Pad{}

	number, err := sexp.GetQuotedString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad number: %w", err)
	}
	pad.Number = number

	if pad.Type, err = sexp.GetString(node, 2); err != nil {
		return nil, fmt.Errorf("failed to parse pad type: %w", err)
	}
	if pad.Shape, err = sexp.GetString(node, 3); err != nil {
		return nil, fmt.Errorf("failed to parse pad shape: %w", err)
	}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if pad.Position, err = sexp.GetPositionAngle(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse pad position: %w", err)
	}

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	width, err := sexp.GetFloat(sizeNode, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad width: %w", err)
	}
	height, err := sexp.GetFloat(sizeNode, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad height: %w", err)
	}
	pad.Size = Size{Width: width, Height: height}

	// (drill d) or (drill oval w h)
	if drillNode, found := sexp.FindNode(node, "drill"); found {
		if drill, err := sexp.GetFloat(drillNode, 1); err == nil {
			pad.Drill = drill
		} else if drill, err := sexp.GetFloat(drillNode, 2); err == nil {
			pad.Drill = drill
		}
	}

	pad.Layers = parseLayerSet(node)
	if len(pad.Layers) == 0 {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	pad.Net = lookupNet(node, netMap)

	return pad, nil
}

// parseFootprint extracts a footprint (component) definition
// Expected format: (footprint "library:name" (layer "layer") (at x y [angle]) ...)
func parseFootprint(node kicadsexp.Sexp, netMap *NetMap) (*Footprint, error) {
	footprint := &Footprint{}

	fpName, err := sexp.GetQuotedString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint name: %w", err)
	}
	// "Resistor_SMD:R_0603_1608Metric"
	if lib, name, ok := strings.Cut(fpName, ":"); ok && lib != "" {
		footprint.Library = lib
		footprint.Name = name
	} else {
		footprint.Name = fpName
	}

	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	if footprint.Layer, err = sexp.GetQuotedString(layerNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse layer: %w", err)
	}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if footprint.Position, err = sexp.GetPositionAngle(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse position: %w", err)
	}

	// KiCad 8 uses (property "Reference" "R1"); KiCad 6/7 use (fp_text reference "R1")
	for _, propNode := range sexp.FindAllNodes(node, "property") {
		key, err1 := sexp.GetQuotedString(propNode, 1)
		value, err2 := sexp.GetQuotedString(propNode, 2)
		if err1 != nil || err2 != nil {
			continue
		}
		switch key {
		case "Reference":
			footprint.Reference = value
		case "Value":
			footprint.Value = value
		}
	}
	for _, textNode := range sexp.FindAllNodes(node, "fp_text") {
		kind, _ := sexp.GetString(textNode, 1)
		value, err := sexp.GetQuotedString(textNode, 2)
		if err != nil {
			continue
		}
		switch {
		case kind == "reference" && footprint.Reference == "":
			footprint.Reference = value
		case kind == "value" && footprint.Value == "":
			footprint.Value = value
		}
	}

	for i, padNode := range sexp.FindAllNodes(node, "pad") {
		pad, err := parsePad(padNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("pad %d: %w", i, err)
		}
		footprint.Pads = append(footprint.Pads, *pad)
	}

	return footprint, nil
}

// parseFootprints extracts all footprint definitions from the root node
func parseFootprints(root kicadsexp.Sexp, netMap *NetMap) ([]Footprint, error) {
	var footprints []Footprint

	for _, fpNode := range sexp.FindAllNodes(root, "footprint") {
		footprint, err := parseFootprint(fpNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("failed to parse footprint: %w", err)
		}
		footprints = append(footprints, *footprint)
	}

	return footprints, nil
}

// TransformPosition maps a footprint-relative position to board coordinates.
// KiCad angles are counter-clockwise on screen with Y pointing down, so the
// rotation is applied with a negated angle.
func (fp *Footprint) TransformPosition(rel Position) Position {
	x, y := rel.X, rel.Y

	if fp.Position.Angle != 0 {
		angleRad := -float64(fp.Position.Angle) * math.Pi / 180.0
		cos, sin := math.Cos(angleRad), math.Sin(angleRad)
		x, y = x*cos-y*sin, x*sin+y*cos
	}

	return Position{X: x + fp.Position.X, Y: y + fp.Position.Y}
}

// PadPosition returns the board position of a pad
func (fp *Footprint) PadPosition(pad Pad) Position {
	return fp.TransformPosition(pad.Position.Position)
}

// IsCopper reports whether the pad has any copper layer
func (p Pad) IsCopper() bool {
	for _, l := range p.Layers {
		if strings.HasSuffix(l, ".Cu") {
			return true
		}
	}
	return false
}
