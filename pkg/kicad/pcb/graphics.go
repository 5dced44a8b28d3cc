package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp/kicadsexp"
)

// graphicCommon holds the fields shared by all gr_* elements
type graphicCommon struct {
	Width float64
	Layer string
}

// parseGraphicCommon reads the stroke width and layer of a gr_* element.
// Width comes from (stroke (width w)) in KiCad 7+ or (width w) in KiCad 6.
func parseGraphicCommon(node kicadsexp.Sexp) (graphicCommon, error) {
	gc := graphicCommon{Width: 0.15}

	if strokeNode, found := sexp.FindNode(node, "stroke"); found {
		if widthNode, found := sexp.FindNode(strokeNode, "width"); found {
			w, err := sexp.GetFloat(widthNode, 1)
			if err != nil {
				return gc, fmt.Errorf("failed to parse stroke width: %w", err)
			}
			gc.Width = w
		}
	} else if widthNode, found := sexp.FindNode(node, "width"); found {
		w, err := sexp.GetFloat(widthNode, 1)
		if err != nil {
			return gc, fmt.Errorf("failed to parse width: %w", err)
		}
		gc.Width = w
	}

	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return gc, fmt.Errorf("missing required 'layer' field")
	}
	layer, err := sexp.GetQuotedString(layerNode, 1)
	if err != nil {
		return gc, fmt.Errorf("failed to parse layer: %w", err)
	}
	gc.Layer = layer

	return gc, nil
}

// parseGrLine extracts a line graphic element
// Expected format: (gr_line (start x1 y1) (end x2 y2) (stroke ...) (layer "Edge.Cuts"))
func parseGrLine(node kicadsexp.Sexp) (*GrLine, error) {
	gc, err := parseGraphicCommon(node)
	if err != nil {
		return nil, err
	}
	start, err := sexp.FindPosition(node, "start")
	if err != nil {
		return nil, err
	}
	end, err := sexp.FindPosition(node, "end")
	if err != nil {
		return nil, err
	}
	return &GrLine{Start: start, End: end, Width: gc.Width, Layer: gc.Layer}, nil
}

// parseGrCircle extracts a circle graphic element
// Expected format: (gr_circle (center x y) (end x y) (stroke ...) (layer "Edge.Cuts"))
func parseGrCircle(node kicadsexp.Sexp) (*GrCircle, error) {
	gc, err := parseGraphicCommon(node)
	if err != nil {
		return nil, err
	}
	center, err := sexp.FindPosition(node, "center")
	if err != nil {
		return nil, err
	}
	end, err := sexp.FindPosition(node, "end")
	if err != nil {
		return nil, err
	}
	return &GrCircle{Center: center, End: end, Width: gc.Width, Layer: gc.Layer}, nil
}

// parseGrArc extracts an arc graphic element
// Expected format: (gr_arc (start x y) (mid x y) (end x y) (stroke ...) (layer "Edge.Cuts"))
func parseGrArc(node kicadsexp.Sexp) (*GrArc, error) {
	gc, err := parseGraphicCommon(node)
	if err != nil {
		return nil, err
	}
	arc := &GrArc{Width: gc.Width, Layer: gc.Layer}
	if arc.Start, err = sexp.FindPosition(node, "start"); err != nil {
		return nil, err
	}
	if arc.Mid, err = sexp.FindPosition(node, "mid"); err != nil {
		return nil, err
	}
	if arc.End, err = sexp.FindPosition(node, "end"); err != nil {
		return nil, err
	}
	return arc, nil
}

// parseGrRect extracts a rectangle graphic element
// Expected format: (gr_rect (start x y) (end x y) (stroke ...) (layer "Edge.Cuts"))
func parseGrRect(node kicadsexp.Sexp) (*GrRect, error) {
	gc, err := parseGraphicCommon(node)
	if err != nil {
		return nil, err
	}
	start, err := sexp.FindPosition(node, "start")
	if err != nil {
		return nil, err
	}
	end, err := sexp.FindPosition(node, "end")
	if err != nil {
		return nil, err
	}
	return &GrRect{Start: start, End: end, Width: gc.Width, Layer: gc.Layer}, nil
}

// parseGrPoly extracts a polygon graphic element
// Expected format: (gr_poly (pts (xy x y) (xy x y) ...) (stroke ...) (layer "Edge.Cuts"))
func parseGrPoly(node kicadsexp.Sexp) (*GrPoly, error) {
	gc, err := parseGraphicCommon(node)
	if err != nil {
		return nil, err
	}
	ptsNode, found := sexp.FindNode(node, "pts")
	if !found {
		return nil, fmt.Errorf("missing required 'pts' field")
	}
	points, err := sexp.GetPoints(ptsNode)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no points defined in polygon")
	}
	return &GrPoly{Points: points, Width: gc.Width, Layer: gc.Layer}, nil
}

// parseGraphics extracts the board-level gr_* elements
func parseGraphics(root kicadsexp.Sexp) (Graphics, error) {
	var g Graphics

	for _, node := range sexp.FindAllNodes(root, "gr_line") {
		line, err := parseGrLine(node)
		if err != nil {
			return g, fmt.Errorf("gr_line: %w", err)
		}
		g.Lines = append(g.Lines, *line)
	}
	for _, node := range sexp.FindAllNodes(root, "gr_circle") {
		circle, err := parseGrCircle(node)
		if err != nil {
			return g, fmt.Errorf("gr_circle: %w", err)
		}
		g.Circles = append(g.Circles, *circle)
	}
	for _, node := range sexp.FindAllNodes(root, "gr_arc") {
		arc, err := parseGrArc(node)
		if err != nil {
			return g, fmt.Errorf("gr_arc: %w", err)
		}
		g.Arcs = append(g.Arcs, *arc)
	}
	for _, node := range sexp.FindAllNodes(root, "gr_rect") {
		rect, err := parseGrRect(node)
		if err != nil {
			return g, fmt.Errorf("gr_rect: %w", err)
		}
		g.Rects = append(g.Rects, *rect)
	}
	for _, node := range sexp.FindAllNodes(root, "gr_poly") {
		poly, err := parseGrPoly(node)
		if err != nil {
			return g, fmt.Errorf("gr_poly: %w", err)
		}
		g.Polys = append(g.Polys, *poly)
	}

	return g, nil
}
