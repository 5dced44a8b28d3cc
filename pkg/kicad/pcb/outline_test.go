package pcb

import (
	"bytes"
	"errors"
	"math"
	"os"
	"strings"
	"testing"
)

func TestOutlineChainsLines(t *testing.T) {
	// Square drawn out of order with one reversed edge
	board := &Board{Graphics: Graphics{Lines: []GrLine{
		{Start: Position{X: 0, Y: 0}, End: Position{X: 10, Y: 0}, Layer: EdgeCutsLayer},
		{Start: Position{X: 10, Y: 10}, End: Position{X: 0, Y: 10}, Layer: EdgeCutsLayer},
		{Start: Position{X: 10, Y: 10}, End: Position{X: 10, Y: 0}, Layer: EdgeCutsLayer},
		{Start: Position{X: 0, Y: 10}, End: Position{X: 0, Y: 0}, Layer: EdgeCutsLayer},
		{Start: Position{X: 3, Y: 3}, End: Position{X: 4, Y: 4}, Layer: "F.SilkS"},
	}}}

	loops, err := board.Outline()
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if len(loops) != 1 {
		t.Fatalf("Outline() = %d loops, want 1", len(loops))
	}
	if len(loops[0]) != 4 {
		t.Errorf("loop has %d points, want 4: %v", len(loops[0]), loops[0])
	}
	if area := math.Abs(polygonArea(loops[0])); area != 100 {
		t.Errorf("loop area = %v, want 100", area)
	}
}

func TestOutlineOrdersCutoutsAfterBoard(t *testing.T) {
	board := &Board{Graphics: Graphics{
		Rects: []GrRect{
			{Start: Position{X: 4, Y: 4}, End: Position{X: 6, Y: 6}, Layer: EdgeCutsLayer},
			{Start: Position{X: 0, Y: 0}, End: Position{X: 20, Y: 10}, Layer: EdgeCutsLayer},
		},
	}}

	loops, err := board.Outline()
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if len(loops) != 2 {
		t.Fatalf("Outline() = %d loops, want 2", len(loops))
	}
	if math.Abs(polygonArea(loops[0])) != 200 {
		t.Errorf("first loop area = %v, want the board outline (200)", math.Abs(polygonArea(loops[0])))
	}

	bbox, err := board.OutlineBoundingBox()
	if err != nil {
		t.Fatalf("OutlineBoundingBox() error = %v", err)
	}
	if bbox.Min != (Position{X: 0, Y: 0}) || bbox.Max != (Position{X: 20, Y: 10}) {
		t.Errorf("OutlineBoundingBox() = %+v", bbox)
	}
}

func TestOutlineWithArcCorner(t *testing.T) {
	// 10x10 square whose top-right corner is rounded with radius 2
	r := 2.0
	mid := Position{X: 8 + r*math.Cos(-math.Pi/4), Y: 2 + r*math.Sin(-math.Pi/4)}
	board := &Board{Graphics: Graphics{
		Lines: []GrLine{
			{Start: Position{X: 0, Y: 0}, End: Position{X: 8, Y: 0}, Layer: EdgeCutsLayer},
			{Start: Position{X: 10, Y: 2}, End: Position{X: 10, Y: 10}, Layer: EdgeCutsLayer},
			{Start: Position{X: 10, Y: 10}, End: Position{X: 0, Y: 10}, Layer: EdgeCutsLayer},
			{Start: Position{X: 0, Y: 10}, End: Position{X: 0, Y: 0}, Layer: EdgeCutsLayer},
		},
		Arcs: []GrArc{
			{Start: Position{X: 8, Y: 0}, Mid: mid, End: Position{X: 10, Y: 2}, Layer: EdgeCutsLayer},
		},
	}}

	loops, err := board.Outline()
	if err != nil {
		t.Fatalf("Outline() error = %v", err)
	}
	if len(loops) != 1 {
		t.Fatalf("Outline() = %d loops, want 1", len(loops))
	}
	// square minus the corner cut by a quarter circle: 100 - (4 - π)
	want := 100 - (4 - math.Pi)
	if got := math.Abs(polygonArea(loops[0])); math.Abs(got-want) > 0.01 {
		t.Errorf("loop area = %v, want ~%v", got, want)
	}
}

func TestOutlineErrors(t *testing.T) {
	if _, err := (&Board{}).Outline(); !errors.Is(err, ErrNoOutline) {
		t.Errorf("Outline() on empty board error = %v, want ErrNoOutline", err)
	}

	open := &Board{Graphics: Graphics{Lines: []GrLine{
		{Start: Position{X: 0, Y: 0}, End: Position{X: 10, Y: 0}, Layer: EdgeCutsLayer},
		{Start: Position{X: 10, Y: 0}, End: Position{X: 10, Y: 10}, Layer: EdgeCutsLayer},
	}}}
	_, err := open.Outline()
	if err == nil || !strings.Contains(err.Error(), "not closed") {
		t.Errorf("Outline() on open chain error = %v, want not closed", err)
	}
}

func TestArcPoints(t *testing.T) {
	// half circle of radius 1 around the origin, passing through (0,-1)
	pts := ArcPoints(Position{X: -1, Y: 0}, Position{X: 0, Y: -1}, Position{X: 1, Y: 0}, 0.1)
	if len(pts) < 30 {
		t.Fatalf("ArcPoints() = %d points, want a fine subdivision", len(pts))
	}
	for i, p := range pts {
		if r := math.Hypot(p.X, p.Y); math.Abs(r-1) > 1e-9 {
			t.Errorf("point %d radius = %v, want 1", i, r)
		}
		if p.Y > 1e-9 {
			t.Errorf("point %d = %+v is on the wrong side of the arc", i, p)
		}
	}

	line := ArcPoints(Position{X: 0, Y: 0}, Position{X: 1, Y: 0}, Position{X: 2, Y: 0}, 0.1)
	if len(line) != 2 {
		t.Errorf("collinear ArcPoints() = %v, want the straight segment", line)
	}
}

func TestWriteVias(t *testing.T) {
	src, err := os.ReadFile("testdata/stitch.kicad_pcb")
	if err != nil {
		t.Fatal(err)
	}
	board, err := Parse(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	gnd := board.GetNet("GND")
	board.AddVia(Via{Position: Position{X: 102.54, Y: 101}, Size: 0.5, Drill: 0.3, Net: gnd})
	board.AddVia(Via{Position: Position{X: 105.08, Y: 101}, Size: 0.5, Drill: 0.3, Net: gnd, UUID: "fixed-id"})

	var out bytes.Buffer
	if err := board.WriteAdded(&out, src); err != nil {
		t.Fatalf("WriteAdded() error = %v", err)
	}

	text := out.String()
	if !strings.HasPrefix(text, string(src[:bytes.LastIndexByte(src, ')')])) {
		t.Error("WriteAdded() changed bytes before the insertion point")
	}
	if !strings.Contains(text, `(via (at 105.08 101) (size 0.5) (drill 0.3) (layers "F.Cu" "B.Cu") (net 1) (tstamp fixed-id))`) {
		t.Errorf("WriteAdded() output missing formatted via:\n%s", text)
	}

	reparsed, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}
	if len(reparsed.Vias) != 3 {
		t.Fatalf("re-Parse() vias = %d, want 3", len(reparsed.Vias))
	}
	added := reparsed.Vias[1]
	if added.Position != (Position{X: 102.54, Y: 101}) || added.Net == nil || added.Net.Name != "GND" {
		t.Errorf("round-tripped via = %+v", added)
	}
	if added.UUID == "" {
		t.Error("generated via has no identifier")
	}
}

func TestFormatViaVersions(t *testing.T) {
	v := Via{Position: Position{X: 1, Y: 2}, Size: 0.6, Drill: 0.3, UUID: "abc", Locked: true}

	old := FormatVia(v, 20221018)
	if !strings.HasPrefix(old, "(via locked (at 1 2)") || !strings.Contains(old, "(tstamp abc)") {
		t.Errorf("FormatVia(v7) = %s", old)
	}

	current := FormatVia(v, 20240108)
	if !strings.Contains(current, `(uuid "abc")`) || !strings.Contains(current, "(locked yes)") || !strings.Contains(current, "(net 0)") {
		t.Errorf("FormatVia(v8) = %s", current)
	}
}

func TestWriteViasRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	if err := WriteVias(&out, []byte("not a board"), nil, 0); err == nil {
		t.Error("WriteVias() expected error without closing parenthesis")
	}
}
