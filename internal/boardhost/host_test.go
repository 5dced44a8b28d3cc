package boardhost

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/clearance"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/placement"
)

const mm int64 = 1000000

func loadHost(t *testing.T) *Host {
	t.Helper()
	board, err := pcb.ParseFile("testdata/stitch.kicad_pcb")
	require.NoError(t, err)
	return New(board)
}

func TestFindNet(t *testing.T) {
	h := loadHost(t)

	id, ok := h.FindNet("GND")
	assert.True(t, ok)
	assert.Equal(t, copper.NetID(1), id)

	_, ok = h.FindNet("")
	assert.False(t, ok, "unconnected net must not be selectable")
	_, ok = h.FindNet("NOPE")
	assert.False(t, ok)

	assert.Equal(t, map[copper.NetID]string{0: "", 1: "GND", 2: "VCC"}, h.NetNames())
}

func TestSnapshot(t *testing.T) {
	h := loadHost(t)

	want := []copper.Object{
		copper.NewVia(geom.Pt(115*mm, 105*mm), 800000, 2),
		copper.NewPad(geom.Pt(104*mm, 105*mm), 1200000, 2),
		copper.NewPad(geom.Pt(106*mm, 105*mm), 1200000, 1),
		copper.NewTrack(geom.Pt(104*mm, 105*mm), geom.Pt(104*mm, 109*mm), 250000, 2),
	}
	assert.Equal(t, want, h.Snapshot())
}

func TestSnapshotArcTrack(t *testing.T) {
	mid := pcb.Position{X: 1, Y: 0}
	board := &pcb.Board{
		Nets: []pcb.Net{{Number: 1, Name: "GND"}},
		Tracks: []pcb.Track{{
			Start: pcb.Position{X: 0, Y: -1},
			Mid:   &mid,
			End:   pcb.Position{X: 0, Y: 1},
			Width: 0.2,
		}},
	}

	objects := New(board).Snapshot()
	require.Greater(t, len(objects), 2)
	assert.Equal(t, geom.Pt(0, -mm), objects[0].At)
	assert.Equal(t, geom.Pt(0, mm), objects[len(objects)-1].End)
	for i, o := range objects {
		assert.Equal(t, copper.Track, o.Kind)
		assert.Equal(t, copper.NetID(0), o.Net)
		if i > 0 {
			assert.Equal(t, objects[i-1].End, o.At, "segments must chain")
		}
	}
}

func TestAddVia(t *testing.T) {
	h := loadHost(t)
	h.LockVias = true

	spec := placement.ViaSpec{OuterDiameter: mm / 2, Drill: 3 * mm / 10, Net: "GND"}
	require.NoError(t, h.AddVia(geom.Pt(110*mm, 102540000), spec, 1))

	added := h.Board().AddedVias()
	require.Len(t, added, 1)
	v := added[0]
	assert.Equal(t, pcb.Position{X: 110, Y: 102.54}, v.Position)
	assert.Equal(t, 0.5, v.Size)
	assert.Equal(t, 0.3, v.Drill)
	assert.Equal(t, pcb.LayerSet{"F.Cu", "B.Cu"}, v.Layers)
	assert.Equal(t, "GND", v.Net.Name)
	assert.True(t, v.Locked)
	assert.NotEmpty(t, v.UUID)

	assert.Error(t, h.AddVia(geom.Pt(0, 0), spec, 99))
}

func TestOriginAndReferenceVia(t *testing.T) {
	h := loadHost(t)
	assert.Equal(t, geom.Pt(100*mm, 100*mm), h.Origin())

	v, err := h.ReferenceVia(geom.Pt(115*mm+1000, 105*mm), mm/10)
	require.NoError(t, err)
	assert.Equal(t, 0.8, v.Size)
	assert.Equal(t, "VCC", v.Net.Name)

	_, err = h.ReferenceVia(geom.Pt(0, 0), mm)
	assert.ErrorIs(t, err, ErrNoReferenceVia)

	assert.Equal(t, geom.Point{}, New(&pcb.Board{}).Origin())
}

func TestRegions(t *testing.T) {
	h := loadHost(t)

	board, err := h.BoardRegion()
	require.NoError(t, err)
	assert.Equal(t, geom.R(100*mm, 100*mm, 120*mm, 110*mm), board.Bounds())
	assert.True(t, board.Contains(geom.Pt(110*mm, 105*mm)))
	assert.True(t, board.Contains(geom.Pt(100*mm, 105*mm)))
	assert.False(t, board.Contains(geom.Pt(99*mm, 105*mm)))

	zone, err := h.ZoneRegion("GND")
	require.NoError(t, err)
	assert.Equal(t, geom.R(101*mm, 101*mm, 119*mm, 109*mm), zone.Bounds())

	_, err = h.ZoneRegion("VCC")
	assert.ErrorIs(t, err, ErrNoZone)

	_, err = New(&pcb.Board{}).BoardRegion()
	assert.ErrorIs(t, err, pcb.ErrNoOutline)
}

func TestBoardRegionCutout(t *testing.T) {
	board := &pcb.Board{Graphics: pcb.Graphics{Rects: []pcb.GrRect{
		{Start: pcb.Position{X: 0, Y: 0}, End: pcb.Position{X: 10, Y: 10}, Layer: pcb.EdgeCutsLayer},
		{Start: pcb.Position{X: 4, Y: 4}, End: pcb.Position{X: 6, Y: 6}, Layer: pcb.EdgeCutsLayer},
		{Start: pcb.Position{X: 20, Y: 0}, End: pcb.Position{X: 22, Y: 2}, Layer: pcb.EdgeCutsLayer},
	}}}

	region, err := New(board).BoardRegion()
	require.NoError(t, err)
	assert.True(t, region.Contains(geom.Pt(2*mm, 2*mm)))
	assert.False(t, region.Contains(geom.Pt(5*mm, 5*mm)))
	assert.True(t, region.Contains(geom.Pt(4*mm, 5*mm)), "cutout edge is board copper area")
	assert.True(t, region.Contains(geom.Pt(21*mm, 1*mm)))
	assert.False(t, region.Contains(geom.Pt(15*mm, 1*mm)))
}

func TestParseRegionKind(t *testing.T) {
	for _, s := range []string{"board", "zone", "rect"} {
		k, err := ParseRegionKind(s)
		require.NoError(t, err)
		assert.Equal(t, RegionKind(s), k)
	}
	_, err := ParseRegionKind("selection")
	assert.Error(t, err)
}

func TestStitchZoneEndToEnd(t *testing.T) {
	src, err := os.ReadFile("testdata/stitch.kicad_pcb")
	require.NoError(t, err)
	board, err := pcb.Parse(bytes.NewReader(src))
	require.NoError(t, err)
	h := New(board)

	region, err := h.ZoneRegion("GND")
	require.NoError(t, err)

	req := placement.Request{
		Region: region,
		Grid:   grid.Spec{Origin: h.Origin(), Spacing: 2540000},
		Via:    placement.ViaSpec{OuterDiameter: mm / 2, Drill: 3 * mm / 10, Net: "GND"},
		Policy: clearance.Policy{MinClearance: mm / 5, ViaToViaClearance: mm / 10},
	}
	res, err := placement.New().Run(context.Background(), h, req)
	require.NoError(t, err)

	// 7 columns from 102.54mm, 3 rows from 102.54mm; only the candidate on
	// top of the VCC via is rejected
	assert.Equal(t, 21, res.Candidates)
	assert.Equal(t, 20, res.Placed)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, geom.Pt(115240000, 105080000), res.Skipped[0].At)

	var out bytes.Buffer
	require.NoError(t, board.WriteAdded(&out, src))
	reparsed, err := pcb.Parse(&out)
	require.NoError(t, err)
	assert.Len(t, reparsed.Vias, 21)
	assert.Equal(t, "GND", reparsed.Vias[1].Net.Name)
	assert.Equal(t, 0.5, reparsed.Vias[1].Size)
}
