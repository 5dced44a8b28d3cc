package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/clearance"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/project"
)

const (
	gnd copper.NetID = 1
	vcc copper.NetID = 2
	sig copper.NetID = 3
)

var (
	names = map[copper.NetID]string{gnd: "GND", vcc: "VCC", sig: "/SIG"}
	base  = clearance.Policy{MinClearance: 200000, ViaToViaClearance: 100000}
)

func loadProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.Parse([]byte(`{"net_settings": {
		"classes": [{"name": "Default", "clearance": 0.2}, {"name": "HV", "clearance": 0.5}],
		"netclass_assignments": {"VCC": "HV"}}}`))
	require.NoError(t, err)
	return p
}

func TestParseDRUFile(t *testing.T) {
	rules, err := ParseDRUFile("testdata/stitch.kicad_dru")
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "HV isolation", rules[0].Name)
	require.NotNil(t, rules[0].Clearance)
	assert.Equal(t, int64(1000000), *rules[0].Clearance)
	assert.Nil(t, rules[0].ViaClearance)

	assert.Equal(t, "Pad keepout", rules[1].Name)
	require.NotNil(t, rules[1].Clearance)
	assert.Equal(t, int64(300000), *rules[1].Clearance)

	require.NotNil(t, rules[2].ViaClearance)
	assert.Equal(t, int64(508000), *rules[2].ViaClearance)
	assert.Nil(t, rules[2].Clearance)
}

func TestParseDRUErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad sexp", `(rule "x"`},
		{"unknown node", `(version 1) (selector "x")`},
		{"nameless rule", `(rule (constraint clearance (min 1mm)))`},
		{"missing min", `(rule "x" (constraint clearance (max 1mm)))`},
		{"bad length", `(rule "x" (constraint clearance (min 1parsec)))`},
		{"negative", `(rule "x" (constraint clearance (min -1mm)))`},
		{"bad condition", `(rule "x" (constraint clearance (min 1mm)) (condition "A.NetName =="))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDRU(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestRuleSetResolve(t *testing.T) {
	rules, err := ParseDRUFile("testdata/stitch.kicad_dru")
	require.NoError(t, err)
	rs, err := New(base, names, loadProject(t), rules)
	require.NoError(t, err)

	tests := []struct {
		name string
		obj  copper.Object
		want clearance.Policy
	}{
		{
			name: "high voltage pad",
			obj:  copper.NewPad(geom.Pt(0, 0), 1000000, vcc),
			want: clearance.Policy{MinClearance: 1000000, ViaToViaClearance: 100000},
		},
		{
			name: "signal pad",
			obj:  copper.NewPad(geom.Pt(0, 0), 1000000, sig),
			want: clearance.Policy{MinClearance: 300000, ViaToViaClearance: 100000},
		},
		{
			name: "signal track",
			obj:  copper.NewTrack(geom.Pt(0, 0), geom.Pt(1, 0), 250000, sig),
			want: base,
		},
		{
			name: "stitching via",
			obj:  copper.NewVia(geom.Pt(0, 0), 600000, gnd),
			want: clearance.Policy{MinClearance: 200000, ViaToViaClearance: 508000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.Resolve(gnd, tt.obj))
		})
	}

	assert.Equal(t, int64(1000000), rs.MaxClearance())
	assert.Len(t, rs.Rules(), 3)
}

func TestRuleSetNetClassOnly(t *testing.T) {
	rs, err := New(base, names, loadProject(t), nil)
	require.NoError(t, err)

	hvTrack := copper.NewTrack(geom.Pt(0, 0), geom.Pt(1, 0), 250000, vcc)
	assert.Equal(t, int64(500000), rs.Resolve(gnd, hvTrack).MinClearance)
	assert.Equal(t, int64(500000), rs.Resolve(vcc, copper.NewPad(geom.Pt(0, 0), 1, sig)).MinClearance)
	assert.Equal(t, base, rs.Resolve(vcc, copper.NewVia(geom.Pt(0, 0), 1, vcc)))
	assert.Equal(t, int64(500000), rs.MaxClearance())
}

func TestRuleSetWithoutProject(t *testing.T) {
	rs, err := New(base, names, nil, nil)
	require.NoError(t, err)

	obj := copper.NewPad(geom.Pt(0, 0), 1000000, vcc)
	assert.Equal(t, base, rs.Resolve(gnd, obj))
	assert.Equal(t, base.MaxClearance(), rs.MaxClearance())

	_, err = New(clearance.Policy{MinClearance: -1}, names, nil, nil)
	assert.ErrorIs(t, err, clearance.ErrNegativeClearance)
}

func TestLaterRulesOverride(t *testing.T) {
	rules, err := ParseDRU(strings.NewReader(`
		(rule "wide" (constraint clearance (min 2mm)))
		(rule "narrow" (constraint clearance (min 0.1mm)) (condition "B.Type == 'Track'"))`))
	require.NoError(t, err)
	rs, err := New(base, names, nil, rules)
	require.NoError(t, err)

	track := copper.NewTrack(geom.Pt(0, 0), geom.Pt(1, 0), 250000, sig)
	pad := copper.NewPad(geom.Pt(0, 0), 1000000, sig)
	assert.Equal(t, int64(100000), rs.Resolve(gnd, track).MinClearance)
	assert.Equal(t, int64(2000000), rs.Resolve(gnd, pad).MinClearance)
	assert.Equal(t, int64(2000000), rs.MaxClearance())
}

func TestRuleSetDrivesEngine(t *testing.T) {
	rules, err := ParseDRUFile("testdata/stitch.kicad_dru")
	require.NoError(t, err)
	rs, err := New(base, names, loadProject(t), rules)
	require.NoError(t, err)

	// VCC pad of radius 0.5mm at 1.6mm: flat policy needs 0.25+0.5+0.2,
	// the HV rule needs 0.25+0.5+1.0
	pad := copper.NewPad(geom.Pt(1600000, 0), 1000000, vcc)
	engine := clearance.Engine{Index: copper.NewIndex([]copper.Object{pad}, 0)}

	assert.True(t, engine.IsPlacementLegal(geom.Pt(0, 0), 500000, gnd, base))
	assert.False(t, engine.IsPlacementLegal(geom.Pt(0, 0), 500000, gnd, rs))
	assert.True(t, engine.IsPlacementLegal(geom.Pt(-200000, 0), 500000, gnd, rs))
}
