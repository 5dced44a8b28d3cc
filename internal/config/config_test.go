package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(2540000), cfg.GetSpacing())
	assert.Equal(t, int64(500000), cfg.GetViaDiameter())
	assert.Equal(t, int64(300000), cfg.GetViaDrill())
	assert.Equal(t, int64(200000), cfg.GetClearance())
	assert.Equal(t, int64(100000), cfg.GetViaClearance())
	assert.Equal(t, int64(1000000), cfg.GetMargin())
	assert.Equal(t, "GND", cfg.GetNet())
	assert.Equal(t, "board", cfg.GetRegion())
	assert.Equal(t, [2]string{"F.Cu", "B.Cu"}, cfg.GetLayers())
	assert.False(t, cfg.GetStagger())
	assert.False(t, cfg.GetLockVias())
	assert.True(t, cfg.GetCheckClearance())
}

func TestEmptyGettersUseDefaults(t *testing.T) {
	cfg := Empty()
	assert.Equal(t, Default().GetSpacing(), cfg.GetSpacing())
	assert.Equal(t, "GND", cfg.GetZone(""))
	assert.Equal(t, "VCC", cfg.GetZone("VCC"), "zone follows the placed net")

	zone := "Pour 1"
	cfg.Zone = &zone
	assert.Equal(t, "Pour 1", cfg.GetZone("VCC"), "an explicit zone wins")
	assert.True(t, cfg.GetCheckClearance())
	assert.Empty(t, cfg.GetRules())
	assert.Empty(t, cfg.GetProject())

	_, ok, err := cfg.GetOrigin()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarginDependsOnRegion(t *testing.T) {
	cfg := Empty()
	cfg.Region = ptrString("zone")
	assert.Zero(t, cfg.GetMargin())

	cfg.Margin = ptrString("0.5mm")
	assert.Equal(t, int64(500000), cfg.GetMargin())
}

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/viagrid.json")
	require.NoError(t, err)

	assert.Equal(t, int64(2540000), cfg.GetSpacing())
	assert.Equal(t, int64(600000), cfg.GetViaDiameter())
	assert.Equal(t, int64(250000), cfg.GetClearance())
	assert.Equal(t, int64(100000), cfg.GetViaClearance(), "unset field keeps default")
	assert.True(t, cfg.GetStagger())
	assert.Equal(t, "zone", cfg.GetRegion())
	assert.Equal(t, filepath.Join("testdata", "stitch.kicad_dru"), cfg.GetRules())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"wrong extension", write("viagrid.yaml", "{}"), ".json extension"},
		{"missing", filepath.Join(dir, "missing.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"bad length", write("len.json", `{"spacing": "2 parsecs"}`), "invalid spacing"},
		{"zero spacing", write("zero.json", `{"spacing": "0"}`), "spacing must be positive"},
		{"negative", write("neg.json", `{"clearance": "-0.1mm"}`), "non-negative"},
		{"region", write("region.json", `{"region": "selection"}`), "region must be"},
		{"rect", write("rect.json", `{"rect": "1,2,3"}`), "want 4 lengths"},
		{"origin", write("origin.json", `{"origin": "1"}`), "invalid origin"},
		{"layers", write("layers.json", `{"layers": ["F.Cu"]}`), "exactly two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	body := `{"net": "` + strings.Repeat("x", 1024*1024) + `"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMerge(t *testing.T) {
	cfg := Default()
	cfg.Merge(&PlacementConfig{
		Net:     ptrString("VCC"),
		Stagger: ptrBool(true),
		Layers:  []string{"F.Cu", "In2.Cu"},
	})
	cfg.Merge(nil)

	assert.Equal(t, "VCC", cfg.GetNet())
	assert.True(t, cfg.GetStagger())
	assert.Equal(t, [2]string{"F.Cu", "In2.Cu"}, cfg.GetLayers())
	assert.Equal(t, int64(2540000), cfg.GetSpacing())
}

func TestGeometryFields(t *testing.T) {
	cfg := Empty()
	cfg.Rect = ptrString("100mm, 100mm, 4in, 110")
	cfg.Origin = ptrString("100,100mm")
	require.NoError(t, cfg.Validate())

	r, err := cfg.GetRect()
	require.NoError(t, err)
	assert.Equal(t, geom.R(100000000, 100000000, 101600000, 110000000), r)

	p, ok, err := cfg.GetOrigin()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, geom.Pt(100000000, 100000000), p)

	_, err = Empty().GetRect()
	assert.Error(t, err)
}
