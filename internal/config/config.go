// Package config loads viagrid placement settings from JSON. Every field is
// optional; unset fields fall back to the defaults of the stitching dialog.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// DefaultConfigName is looked up next to the board when --config is not given
const DefaultConfigName = "viagrid.json"

// Defaults, as length strings
const (
	DefaultSpacing      = "2.54mm"
	DefaultViaDiameter  = "0.5mm"
	DefaultViaDrill     = "0.3mm"
	DefaultNet          = "GND"
	DefaultClearance    = "0.2mm"
	DefaultViaClearance = "0.1mm"
	DefaultBoardMargin  = "1mm"
	DefaultRegion       = "board"
)

// PlacementConfig is the on-disk placement configuration.
// Lengths are strings with an optional unit ("0.3mm", "12mil", "2.54").
type PlacementConfig struct {
	Spacing      *string `json:"spacing,omitempty"`
	ViaDiameter  *string `json:"via_diameter,omitempty"`
	ViaDrill     *string `json:"via_drill,omitempty"`
	Net          *string `json:"net,omitempty"`
	Clearance    *string `json:"clearance,omitempty"`
	ViaClearance *string `json:"via_clearance,omitempty"`
	Stagger      *bool   `json:"stagger,omitempty"`
	Margin       *string `json:"margin,omitempty"`

	Region *string `json:"region,omitempty"` // board, zone or rect
	Zone   *string `json:"zone,omitempty"`   // zone net or name for region=zone
	Rect   *string `json:"rect,omitempty"`   // "x0,y0,x1,y1" for region=rect
	Origin *string `json:"origin,omitempty"` // "x,y"; defaults to the board grid origin

	Rules   *string  `json:"rules,omitempty"`   // .kicad_dru path
	Project *string  `json:"project,omitempty"` // .kicad_pro path
	Layers  []string `json:"layers,omitempty"`

	LockVias       *bool `json:"lock_vias,omitempty"`
	CheckClearance *bool `json:"check_clearance,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }

// Empty returns a config with nothing set
func Empty() *PlacementConfig {
	return &PlacementConfig{}
}

// Default returns a config with every defaulted field filled in
func Default() *PlacementConfig {
	return &PlacementConfig{
		Spacing:        ptrString(DefaultSpacing),
		ViaDiameter:    ptrString(DefaultViaDiameter),
		ViaDrill:       ptrString(DefaultViaDrill),
		Net:            ptrString(DefaultNet),
		Clearance:      ptrString(DefaultClearance),
		ViaClearance:   ptrString(DefaultViaClearance),
		Stagger:        ptrBool(false),
		Region:         ptrString(DefaultRegion),
		Layers:         []string{"F.Cu", "B.Cu"},
		LockVias:       ptrBool(false),
		CheckClearance: ptrBool(true),
	}
}

// Load reads and validates a JSON config file
func Load(path string) (*PlacementConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// relative rule and project paths are relative to the config file
	dir := filepath.Dir(cleanPath)
	for _, p := range []*string{cfg.Rules, cfg.Project} {
		if p != nil && *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	return cfg, nil
}

// Validate checks every set field
func (c *PlacementConfig) Validate() error {
	lengths := []struct {
		name string
		v    *string
	}{
		{"spacing", c.Spacing},
		{"via_diameter", c.ViaDiameter},
		{"via_drill", c.ViaDrill},
		{"clearance", c.Clearance},
		{"via_clearance", c.ViaClearance},
		{"margin", c.Margin},
	}
	for _, l := range lengths {
		if l.v == nil {
			continue
		}
		nm, err := units.ParseLength(*l.v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", l.name, *l.v, err)
		}
		if nm < 0 {
			return fmt.Errorf("%s must be non-negative, got %q", l.name, *l.v)
		}
	}

	if c.Spacing != nil && c.GetSpacing() == 0 {
		return fmt.Errorf("spacing must be positive")
	}

	if c.Region != nil {
		switch *c.Region {
		case "board", "zone", "rect":
		default:
			return fmt.Errorf("region must be board, zone or rect, got %q", *c.Region)
		}
	}

	if c.Rect != nil {
		if _, err := c.GetRect(); err != nil {
			return err
		}
	}
	if c.Origin != nil {
		if _, _, err := c.GetOrigin(); err != nil {
			return err
		}
	}

	if c.Layers != nil && len(c.Layers) != 2 {
		return fmt.Errorf("layers must name exactly two copper layers, got %d", len(c.Layers))
	}

	return nil
}

// Merge overlays the set fields of o onto c
func (c *PlacementConfig) Merge(o *PlacementConfig) {
	if o == nil {
		return
	}
	mergeString := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	mergeBool := func(dst **bool, src *bool) {
		if src != nil {
			*dst = src
		}
	}
	mergeString(&c.Spacing, o.Spacing)
	mergeString(&c.ViaDiameter, o.ViaDiameter)
	mergeString(&c.ViaDrill, o.ViaDrill)
	mergeString(&c.Net, o.Net)
	mergeString(&c.Clearance, o.Clearance)
	mergeString(&c.ViaClearance, o.ViaClearance)
	mergeBool(&c.Stagger, o.Stagger)
	mergeString(&c.Margin, o.Margin)
	mergeString(&c.Region, o.Region)
	mergeString(&c.Zone, o.Zone)
	mergeString(&c.Rect, o.Rect)
	mergeString(&c.Origin, o.Origin)
	mergeString(&c.Rules, o.Rules)
	mergeString(&c.Project, o.Project)
	if o.Layers != nil {
		c.Layers = o.Layers
	}
	mergeBool(&c.LockVias, o.LockVias)
	mergeBool(&c.CheckClearance, o.CheckClearance)
}

func length(v *string, def string) int64 {
	s := def
	if v != nil {
		s = *v
	}
	nm, err := units.ParseLength(s)
	if err != nil {
		nm, _ = units.ParseLength(def)
	}
	return nm
}

// GetSpacing returns the grid pitch in nanometres
func (c *PlacementConfig) GetSpacing() int64 { return length(c.Spacing, DefaultSpacing) }

// GetViaDiameter returns the via outer diameter in nanometres
func (c *PlacementConfig) GetViaDiameter() int64 { return length(c.ViaDiameter, DefaultViaDiameter) }

// GetViaDrill returns the via drill in nanometres
func (c *PlacementConfig) GetViaDrill() int64 { return length(c.ViaDrill, DefaultViaDrill) }

// GetClearance returns the different-net clearance in nanometres
func (c *PlacementConfig) GetClearance() int64 { return length(c.Clearance, DefaultClearance) }

// GetViaClearance returns the same-net via spacing in nanometres
func (c *PlacementConfig) GetViaClearance() int64 { return length(c.ViaClearance, DefaultViaClearance) }

// GetMargin returns the region inset. Whole-board regions default to
// DefaultBoardMargin, others to zero.
func (c *PlacementConfig) GetMargin() int64 {
	if c.Margin == nil && c.GetRegion() != "board" {
		return 0
	}
	return length(c.Margin, DefaultBoardMargin)
}

func (c *PlacementConfig) GetNet() string {
	if c.Net == nil || *c.Net == "" {
		return DefaultNet
	}
	return *c.Net
}

func (c *PlacementConfig) GetRegion() string {
	if c.Region == nil || *c.Region == "" {
		return DefaultRegion
	}
	return *c.Region
}

// GetZone returns the zone selector. When none is set it falls back to
// net, or to the configured net when net is empty.
func (c *PlacementConfig) GetZone(net string) string {
	if c.Zone != nil && *c.Zone != "" {
		return *c.Zone
	}
	if net != "" {
		return net
	}
	return c.GetNet()
}

func (c *PlacementConfig) GetStagger() bool {
	return c.Stagger != nil && *c.Stagger
}

func (c *PlacementConfig) GetLockVias() bool {
	return c.LockVias != nil && *c.LockVias
}

func (c *PlacementConfig) GetCheckClearance() bool {
	return c.CheckClearance == nil || *c.CheckClearance
}

func (c *PlacementConfig) GetRules() string {
	if c.Rules == nil {
		return ""
	}
	return *c.Rules
}

func (c *PlacementConfig) GetProject() string {
	if c.Project == nil {
		return ""
	}
	return *c.Project
}

// GetLayers returns the via layer pair
func (c *PlacementConfig) GetLayers() [2]string {
	if len(c.Layers) != 2 {
		return [2]string{"F.Cu", "B.Cu"}
	}
	return [2]string{c.Layers[0], c.Layers[1]}
}

// GetRect parses the rect region
func (c *PlacementConfig) GetRect() (geom.Rect, error) {
	if c.Rect == nil || *c.Rect == "" {
		return geom.Rect{}, fmt.Errorf("rect region needs rect \"x0,y0,x1,y1\"")
	}
	v, err := units.ParseLengths(*c.Rect)
	if err != nil {
		return geom.Rect{}, fmt.Errorf("invalid rect %q: %w", *c.Rect, err)
	}
	if len(v) != 4 {
		return geom.Rect{}, fmt.Errorf("invalid rect %q: want 4 lengths, got %d", *c.Rect, len(v))
	}
	return geom.R(v[0], v[1], v[2], v[3]), nil
}

// GetOrigin parses the grid origin. ok is false when none is configured.
func (c *PlacementConfig) GetOrigin() (p geom.Point, ok bool, err error) {
	if c.Origin == nil || *c.Origin == "" {
		return geom.Point{}, false, nil
	}
	x, y, err := units.ParsePoint(*c.Origin)
	if err != nil {
		return geom.Point{}, false, fmt.Errorf("invalid origin %q: %w", *c.Origin, err)
	}
	return geom.Pt(x, y), true, nil
}
