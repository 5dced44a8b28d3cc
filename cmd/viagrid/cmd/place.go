package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceVia/internal/boardhost"
	"github.com/OpenTraceLab/OpenTraceVia/internal/config"
	"github.com/OpenTraceLab/OpenTraceVia/internal/observability"
	"github.com/OpenTraceLab/OpenTraceVia/internal/report"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/clearance"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/project"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/logging"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/placement"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/rules"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/units"
)

// referenceTolerance is how far --reference-via may be from the via centre
const referenceTolerance = 100000

var (
	configPath   string
	outputPath   string
	dryRun       bool
	previewPath  string
	metricsPath  string
	referenceVia string
	exhaustive   bool

	placeSpacing      string
	placeViaDiameter  string
	placeViaDrill     string
	placeNet          string
	placeClearance    string
	placeViaClearance string
	placeStagger      bool
	placeMargin       string
	placeRegion       string
	placeZone         string
	placeRect         string
	placeOrigin       string
	placeRules        string
	placeProject      string
	placeLayers       string
	placeLock         bool
	noClearanceCheck  bool
)

var placeCmd = &cobra.Command{
	Use:   "place <board_file>",
	Short: "Place a grid of vias",
	Long: `Places vias on a regular grid inside a region of the board. Candidates
are visited row by row; each is checked against the existing copper and the
vias accepted so far, and placed only when it keeps clearance.

Settings come from built-in defaults, then viagrid.json next to the board
(or --config), then flags. Lengths accept mm (default), mil, in, um, cm.

Regions:
  board   the Edge.Cuts outline, inset by --margin (default 1mm)
  zone    the copper zones of --zone (net or zone name, default the via net)
  rect    the rectangle --rect x0,y0,x1,y1`,
	Args: cobra.ExactArgs(1),
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	f := placeCmd.Flags()
	f.StringVar(&configPath, "config", "", "placement config file (default viagrid.json next to the board)")
	f.StringVarP(&outputPath, "output", "o", "", "output board file (default: update the input board)")
	f.BoolVar(&dryRun, "dry-run", false, "compute placement without writing the board")
	f.StringVar(&previewPath, "preview", "", "write a preview image (png, svg or pdf)")
	f.StringVar(&metricsPath, "metrics-file", "", "write Prometheus metrics in textfile format")
	f.StringVar(&referenceVia, "reference-via", "", "x,y of an existing via to copy size, net and grid origin from")
	f.BoolVar(&exhaustive, "exhaustive", false, "check every copper object instead of using the spatial index")

	f.StringVar(&placeSpacing, "spacing", config.DefaultSpacing, "grid pitch")
	f.StringVar(&placeViaDiameter, "via-diameter", config.DefaultViaDiameter, "via outer diameter")
	f.StringVar(&placeViaDrill, "via-drill", config.DefaultViaDrill, "via drill diameter")
	f.StringVar(&placeNet, "net", config.DefaultNet, "net of the placed vias")
	f.StringVar(&placeClearance, "clearance", config.DefaultClearance, "clearance to copper of other nets")
	f.StringVar(&placeViaClearance, "via-clearance", config.DefaultViaClearance, "clearance between vias of the same net")
	f.BoolVar(&placeStagger, "stagger", false, "offset odd rows by half a pitch")
	f.StringVar(&placeMargin, "margin", "", "inset of the region bounding box (default 1mm for board, 0 otherwise)")
	f.StringVar(&placeRegion, "region", config.DefaultRegion, "region: board, zone or rect")
	f.StringVar(&placeZone, "zone", "", "zone net or name for --region zone")
	f.StringVar(&placeRect, "rect", "", "x0,y0,x1,y1 for --region rect")
	f.StringVar(&placeOrigin, "origin", "", "grid origin x,y (default: board grid origin)")
	f.StringVar(&placeRules, "rules", "", "custom design rules (.kicad_dru)")
	f.StringVar(&placeProject, "project", "", "KiCad project (.kicad_pro) for net class clearances")
	f.StringVar(&placeLayers, "layers", "F.Cu,B.Cu", "via layer pair")
	f.BoolVar(&placeLock, "lock", false, "mark placed vias as locked")
	f.BoolVar(&noClearanceCheck, "no-clearance-check", false, "place at every grid point without checking clearance")
}

// flagConfig returns a config holding only the flags given on the command line
func flagConfig(cmd *cobra.Command) *config.PlacementConfig {
	cfg := config.Empty()
	changed := cmd.Flags().Changed
	str := func(name, v string) *string {
		if !changed(name) {
			return nil
		}
		return &v
	}
	boolean := func(name string, v bool) *bool {
		if !changed(name) {
			return nil
		}
		return &v
	}

	cfg.Spacing = str("spacing", placeSpacing)
	cfg.ViaDiameter = str("via-diameter", placeViaDiameter)
	cfg.ViaDrill = str("via-drill", placeViaDrill)
	cfg.Net = str("net", placeNet)
	cfg.Clearance = str("clearance", placeClearance)
	cfg.ViaClearance = str("via-clearance", placeViaClearance)
	cfg.Stagger = boolean("stagger", placeStagger)
	cfg.Margin = str("margin", placeMargin)
	cfg.Region = str("region", placeRegion)
	cfg.Zone = str("zone", placeZone)
	cfg.Rect = str("rect", placeRect)
	cfg.Origin = str("origin", placeOrigin)
	cfg.Rules = str("rules", placeRules)
	cfg.Project = str("project", placeProject)
	if changed("layers") {
		cfg.Layers = strings.Split(placeLayers, ",")
	}
	cfg.LockVias = boolean("lock", placeLock)
	if changed("no-clearance-check") {
		check := !noClearanceCheck
		cfg.CheckClearance = &check
	}
	return cfg
}

// loadConfig layers defaults, the config file and flags
func loadConfig(cmd *cobra.Command, boardPath string) (*config.PlacementConfig, error) {
	cfg := config.Default()

	path := configPath
	if path == "" {
		candidate := filepath.Join(filepath.Dir(boardPath), config.DefaultConfigName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		fileCfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
		logger.Debug(cmd.Context(), "loaded config", logging.String("path", path))
	}

	cfg.Merge(flagConfig(cmd))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// buildRegion resolves the configured region. Zones default to the net the
// vias are placed on.
func buildRegion(host *boardhost.Host, cfg *config.PlacementConfig, net string) (geom.Region, error) {
	kind, err := boardhost.ParseRegionKind(cfg.GetRegion())
	if err != nil {
		return nil, err
	}
	switch kind {
	case boardhost.RegionZone:
		return host.ZoneRegion(cfg.GetZone(net))
	case boardhost.RegionRect:
		r, err := cfg.GetRect()
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return host.BoardRegion()
	}
}

func buildPolicy(host *boardhost.Host, cfg *config.PlacementConfig) (clearance.Resolver, error) {
	base := clearance.Policy{
		MinClearance:      cfg.GetClearance(),
		ViaToViaClearance: cfg.GetViaClearance(),
	}
	if cfg.GetRules() == "" && cfg.GetProject() == "" {
		return base, nil
	}

	var proj *project.Project
	if path := cfg.GetProject(); path != "" {
		p, err := project.ParseFile(path)
		if err != nil {
			return nil, err
		}
		proj = p
	}

	var custom []rules.Rule
	if path := cfg.GetRules(); path != "" {
		r, err := rules.ParseDRUFile(path)
		if err != nil {
			return nil, err
		}
		custom = r
	}

	return rules.New(base, host.NetNames(), proj, custom)
}

// applyReferenceVia copies size, drill, net and layers of the via near
// --reference-via into via and returns its position as the grid origin.
// Explicit flags must agree with the reference via.
func applyReferenceVia(cmd *cobra.Command, host *boardhost.Host, cfg *config.PlacementConfig, via *placement.ViaSpec) (geom.Point, error) {
	x, y, err := units.ParsePoint(referenceVia)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid --reference-via: %w", err)
	}
	ref, err := host.ReferenceVia(geom.Pt(x, y), referenceTolerance)
	if err != nil {
		return geom.Point{}, err
	}

	via.OuterDiameter = sexp.ToNanometers(ref.Size)
	via.Drill = sexp.ToNanometers(ref.Drill)
	if ref.Net != nil {
		via.Net = ref.Net.Name
	}
	if len(ref.Layers) == 2 {
		via.Layers = [2]string{ref.Layers[0], ref.Layers[1]}
	}

	changed := cmd.Flags().Changed
	switch {
	case changed("net") && cfg.GetNet() != via.Net:
		return geom.Point{}, fmt.Errorf("--net %s conflicts with the reference via on %s", cfg.GetNet(), via.Net)
	case changed("via-diameter") && cfg.GetViaDiameter() != via.OuterDiameter:
		return geom.Point{}, fmt.Errorf("--via-diameter %s conflicts with the reference via (%s mm)",
			placeViaDiameter, units.FormatMM(via.OuterDiameter))
	case changed("via-drill") && cfg.GetViaDrill() != via.Drill:
		return geom.Point{}, fmt.Errorf("--via-drill %s conflicts with the reference via (%s mm)",
			placeViaDrill, units.FormatMM(via.Drill))
	case changed("layers") && cfg.GetLayers() != via.Layers:
		return geom.Point{}, fmt.Errorf("--layers %s conflicts with the reference via on %s,%s",
			placeLayers, via.Layers[0], via.Layers[1])
	}
	return boardhost.Point(ref.Position), nil
}

func runPlace(cmd *cobra.Command, args []string) error {
	boardPath := args[0]

	cfg, err := loadConfig(cmd, boardPath)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(boardPath)
	if err != nil {
		return fmt.Errorf("error reading board: %w", err)
	}
	board, err := pcb.Parse(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("error parsing board: %w", err)
	}

	host := boardhost.New(board)
	host.LockVias = cfg.GetLockVias()

	via := placement.ViaSpec{
		OuterDiameter: cfg.GetViaDiameter(),
		Drill:         cfg.GetViaDrill(),
		Net:           cfg.GetNet(),
		Layers:        cfg.GetLayers(),
	}
	origin := host.Origin()

	if referenceVia != "" {
		origin, err = applyReferenceVia(cmd, host, cfg, &via)
		if err != nil {
			return err
		}
	}
	if p, ok, err := cfg.GetOrigin(); err != nil {
		return err
	} else if ok {
		origin = p
	}

	region, err := buildRegion(host, cfg, via.Net)
	if err != nil {
		return err
	}

	var policy clearance.Resolver
	if cfg.GetCheckClearance() {
		policy, err = buildPolicy(host, cfg)
		if err != nil {
			return err
		}
	}

	opts := []placement.Option{placement.WithLogger(logger)}
	var collector *observability.PlacementCollector
	if metricsPath != "" {
		collector, err = observability.NewPlacementCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		opts = append(opts, placement.WithObserver(collector))
	}
	if verbose {
		opts = append(opts, placement.WithProgress(func(p placement.Progress) {
			fmt.Fprintf(os.Stderr, "  %d/%d candidates, %d placed, %d skipped\n",
				p.Processed, p.Total, p.Placed, p.Skipped)
		}, 0))
	}

	req := placement.Request{
		Region: region,
		Grid: grid.Spec{
			Origin:  origin,
			Spacing: cfg.GetSpacing(),
			Stagger: cfg.GetStagger(),
			Margin:  cfg.GetMargin(),
		},
		Via:           via,
		Policy:        policy,
		SkipClearance: !cfg.GetCheckClearance(),
		Exhaustive:    exhaustive,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	res, existing, err := stitch(ctx, host, req, opts...)
	if err != nil {
		return err
	}

	if err := report.WriteSummary(os.Stdout, report.Summary{
		Board:  boardPath,
		Net:    via.Net,
		Region: cfg.GetRegion(),
		Via:    via,
		Result: res,
		DryRun: dryRun,
	}); err != nil {
		return err
	}

	if previewPath != "" {
		if err := report.SavePreview(previewPath, report.Preview{
			Title:  fmt.Sprintf("%s stitching", via.Net),
			Region: region,
			Copper: existing,
			Result: res,
		}); err != nil {
			return err
		}
		fmt.Printf("Preview written to %s\n", previewPath)
	}

	if collector != nil {
		if err := collector.WriteTextfile(metricsPath); err != nil {
			return err
		}
	}

	if dryRun || res.Placed == 0 {
		return nil
	}

	dst := outputPath
	if dst == "" {
		dst = boardPath
	}
	if err := writeBoard(dst, board, src); err != nil {
		return err
	}
	fmt.Printf("Board written to %s\n", dst)
	return nil
}

// stitch runs the placement against a snapshot of the board taken before
// any via is added and returns that snapshot with the result
func stitch(ctx context.Context, host *boardhost.Host, req placement.Request, opts ...placement.Option) (*placement.Result, []copper.Object, error) {
	existing := host.Snapshot()
	req.Snapshot = existing
	res, err := placement.New(opts...).Run(ctx, host, req)
	if err != nil {
		return nil, nil, err
	}
	return res, existing, nil
}

// writeBoard writes through a temporary file so a failed write never
// leaves a truncated board behind
func writeBoard(dst string, board *pcb.Board, src []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".viagrid-*.kicad_pcb")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := board.WriteAdded(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return nil
}
