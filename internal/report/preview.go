package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/copper"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceVia/pkg/placement"
)

var (
	outlineColor  = color.RGBA{R: 200, G: 170, B: 0, A: 255}
	copperColor   = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	acceptedColor = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	rejectedColor = color.RGBA{R: 220, G: 0, B: 0, A: 255}
)

// Preview is the data drawn by SavePreview
type Preview struct {
	Title  string
	Region geom.Region
	Copper []copper.Object
	Result *placement.Result
}

// Outlines returns the polygons that make up a region
func Outlines(r geom.Region) []geom.Polygon {
	switch v := r.(type) {
	case geom.Rect:
		return []geom.Polygon{v.Corners()}
	case geom.Polygon:
		return []geom.Polygon{v}
	case geom.Shape:
		return append([]geom.Polygon{v.Outer}, v.Holes...)
	case geom.Union:
		var out []geom.Polygon
		for _, sub := range v {
			out = append(out, Outlines(sub)...)
		}
		return out
	default:
		if r == nil {
			return nil
		}
		return []geom.Polygon{r.Bounds().Corners()}
	}
}

// xy converts to plot coordinates in mm, with Y pointing up
func xy(p geom.Point) plotter.XY {
	return plotter.XY{X: sexp.ToMillimeters(p.X), Y: -sexp.ToMillimeters(p.Y)}
}

// Plot builds the preview plot
func (pv Preview) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = pv.Title
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"

	for _, poly := range Outlines(pv.Region) {
		if len(poly) == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, len(poly)+1)
		for _, pt := range poly {
			pts = append(pts, xy(pt))
		}
		pts = append(pts, xy(poly[0]))
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("region outline: %w", err)
		}
		line.Color = outlineColor
		line.Width = vg.Points(1)
		p.Add(line)
	}

	var round plotter.XYs
	for _, o := range pv.Copper {
		if o.Kind == copper.Track {
			line, err := plotter.NewLine(plotter.XYs{xy(o.At), xy(o.End)})
			if err != nil {
				return nil, fmt.Errorf("track: %w", err)
			}
			line.Color = copperColor
			line.Width = vg.Points(1)
			p.Add(line)
			continue
		}
		round = append(round, xy(o.At))
	}
	if len(round) > 0 {
		if err := addScatter(p, "copper", round, copperColor, draw.CircleGlyph{}); err != nil {
			return nil, err
		}
	}

	if pv.Result != nil {
		accepted := make(plotter.XYs, 0, len(pv.Result.Accepted))
		for _, pt := range pv.Result.Accepted {
			accepted = append(accepted, xy(pt))
		}
		rejected := make(plotter.XYs, 0, len(pv.Result.Skipped))
		for _, s := range pv.Result.Skipped {
			rejected = append(rejected, xy(s.At))
		}
		if len(accepted) > 0 {
			if err := addScatter(p, "placed", accepted, acceptedColor, draw.RingGlyph{}); err != nil {
				return nil, err
			}
		}
		if len(rejected) > 0 {
			if err := addScatter(p, "skipped", rejected, rejectedColor, draw.CrossGlyph{}); err != nil {
				return nil, err
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func addScatter(p *plot.Plot, label string, pts plotter.XYs, c color.Color, shape draw.GlyphDrawer) error {
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("%s points: %w", label, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = shape
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)
	p.Legend.Add(label, s)
	return nil
}

// SavePreview writes the preview; the format follows the file extension
func SavePreview(path string, pv Preview) error {
	p, err := pv.Plot()
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}
