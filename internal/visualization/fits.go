package visualization

import (
	"fmt"
	"image/color"

	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Curve is one fitted distribution drawn by FitFigure.
type Curve struct {
	Label  string
	Color  color.Color
	Params gaussfit.Params
}

// FitFigure draws every curve across xs. With normalize set each curve is
// divided by its own peak.
func FitFigure(title, unit string, curves []Curve, xs []float64, normalize bool) (*plot.Plot, error) {
	if len(curves) == 0 {
		return nil, fmt.Errorf("fit figure: %w", gaussfit.ErrEmptySample)
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("fit figure: need at least two x values, got %d", len(xs))
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = fmt.Sprintf("Diameter (%s)", unit)
	p.Y.Label.Text = "Density"

	for _, c := range curves {
		ys := gaussfit.Curve(c.Params, xs, normalize)
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("fit figure %q: %w", c.Label, err)
		}
		line.Color = c.Color
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(c.Label, line)
	}
	topRightLegend(p)
	return p, nil
}
