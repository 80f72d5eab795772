package visualization

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/measurement"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"github.com/banshee-data/vessel.analysis/internal/security"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Options control how figures are drawn and where they are written.
type Options struct {
	OutputDir string
	// BaseName is the input file name without its .csv suffix.
	BaseName string

	// Pixel keeps diameters in pixels instead of converting them with Scale.
	Pixel bool
	// MaxDiameter is the upper bound of plotted diameters, in physical units.
	MaxDiameter float64
	Scale       units.Scale

	BinStrategy gaussfit.BinStrategy
	BinCount    int
	FitMethod   gaussfit.Method
	// FitXMin and FitXMax bound the fitted curve drawn over the histogram.
	FitXMin, FitXMax float64

	Width, Height vg.Length
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions(outputDir, baseName string) Options {
	return Options{
		OutputDir:   outputDir,
		BaseName:    baseName,
		MaxDiameter: 100,
		Scale:       units.DefaultScale(),
		BinStrategy: gaussfit.WidthFromMin,
		BinCount:    20,
		FitMethod:   gaussfit.Moments,
		FitXMin:     0,
		FitXMax:     99,
		Width:       6.4 * vg.Inch,
		Height:      4.8 * vg.Inch,
	}
}

// ConfiguredOptions builds options from an analysis config.
func ConfiguredOptions(cfg *config.AnalysisConfig, outputDir, baseName string, pixel bool) Options {
	w, h := cfg.FigureSize()
	return Options{
		OutputDir:   outputDir,
		BaseName:    baseName,
		Pixel:       pixel,
		MaxDiameter: cfg.GetMaxDiameter(),
		Scale:       cfg.Scale(),
		BinStrategy: cfg.GetBinStrategy(),
		BinCount:    cfg.GetBinCount(),
		FitMethod:   cfg.GetFitMethod(),
		FitXMin:     cfg.GetFitXMin(),
		FitXMax:     cfg.GetFitXMax(),
		Width:       w,
		Height:      h,
	}
}

// fitRange is the configured fit range, or the histogram span when none is
// set.
func (o Options) fitRange(edges []float64) (float64, float64) {
	if o.FitXMax > o.FitXMin {
		return o.FitXMin, o.FitXMax
	}
	return edges[0], edges[len(edges)-1]
}

func (o Options) diameterLabel(prefix string) string {
	return fmt.Sprintf("%s (%s)", prefix, units.Plural(o.Scale.DisplayUnit(o.Pixel)))
}

// Data is the input of one figure. Diameter kinds read Diameters and
// DensityBranchCount reads Branches.
type Data struct {
	Diameters []measurement.Diameter
	Branches  []measurement.Branch
}

// Figure describes a written figure and the numbers drawn in it.
type Figure struct {
	Kind Kind
	Path string
	// Unit is the unit plotted diameters are expressed in.
	Unit string

	// Values are the filtered diameters.
	Values []float64
	// Edges and Density describe the histogram bars.
	Edges   []float64
	Density []float64
	// Fit is set for histograms.
	Fit *gaussfit.Params

	// Points are the (area percentage, branch count) pairs of a density
	// scatter.
	Points plotter.XYs
}

type renderFunc func(o Options, d Data) (*plot.Plot, Figure, error)

var renderers = map[Kind]renderFunc{
	Histogram:          renderHistogram,
	ViolinPlot:         renderViolin,
	ScatterPlot:        renderScatter,
	DensityBranchCount: renderDensityBranchCount,
}

// Renderer draws figures and writes them into the output folder.
type Renderer struct {
	fs   fsutil.FileSystem
	opts Options
}

// NewRenderer returns a renderer writing through fsys.
func NewRenderer(fsys fsutil.FileSystem, opts Options) *Renderer {
	return &Renderer{fs: fsys, opts: opts}
}

// Render draws one figure of the given kind and saves it as
// <BaseName><suffix> in the output folder.
func (r *Renderer) Render(kind Kind, d Data) (Figure, error) {
	fn, ok := renderers[kind]
	if !ok {
		return Figure{}, &UnsupportedKindError{Kind: kind.String()}
	}
	path, err := security.FigurePath(r.opts.OutputDir, r.opts.BaseName+kind.Suffix())
	if err != nil {
		return Figure{}, err
	}

	p, fig, err := fn(r.opts, d)
	if err != nil {
		return Figure{}, fmt.Errorf("%s: %w", kind, err)
	}
	if err := SaveFigure(r.fs, p, r.opts.Width, r.opts.Height, path); err != nil {
		return Figure{}, err
	}

	fig.Kind = kind
	fig.Path = path
	return fig, nil
}

func filtered(o Options, d Data) ([]float64, error) {
	values := measurement.FilterDiameters(d.Diameters, o.MaxDiameter, o.Pixel, o.Scale)
	if len(values) == 0 {
		return nil, fmt.Errorf("no diameters at or below %v %s: %w", o.MaxDiameter, units.Plural(o.Scale.Unit), gaussfit.ErrEmptySample)
	}
	return values, nil
}

func renderHistogram(o Options, d Data) (*plot.Plot, Figure, error) {
	values, err := filtered(o, d)
	if err != nil {
		return nil, Figure{}, err
	}
	edges, err := gaussfit.Edges(o.BinStrategy, values, o.BinCount)
	if err != nil {
		return nil, Figure{}, err
	}
	density, err := gaussfit.Density(values, edges)
	if err != nil {
		return nil, Figure{}, err
	}
	fit, err := gaussfit.Fit(o.FitMethod, values, edges)
	if err != nil {
		return nil, Figure{}, err
	}

	p := plot.New()
	p.Title.Text = "Histogram of Vessel Diameters"
	p.X.Label.Text = o.diameterLabel("Vessel diameter")
	p.Y.Label.Text = "Probability"

	bins := make([]plotter.HistogramBin, len(density))
	for i := range density {
		bins[i] = plotter.HistogramBin{Min: edges[i], Max: edges[i+1], Weight: density[i]}
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     edges[1] - edges[0],
		FillColor: barFill,
		LineStyle: plotter.DefaultLineStyle,
	}
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)

	// A sample without spread has no density curve to draw.
	if fit.Sigma > 0 {
		curve := plotter.NewFunction(fit.PDF)
		curve.XMin, curve.XMax = o.fitRange(edges)
		curve.Samples = 200
		curve.Color = FitRed
		curve.Width = vg.Points(2)
		curve.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(curve)
		// Function has no data range of its own, so widen the axis to show it.
		p.X.Min, p.X.Max = math.Min(p.X.Min, curve.XMin), math.Max(p.X.Max, curve.XMax)
		p.Legend.Add("Gaussian Fit: "+fit.String(), curve)
		topRightLegend(p)
	} else {
		monitoring.Logf("histogram %s: all %d diameters equal %v, skipping fit curve", o.BaseName, len(values), fit.Mu)
	}

	return p, Figure{
		Unit:    o.Scale.DisplayUnit(o.Pixel),
		Values:  values,
		Edges:   edges,
		Density: density,
		Fit:     &fit,
	}, nil
}

func renderViolin(o Options, d Data) (*plot.Plot, Figure, error) {
	values, err := filtered(o, d)
	if err != nil {
		return nil, Figure{}, err
	}
	v, err := NewViolin(values)
	if err != nil {
		return nil, Figure{}, err
	}

	p := plot.New()
	p.Title.Text = "Violin Plot of Vessel Diameters"
	p.Y.Label.Text = o.diameterLabel("Vessel diameter")
	p.Add(v)
	p.X.Min, p.X.Max = 0.5, 1.5
	p.X.Tick.Marker = plot.ConstantTicks{{Value: 1, Label: "1"}}

	return p, Figure{Unit: o.Scale.DisplayUnit(o.Pixel), Values: values}, nil
}

func renderScatter(o Options, d Data) (*plot.Plot, Figure, error) {
	values, err := filtered(o, d)
	if err != nil {
		return nil, Figure{}, err
	}
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: v, Y: 0}
	}

	p := plot.New()
	p.Title.Text = "Scatter Plot of Vessel Diameters"
	p.X.Label.Text = o.diameterLabel("Diameter")
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, Figure{}, err
	}
	styleMarkers(s)
	p.Add(s)
	p.Y.Min, p.Y.Max = -1, 1

	return p, Figure{Unit: o.Scale.DisplayUnit(o.Pixel), Values: values, Points: pts}, nil
}

func renderDensityBranchCount(_ Options, d Data) (*plot.Plot, Figure, error) {
	if len(d.Branches) == 0 {
		return nil, Figure{}, fmt.Errorf("no branch records: %w", gaussfit.ErrEmptySample)
	}
	branches, err := measurement.DensityBranches(d.Branches)
	if err != nil {
		return nil, Figure{}, err
	}
	pts := make(plotter.XYs, len(branches))
	for i, b := range branches {
		pts[i] = plotter.XY{X: b.AreaPercentage, Y: float64(b.NumBranches)}
	}

	p := plot.New()
	p.Title.Text = "Vessel Density and Branch Count"
	p.X.Label.Text = "Vessel density (%)"
	p.Y.Label.Text = "Branch count"
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, Figure{}, err
	}
	styleMarkers(s)
	p.Add(s)

	return p, Figure{Points: pts}, nil
}

func styleMarkers(s *plotter.Scatter) {
	s.GlyphStyle.Color = barFill
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
}

func topRightLegend(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

// IsUnsupportedKind reports whether err is an UnsupportedKindError.
func IsUnsupportedKind(err error) bool {
	var uk *UnsupportedKindError
	return errors.As(err, &uk)
}
