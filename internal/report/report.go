// Package report writes interactive HTML companions of the diameter figures
// using go-echarts, so a histogram or fit overlay can be inspected in a
// browser next to the static image.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"github.com/banshee-data/vessel.analysis/internal/security"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost is where rendered pages load the echarts javascript from.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

const (
	chartWidth  = "900px"
	chartHeight = "600px"
)

// Writer renders charts into an output folder.
type Writer struct {
	fs        fsutil.FileSystem
	outputDir string
}

// NewWriter returns a writer placing pages in outputDir.
func NewWriter(fsys fsutil.FileSystem, outputDir string) *Writer {
	return &Writer{fs: fsys, outputDir: outputDir}
}

// Figure writes the HTML companion of a rendered figure as
// <name>.html. Kinds without an HTML form return an UnsupportedKindError.
func (w *Writer) Figure(name string, fig visualization.Figure) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch fig.Kind {
	case visualization.Histogram:
		err = HistogramChart(fig).Render(&buf)
	case visualization.ScatterPlot:
		err = ScatterChart(fig).Render(&buf)
	case visualization.DensityBranchCount:
		err = BranchChart(fig).Render(&buf)
	default:
		return "", &visualization.UnsupportedKindError{Kind: fig.Kind.String() + " (html)"}
	}
	if err != nil {
		return "", fmt.Errorf("render %s chart: %w", fig.Kind, err)
	}
	return w.write(name, buf.Bytes())
}

// Fits writes an overlay of fitted curves as <name>.html.
func (w *Writer) Fits(name, title, unit string, curves []visualization.Curve, xs []float64, normalize bool) (string, error) {
	if len(curves) == 0 {
		return "", fmt.Errorf("fit chart: %w", gaussfit.ErrEmptySample)
	}
	var buf bytes.Buffer
	if err := FitsChart(title, unit, curves, xs, normalize).Render(&buf); err != nil {
		return "", fmt.Errorf("render fit chart: %w", err)
	}
	return w.write(name, buf.Bytes())
}

func (w *Writer) write(name string, data []byte) (string, error) {
	path, err := security.FigurePath(w.outputDir, name+".html")
	if err != nil {
		return "", err
	}
	if err := w.fs.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	monitoring.Logf("saved chart to %s", path)
	return path, nil
}

func baseOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: chartWidth, Height: chartHeight, AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "5%", Right: "5%"}),
	}
}

// HistogramChart draws the histogram density as bars with the fitted
// curve overlapped at the bin centres.
func HistogramChart(fig visualization.Figure) *charts.Bar {
	centers := gaussfit.Centers(fig.Edges)
	labels := make([]string, len(centers))
	bars := make([]opts.BarData, len(centers))
	for i, c := range centers {
		labels[i] = strconv.FormatFloat(c, 'g', 4, 64)
		if i < len(fig.Density) {
			bars[i] = opts.BarData{Value: fig.Density[i]}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(baseOpts("Histogram of Vessel Diameters", fmt.Sprintf("n=%d", len(fig.Values))),
		charts.WithXAxisOpts(opts.XAxis{Name: fmt.Sprintf("Vessel diameter (%s)", units.Plural(fig.Unit)), NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Probability", NameLocation: "middle", NameGap: 45}),
	)...)
	bar.SetXAxis(labels).AddSeries("density", bars,
		charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hex(visualization.HealthyBlue), Opacity: opts.Float(0.3)}),
	)

	if fig.Fit != nil && fig.Fit.Sigma > 0 {
		ys := gaussfit.Curve(*fig.Fit, centers, false)
		line := charts.NewLine()
		line.SetXAxis(labels).AddSeries("Gaussian Fit: "+fig.Fit.String(), lineData(ys),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hex(visualization.FitRed), Width: 2, Type: "dashed"}),
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		)
		bar.Overlap(line)
	}
	return bar
}

// ScatterChart draws each diameter on the x axis at y=0.
func ScatterChart(fig visualization.Figure) *charts.Scatter {
	pts := make([]opts.ScatterData, len(fig.Values))
	for i, v := range fig.Values {
		pts[i] = opts.ScatterData{Value: []interface{}{v, 0}}
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(baseOpts("Scatter Plot of Vessel Diameters", fmt.Sprintf("n=%d", len(pts))),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: fmt.Sprintf("Diameter (%s)", units.Plural(fig.Unit)), NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1, Max: 1}),
	)...)
	scatter.AddSeries("diameters", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}

// BranchChart plots branch count against vessel density.
func BranchChart(fig visualization.Figure) *charts.Scatter {
	pts := make([]opts.ScatterData, len(fig.Points))
	for i, p := range fig.Points {
		pts[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(append(baseOpts("Vessel Density and Branch Count", fmt.Sprintf("branches=%d", len(pts))),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Vessel density (%)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Branch count", NameLocation: "middle", NameGap: 40}),
	)...)
	scatter.AddSeries("branches", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// FitsChart draws one smooth line per fitted curve over xs.
func FitsChart(title, unit string, curves []visualization.Curve, xs []float64, normalize bool) *charts.Line {
	labels := make([]string, len(xs))
	for i, x := range xs {
		labels[i] = strconv.FormatFloat(x, 'g', 4, 64)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(append(baseOpts(title, fmt.Sprintf("curves=%d", len(curves))),
		charts.WithXAxisOpts(opts.XAxis{Name: fmt.Sprintf("Diameter (%s)", unit), NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Density", NameLocation: "middle", NameGap: 45}),
	)...)
	line.SetXAxis(labels)
	for _, c := range curves {
		ls := opts.LineStyle{Width: 2}
		if c.Color != nil {
			ls.Color = hex(c.Color)
		}
		line.AddSeries(c.Label, lineData(gaussfit.Curve(c.Params, xs, normalize)),
			charts.WithLineStyleOpts(ls),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func lineData(ys []float64) []opts.LineData {
	out := make([]opts.LineData, len(ys))
	for i, y := range ys {
		out[i] = opts.LineData{Value: y}
	}
	return out
}

func hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
