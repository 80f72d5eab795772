package visualization

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// kdePoints is the number of points the density outline is evaluated at.
const kdePoints = 100

// Violin draws the kernel density estimate of a sample as a mirrored
// outline, with bars at the extrema and the median.
type Violin struct {
	// Location is the x position of the violin's centre line.
	Location float64

	// HalfWidth is the widest extent of the outline either side of
	// Location, in data units.
	HalfWidth float64

	FillColor color.Color
	draw.LineStyle

	// MedianStyle is the style of the median bar.
	MedianStyle draw.LineStyle

	min, max, median float64
	ys, density      []float64
}

// NewViolin computes the outline of values. The kernel bandwidth follows
// Scott's rule.
func NewViolin(values []float64) (*Violin, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("violin: %w", gaussfit.ErrEmptySample)
	}
	xs := append([]float64(nil), values...)
	sort.Float64s(xs)

	v := &Violin{
		Location:    1,
		HalfWidth:   0.25,
		FillColor:   violinFill,
		LineStyle:   plotter.DefaultLineStyle,
		MedianStyle: plotter.DefaultLineStyle,
		min:         xs[0],
		max:         xs[len(xs)-1],
		median:      median(xs),
	}
	v.LineStyle.Color = barFill
	v.MedianStyle.Color = barFill

	bw := scottBandwidth(xs)
	lo, hi := v.min, v.max
	if lo == hi {
		lo, hi = lo-bw, hi+bw
	}
	v.ys = floats.Span(make([]float64, kdePoints), lo, hi)
	v.ys[kdePoints-1] = hi
	v.density = make([]float64, kdePoints)
	for i, y := range v.ys {
		var sum float64
		for _, x := range xs {
			sum += distuv.Normal{Mu: x, Sigma: bw}.Prob(y)
		}
		v.density[i] = sum / float64(len(xs))
	}
	return v, nil
}

// Median returns the middle value of the sample.
func (v *Violin) Median() float64 { return v.median }

// Extrema returns the smallest and largest values of the sample.
func (v *Violin) Extrema() (min, max float64) { return v.min, v.max }

// scottBandwidth is n^(-1/5) times the sample standard deviation. A sample
// without spread gets a unit bandwidth.
func scottBandwidth(sorted []float64) float64 {
	if len(sorted) < 2 {
		return 1
	}
	sd := stat.StdDev(sorted, nil)
	if !(sd > 0) {
		return 1
	}
	return sd * math.Pow(float64(len(sorted)), -0.2)
}

// median averages the two middle values of an even sized sample.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// Plot implements the plot.Plotter interface.
func (v *Violin) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	scale := 0.0
	if peak := floats.Max(v.density); peak > 0 {
		scale = v.HalfWidth / peak
	}

	outline := make([]vg.Point, 0, 2*len(v.ys)+1)
	for i, y := range v.ys {
		outline = append(outline, vg.Point{X: trX(v.Location + v.density[i]*scale), Y: trY(y)})
	}
	for i := len(v.ys) - 1; i >= 0; i-- {
		outline = append(outline, vg.Point{X: trX(v.Location - v.density[i]*scale), Y: trY(v.ys[i])})
	}
	if v.FillColor != nil {
		c.FillPolygon(v.FillColor, c.ClipPolygonXY(outline))
	}
	outline = append(outline, outline[0])
	c.StrokeLines(v.LineStyle, c.ClipLinesXY(outline)...)

	barHalf := v.HalfWidth / 2
	bar := func(sty draw.LineStyle, y float64) {
		c.StrokeLines(sty, c.ClipLinesXY([]vg.Point{
			{X: trX(v.Location - barHalf), Y: trY(y)},
			{X: trX(v.Location + barHalf), Y: trY(y)},
		})...)
	}
	c.StrokeLines(v.LineStyle, c.ClipLinesXY([]vg.Point{
		{X: trX(v.Location), Y: trY(v.min)},
		{X: trX(v.Location), Y: trY(v.max)},
	})...)
	bar(v.LineStyle, v.min)
	bar(v.LineStyle, v.max)
	bar(v.MedianStyle, v.median)
}

// DataRange implements the plot.DataRanger interface.
func (v *Violin) DataRange() (xmin, xmax, ymin, ymax float64) {
	return v.Location - v.HalfWidth, v.Location + v.HalfWidth, v.ys[0], v.ys[len(v.ys)-1]
}
