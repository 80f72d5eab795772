package gaussfit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNotConverged is returned when the least squares fit fails to produce a
// usable normal distribution. There is no fallback fit.
var ErrNotConverged = errors.New("gaussian curve fit did not converge")

// Method selects how a normal distribution is fitted to a sample.
type Method string

const (
	// Moments is the closed form maximum likelihood fit.
	Moments Method = "moments"
	// CurveFit is least squares of the normal PDF against histogram density.
	CurveFit Method = "curve_fit"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == Moments || m == CurveFit
}

// Params are the fitted mean and standard deviation.
type Params struct {
	Mu    float64
	Sigma float64
}

// PDF evaluates the normal density at x.
func (p Params) PDF(x float64) float64 {
	return distuv.Normal{Mu: p.Mu, Sigma: p.Sigma}.Prob(x)
}

// Peak is the density at the mean.
func (p Params) Peak() float64 {
	return p.PDF(p.Mu)
}

func (p Params) String() string {
	return fmt.Sprintf("μ=%.4g σ=%.4g", p.Mu, p.Sigma)
}

// Fit dispatches to the configured method. edges are only used by CurveFit.
func Fit(method Method, sample, edges []float64) (Params, error) {
	switch method {
	case Moments:
		return FitMoments(sample)
	case CurveFit:
		return FitCurve(sample, edges)
	default:
		return Params{}, fmt.Errorf("unknown fit method %q", method)
	}
}

// FitMoments returns the sample mean and population standard deviation.
func FitMoments(sample []float64) (Params, error) {
	if len(sample) == 0 {
		return Params{}, fmt.Errorf("moments fit: %w", ErrEmptySample)
	}
	mu, sigma := stat.PopMeanStdDev(sample, nil)
	return Params{Mu: mu, Sigma: sigma}, nil
}

// FitCurve fits the normal PDF to the histogram density of sample over edges
// by least squares, starting from the moments fit.
func FitCurve(sample, edges []float64) (Params, error) {
	seed, err := FitMoments(sample)
	if err != nil {
		return Params{}, err
	}
	if seed.Sigma == 0 {
		return Params{}, fmt.Errorf("%w: sample has no spread", ErrNotConverged)
	}
	density, err := Density(sample, edges)
	if err != nil {
		return Params{}, err
	}
	centers := Centers(edges)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			p := Params{Mu: x[0], Sigma: math.Abs(x[1])}
			if p.Sigma == 0 {
				return math.Inf(1)
			}
			var ss float64
			for i, c := range centers {
				r := p.PDF(c) - density[i]
				ss += r * r
			}
			return ss
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 10000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Iterations: 200,
		},
	}

	res, err := optimize.Minimize(problem, []float64{seed.Mu, seed.Sigma}, settings, &optimize.NelderMead{})
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}
	p := Params{Mu: res.X[0], Sigma: math.Abs(res.X[1])}
	if math.IsNaN(p.Mu) || math.IsInf(p.Mu, 0) || math.IsNaN(p.Sigma) || math.IsInf(p.Sigma, 0) || p.Sigma == 0 {
		return Params{}, fmt.Errorf("%w: got %v", ErrNotConverged, p)
	}
	return p, nil
}

// Range returns evenly spaced points from min to max inclusive, step apart.
func Range(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	n := int(math.Floor((max-min)/step+1e-9)) + 1
	if n == 1 {
		return []float64{min}
	}
	return floats.Span(make([]float64, n), min, min+float64(n-1)*step)
}

// Curve evaluates the fitted PDF at xs. With normalize set the curve is
// divided by its peak so fits of different widths share a unit height.
func Curve(p Params, xs []float64, normalize bool) []float64 {
	ys := make([]float64, len(xs))
	peak := 1.0
	if normalize {
		peak = p.Peak()
	}
	for i, x := range xs {
		ys[i] = p.PDF(x) / peak
	}
	return ys
}
