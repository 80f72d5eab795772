// Package gaussfit bins diameter samples and fits normal distributions to
// them, either in closed form or by least squares against the binned density.
package gaussfit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptySample is returned when a statistic is requested of no values.
	ErrEmptySample = errors.New("empty sample")
	// ErrBinWidth is returned when the histogram bins would have no width.
	ErrBinWidth = errors.New("non-positive histogram bin width")
)

// BinStrategy selects how histogram edges are derived from a sample.
type BinStrategy string

const (
	// WidthFromMin uses bins of width ceil(min(sample)) starting at the minimum.
	WidthFromMin BinStrategy = "width_from_min"
	// FixedCount splits [min, max] into a fixed number of equal bins.
	FixedCount BinStrategy = "fixed_count"
)

// Valid reports whether s is a known strategy.
func (s BinStrategy) Valid() bool {
	return s == WidthFromMin || s == FixedCount
}

// Edges returns histogram bin edges for sample. count is only used by FixedCount.
func Edges(strategy BinStrategy, sample []float64, count int) ([]float64, error) {
	switch strategy {
	case WidthFromMin:
		return MinWidthEdges(sample)
	case FixedCount:
		return FixedCountEdges(sample, count)
	default:
		return nil, fmt.Errorf("unknown bin strategy %q", strategy)
	}
}

// MinWidthEdges returns edges min, min+w, min+2w, ... with w = ceil(min),
// continuing until the last edge reaches max. There is always at least one bin.
func MinWidthEdges(sample []float64) ([]float64, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("bin edges: %w", ErrEmptySample)
	}
	lo, hi := floats.Min(sample), floats.Max(sample)
	w := math.Ceil(lo)
	if !(w > 0) {
		return nil, fmt.Errorf("%w: ceil(min)=%v", ErrBinWidth, w)
	}
	return stepEdges(lo, hi, w), nil
}

// TruncWidthEdges is MinWidthEdges with the width truncated to an integer,
// w = trunc(min). The batch fits bin this way. A minimum below 1 has no
// usable width.
func TruncWidthEdges(sample []float64) ([]float64, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("bin edges: %w", ErrEmptySample)
	}
	lo, hi := floats.Min(sample), floats.Max(sample)
	w := math.Trunc(lo)
	if !(w > 0) {
		return nil, fmt.Errorf("%w: trunc(min)=%v", ErrBinWidth, w)
	}
	return stepEdges(lo, hi, w), nil
}

// stepEdges returns lo, lo+w, ... up to the first edge at or past hi.
func stepEdges(lo, hi, w float64) []float64 {
	edges := []float64{lo}
	for i := 1; ; i++ {
		e := lo + float64(i)*w
		edges = append(edges, e)
		if e >= hi {
			return edges
		}
	}
}

// FixedCountEdges returns n+1 evenly spaced edges over [min, max]. A sample
// with a single distinct value gets one unit-wide bin centred on it.
func FixedCountEdges(sample []float64, n int) ([]float64, error) {
	if len(sample) == 0 {
		return nil, fmt.Errorf("bin edges: %w", ErrEmptySample)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: %d bins", ErrBinWidth, n)
	}
	lo, hi := floats.Min(sample), floats.Max(sample)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, n+1), lo, hi)
	// Span can land a rounding error short of hi.
	edges[n] = hi
	return edges, nil
}

// Counts returns the number of sample values in each bin. Bins are half open
// except the last, which includes its upper edge. Values outside the edges
// are ignored.
func Counts(sample, edges []float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	lo, hi := edges[0], edges[len(edges)-1]
	xs := make([]float64, 0, len(sample))
	for _, v := range sample {
		if v >= lo && v <= hi {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return make([]float64, len(edges)-1)
	}
	sort.Float64s(xs)

	// stat.Histogram wants every value strictly below the last divider.
	dividers := append([]float64(nil), edges...)
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))
	return stat.Histogram(nil, dividers, xs, nil)
}

// Density normalises bin counts so the histogram integrates to one.
func Density(sample, edges []float64) ([]float64, error) {
	counts := Counts(sample, edges)
	total := floats.Sum(counts)
	if total == 0 {
		return nil, fmt.Errorf("histogram density: %w", ErrEmptySample)
	}
	density := make([]float64, len(counts))
	for i, c := range counts {
		density[i] = c / (total * (edges[i+1] - edges[i]))
	}
	return density, nil
}

// Centers returns the midpoint of every bin.
func Centers(edges []float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	out := make([]float64, len(edges)-1)
	for i := range out {
		out[i] = 0.5 * (edges[i] + edges[i+1])
	}
	return out
}
