package gaussfit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestMinWidthEdges(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
		want   []float64
	}{
		{"exact multiple", []float64{2, 5, 10}, []float64{2, 4, 6, 8, 10}},
		{"overshoots max", []float64{3, 10, 4}, []float64{3, 6, 9, 12}},
		{"fractional min rounds width up", []float64{2.5, 8}, []float64{2.5, 5.5, 8.5}},
		{"single value", []float64{7, 7}, []float64{7, 14}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinWidthEdges(tt.sample)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MinWidthEdges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMinWidthEdgesErrors(t *testing.T) {
	_, err := MinWidthEdges(nil)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = MinWidthEdges([]float64{0, 3})
	assert.ErrorIs(t, err, ErrBinWidth)

	_, err = MinWidthEdges([]float64{-2, 3})
	assert.ErrorIs(t, err, ErrBinWidth)
}

func TestTruncWidthEdges(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
		want   []float64
	}{
		{"fractional min truncates width", []float64{12.5, 20, 22.5, 31, 47, 60}, []float64{12.5, 24.5, 36.5, 48.5, 60.5}},
		{"integer min", []float64{3, 10, 4}, []float64{3, 6, 9, 12}},
		{"just above one", []float64{1.9, 4}, []float64{1.9, 2.9, 3.9, 4.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TruncWidthEdges(tt.sample)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("TruncWidthEdges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTruncWidthEdgesErrors(t *testing.T) {
	_, err := TruncWidthEdges(nil)
	assert.ErrorIs(t, err, ErrEmptySample)

	// ceil would give a width of 1 here
	_, err = TruncWidthEdges([]float64{0.5, 3})
	assert.ErrorIs(t, err, ErrBinWidth)

	_, err = TruncWidthEdges([]float64{-2, 3})
	assert.ErrorIs(t, err, ErrBinWidth)
}

func TestFixedCountEdges(t *testing.T) {
	got, err := FixedCountEdges([]float64{10, 0, 5}, 4)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{0, 2.5, 5, 7.5, 10}, got); diff != "" {
		t.Errorf("FixedCountEdges mismatch (-want +got):\n%s", diff)
	}

	got, err = FixedCountEdges([]float64{3}, 2)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{2.5, 3, 3.5}, got); diff != "" {
		t.Errorf("degenerate FixedCountEdges mismatch (-want +got):\n%s", diff)
	}

	_, err = FixedCountEdges([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrBinWidth)
	_, err = FixedCountEdges(nil, 3)
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestEdgesSpanSample(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(60)
		sample := make([]float64, n)
		for i := range sample {
			sample[i] = 0.2 + rng.Float64()*90
		}
		lo, hi := floats.Min(sample), floats.Max(sample)

		for _, strategy := range []BinStrategy{WidthFromMin, FixedCount} {
			edges, err := Edges(strategy, sample, 1+rng.Intn(30))
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(edges), 2)
			assert.LessOrEqual(t, edges[0], lo, "%s first edge", strategy)
			assert.GreaterOrEqual(t, edges[len(edges)-1], hi, "%s last edge", strategy)

			counts := Counts(sample, edges)
			assert.Equal(t, float64(n), floats.Sum(counts), "%s every value binned", strategy)
			assert.Positive(t, counts[0], "%s first bin holds the minimum", strategy)
		}
	}
}

func TestEdgesUnknownStrategy(t *testing.T) {
	_, err := Edges("sturges", []float64{1, 2}, 3)
	assert.Error(t, err)
	assert.False(t, BinStrategy("sturges").Valid())
	assert.True(t, WidthFromMin.Valid())
}

func TestCounts(t *testing.T) {
	edges := []float64{0, 1, 2, 3}
	got := Counts([]float64{0, 0.5, 1, 2.5, 3, 3.5, -1}, edges)
	// 3 sits in the last, closed bin; 3.5 and -1 are outside.
	if diff := cmp.Diff([]float64{2, 1, 2}, got); diff != "" {
		t.Errorf("Counts mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []float64{0, 0, 0}, Counts(nil, edges))
	assert.Nil(t, Counts([]float64{1}, []float64{0}))
}

func TestDensity(t *testing.T) {
	edges := []float64{0, 2, 4}
	got, err := Density([]float64{1, 1, 3, 1}, edges)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.375, 0.125}, got, 1e-12)

	// integrates to one
	var area float64
	for i, d := range got {
		area += d * (edges[i+1] - edges[i])
	}
	assert.InDelta(t, 1.0, area, 1e-12)

	_, err = Density([]float64{10}, edges)
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestCenters(t *testing.T) {
	assert.Equal(t, []float64{1, 3, 5}, Centers([]float64{0, 2, 4, 6}))
	assert.Nil(t, Centers([]float64{1}))
}

func TestRange(t *testing.T) {
	xs := Range(0, 99, 1)
	require.Len(t, xs, 100)
	assert.Equal(t, 0.0, xs[0])
	assert.Equal(t, 99.0, xs[99])
	assert.InDelta(t, 42.0, xs[42], 1e-12)

	assert.Equal(t, []float64{5}, Range(5, 5, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, Range(0, 1.2, 0.5))
	assert.Nil(t, Range(1, 0, 1))
	assert.Nil(t, Range(0, 1, 0))
	assert.False(t, math.IsNaN(Range(0, 10, 3)[3]))
}
