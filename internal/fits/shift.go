package fits

import (
	"fmt"

	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
)

// ShiftRule scales the diameters that fall in [Min, Max] by Factor and leaves
// the rest untouched.
type ShiftRule struct {
	Factor   float64
	Min, Max float64
}

// DefaultShiftRule widens vessels of 6 to 30 microns by 1.82.
func DefaultShiftRule() ShiftRule {
	return ShiftRule{Factor: 1.82, Min: 6, Max: 30}
}

// Apply returns a shifted copy of values.
func (r ShiftRule) Apply(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v >= r.Min && v <= r.Max {
			v *= r.Factor
		}
		out[i] = v
	}
	return out
}

// Projection pairs the fitted healthy distribution with the one expected
// after the shift.
type Projection struct {
	Healthy  gaussfit.Params
	Inflamed gaussfit.Params
}

// Project fits values before and after applying r.
func Project(values []float64, r ShiftRule) (Projection, error) {
	healthy, err := FitDiameters(values)
	if err != nil {
		return Projection{}, fmt.Errorf("healthy fit: %w", err)
	}
	inflamed, err := FitDiameters(r.Apply(values))
	if err != nil {
		return Projection{}, fmt.Errorf("shifted fit: %w", err)
	}
	return Projection{Healthy: healthy, Inflamed: inflamed}, nil
}

// Curves returns the two distributions as labelled figure curves.
func (p Projection) Curves() []visualization.Curve {
	return []visualization.Curve{
		{Label: "Diameter distribution in healthy tissue", Color: visualization.HealthyBlue, Params: p.Healthy},
		{Label: "Expected diameter distribution in inflamed tissue", Color: visualization.InflamedMagenta, Params: p.Inflamed},
	}
}

// ShiftTitle is the heading of a projection figure.
func ShiftTitle(normalize bool) string {
	if normalize {
		return "Expected Normalized Diameter Distribution Shift"
	}
	return "Expected Diameter Distribution Shift"
}

// ShiftFigureName is the file name of the projection figure for image.
func ShiftFigureName(image string, normalize bool) string {
	if normalize {
		return image + "-shifted-fits-normalized.png"
	}
	return image + "-shifted-fits.png"
}
