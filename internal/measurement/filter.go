package measurement

import "github.com/banshee-data/vessel.analysis/internal/units"

// FilterDiameters returns the diameters to plot, in file order, keeping only
// values at or below maxDiameter. maxDiameter is always in physical units.
// With pixel set the values stay in pixels and the threshold is converted to
// pixels; otherwise the values are converted to physical units.
func FilterDiameters(ms []Diameter, maxDiameter float64, pixel bool, scale units.Scale) []float64 {
	out := make([]float64, 0, len(ms))
	if pixel {
		limit := scale.ToPixels(maxDiameter)
		for _, m := range ms {
			if m.Diameter <= limit {
				out = append(out, m.Diameter)
			}
		}
		return out
	}
	for _, m := range ms {
		if v := m.Physical(scale); v <= maxDiameter {
			out = append(out, v)
		}
	}
	return out
}

// PhysicalDiameters converts every diameter without filtering.
func PhysicalDiameters(ms []Diameter, scale units.Scale) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		out[i] = m.Physical(scale)
	}
	return out
}
