// Package units provides the length units vessel measurements are reported in
// and the fixed pixel to physical scale used to convert between them.
package units

import (
	"fmt"
	"math"
)

// Unit constants
const (
	Pixel     = "pixel"
	Micron    = "micron"
	Nanometre = "nanometre"
)

// DefaultUnitsPerPixel is the physical size of one image pixel.
const DefaultUnitsPerPixel = 5.0

// ValidUnits contains the physical units a scale may be expressed in.
var ValidUnits = []string{Micron, Nanometre}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "micron, nanometre"
}

// Plural returns the axis label wording for a unit, e.g. "microns".
func Plural(unit string) string {
	switch unit {
	case Pixel:
		return "pixels"
	case Micron:
		return "microns"
	case Nanometre:
		return "nanometres"
	default:
		return unit
	}
}

// Symbol returns the short form of a unit, e.g. "μm".
func Symbol(unit string) string {
	switch unit {
	case Pixel:
		return "px"
	case Micron:
		return "μm"
	case Nanometre:
		return "nm"
	default:
		return unit
	}
}

// Scale converts raw pixel measurements into a physical unit. Whether the
// imaging setup is nanometres or microns per pixel is a property of the
// dataset, so both the factor and the unit are configuration values.
type Scale struct {
	UnitsPerPixel float64
	Unit          string
}

// DefaultScale returns 5 microns per pixel.
func DefaultScale() Scale {
	return Scale{UnitsPerPixel: DefaultUnitsPerPixel, Unit: Micron}
}

// Validate checks that the factor is positive and the unit is known.
func (s Scale) Validate() error {
	if math.IsNaN(s.UnitsPerPixel) || math.IsInf(s.UnitsPerPixel, 0) || s.UnitsPerPixel <= 0 {
		return fmt.Errorf("units per pixel must be positive and finite, got %v", s.UnitsPerPixel)
	}
	if !IsValid(s.Unit) {
		return fmt.Errorf("invalid unit %q, must be one of: %s", s.Unit, GetValidUnitsString())
	}
	return nil
}

// ToPhysical converts a pixel measurement to the scale's unit.
func (s Scale) ToPhysical(pixels float64) float64 {
	return pixels * s.UnitsPerPixel
}

// ToPixels converts a physical measurement back to pixels.
func (s Scale) ToPixels(physical float64) float64 {
	return physical / s.UnitsPerPixel
}

// DisplayUnit is the unit values are plotted in: pixels when pixel is set,
// otherwise the scale's physical unit.
func (s Scale) DisplayUnit(pixel bool) string {
	if pixel {
		return Pixel
	}
	return s.Unit
}
