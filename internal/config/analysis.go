package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"gonum.org/v1/plot/vg"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the tunable values shared by the analysis tools.
// Every field is optional; the Get* methods supply the default for any
// field the file leaves out.
type AnalysisConfig struct {
	// Measurement scale
	UnitsPerPixel *float64 `json:"units_per_pixel,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	MaxDiameter   *float64 `json:"max_diameter,omitempty"`

	// Histogram and fit
	BinStrategy   *string  `json:"bin_strategy,omitempty"`
	BinCount      *int     `json:"bin_count,omitempty"`
	FitMethod     *string  `json:"fit_method,omitempty"`
	NormalizeFits *bool    `json:"normalize_fits,omitempty"`
	FitXMin       *float64 `json:"fit_x_min,omitempty"`
	FitXMax       *float64 `json:"fit_x_max,omitempty"`

	// Figure size in inches
	FigureWidthIn  *float64 `json:"figure_width_in,omitempty"`
	FigureHeightIn *float64 `json:"figure_height_in,omitempty"`

	// Inflamed tissue projection
	ShiftFactor *float64 `json:"shift_factor,omitempty"`
	ShiftMin    *float64 `json:"shift_min,omitempty"`
	ShiftMax    *float64 `json:"shift_max,omitempty"`

	// Scale bar length in physical units
	ScaleBarLength *float64 `json:"scale_bar_length,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyAnalysisConfig returns a config with every field unset, so every
// getter returns its default.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its default.
func DefaultAnalysisConfig() *AnalysisConfig {
	e := EmptyAnalysisConfig()
	return &AnalysisConfig{
		UnitsPerPixel:  ptrFloat64(e.GetUnitsPerPixel()),
		Unit:           ptrString(e.GetUnit()),
		MaxDiameter:    ptrFloat64(e.GetMaxDiameter()),
		BinStrategy:    ptrString(string(e.GetBinStrategy())),
		BinCount:       ptrInt(e.GetBinCount()),
		FitMethod:      ptrString(string(e.GetFitMethod())),
		NormalizeFits:  ptrBool(e.GetNormalizeFits()),
		FitXMin:        ptrFloat64(e.GetFitXMin()),
		FitXMax:        ptrFloat64(e.GetFitXMax()),
		FigureWidthIn:  ptrFloat64(e.GetFigureWidthIn()),
		FigureHeightIn: ptrFloat64(e.GetFigureHeightIn()),
		ShiftFactor:    ptrFloat64(e.GetShiftFactor()),
		ShiftMin:       ptrFloat64(e.GetShiftMin()),
		ShiftMax:       ptrFloat64(e.GetShiftMax()),
		ScaleBarLength: ptrFloat64(e.GetScaleBarLength()),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ and deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// LoadOrDefault loads path, or returns an empty config when path is "".
func LoadOrDefault(path string) (*AnalysisConfig, error) {
	if path == "" {
		return EmptyAnalysisConfig(), nil
	}
	return LoadAnalysisConfig(path)
}

func positive(name string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0) {
		return fmt.Errorf("%s must be positive, got %v", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"units_per_pixel", c.UnitsPerPixel},
		{"max_diameter", c.MaxDiameter},
		{"figure_width_in", c.FigureWidthIn},
		{"figure_height_in", c.FigureHeightIn},
		{"shift_factor", c.ShiftFactor},
		{"scale_bar_length", c.ScaleBarLength},
	} {
		if err := positive(f.name, f.v); err != nil {
			return err
		}
	}

	if c.Unit != nil && !units.IsValid(*c.Unit) {
		return fmt.Errorf("invalid unit '%s', must be one of: %s", *c.Unit, units.GetValidUnitsString())
	}
	if c.BinStrategy != nil && !gaussfit.BinStrategy(*c.BinStrategy).Valid() {
		return fmt.Errorf("invalid bin_strategy '%s', must be one of: %s, %s", *c.BinStrategy, gaussfit.WidthFromMin, gaussfit.FixedCount)
	}
	if c.BinCount != nil && *c.BinCount < 1 {
		return fmt.Errorf("bin_count must be at least 1, got %d", *c.BinCount)
	}
	if c.FitMethod != nil && !gaussfit.Method(*c.FitMethod).Valid() {
		return fmt.Errorf("invalid fit_method '%s', must be one of: %s, %s", *c.FitMethod, gaussfit.Moments, gaussfit.CurveFit)
	}
	if c.GetFitXMax() <= c.GetFitXMin() {
		return fmt.Errorf("fit_x_max (%v) must be greater than fit_x_min (%v)", c.GetFitXMax(), c.GetFitXMin())
	}
	if c.GetShiftMax() < c.GetShiftMin() {
		return fmt.Errorf("shift_max (%v) must not be less than shift_min (%v)", c.GetShiftMax(), c.GetShiftMin())
	}
	return nil
}

// GetUnitsPerPixel returns the units_per_pixel value or the default.
func (c *AnalysisConfig) GetUnitsPerPixel() float64 {
	if c.UnitsPerPixel == nil {
		return units.DefaultUnitsPerPixel
	}
	return *c.UnitsPerPixel
}

// GetUnit returns the unit value or the default.
func (c *AnalysisConfig) GetUnit() string {
	if c.Unit == nil {
		return units.Micron
	}
	return *c.Unit
}

// Scale returns the pixel to physical unit conversion.
func (c *AnalysisConfig) Scale() units.Scale {
	return units.Scale{UnitsPerPixel: c.GetUnitsPerPixel(), Unit: c.GetUnit()}
}

// GetMaxDiameter returns the max_diameter value or the default.
func (c *AnalysisConfig) GetMaxDiameter() float64 {
	if c.MaxDiameter == nil {
		return 100
	}
	return *c.MaxDiameter
}

// GetBinStrategy returns the bin_strategy value or the default.
func (c *AnalysisConfig) GetBinStrategy() gaussfit.BinStrategy {
	if c.BinStrategy == nil {
		return gaussfit.WidthFromMin
	}
	return gaussfit.BinStrategy(*c.BinStrategy)
}

// GetBinCount returns the bin_count value or the default.
func (c *AnalysisConfig) GetBinCount() int {
	if c.BinCount == nil {
		return 20
	}
	return *c.BinCount
}

// GetFitMethod returns the fit_method value or the default.
func (c *AnalysisConfig) GetFitMethod() gaussfit.Method {
	if c.FitMethod == nil {
		return gaussfit.Moments
	}
	return gaussfit.Method(*c.FitMethod)
}

// GetNormalizeFits returns the normalize_fits value or the default.
func (c *AnalysisConfig) GetNormalizeFits() bool {
	if c.NormalizeFits == nil {
		return false
	}
	return *c.NormalizeFits
}

// GetFitXMin returns the fit_x_min value or the default.
func (c *AnalysisConfig) GetFitXMin() float64 {
	if c.FitXMin == nil {
		return 0
	}
	return *c.FitXMin
}

// GetFitXMax returns the fit_x_max value or the default.
func (c *AnalysisConfig) GetFitXMax() float64 {
	if c.FitXMax == nil {
		return 99
	}
	return *c.FitXMax
}

// FitRange returns the x values fitted curves are drawn over, one unit apart.
func (c *AnalysisConfig) FitRange() []float64 {
	return gaussfit.Range(c.GetFitXMin(), c.GetFitXMax(), 1)
}

// GetFigureWidthIn returns the figure_width_in value or the default.
func (c *AnalysisConfig) GetFigureWidthIn() float64 {
	if c.FigureWidthIn == nil {
		return 6.4
	}
	return *c.FigureWidthIn
}

// GetFigureHeightIn returns the figure_height_in value or the default.
func (c *AnalysisConfig) GetFigureHeightIn() float64 {
	if c.FigureHeightIn == nil {
		return 4.8
	}
	return *c.FigureHeightIn
}

// FigureSize returns the figure width and height.
func (c *AnalysisConfig) FigureSize() (vg.Length, vg.Length) {
	return vg.Length(c.GetFigureWidthIn()) * vg.Inch, vg.Length(c.GetFigureHeightIn()) * vg.Inch
}

// GetShiftFactor returns the shift_factor value or the default.
func (c *AnalysisConfig) GetShiftFactor() float64 {
	if c.ShiftFactor == nil {
		return 1.82
	}
	return *c.ShiftFactor
}

// GetShiftMin returns the shift_min value or the default.
func (c *AnalysisConfig) GetShiftMin() float64 {
	if c.ShiftMin == nil {
		return 6
	}
	return *c.ShiftMin
}

// GetShiftMax returns the shift_max value or the default.
func (c *AnalysisConfig) GetShiftMax() float64 {
	if c.ShiftMax == nil {
		return 30
	}
	return *c.ShiftMax
}

// GetScaleBarLength returns the scale_bar_length value or the default.
func (c *AnalysisConfig) GetScaleBarLength() float64 {
	if c.ScaleBarLength == nil {
		return 50
	}
	return *c.ScaleBarLength
}
