package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/plot/vg"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyAnalysisConfigDefaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()

	if cfg.GetUnitsPerPixel() != 5 {
		t.Errorf("GetUnitsPerPixel() = %v, want 5", cfg.GetUnitsPerPixel())
	}
	if cfg.GetUnit() != units.Micron {
		t.Errorf("GetUnit() = %q, want %q", cfg.GetUnit(), units.Micron)
	}
	if cfg.GetMaxDiameter() != 100 {
		t.Errorf("GetMaxDiameter() = %v, want 100", cfg.GetMaxDiameter())
	}
	if cfg.GetBinStrategy() != gaussfit.WidthFromMin {
		t.Errorf("GetBinStrategy() = %q, want %q", cfg.GetBinStrategy(), gaussfit.WidthFromMin)
	}
	if cfg.GetFitMethod() != gaussfit.Moments {
		t.Errorf("GetFitMethod() = %q, want %q", cfg.GetFitMethod(), gaussfit.Moments)
	}
	if cfg.GetNormalizeFits() {
		t.Error("GetNormalizeFits() = true, want false")
	}
	if cfg.GetShiftFactor() != 1.82 || cfg.GetShiftMin() != 6 || cfg.GetShiftMax() != 30 {
		t.Errorf("unexpected shift defaults: %v %v %v", cfg.GetShiftFactor(), cfg.GetShiftMin(), cfg.GetShiftMax())
	}
	if cfg.GetScaleBarLength() != 50 {
		t.Errorf("GetScaleBarLength() = %v, want 50", cfg.GetScaleBarLength())
	}

	xs := cfg.FitRange()
	if len(xs) != 100 || xs[0] != 0 || xs[99] != 99 {
		t.Errorf("FitRange() = %d points [%v..%v], want 100 points [0..99]", len(xs), xs[0], xs[len(xs)-1])
	}

	w, h := cfg.FigureSize()
	if w != 6.4*vg.Inch || h != 4.8*vg.Inch {
		t.Errorf("FigureSize() = %v x %v", w, h)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultAnalysisConfig(), fromFile); diff != "" {
		t.Errorf("%s disagrees with the built-in defaults (-builtin +file):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadAnalysisConfig(t *testing.T) {
	path := writeConfig(t, "analysis.json", `{
  "units_per_pixel": 0.25,
  "unit": "nanometre",
  "max_diameter": 40,
  "bin_strategy": "fixed_count",
  "bin_count": 12,
  "fit_method": "curve_fit",
  "normalize_fits": true
}`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	want := units.Scale{UnitsPerPixel: 0.25, Unit: units.Nanometre}
	if cfg.Scale() != want {
		t.Errorf("Scale() = %+v, want %+v", cfg.Scale(), want)
	}
	if cfg.GetMaxDiameter() != 40 {
		t.Errorf("GetMaxDiameter() = %v, want 40", cfg.GetMaxDiameter())
	}
	if cfg.GetBinStrategy() != gaussfit.FixedCount || cfg.GetBinCount() != 12 {
		t.Errorf("unexpected bins: %q %d", cfg.GetBinStrategy(), cfg.GetBinCount())
	}
	if cfg.GetFitMethod() != gaussfit.CurveFit {
		t.Errorf("GetFitMethod() = %q", cfg.GetFitMethod())
	}
	if !cfg.GetNormalizeFits() {
		t.Error("GetNormalizeFits() = false, want true")
	}

	// omitted fields keep their defaults
	if cfg.GetShiftFactor() != 1.82 {
		t.Errorf("GetShiftFactor() = %v, want default 1.82", cfg.GetShiftFactor())
	}
	if cfg.GetFitXMax() != 99 {
		t.Errorf("GetFitXMax() = %v, want default 99", cfg.GetFitXMax())
	}
}

func TestLoadAnalysisConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "analysis.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"unit": `, "failed to parse config JSON"},
		{"negative scale", "neg.json", `{"units_per_pixel": -1}`, "units_per_pixel must be positive"},
		{"zero max diameter", "zero.json", `{"max_diameter": 0}`, "max_diameter must be positive"},
		{"unknown unit", "unit.json", `{"unit": "furlong"}`, "invalid unit 'furlong'"},
		{"unknown strategy", "bins.json", `{"bin_strategy": "sturges"}`, "invalid bin_strategy"},
		{"no bins", "count.json", `{"bin_count": 0}`, "bin_count must be at least 1"},
		{"unknown method", "fit.json", `{"fit_method": "mcmc"}`, "invalid fit_method"},
		{"empty range", "range.json", `{"fit_x_min": 10, "fit_x_max": 10}`, "fit_x_max"},
		{"inverted shift", "shift.json", `{"shift_min": 30, "shift_max": 6}`, "shift_max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnalysisConfig(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAnalysisConfigMissingFile(t *testing.T) {
	_, err := LoadAnalysisConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "failed to stat config file") {
		t.Errorf("expected stat error, got %v", err)
	}
}

func TestLoadAnalysisConfigTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.json")
	body := `{"unit": "micron", "pad": "` + strings.Repeat("x", 1024*1024) + `"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadAnalysisConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") failed: %v", err)
	}
	if cfg.GetMaxDiameter() != 100 {
		t.Errorf("expected defaults, got max_diameter %v", cfg.GetMaxDiameter())
	}

	cfg, err = LoadOrDefault(writeConfig(t, "c.json", `{"max_diameter": 55}`))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.GetMaxDiameter() != 55 {
		t.Errorf("GetMaxDiameter() = %v, want 55", cfg.GetMaxDiameter())
	}
}
