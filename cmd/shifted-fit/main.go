// Command shifted-fit projects how the diameter distribution of one image
// would look in inflamed tissue, where mid-sized vessels dilate, and draws
// the healthy and projected fits together.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/fits"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"github.com/banshee-data/vessel.analysis/internal/report"
	"github.com/banshee-data/vessel.analysis/internal/security"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"github.com/banshee-data/vessel.analysis/internal/version"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
)

var (
	image        = flag.String("image", "532_OR_47_index0.jpeg", "Image whose diameters are projected")
	dataDir      = flag.String("data_dir", "resources/data/diameter-data", "Folder holding the image's diameter CSV")
	outputFolder = flag.String("output_folder", "resources/output", "Folder the figure is written to")
	normalize    = flag.Bool("normalize", false, "Divide both curves by their peak (also enabled by normalize_fits in the config)")
	configPath   = flag.String("config", "", "Analysis config JSON; built-in defaults apply when empty")
	writeHTML    = flag.Bool("html", false, "Also write an interactive HTML chart next to the image")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("shifted-fit"))
		return
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	proj, err := run(fsutil.OSFileSystem{}, cfg, *image, *dataDir, *outputFolder, *normalize || cfg.GetNormalizeFits(), *writeHTML)
	if err != nil {
		log.Fatalf("shifted-fit: %v", err)
	}
	log.Printf("healthy %v, inflamed %v", proj.Healthy, proj.Inflamed)
}

func shiftRule(cfg *config.AnalysisConfig) fits.ShiftRule {
	return fits.ShiftRule{Factor: cfg.GetShiftFactor(), Min: cfg.GetShiftMin(), Max: cfg.GetShiftMax()}
}

// run fits the image before and after the shift and writes the figure.
func run(fsys fsutil.FileSystem, cfg *config.AnalysisConfig, image, dataDir, outputDir string, normalize, html bool) (fits.Projection, error) {
	b := fits.Batch{FS: fsys, DataDir: dataDir, Scale: cfg.Scale()}
	values, err := b.Diameters(image)
	if err != nil {
		return fits.Projection{}, err
	}
	rule := shiftRule(cfg)
	proj, err := fits.Project(values, rule)
	if err != nil {
		return fits.Projection{}, err
	}
	monitoring.Logf("%s: %d diameters, shifting [%g, %g] by %g", image, len(values), rule.Min, rule.Max, rule.Factor)

	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return fits.Projection{}, fmt.Errorf("failed to create output folder: %w", err)
	}
	name := fits.ShiftFigureName(security.SanitizeFilename(image), normalize)
	path, err := security.FigurePath(outputDir, name)
	if err != nil {
		return fits.Projection{}, err
	}

	unit := units.Symbol(cfg.GetUnit())
	xs := cfg.FitRange()
	p, err := visualization.FitFigure(fits.ShiftTitle(normalize), unit, proj.Curves(), xs, normalize)
	if err != nil {
		return fits.Projection{}, err
	}
	w, h := cfg.FigureSize()
	if err := visualization.SaveFigure(fsys, p, w, h, path); err != nil {
		return fits.Projection{}, err
	}

	if html {
		_, err := report.NewWriter(fsys, outputDir).Fits(strings.TrimSuffix(name, ".png"), fits.ShiftTitle(normalize), unit, proj.Curves(), xs, normalize)
		if err != nil {
			return fits.Projection{}, err
		}
	}
	return proj, nil
}
