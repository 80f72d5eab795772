// Command diameters draws one figure of the vessel diameters in a
// measurement CSV: a histogram with a Gaussian fit, a violin plot or a
// scatter plot.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/dataset"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/measurement"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"github.com/banshee-data/vessel.analysis/internal/report"
	"github.com/banshee-data/vessel.analysis/internal/version"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
)

var (
	filePath          = flag.String("file_path", "resources/data/532_OR_55_index0.csv", "CSV of (id, diameter) measurements")
	outputType        = flag.String("output_type", "histogram", "Figure to draw: histogram, violinplot, scatterplot or density/branch_count")
	outputFolder      = flag.String("output_folder", "resources/output", "Folder the figure is written to")
	pixelMeasurements = flag.String("pixel_measurements", "false", "\"true\" to plot raw pixel values instead of physical units")
	configPath        = flag.String("config", "", "Analysis config JSON; built-in defaults apply when empty")
	writeHTML         = flag.Bool("html", false, "Also write an interactive HTML chart next to the image")
	showVersion       = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	filePath     string
	outputType   string
	outputFolder string
	pixel        bool
	html         bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("diameters"))
		return
	}

	pixel, err := strconv.ParseBool(*pixelMeasurements)
	if err != nil {
		log.Fatalf("invalid --pixel_measurements %q: expected true or false", *pixelMeasurements)
	}
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	o := options{
		filePath:     *filePath,
		outputType:   *outputType,
		outputFolder: *outputFolder,
		pixel:        pixel,
		html:         *writeHTML,
	}
	if err := run(fsutil.OSFileSystem{}, cfg, o); err != nil {
		log.Fatalf("diameters: %v", err)
	}
}

// run loads the CSV and draws the requested figure. An unknown output type
// is reported and skipped without error.
func run(fsys fsutil.FileSystem, cfg *config.AnalysisConfig, o options) error {
	kind, kindErr := visualization.ParseKind(o.outputType)

	var (
		data visualization.Data
		err  error
	)
	if kindErr == nil && kind.UsesBranches() {
		data.Branches, err = dataset.LoadBranches(fsys, o.filePath, measurement.ShapeDensity)
	} else {
		data.Diameters, err = dataset.LoadDiameters(fsys, o.filePath)
	}
	if err != nil {
		return err
	}

	if kindErr != nil {
		monitoring.Logf("%v", kindErr)
		return nil
	}

	if err := fsys.MkdirAll(o.outputFolder, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	base := dataset.BaseName(o.filePath)
	opts := visualization.ConfiguredOptions(cfg, o.outputFolder, base, o.pixel)
	fig, err := visualization.NewRenderer(fsys, opts).Render(kind, data)
	if err != nil {
		return err
	}
	if fig.Fit != nil {
		monitoring.Logf("%s fit: %v", base, *fig.Fit)
	}

	if o.html {
		name := base + strings.TrimSuffix(kind.Suffix(), ".png")
		_, err := report.NewWriter(fsys, o.outputFolder).Figure(name, fig)
		switch {
		case visualization.IsUnsupportedKind(err):
			monitoring.Logf("%v", err)
		case err != nil:
			return err
		}
	}
	return nil
}
