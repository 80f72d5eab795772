// Command branches plots vessel density against branch count for a branch
// measurement CSV.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/dataset"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/measurement"
	"github.com/banshee-data/vessel.analysis/internal/report"
	"github.com/banshee-data/vessel.analysis/internal/version"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
)

var (
	filePath    = flag.String("file_path", "resources/output.csv", "Branch measurement CSV")
	outputPath  = flag.String("output_path", "resources/output", "Folder the figure is written to")
	branchShape = flag.String("branch_shape", "density", "CSV layout: density or skeleton")
	configPath  = flag.String("config", "", "Analysis config JSON; built-in defaults apply when empty")
	writeHTML   = flag.Bool("html", false, "Also write an interactive HTML chart next to the image")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("branches"))
		return
	}

	shape, err := measurement.ParseShape(*branchShape)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	paths, err := run(fsutil.OSFileSystem{}, cfg, *filePath, *outputPath, shape, *writeHTML)
	if err != nil {
		log.Fatalf("branches: %v", err)
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}
}

// run draws every branch figure of the file and returns the written paths.
func run(fsys fsutil.FileSystem, cfg *config.AnalysisConfig, path, outputDir string, shape measurement.Shape, html bool) ([]string, error) {
	branches, err := dataset.LoadBranches(fsys, path, shape)
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	base := dataset.BaseName(path)
	r := visualization.NewRenderer(fsys, visualization.ConfiguredOptions(cfg, outputDir, base, false))

	var written []string
	for _, kind := range visualization.Kinds() {
		if !kind.UsesBranches() {
			continue
		}
		fig, err := r.Render(kind, visualization.Data{Branches: branches})
		if err != nil {
			return written, err
		}
		written = append(written, fig.Path)

		if html {
			p, err := report.NewWriter(fsys, outputDir).Figure(base+"-density", fig)
			if err != nil {
				return written, err
			}
			written = append(written, p)
		}
	}
	return written, nil
}
