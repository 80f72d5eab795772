// Command scale-bar copies every image of a folder with a scale bar drawn in
// a margin added to its right edge.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/scalebar"
	"github.com/banshee-data/vessel.analysis/internal/version"
)

var (
	inputFolder    = flag.String("input_folder", "resources/images", "Folder of images to annotate")
	outputFolder   = flag.String("output_folder", "resources/scaled", "Folder annotated images are written to")
	pixelSize      = flag.Float64("pixel_size", 0, "Physical size of one pixel; units_per_pixel from the config when 0")
	scaleBarLength = flag.Float64("scale_bar_length", 0, "Physical bar length; scale_bar_length from the config when 0")
	configPath     = flag.String("config", "", "Analysis config JSON; built-in defaults apply when empty")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("scale-bar"))
		return
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	bar := barFor(cfg, *pixelSize, *scaleBarLength)
	written, err := scalebar.ProcessFolder(fsutil.OSFileSystem{}, *inputFolder, *outputFolder, bar)
	if err != nil {
		log.Fatalf("scale-bar: %v", err)
	}
	log.Printf("annotated %d images in %s", len(written), *outputFolder)
}

// barFor resolves the bar from the flags, falling back to the config for
// any flag left at zero.
func barFor(cfg *config.AnalysisConfig, pixelSize, length float64) scalebar.Bar {
	bar := scalebar.Bar{PixelSize: pixelSize, Length: length}
	if bar.PixelSize == 0 {
		bar.PixelSize = cfg.GetUnitsPerPixel()
	}
	if bar.Length == 0 {
		bar.Length = cfg.GetScaleBarLength()
	}
	return bar
}
