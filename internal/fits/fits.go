// Package fits fits normal distributions to the diameters of a batch of
// images and projects how a healthy distribution shifts in inflamed tissue.
package fits

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/vessel.analysis/internal/dataset"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/measurement"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
)

// ImageFit is the fitted distribution of one image's diameters.
type ImageFit struct {
	// Index is the 1-based position of the image in the batch.
	Index  int
	Image  string
	Count  int
	Params gaussfit.Params
}

func (f ImageFit) String() string {
	return fmt.Sprintf("%d %s n=%d %v", f.Index, f.Image, f.Count, f.Params)
}

// FitDiameters curve fits a normal distribution to the histogram density of
// values, binned with width trunc(min).
func FitDiameters(values []float64) (gaussfit.Params, error) {
	edges, err := gaussfit.TruncWidthEdges(values)
	if err != nil {
		return gaussfit.Params{}, err
	}
	return gaussfit.FitCurve(values, edges)
}

// Batch locates the measurement CSVs of a folder of analysed images.
type Batch struct {
	FS        fsutil.FileSystem
	ImagesDir string
	DataDir   string
	Scale     units.Scale
}

// Diameters loads the companion CSV of image and converts every diameter
// to physical units.
func (b Batch) Diameters(image string) ([]float64, error) {
	name, err := dataset.CompanionCSV(image)
	if err != nil {
		return nil, err
	}
	ms, err := dataset.LoadDiameters(b.FS, filepath.Join(b.DataDir, name))
	if err != nil {
		return nil, err
	}
	return measurement.PhysicalDiameters(ms, b.Scale), nil
}

// FitAll fits every image in ImagesDir, in file name order. The first image
// that cannot be loaded or fitted aborts the batch.
func (b Batch) FitAll() ([]ImageFit, error) {
	images, err := dataset.ListImages(b.FS, b.ImagesDir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images in %s: %w", b.ImagesDir, gaussfit.ErrEmptySample)
	}

	out := make([]ImageFit, 0, len(images))
	for i, img := range images {
		values, err := b.Diameters(img)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", img, err)
		}
		p, err := FitDiameters(values)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", img, err)
		}
		out = append(out, ImageFit{Index: i + 1, Image: img, Count: len(values), Params: p})
	}
	return out, nil
}

// Curves labels each fit with its index and gives it a palette colour.
func Curves(fits []ImageFit) []visualization.Curve {
	colors := visualization.Palette(len(fits))
	out := make([]visualization.Curve, len(fits))
	for i, f := range fits {
		out[i] = visualization.Curve{Label: strconv.Itoa(f.Index), Color: colors[i], Params: f.Params}
	}
	return out
}

// Title is the heading of a batch fit figure.
func Title(normalize bool) string {
	if normalize {
		return "Normalized Gaussian Fits of Diameter Measurements"
	}
	return "Gaussian Fits of Diameter Measurements"
}

// FigureName is the file name of a batch fit figure.
func FigureName(normalize bool) string {
	if normalize {
		return "fits-normalized.png"
	}
	return "fits.png"
}
