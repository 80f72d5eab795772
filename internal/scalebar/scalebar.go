// Package scalebar widens microscopy images with a margin holding a black
// scale bar of a given physical length.
package scalebar

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/banshee-data/vessel.analysis/internal/dataset"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"github.com/banshee-data/vessel.analysis/internal/security"
)

const (
	// BarY is the row the bar is centred on.
	BarY = 10
	// BarThickness is the bar height in pixels.
	BarThickness = 5
)

// ErrBarLength is returned when the bar would be less than one pixel long.
var ErrBarLength = errors.New("scale bar shorter than one pixel")

// Bar describes the bar to draw.
type Bar struct {
	// PixelSize is the physical size of one pixel.
	PixelSize float64
	// Length is the physical bar length, in the same unit as PixelSize.
	Length float64
}

// Pixels returns the bar length in pixels, truncated.
func (b Bar) Pixels() (int, error) {
	if !(b.PixelSize > 0) {
		return 0, fmt.Errorf("pixel size must be positive, got %v", b.PixelSize)
	}
	n := int(math.Floor(b.Length / b.PixelSize))
	if n < 1 {
		return 0, fmt.Errorf("%w: %v / %v", ErrBarLength, b.Length, b.PixelSize)
	}
	return n, nil
}

// Draw returns a copy of src widened by the bar length, with src at the
// origin, the margin transparent and the bar drawn across the margin.
func Draw(src image.Image, bar Bar) (*image.NRGBA, error) {
	n, err := bar.Pixels()
	if err != nil {
		return nil, err
	}
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()

	dst := image.NewNRGBA(image.Rect(0, 0, w+n, h))
	draw.Draw(dst, image.Rect(0, 0, w, h), src, sb.Min, draw.Src)

	half := BarThickness / 2
	r := image.Rect(w, BarY-half, w+n, BarY+half+1).Intersect(dst.Bounds())
	draw.Draw(dst, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return dst, nil
}

// Encode writes img in the format named by the extension of name. JPEG has
// no alpha, so transparent pixels are flattened onto white first.
func Encode(w io.Writer, img image.Image, name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
		return jpeg.Encode(w, flat, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("%w: cannot encode %q", dataset.ErrInvalidInput, name)
	}
}

// ProcessFolder draws a bar on every image in inputDir and writes the result
// under the same name in outputDir, which is created if needed. Other files
// are skipped. It returns the written paths in name order.
func ProcessFolder(fsys fsutil.FileSystem, inputDir, outputDir string, bar Bar) ([]string, error) {
	if _, err := bar.Pixels(); err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outputDir, err)
	}
	names, err := dataset.ListImages(fsys, inputDir)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, name := range names {
		out, err := security.FigurePath(outputDir, name)
		if err != nil {
			return written, err
		}
		if err := processFile(fsys, filepath.Join(inputDir, name), out, bar); err != nil {
			return written, fmt.Errorf("image %s: %w", name, err)
		}
		monitoring.Logf("scale bar added to %s", out)
		written = append(written, out)
	}
	return written, nil
}

func processFile(fsys fsutil.FileSystem, in, out string, bar Bar) error {
	f, err := fsys.Open(in)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	img, err := Draw(src, bar)
	if err != nil {
		return err
	}

	w, err := fsys.Create(out)
	if err != nil {
		return err
	}
	if err := Encode(w, img, out); err != nil {
		w.Close()
		return fmt.Errorf("encode: %w", err)
	}
	return w.Close()
}
