// Package dataset loads measurement CSV files and resolves the companion CSV
// of an analysed image.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/measurement"
)

// ErrInvalidInput is returned for paths that are not CSV files or do not exist.
var ErrInvalidInput = errors.New("invalid input")

// ParseError reports the first row of a CSV that could not be read or mapped
// to a record.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowParser maps one CSV row to a record.
type RowParser[T any] func(row []string) (T, error)

// Load reads every data row of a CSV file, skipping exactly one header row,
// and returns the records in file order. The first bad row aborts the load.
func Load[T any](fsys fsutil.FileSystem, path string, parse RowParser[T]) ([]T, error) {
	if !strings.HasSuffix(path, ".csv") {
		return nil, fmt.Errorf("%w: expected csv file as data input, got %q", ErrInvalidInput, path)
	}

	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Column counts are checked by the row parser so the error names the shape.
	r.FieldsPerRecord = -1

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []T{}, nil
		}
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}

	out := []T{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		rec, err := parse(row)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

// LoadDiameters reads an (id, diameter) CSV.
func LoadDiameters(fsys fsutil.FileSystem, path string) ([]measurement.Diameter, error) {
	return Load(fsys, path, measurement.ParseDiameterRow)
}

// LoadBranches reads a branch CSV of the configured shape.
func LoadBranches(fsys fsutil.FileSystem, path string, shape measurement.Shape) ([]measurement.Branch, error) {
	parse, err := measurement.BranchRowParser(shape)
	if err != nil {
		return nil, err
	}
	return Load(fsys, path, parse)
}

// BaseName returns the file name of path without its .csv suffix.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".csv")
}

var imageExts = []string{".png", ".jpg", ".jpeg"}

// IsImage reports whether name has a png, jpg or jpeg extension.
func IsImage(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// CompanionCSV maps an image file name to the CSV written next to it by the
// measurement step, e.g. 532_OR_47_index0.jpeg -> 532_OR_47_index0.csv.
func CompanionCSV(image string) (string, error) {
	if !IsImage(image) {
		return "", fmt.Errorf("%w: %q is not a png, jpg or jpeg image", ErrInvalidInput, image)
	}
	return strings.TrimSuffix(image, filepath.Ext(image)) + ".csv", nil
}

// ListImages returns the image file names in dir, sorted.
func ListImages(fsys fsutil.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
