// Package testutil provides shared test helpers and fixtures.
//
// It builds measurement CSVs and image folders in memory and redirects the
// diagnostic logger so tests stay quiet.
package testutil

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
)

// MuteLogs silences monitoring.Logf for the rest of the test.
func MuteLogs(t testing.TB) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = prev })
}

// Logs collects formatted monitoring.Logf lines.
type Logs struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the captured lines.
func (l *Logs) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// String joins the captured lines with newlines.
func (l *Logs) String() string {
	return strings.Join(l.Lines(), "\n")
}

// CaptureLogs routes monitoring.Logf into the returned Logs until the test
// ends.
func CaptureLogs(t testing.TB) *Logs {
	t.Helper()
	l := &Logs{}
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.lines = append(l.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = prev })
	return l
}

// NormalSample draws n pixel diameters around mu. Values are clamped to at
// least 2 px so a width-from-min histogram always has positive bins.
func NormalSample(n int, mu, sigma float64, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		v := mu + sigma*r.NormFloat64()
		if v < 2 {
			v = 2
		}
		out[i] = v
	}
	return out
}

// DiameterCSV renders pixel diameters as an (id, diameter) CSV with a header.
func DiameterCSV(px []float64) []byte {
	var b strings.Builder
	b.WriteString("id,diameter\n")
	for i, v := range px {
		fmt.Fprintf(&b, "%d,%.4f\n", i+1, v)
	}
	return []byte(b.String())
}

// WriteDiameterCSV writes px to path as a diameter CSV.
func WriteDiameterCSV(t testing.TB, fsys fsutil.FileSystem, path string, px []float64) {
	t.Helper()
	if err := fsys.WriteFile(path, DiameterCSV(px), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SeedImage places a placeholder image in imagesDir and its companion
// diameter CSV in dataDir.
func SeedImage(t testing.TB, fsys fsutil.FileSystem, imagesDir, dataDir, image string, px []float64) {
	t.Helper()
	if err := fsys.WriteFile(filepath.Join(imagesDir, image), []byte{1}, 0644); err != nil {
		t.Fatalf("write %s: %v", image, err)
	}
	csv := strings.TrimSuffix(image, filepath.Ext(image)) + ".csv"
	WriteDiameterCSV(t, fsys, filepath.Join(dataDir, csv), px)
}
