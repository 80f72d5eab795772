package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/fits"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/store"
	"github.com/banshee-data/vessel.analysis/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	testutil.MuteLogs(t)
	mfs := fsutil.NewMemoryFileSystem()
	testutil.SeedImage(t, mfs, "/images", "/data", "532_OR_47_index0.jpeg", testutil.NormalSample(400, 6, 1.5, 1))
	testutil.SeedImage(t, mfs, "/images", "/data", "532_OR_55_index0.png", testutil.NormalSample(400, 8, 2, 2))
	return mfs
}

func TestFlagDefaults(t *testing.T) {
	assert.False(t, *normalize)
	assert.Equal(t, "", *dbPath)
	assert.False(t, *listRuns)
}

func TestRun(t *testing.T) {
	mfs := seeded(t)

	batch, err := run(mfs, config.EmptyAnalysisConfig(), options{
		imagesDir:    "/images",
		dataDir:      "/data",
		outputFolder: "/out",
		html:         true,
	})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "532_OR_47_index0.jpeg", batch[0].Image)
	assert.Equal(t, 2, batch[1].Index)
	assert.InDelta(t, 30, batch[0].Params.Mu, 4)
	assert.InDelta(t, 40, batch[1].Params.Mu, 5)

	assert.True(t, mfs.Exists("/out/fits.png"))
	assert.True(t, mfs.Exists("/out/fits.html"))
}

func TestRun_Normalized(t *testing.T) {
	mfs := seeded(t)

	_, err := run(mfs, config.EmptyAnalysisConfig(), options{
		imagesDir:    "/images",
		dataDir:      "/data",
		outputFolder: "/out",
		normalize:    true,
	})
	require.NoError(t, err)
	assert.True(t, mfs.Exists("/out/fits-normalized.png"))
	assert.False(t, mfs.Exists("/out/fits.png"))
}

func TestRun_MissingCompanionCSV(t *testing.T) {
	mfs := seeded(t)
	require.NoError(t, mfs.WriteFile("/images/orphan.png", []byte{1}, 0644))

	_, err := run(mfs, config.EmptyAnalysisConfig(), options{imagesDir: "/images", dataDir: "/data", outputFolder: "/out"})
	assert.ErrorContains(t, err, "orphan.png")
	assert.False(t, mfs.Exists("/out/fits.png"))
}

func TestPrintFits(t *testing.T) {
	var buf bytes.Buffer
	printFits(&buf, []fits.ImageFit{
		{Index: 1, Image: "a.png", Count: 10, Params: gaussfit.Params{Mu: 30.5, Sigma: 7.25}},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "INDEX"))
	assert.Contains(t, lines[1], "a.png")
	assert.Contains(t, lines[1], "30.5000")
	assert.Contains(t, lines[1], "7.2500")
}

func TestRecordedRunsArePrinted(t *testing.T) {
	mfs := seeded(t)
	batch, err := run(mfs, config.EmptyAnalysisConfig(), options{imagesDir: "/images", dataDir: "/data", outputFolder: "/out"})
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(t.TempDir(), "fits.db"))
	require.NoError(t, err)
	defer s.Close()

	r, err := s.RecordFits(gaussfit.CurveFit, false, batch)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, s))
	out := buf.String()
	assert.Contains(t, out, r.ID)
	assert.Contains(t, out, "method=curve_fit")
	assert.Contains(t, out, "532_OR_55_index0.png")
}
