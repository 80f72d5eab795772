package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/measurement"
)

func seed(t *testing.T, files map[string]string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	for name, body := range files {
		require.NoError(t, mfs.WriteFile(name, []byte(body), 0644))
	}
	return mfs
}

func TestLoadDiameters(t *testing.T) {
	mfs := seed(t, map[string]string{
		"/data/sample.csv": "id,diameter\n1,4.0\n2,8.0\n3,40.0\n",
	})

	got, err := LoadDiameters(mfs, "/data/sample.csv")
	require.NoError(t, err)

	want := []measurement.Diameter{{ID: 1, Diameter: 4}, {ID: 2, Diameter: 8}, {ID: 3, Diameter: 40}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDiameters mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadReturnsEveryRowInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		var b strings.Builder
		b.WriteString("id,diameter\n")
		for i := 0; i < n; i++ {
			b.WriteString(strconv.Itoa(n-i) + "," + strconv.Itoa(i) + ".5\n")
		}
		mfs := seed(t, map[string]string{"/d.csv": b.String()})

		got, err := LoadDiameters(mfs, "/d.csv")
		require.NoError(t, err)
		require.Len(t, got, n)
		for i, d := range got {
			assert.Equal(t, n-i, d.ID)
			assert.Equal(t, float64(i)+0.5, d.Diameter)
		}
	}
}

func TestLoadHeaderOnlyAndEmpty(t *testing.T) {
	mfs := seed(t, map[string]string{
		"/header.csv": "id,diameter\n",
		"/empty.csv":  "",
	})

	got, err := LoadDiameters(mfs, "/header.csv")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = LoadDiameters(mfs, "/empty.csv")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadRejectsNonCSV(t *testing.T) {
	mfs := seed(t, map[string]string{"/data/sample.txt": "id,diameter\n1,4\n"})

	_, err := LoadDiameters(mfs, "/data/sample.txt")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadDiameters(fsutil.NewMemoryFileSystem(), "/data/missing.csv")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = LoadDiameters(fsutil.OSFileSystem{}, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadMissingTrailingColumn(t *testing.T) {
	mfs := seed(t, map[string]string{
		"/d.csv": "id,diameter\n1,4.0\n2\n3,40.0\n",
	})

	_, err := LoadDiameters(mfs, "/d.csv")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
	assert.ErrorIs(t, err, measurement.ErrColumnCount)
	assert.Contains(t, err.Error(), "/d.csv:3")
}

func TestLoadBadNumber(t *testing.T) {
	mfs := seed(t, map[string]string{"/d.csv": "id,diameter\n1,4.0\n2,abc\n"})

	_, err := LoadDiameters(mfs, "/d.csv")
	var fe *measurement.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "diameter", fe.Name)
}

func TestLoadMalformedQuoting(t *testing.T) {
	mfs := seed(t, map[string]string{"/d.csv": "id,diameter\n1,\"4.0\n"})

	_, err := LoadDiameters(mfs, "/d.csv")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestLoadBranches(t *testing.T) {
	mfs := seed(t, map[string]string{
		"/b.csv": "id,label,area,len,n,avg,max,mean,min\n" +
			"1,a,10.5,800,20,12,40,21,3\n" +
			"2,b,14.0,950,27,13,44,19,2.5\n",
	})

	got, err := LoadBranches(mfs, "/b.csv", measurement.ShapeDensity)
	require.NoError(t, err)
	require.Len(t, got, 2)
	d, ok := got[1].(measurement.DensityBranch)
	require.True(t, ok)
	assert.Equal(t, 27, d.NumBranches)
	assert.Equal(t, 14.0, d.AreaPercentage)

	// the same file read as skeleton fails instead of misparsing
	_, err = LoadBranches(mfs, "/b.csv", measurement.ShapeSkeleton)
	assert.ErrorIs(t, err, measurement.ErrColumnCount)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "532_OR_55_index0.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,diameter\n1,4.0\n"), 0644))

	got, err := LoadDiameters(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "532_OR_55_index0", BaseName("../resources/data/532_OR_55_index0.csv"))
	assert.Equal(t, "output", BaseName("output.csv"))
	assert.Equal(t, "notes.txt", BaseName("/x/notes.txt"))
}

func TestCompanionCSV(t *testing.T) {
	tests := []struct {
		image   string
		want    string
		wantErr bool
	}{
		{"532_OR_47_index0.jpeg", "532_OR_47_index0.csv", false},
		{"a.jpg", "a.csv", false},
		{"png_scan.png", "png_scan.csv", false},
		{"notes.txt", "", true},
		{"image.PNG", "", true},
	}
	for _, tt := range tests {
		got, err := CompanionCSV(tt.image)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidInput, tt.image)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestListImages(t *testing.T) {
	mfs := seed(t, map[string]string{
		"/images/b.jpeg":    "x",
		"/images/a.png":     "x",
		"/images/c.jpg":     "x",
		"/images/readme.md": "x",
		"/images/sub/d.png": "x",
	})

	got, err := ListImages(mfs, "/images")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"a.png", "b.jpeg", "c.jpg"}, got); diff != "" {
		t.Errorf("ListImages mismatch (-want +got):\n%s", diff)
	}

	_, err = ListImages(mfs, "/nowhere")
	assert.Error(t, err)
}
