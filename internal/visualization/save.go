package visualization

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// SaveFigure renders p at w x h and writes it to path. The image format
// follows the file extension. The containing directory must already exist.
func SaveFigure(fsys fsutil.FileSystem, p *plot.Plot, w, h vg.Length, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("save figure %s: missing file extension", path)
	}
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("save figure %s: %w", path, err)
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("save figure: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("save figure %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save figure %s: %w", path, err)
	}
	monitoring.Logf("saved figure to %s", path)
	return nil
}
