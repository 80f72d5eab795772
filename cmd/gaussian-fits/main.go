// Command gaussian-fits fits a normal distribution to the diameters of every
// image in a folder and overlays the fitted curves in one figure. Fits can
// be kept in a sqlite ledger for later comparison.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/vessel.analysis/internal/config"
	"github.com/banshee-data/vessel.analysis/internal/fits"
	"github.com/banshee-data/vessel.analysis/internal/fsutil"
	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/monitoring"
	"github.com/banshee-data/vessel.analysis/internal/report"
	"github.com/banshee-data/vessel.analysis/internal/security"
	"github.com/banshee-data/vessel.analysis/internal/store"
	"github.com/banshee-data/vessel.analysis/internal/timeutil"
	"github.com/banshee-data/vessel.analysis/internal/units"
	"github.com/banshee-data/vessel.analysis/internal/version"
	"github.com/banshee-data/vessel.analysis/internal/visualization"
)

var (
	imagesDir    = flag.String("images_dir", "resources/images", "Folder of analysed images")
	dataDir      = flag.String("data_dir", "resources/data/diameter-data", "Folder holding each image's diameter CSV")
	outputFolder = flag.String("output_folder", "resources/output", "Folder the figure is written to")
	normalize    = flag.Bool("normalize", false, "Divide every curve by its peak (also enabled by normalize_fits in the config)")
	dbPath       = flag.String("db", "", "sqlite file to record the fits in; nothing is recorded when empty")
	listRuns     = flag.Bool("list_runs", false, "Print the runs recorded in --db and exit")
	configPath   = flag.String("config", "", "Analysis config JSON; built-in defaults apply when empty")
	writeHTML    = flag.Bool("html", false, "Also write an interactive HTML chart next to the image")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	imagesDir    string
	dataDir      string
	outputFolder string
	normalize    bool
	html         bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("gaussian-fits"))
		return
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var ledger *store.Store
	if *dbPath != "" {
		ledger, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open fit ledger: %v", err)
		}
		defer ledger.Close()
	}

	if *listRuns {
		if ledger == nil {
			log.Fatal("--list_runs requires --db")
		}
		if err := printRuns(os.Stdout, ledger); err != nil {
			log.Fatalf("failed to list runs: %v", err)
		}
		return
	}

	o := options{
		imagesDir:    *imagesDir,
		dataDir:      *dataDir,
		outputFolder: *outputFolder,
		normalize:    *normalize || cfg.GetNormalizeFits(),
		html:         *writeHTML,
	}
	batch, err := run(fsutil.OSFileSystem{}, cfg, o)
	if err != nil {
		log.Fatalf("gaussian-fits: %v", err)
	}
	printFits(os.Stdout, batch)

	if ledger != nil {
		r, err := ledger.RecordFits(gaussfit.CurveFit, o.normalize, batch)
		if err != nil {
			log.Fatalf("failed to record fits: %v", err)
		}
		log.Printf("recorded %d fits as run %s", len(batch), r.ID)
	}
}

// run fits every image and writes the overlay figure. It returns the fits in
// image order.
func run(fsys fsutil.FileSystem, cfg *config.AnalysisConfig, o options) ([]fits.ImageFit, error) {
	b := fits.Batch{FS: fsys, ImagesDir: o.imagesDir, DataDir: o.dataDir, Scale: cfg.Scale()}
	batch, err := b.FitAll()
	if err != nil {
		return nil, err
	}
	for _, f := range batch {
		monitoring.Logf("fit %v", f)
	}

	if err := fsys.MkdirAll(o.outputFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	path, err := security.FigurePath(o.outputFolder, fits.FigureName(o.normalize))
	if err != nil {
		return nil, err
	}

	unit := units.Symbol(cfg.GetUnit())
	curves := fits.Curves(batch)
	xs := cfg.FitRange()
	p, err := visualization.FitFigure(fits.Title(o.normalize), unit, curves, xs, o.normalize)
	if err != nil {
		return nil, err
	}
	w, h := cfg.FigureSize()
	if err := visualization.SaveFigure(fsys, p, w, h, path); err != nil {
		return nil, err
	}

	if o.html {
		name := strings.TrimSuffix(fits.FigureName(o.normalize), ".png")
		if _, err := report.NewWriter(fsys, o.outputFolder).Fits(name, fits.Title(o.normalize), unit, curves, xs, o.normalize); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

func printFits(w io.Writer, batch []fits.ImageFit) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tIMAGE\tN\tMU\tSIGMA")
	for _, f := range batch {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.4f\t%.4f\n", f.Index, f.Image, f.Count, f.Params.Mu, f.Params.Sigma)
	}
	tw.Flush()
}

func printRuns(w io.Writer, s *store.Store) error {
	runs, err := s.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "run %s  %s  method=%s normalized=%t\n", r.ID, r.CreatedAt.Format(timeutil.RunLayout), r.Method, r.Normalized)
		batch, err := s.Fits(r.ID)
		if err != nil {
			return err
		}
		printFits(w, batch)
	}
	return nil
}
