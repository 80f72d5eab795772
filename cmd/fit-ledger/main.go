// Command fit-ledger inspects and maintains the sqlite ledger written by
// gaussian-fits --db.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/vessel.analysis/internal/store"
	"github.com/banshee-data/vessel.analysis/internal/timeutil"
	"github.com/banshee-data/vessel.analysis/internal/version"
)

var (
	dbPath      = flag.String("db", "resources/output/fits.db", "sqlite fit ledger")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

var errUsage = errors.New("usage")

func main() {
	flag.Usage = func() { printHelp(os.Stderr) }
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("fit-ledger"))
		return
	}

	if err := run(flag.Args(), *dbPath, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printHelp(os.Stderr)
		}
		log.Fatalf("fit-ledger: %v", err)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Usage: fit-ledger [--db path] <command> [args]

Commands:
  runs                 List recorded runs, newest first
  fits <run-id>        Print the fits of one run
  history <image>      Print every recorded fit of one image
  migrate up           Apply all pending migrations
  migrate down         Roll back the most recent migration
  migrate status       Show the applied and latest schema versions
  migrate to <N>       Migrate up or down to version N
  migrate force <N>    Set the recorded version without migrating (recovery only)`)
}

// run dispatches one ledger command. in supplies the confirmation for
// migrate force.
func run(args []string, path string, in io.Reader, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	if args[0] == "migrate" {
		return runMigrate(args[1:], path, in, out)
	}

	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()

	switch args[0] {
	case "runs":
		return printRuns(out, s)
	case "fits":
		if len(args) < 2 {
			return fmt.Errorf("%w: fits <run-id>", errUsage)
		}
		return printFits(out, s, args[1])
	case "history":
		if len(args) < 2 {
			return fmt.Errorf("%w: history <image>", errUsage)
		}
		return printHistory(out, s, args[1])
	case "help":
		printHelp(out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printRuns(w io.Writer, s *store.Store) error {
	runs, err := s.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tMETHOD\tNORMALIZED\tFITS")
	for _, r := range runs {
		batch, err := s.Fits(r.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", r.ID, r.CreatedAt.Format(timeutil.RunLayout), r.Method, r.Normalized, len(batch))
	}
	return tw.Flush()
}

func printFits(w io.Writer, s *store.Store, runID string) error {
	batch, err := s.Fits(runID)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return fmt.Errorf("no fits recorded for run %s", runID)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tIMAGE\tN\tMU\tSIGMA")
	for _, f := range batch {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.4f\t%.4f\n", f.Index, f.Image, f.Count, f.Params.Mu, f.Params.Sigma)
	}
	return tw.Flush()
}

func printHistory(w io.Writer, s *store.Store, image string) error {
	hist, err := s.History(image)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		return fmt.Errorf("no fits recorded for image %s", image)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tRUN\tMETHOD\tNORMALIZED\tN\tMU\tSIGMA")
	for _, e := range hist {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%.4f\t%.4f\n",
			e.Run.CreatedAt.Format(timeutil.RunLayout), e.Run.ID, e.Run.Method, e.Run.Normalized,
			e.Fit.Count, e.Fit.Params.Mu, e.Fit.Params.Sigma)
	}
	return tw.Flush()
}

func runMigrate(args []string, path string, in io.Reader, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: migrate <up|down|status|to|force>", errUsage)
	}

	// The schema is left alone so the migration commands see it as it is.
	s, err := store.OpenUnmigrated(path)
	if err != nil {
		return err
	}
	defer s.Close()

	switch args[0] {
	case "up":
		log.Printf("Running migrations...")
		if err := s.MigrateUp(); err != nil {
			return err
		}
		return printStatus(out, s)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := s.MigrateDown(); err != nil {
			return err
		}
		return printStatus(out, s)

	case "status":
		return printStatus(out, s)

	case "to":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate to <version>", errUsage)
		}
		v, err := strconv.ParseUint(args[1], 10, 0)
		if err != nil {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		log.Printf("Migrating to version %d...", v)
		if err := s.MigrateTo(uint(v)); err != nil {
			return err
		}
		return printStatus(out, s)

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate force <version>", errUsage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		fmt.Fprintf(out, "WARNING: forcing migration version to %d\n", v)
		fmt.Fprintln(out, "This should only be used to recover from a dirty migration state.")
		fmt.Fprint(out, "Continue? [y/N]: ")
		if !confirmed(in) {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
		if err := s.MigrateForce(v); err != nil {
			return err
		}
		return printStatus(out, s)

	default:
		return fmt.Errorf("%w: unknown migrate action %q", errUsage, args[0])
	}
}

func confirmed(in io.Reader) bool {
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func printStatus(w io.Writer, s *store.Store) error {
	st, err := s.Status()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Current version: %d\n", st.Current)
	fmt.Fprintf(w, "Latest version: %d\n", st.Latest)
	fmt.Fprintf(w, "Dirty: %t\n", st.Dirty)
	if st.Dirty {
		fmt.Fprintln(w, "WARNING: a migration failed mid-execution; inspect the ledger, then run: fit-ledger migrate force <version>")
	} else if st.Pending() {
		fmt.Fprintln(w, "Pending migrations: run fit-ledger migrate up")
	}
	return nil
}
