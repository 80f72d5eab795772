// Package store keeps a sqlite ledger of batch Gaussian fit runs so fits of
// the same image folder can be compared over time.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/vessel.analysis/internal/fits"
	"github.com/banshee-data/vessel.analysis/internal/gaussfit"
	"github.com/banshee-data/vessel.analysis/internal/timeutil"
)

// ErrUnknownRun is returned when a fit is recorded against a run that was
// never started.
var ErrUnknownRun = errors.New("unknown fit run")

// Run is one invocation of the batch fitter.
type Run struct {
	ID         string
	Method     gaussfit.Method
	Normalized bool
	CreatedAt  time.Time
}

// Store is the fit ledger.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the ledger at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injected clock for run timestamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Store, error) {
	s, err := openDB(path, clock)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// OpenUnmigrated opens the ledger without touching its schema, for the
// migration commands.
func OpenUnmigrated(path string) (*Store, error) {
	return openDB(path, timeutil.RealClock{})
}

func openDB(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fit ledger: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// A single connection keeps the pragma in force for every statement.
	db.SetMaxOpenConns(1)
	return &Store{db: db, clock: clock}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(method gaussfit.Method, normalized bool) (Run, error) {
	r := Run{
		ID:         uuid.NewString(),
		Method:     method,
		Normalized: normalized,
		CreatedAt:  s.clock.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO fit_runs (run_id, method, normalized, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, string(r.Method), r.Normalized, timeutil.Stamp(r.CreatedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return r, nil
}

// RecordFit stores one image fit under runID.
func (s *Store) RecordFit(runID string, f fits.ImageFit) error {
	var exists bool
	if err := s.db.QueryRow(`SELECT COUNT(*) > 0 FROM fit_runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("record fit: %w", err)
	}
	if !exists {
		return fmt.Errorf("record fit: %w: %s", ErrUnknownRun, runID)
	}
	_, err := s.db.Exec(
		`INSERT INTO image_fits (run_id, image_index, image, sample_count, mu, sigma) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, f.Index, f.Image, f.Count, f.Params.Mu, f.Params.Sigma,
	)
	if err != nil {
		return fmt.Errorf("record fit %d (%s): %w", f.Index, f.Image, err)
	}
	return nil
}

// RecordFits stores a new run and all of its fits in one transaction.
func (s *Store) RecordFits(method gaussfit.Method, normalized bool, batch []fits.ImageFit) (Run, error) {
	r := Run{
		ID:         uuid.NewString(),
		Method:     method,
		Normalized: normalized,
		CreatedAt:  s.clock.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("record fits: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO fit_runs (run_id, method, normalized, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, string(r.Method), r.Normalized, timeutil.Stamp(r.CreatedAt),
	); err != nil {
		return Run{}, fmt.Errorf("record fits: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO image_fits (run_id, image_index, image, sample_count, mu, sigma) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("record fits: %w", err)
	}
	defer stmt.Close()

	for _, f := range batch {
		if _, err := stmt.Exec(r.ID, f.Index, f.Image, f.Count, f.Params.Mu, f.Params.Sigma); err != nil {
			return Run{}, fmt.Errorf("record fit %d (%s): %w", f.Index, f.Image, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record fits: %w", err)
	}
	return r, nil
}

// Fits returns the fits of a run ordered by image index.
func (s *Store) Fits(runID string) ([]fits.ImageFit, error) {
	rows, err := s.db.Query(
		`SELECT image_index, image, sample_count, mu, sigma FROM image_fits WHERE run_id = ? ORDER BY image_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list fits: %w", err)
	}
	defer rows.Close()

	var out []fits.ImageFit
	for rows.Next() {
		var f fits.ImageFit
		if err := rows.Scan(&f.Index, &f.Image, &f.Count, &f.Params.Mu, &f.Params.Sigma); err != nil {
			return nil, fmt.Errorf("scan fit: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Runs lists every run, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, method, normalized, created_at FROM fit_runs ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r      Run
			method string
			nanos  int64
		)
		if err := rows.Scan(&r.ID, &method, &r.Normalized, &nanos); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Method = gaussfit.Method(method)
		r.CreatedAt = timeutil.FromStamp(nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// HistoryEntry is one fit of an image together with the run it came from.
type HistoryEntry struct {
	Run Run
	Fit fits.ImageFit
}

// History returns every recorded fit of image, oldest run first.
func (s *Store) History(image string) ([]HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.method, r.normalized, r.created_at, f.image_index, f.image, f.sample_count, f.mu, f.sigma
		FROM image_fits f JOIN fit_runs r ON r.run_id = f.run_id
		WHERE f.image = ?
		ORDER BY r.created_at, r.rowid`,
		image,
	)
	if err != nil {
		return nil, fmt.Errorf("image history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e      HistoryEntry
			method string
			nanos  int64
		)
		if err := rows.Scan(&e.Run.ID, &method, &e.Run.Normalized, &nanos,
			&e.Fit.Index, &e.Fit.Image, &e.Fit.Count, &e.Fit.Params.Mu, &e.Fit.Params.Sigma); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Run.Method = gaussfit.Method(method)
		e.Run.CreatedAt = timeutil.FromStamp(nanos)
		out = append(out, e)
	}
	return out, rows.Err()
}
