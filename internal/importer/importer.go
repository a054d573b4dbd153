// Package importer turns health-export archives into vault notes and
// ledger rows, and watches the inbox directory for newly dropped files.
package importer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/checksum"
	"github.com/starford/sowilo/internal/healthexport"
	"github.com/starford/sowilo/internal/ledger"
	"github.com/starford/sowilo/internal/notes"
	"github.com/starford/sowilo/internal/storage"
)

// Events is called after importer-driven changes. kind is one of
// "workout.imported" or "import.completed".
type Events func(kind, path string)

// Result summarises one archive import.
type Result struct {
	Checksum string `json:"checksum"`
	Workouts int    `json:"workouts"`
	Errors   int    `json:"errors"`
	Skipped  bool   `json:"skipped"`
}

// Importer coordinates ingestion, note rendering, vault writes, and the
// ledger. Safe for use from a single goroutine; the watcher and the API
// funnel through the same instance sequentially via the ledger's
// transactionality and the vault's atomic writes.
type Importer struct {
	store  storage.Provider
	db     *ledger.DB
	logger *slog.Logger
	events Events
}

// New creates an Importer. events may be nil.
func New(store storage.Provider, db *ledger.DB, logger *slog.Logger, events Events) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, db: db, logger: logger, events: events}
}

// ImportArchive ingests a complete ZIP archive. Re-importing an archive
// with a checksum the ledger already knows returns ErrAlreadyImported
// with Skipped set; the caller decides whether that is an error. Rows
// that fail to render or write are counted, not fatal.
func (imp *Importer) ImportArchive(fileName string, data []byte) (*Result, error) {
	cs := checksum.Sum(data)
	res := &Result{Checksum: cs}

	seen, err := imp.db.HasImport(cs)
	if err != nil {
		return nil, err
	}
	if seen {
		res.Skipped = true
		imp.logger.Info("import: archive already imported",
			slog.String("file", fileName), slog.String("checksum", cs))
		return res, apperr.ErrAlreadyImported
	}

	imported := healthexport.Ingest(data, imp.logger)
	imp.writeAll(imported, cs, res)

	if err := imp.db.RecordImport(ledger.ImportRow{
		Checksum: cs,
		FileName: fileName,
		Workouts: res.Workouts,
		Errors:   res.Errors,
	}); err != nil {
		return res, fmt.Errorf("importer: record import: %w", err)
	}

	imp.logger.Info("import: archive processed",
		slog.String("file", fileName),
		slog.Int("workouts", res.Workouts),
		slog.Int("errors", res.Errors))
	imp.publish("import.completed", fileName)
	return res, nil
}

// ImportSummaryCSV is the summary-only path: raw CSV text, no detail
// bundles. Deduplicated by text checksum like archives.
func (imp *Importer) ImportSummaryCSV(fileName, text string) (*Result, error) {
	cs := checksum.Sum([]byte(text))
	res := &Result{Checksum: cs}

	seen, err := imp.db.HasImport(cs)
	if err != nil {
		return nil, err
	}
	if seen {
		res.Skipped = true
		return res, apperr.ErrAlreadyImported
	}

	imported := healthexport.IngestSummaryCSV(text)
	imp.writeAll(imported, cs, res)

	if err := imp.db.RecordImport(ledger.ImportRow{
		Checksum: cs,
		FileName: fileName,
		Workouts: res.Workouts,
		Errors:   res.Errors,
	}); err != nil {
		return res, fmt.Errorf("importer: record import: %w", err)
	}

	imp.publish("import.completed", fileName)
	return res, nil
}

// writeAll renders and persists every imported workout, updating res
// counters. Note paths are deterministic per workout, so re-importing an
// overlapping export overwrites the same note instead of duplicating it.
func (imp *Importer) writeAll(imported []healthexport.ImportedWorkout, archiveChecksum string, res *Result) {
	for _, iw := range imported {
		n, err := notes.Render(iw)
		if err != nil {
			imp.logger.Warn("import: render failed", slog.String("error", err.Error()))
			res.Errors++
			continue
		}

		if err := imp.store.Write(n.Path, n.Content); err != nil {
			imp.logger.Warn("import: note write failed",
				slog.String("path", n.Path), slog.String("error", err.Error()))
			res.Errors++
			continue
		}
		if n.RoutePath != "" {
			if err := imp.store.Write(n.RoutePath, n.Route); err != nil {
				imp.logger.Warn("import: route write failed",
					slog.String("path", n.RoutePath), slog.String("error", err.Error()))
				res.Errors++
			}
		}

		w := iw.Workout
		if err := imp.db.UpsertWorkout(ledger.WorkoutRow{
			NotePath:        n.Path,
			Title:           n.Title,
			WorkoutType:     w.Type,
			StartedAt:       w.Start,
			DurationSeconds: w.DurationSeconds,
			ArchiveChecksum: archiveChecksum,
		}, string(n.Content)); err != nil {
			imp.logger.Warn("import: ledger upsert failed",
				slog.String("path", n.Path), slog.String("error", err.Error()))
			res.Errors++
			continue
		}

		res.Workouts++
		imp.publish("workout.imported", n.Path)
	}
}

func (imp *Importer) publish(kind, path string) {
	if imp.events != nil {
		imp.events(kind, path)
	}
}

// IsAlreadyImported reports whether err is the duplicate-archive signal.
func IsAlreadyImported(err error) bool {
	return errors.Is(err, apperr.ErrAlreadyImported)
}
