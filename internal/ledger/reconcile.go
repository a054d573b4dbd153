package ledger

import (
	"log/slog"

	"github.com/starford/sowilo/internal/storage"
)

// Reconcile removes ledger rows whose note file no longer exists in the
// vault. Notes are generated, never edited back into the ledger, so the
// pass is one-directional: a note deleted by the user (e.g. from their
// editor) drops out of listings and search on the next startup.
func Reconcile(db *DB, store storage.Provider, logger *slog.Logger) error {
	paths, err := db.AllPaths()
	if err != nil {
		return err
	}

	metas, err := store.List("")
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
	}

	for p := range paths {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteWorkout(p); err != nil {
				logger.Warn("reconcile: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
