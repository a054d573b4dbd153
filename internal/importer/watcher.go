package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// scanDebounce delays inbox scans after a file event so that an archive
// still being copied in is read only once it is complete.
const scanDebounce = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the inbox directory and processes
// dropped archives until ctx is cancelled. Any event touching a .zip
// file schedules a debounced scan of the whole inbox, which also covers
// editors that write through temp files and renames.
//
// deleteAfter controls whether archives are removed from the inbox after
// a successful (or duplicate) import; failed archives are always left in
// place for retry.
func Watch(ctx context.Context, imp *Importer, inboxDir string, deleteAfter bool, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(inboxDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("inbox", inboxDir))

	var scanTimer *time.Timer
	var scanCh <-chan time.Time

	scheduleScan := func() {
		if scanTimer == nil {
			scanTimer = time.NewTimer(scanDebounce)
			scanCh = scanTimer.C
		} else {
			scanTimer.Reset(scanDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if scanTimer != nil {
				scanTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-scanCh:
			ScanInbox(imp, inboxDir, deleteAfter, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".zip") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				logger.Debug("watcher: inbox event",
					slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				scheduleScan()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ScanInbox processes every .zip file currently in the inbox. It is also
// called once at startup to pick up archives dropped while the service
// was down.
func ScanInbox(imp *Importer, inboxDir string, deleteAfter bool, logger *slog.Logger) {
	entries, err := os.ReadDir(inboxDir)
	if err != nil {
		logger.Warn("scan: read inbox failed", slog.String("error", err.Error()))
		return
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".zip") {
			continue
		}
		abs := filepath.Join(inboxDir, e.Name())

		data, err := os.ReadFile(abs)
		if err != nil {
			logger.Warn("scan: read archive failed",
				slog.String("path", abs), slog.String("error", err.Error()))
			continue
		}

		_, err = imp.ImportArchive(e.Name(), data)
		if err != nil && !IsAlreadyImported(err) {
			// Leave the archive in place for retry.
			logger.Warn("scan: import failed",
				slog.String("path", abs), slog.String("error", err.Error()))
			continue
		}

		if deleteAfter {
			if rmErr := os.Remove(abs); rmErr != nil {
				logger.Warn("scan: remove archive failed",
					slog.String("path", abs), slog.String("error", rmErr.Error()))
			} else {
				logger.Debug("scan: archive removed", slog.String("path", abs))
			}
		}
	}
}
