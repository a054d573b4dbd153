// Package healthexport ingests ZIP archives produced by a third-party
// health-export mobile app: it decodes the container without an archive
// library, parses the summary and per-metric detail CSVs, and correlates
// each workout with the detail files that describe it.
//
// Every operation is a pure function over a fully buffered byte slice.
// Malformed input is handled by omission at the narrowest scope — a bad
// archive yields fewer entries, a bad row is skipped — so a single
// corrupt file never aborts an ingestion run.
package healthexport

import (
	"log/slog"
	"path"
	"sort"
	"strings"
)

// Ingest decodes a complete ZIP archive and returns one ImportedWorkout
// per valid summary row, in summary-row order. The summary is the first
// entry matching "Workouts-*.csv"; every other .csv/.gpx entry is a
// candidate detail file. An archive without a decodable summary yields
// an empty result, not an error.
func Ingest(buf []byte, logger *slog.Logger) []ImportedWorkout {
	if logger == nil {
		logger = slog.Default()
	}

	entries := DecodeArchive(buf)
	if len(entries) == 0 {
		logger.Debug("ingest: no archive entries decoded")
		return nil
	}

	var (
		summaryText string
		haveSummary bool
		details     []DetailFile
	)

	for _, e := range entries {
		base := path.Base(e.Name)
		lower := strings.ToLower(base)

		if !haveSummary && strings.HasPrefix(base, "Workouts-") && strings.HasSuffix(lower, ".csv") {
			haveSummary = true
			text, err := Extract(buf, e)
			if err != nil {
				logger.Warn("ingest: summary extract failed",
					slog.String("entry", e.Name), slog.String("error", err.Error()))
				continue
			}
			summaryText = text
			continue
		}

		if strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".gpx") {
			text, err := Extract(buf, e)
			if err != nil {
				logger.Warn("ingest: detail extract failed",
					slog.String("entry", e.Name), slog.String("error", err.Error()))
				continue
			}
			details = append(details, DetailFile{Name: base, Text: text})
		}
	}

	if summaryText == "" {
		logger.Info("ingest: no summary file in archive", slog.Int("entries", len(entries)))
		return nil
	}

	// Fixed iteration order makes the last-match-wins slot assignment
	// reproducible across runs.
	sort.Slice(details, func(i, j int) bool { return details[i].Name < details[j].Name })

	var out []ImportedWorkout
	for _, row := range parseSummaryRows(summaryText) {
		w := NormalizeWorkout(row)
		if w == nil {
			continue
		}
		bundle := Correlate(w, details)
		out = append(out, ImportedWorkout{Workout: w, Details: &bundle})
	}

	logger.Debug("ingest: archive parsed",
		slog.Int("workouts", len(out)), slog.Int("details", len(details)))
	return out
}

// IngestSummaryCSV is the summary-only ingestion path: it applies the
// workout normalizer directly to raw CSV text and yields records with no
// detail bundle.
func IngestSummaryCSV(text string) []ImportedWorkout {
	var out []ImportedWorkout
	for _, row := range parseSummaryRows(text) {
		w := NormalizeWorkout(row)
		if w == nil {
			continue
		}
		out = append(out, ImportedWorkout{Workout: w})
	}
	return out
}

// parseSummaryRows tokenizes summary CSV text into header-keyed rows.
func parseSummaryRows(text string) []map[string]string {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil
	}

	header := Tokenize(lines[0])
	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := Tokenize(line)
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
