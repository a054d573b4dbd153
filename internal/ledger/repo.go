package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/sowilo/internal/apperr"
)

// WorkoutRow represents a row in the workouts table.
type WorkoutRow struct {
	NotePath        string    `json:"note_path"`
	Title           string    `json:"title"`
	WorkoutType     string    `json:"workout_type"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
	ArchiveChecksum string    `json:"archive_checksum"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ImportRow represents a row in the imports table.
type ImportRow struct {
	Checksum   string    `json:"checksum"`
	FileName   string    `json:"file_name"`
	Workouts   int       `json:"workouts"`
	Errors     int       `json:"errors"`
	ImportedAt time.Time `json:"imported_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	NotePath string `json:"note_path"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// UpsertWorkout inserts or replaces a workout row and its FTS entry
// within a transaction. body is the rendered note text used for search.
func (db *DB) UpsertWorkout(w WorkoutRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO workouts (note_path, title, workout_type, started_at, duration_seconds, archive_checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_path) DO UPDATE SET
			title            = excluded.title,
			workout_type     = excluded.workout_type,
			started_at       = excluded.started_at,
			duration_seconds = excluded.duration_seconds,
			archive_checksum = excluded.archive_checksum,
			body             = excluded.body,
			updated_at       = excluded.updated_at
	`, w.NotePath, w.Title, w.WorkoutType, w.StartedAt, w.DurationSeconds, w.ArchiveChecksum, body, time.Now())
	if err != nil {
		return fmt.Errorf("ledger: upsert workout: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, w.NotePath, w.Title, body, w.WorkoutType); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteWorkout removes a workout row and its FTS entry.
func (db *DB) DeleteWorkout(notePath string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, notePath)
	_, _ = tx.Exec(`DELETE FROM workouts WHERE note_path = ?`, notePath)

	return tx.Commit()
}

// GetWorkout returns the workout row for a note path.
func (db *DB) GetWorkout(notePath string) (*WorkoutRow, error) {
	var w WorkoutRow
	err := db.conn.QueryRow(`
		SELECT note_path, title, workout_type, started_at, duration_seconds, archive_checksum, updated_at
		FROM workouts WHERE note_path = ?
	`, notePath).Scan(&w.NotePath, &w.Title, &w.WorkoutType, &w.StartedAt, &w.DurationSeconds, &w.ArchiveChecksum, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get workout: %w", err)
	}
	return &w, nil
}

// ListWorkouts returns paginated workouts with an optional type filter,
// newest first by default. sort may be "started_at", "workout_type", or
// "note_path".
func (db *DB) ListWorkouts(limit, offset int, workoutType, sort string) ([]WorkoutRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	orderBy := "started_at DESC"
	switch sort {
	case "workout_type":
		orderBy = "workout_type ASC, started_at DESC"
	case "note_path":
		orderBy = "note_path ASC"
	}

	where := ""
	args := []any{}
	if workoutType != "" {
		where = "WHERE workout_type = ?"
		args = append(args, workoutType)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM workouts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count workouts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT note_path, title, workout_type, started_at, duration_seconds, archive_checksum, updated_at
		FROM workouts %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, orderBy)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list workouts: %w", err)
	}
	defer rows.Close()

	var out []WorkoutRow
	for rows.Next() {
		var w WorkoutRow
		if err := rows.Scan(&w.NotePath, &w.Title, &w.WorkoutType, &w.StartedAt, &w.DurationSeconds, &w.ArchiveChecksum, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, w)
	}
	return out, total, rows.Err()
}

// RecordImport inserts or replaces an import row.
func (db *DB) RecordImport(imp ImportRow) error {
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO imports (checksum, file_name, workouts, errors, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(checksum) DO UPDATE SET
			file_name   = excluded.file_name,
			workouts    = excluded.workouts,
			errors      = excluded.errors,
			imported_at = excluded.imported_at
	`, imp.Checksum, imp.FileName, imp.Workouts, imp.Errors, imp.ImportedAt)
	if err != nil {
		return fmt.Errorf("ledger: record import: %w", err)
	}
	return nil
}

// HasImport reports whether an archive with the given checksum was
// already imported.
func (db *DB) HasImport(checksum string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM imports WHERE checksum = ?`, checksum).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: has import: %w", err)
	}
	return true, nil
}

// ListImports returns the most recent imports, newest first.
func (db *DB) ListImports(limit int) ([]ImportRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT checksum, file_name, workouts, errors, imported_at
		FROM imports ORDER BY imported_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list imports: %w", err)
	}
	defer rows.Close()

	var out []ImportRow
	for rows.Next() {
		var imp ImportRow
		if err := rows.Scan(&imp.Checksum, &imp.FileName, &imp.Workouts, &imp.Errors, &imp.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

// AllPaths returns the set of note paths currently in the ledger.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT note_path FROM workouts`)
	if err != nil {
		return nil, fmt.Errorf("ledger: all paths: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}
