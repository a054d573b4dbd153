//go:build sqlite_fts5

package ledger

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS workouts_fts USING fts5(
			note_path UNINDEXED,
			title,
			body,
			workout_type,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, notePath, title, body, workoutType string) error {
	_, _ = tx.Exec(`DELETE FROM workouts_fts WHERE note_path = ?`, notePath)
	_, err := tx.Exec(`INSERT INTO workouts_fts (note_path, title, body, workout_type) VALUES (?, ?, ?, ?)`,
		notePath, title, body, workoutType)
	if err != nil {
		return fmt.Errorf("ledger: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, notePath string) {
	_, _ = tx.Exec(`DELETE FROM workouts_fts WHERE note_path = ?`, notePath)
}

// Search performs an FTS5 full-text search over rendered workout notes.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT note_path,
		       title,
		       snippet(workouts_fts, 2, '<b>', '</b>', '...', 64)
		FROM workouts_fts
		WHERE workouts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.NotePath, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
