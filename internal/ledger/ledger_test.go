package ledger

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/sowilo/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "sowilo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRow(path, typ string, start time.Time) WorkoutRow {
	return WorkoutRow{
		NotePath:        path,
		Title:           typ + " " + start.Format("2006-01-02"),
		WorkoutType:     typ,
		StartedAt:       start,
		DurationSeconds: 2730,
		ArchiveChecksum: "abc123",
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM workouts`).Scan(&count); err != nil {
		t.Fatalf("workouts table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM imports`).Scan(&count); err != nil {
		t.Fatalf("imports table missing: %v", err)
	}
}

func TestUpsertAndGetWorkout(t *testing.T) {
	db := testDB(t)
	start := time.Date(2024, 9, 2, 13, 52, 8, 0, time.UTC)
	if err := db.UpsertWorkout(sampleRow("Workouts/Running 2024-09-02.md", "Running", start), "note body"); err != nil {
		t.Fatalf("UpsertWorkout: %v", err)
	}

	w, err := db.GetWorkout("Workouts/Running 2024-09-02.md")
	if err != nil {
		t.Fatalf("GetWorkout: %v", err)
	}
	if w.WorkoutType != "Running" || w.DurationSeconds != 2730 {
		t.Errorf("row = %+v", w)
	}
}

func TestGetWorkout_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetWorkout("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	start := time.Date(2024, 9, 2, 13, 52, 8, 0, time.UTC)
	row := sampleRow("up.md", "Running", start)
	_ = db.UpsertWorkout(row, "old body")
	row.DurationSeconds = 99
	_ = db.UpsertWorkout(row, "new body")

	w, err := db.GetWorkout("up.md")
	if err != nil {
		t.Fatalf("GetWorkout: %v", err)
	}
	if w.DurationSeconds != 99 {
		t.Errorf("duration = %d, want 99", w.DurationSeconds)
	}
}

func TestDeleteWorkout(t *testing.T) {
	db := testDB(t)
	start := time.Now().UTC()
	_ = db.UpsertWorkout(sampleRow("del.md", "Running", start), "body")

	if err := db.DeleteWorkout("del.md"); err != nil {
		t.Fatalf("DeleteWorkout: %v", err)
	}
	if _, err := db.GetWorkout("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted workout still present: %v", err)
	}
}

func TestListWorkouts_FilterAndOrder(t *testing.T) {
	db := testDB(t)
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	_ = db.UpsertWorkout(sampleRow("a.md", "Running", base), "")
	_ = db.UpsertWorkout(sampleRow("b.md", "Cycling", base.Add(24*time.Hour)), "")
	_ = db.UpsertWorkout(sampleRow("c.md", "Running", base.Add(48*time.Hour)), "")

	rows, total, err := db.ListWorkouts(10, 0, "", "")
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("total = %d, len = %d, want 3", total, len(rows))
	}
	// Newest first by default.
	if rows[0].NotePath != "c.md" {
		t.Errorf("rows[0] = %q, want c.md", rows[0].NotePath)
	}

	rows, total, err = db.ListWorkouts(10, 0, "Running", "")
	if err != nil {
		t.Fatalf("ListWorkouts filtered: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("filtered total = %d, len = %d, want 2", total, len(rows))
	}
}

func TestImports_RecordAndLookup(t *testing.T) {
	db := testDB(t)
	imp := ImportRow{Checksum: "deadbeef", FileName: "HealthExport.zip", Workouts: 2, Errors: 1}
	if err := db.RecordImport(imp); err != nil {
		t.Fatalf("RecordImport: %v", err)
	}

	ok, err := db.HasImport("deadbeef")
	if err != nil {
		t.Fatalf("HasImport: %v", err)
	}
	if !ok {
		t.Error("expected HasImport = true")
	}

	ok, err = db.HasImport("unknown")
	if err != nil {
		t.Fatalf("HasImport: %v", err)
	}
	if ok {
		t.Error("expected HasImport = false for unknown checksum")
	}

	imports, err := db.ListImports(10)
	if err != nil {
		t.Fatalf("ListImports: %v", err)
	}
	if len(imports) != 1 || imports[0].Workouts != 2 || imports[0].Errors != 1 {
		t.Errorf("imports = %+v", imports)
	}
}

func TestAllPaths(t *testing.T) {
	db := testDB(t)
	start := time.Now().UTC()
	_ = db.UpsertWorkout(sampleRow("a.md", "Running", start), "")
	_ = db.UpsertWorkout(sampleRow("b.md", "Cycling", start), "")

	paths, err := db.AllPaths()
	if err != nil {
		t.Fatalf("AllPaths: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("len(paths) = %d, want 2", len(paths))
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	start := time.Now().UTC()
	_ = db.UpsertWorkout(sampleRow("s.md", "Running", start), "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].NotePath != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}
