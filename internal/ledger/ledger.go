package ledger

// WorkoutLedger defines the interface for ledger operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type WorkoutLedger interface {
	UpsertWorkout(w WorkoutRow, body string) error
	DeleteWorkout(notePath string) error
	GetWorkout(notePath string) (*WorkoutRow, error)
	ListWorkouts(limit, offset int, workoutType, sort string) ([]WorkoutRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	RecordImport(imp ImportRow) error
	HasImport(checksum string) (bool, error)
	ListImports(limit int) ([]ImportRow, error)
	AllPaths() (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies WorkoutLedger at compile time.
var _ WorkoutLedger = (*DB)(nil)
