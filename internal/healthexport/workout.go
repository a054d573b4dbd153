package healthexport

import "time"

// Quantity is a numeric workout field with the unit taken from the
// summary CSV header (e.g. "kcal", "mi"). Unit may be empty.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// WorkoutRecord is the canonical representation of one exported workout.
// Type and Start are always set; everything else is optional. Row keeps
// the raw summary CSV row so callers can fall back to fields that have
// no canonical slot here.
type WorkoutRecord struct {
	Type            string     `json:"type"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`

	ActiveEnergy   *Quantity `json:"active_energy,omitempty"`
	TotalEnergy    *Quantity `json:"total_energy,omitempty"`
	Distance       *Quantity `json:"distance,omitempty"`
	AvgHeartRate   *Quantity `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *Quantity `json:"max_heart_rate,omitempty"`
	AvgSpeed       *Quantity `json:"avg_speed,omitempty"`
	ElevationGain  *Quantity `json:"elevation_gain,omitempty"`
	Temperature    *Quantity `json:"temperature,omitempty"`
	Humidity       *Quantity `json:"humidity,omitempty"`
	StepCount      *Quantity `json:"step_count,omitempty"`
	FlightsClimbed *Quantity `json:"flights_climbed,omitempty"`

	Row map[string]string `json:"-"`
}

// SeriesPoint is one sample of a per-metric time series. The schema is
// decided per series from the header row: either Value is populated, or
// some of Min/Max/Avg are, never both. A nil field means the source cell
// was absent or not a finite number.
type SeriesPoint struct {
	Timestamp string   `json:"timestamp"`
	Value     *float64 `json:"value,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Avg       *float64 `json:"avg,omitempty"`
}

// DetailFile is one decoded detail entry from an archive: a per-metric
// CSV or a GPX route, identified by its base file name.
type DetailFile struct {
	Name string
	Text string
}

// DetailBundle aggregates the detail series correlated to one workout.
// Each slot holds at most one series; an empty slot means no detail file
// matched. RouteGPX is the raw GPX text, stored unparsed.
type DetailBundle struct {
	HeartRate         []SeriesPoint `json:"heart_rate,omitempty"`
	ActiveEnergy      []SeriesPoint `json:"active_energy,omitempty"`
	RestingEnergy     []SeriesPoint `json:"resting_energy,omitempty"`
	Distance          []SeriesPoint `json:"distance,omitempty"`
	StepCount         []SeriesPoint `json:"step_count,omitempty"`
	HeartRateRecovery []SeriesPoint `json:"heart_rate_recovery,omitempty"`
	RouteGPX          string        `json:"-"`
}

// Empty reports whether no detail file was correlated into the bundle.
func (b *DetailBundle) Empty() bool {
	return len(b.HeartRate) == 0 && len(b.ActiveEnergy) == 0 &&
		len(b.RestingEnergy) == 0 && len(b.Distance) == 0 &&
		len(b.StepCount) == 0 && len(b.HeartRateRecovery) == 0 &&
		b.RouteGPX == ""
}

// ImportedWorkout pairs a canonical workout record with its correlated
// details. Details is nil on the summary-only ingestion path.
type ImportedWorkout struct {
	Workout *WorkoutRecord
	Details *DetailBundle
}
