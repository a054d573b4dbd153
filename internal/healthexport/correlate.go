package healthexport

import (
	"path"
	"strings"
	"time"
)

// detailTimestampLayout matches the fixed 15-character timestamp token in
// detail file names, e.g. "20240902_135208".
const detailTimestampLayout = "20060102_150405"

// detailMatchWindow is how far a detail file's timestamp may sit from the
// workout start and still belong to it.
const detailMatchWindow = 5000 * time.Millisecond

// Correlate determines which detail files belong to a workout and builds
// its bundle. Detail names follow "<Type>-<Metric>-<YYYYMMDD_HHMMSS>.<csv|gpx>":
// the type token must equal the workout type exactly and the timestamp
// token must fall within five seconds of the workout start. GPX files
// become the bundle's route; CSV files are parsed and assigned to the
// slot named by the metric token. Unrecognised metric tokens are ignored.
//
// When several matching files claim the same slot the last one processed
// wins, so callers should hand details over in a deterministic order.
func Correlate(w *WorkoutRecord, details []DetailFile) DetailBundle {
	var b DetailBundle

	for _, f := range details {
		base := path.Base(f.Name)
		ext := strings.ToLower(path.Ext(base))
		if ext != ".csv" && ext != ".gpx" {
			continue
		}
		stem := base[:len(base)-len(ext)]

		parts := strings.Split(stem, "-")
		if len(parts) < 3 {
			continue
		}
		metric := parts[len(parts)-2]
		tsToken := parts[len(parts)-1]
		typToken := strings.Join(parts[:len(parts)-2], "-")

		if typToken != w.Type {
			continue
		}
		if !timestampMatches(tsToken, w.Start) {
			continue
		}

		if ext == ".gpx" {
			b.RouteGPX = f.Text
			continue
		}

		points := ParseSeries(f.Text)
		switch metric {
		case "Heart Rate":
			b.HeartRate = points
		case "Active Energy":
			b.ActiveEnergy = points
		case "Resting Energy":
			b.RestingEnergy = points
		case "Walking + Running Distance":
			b.Distance = points
		case "Step Count":
			b.StepCount = points
		case "Heart Rate Recovery":
			b.HeartRateRecovery = points
		}
	}

	return b
}

// timestampMatches parses the file-name timestamp token in the workout's
// own timezone and checks proximity to its start. An unparseable token
// matches only when no start is available.
func timestampMatches(token string, start time.Time) bool {
	if len(token) != len(detailTimestampLayout) {
		return start.IsZero()
	}
	ts, err := time.ParseInLocation(detailTimestampLayout, token, start.Location())
	if err != nil {
		return start.IsZero()
	}
	if start.IsZero() {
		return true
	}
	diff := ts.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	return diff <= detailMatchWindow
}
