package healthexport

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Export timestamps look like "2024-09-02 13:52:08 -0700". Substituting
// the first space with a literal T yields an ISO-like form that preserves
// the timezone offset. Some exports omit the offset.
var exportTimeLayouts = []string{
	"2006-01-02T15:04:05 -0700",
	"2006-01-02T15:04:05",
}

// NormalizeWorkout converts one summary CSV row (header → field) into a
// canonical WorkoutRecord. It returns nil when the row has no workout
// type or no parseable start time; the caller skips such rows.
//
// Duration resolution order: an explicit colon-separated Duration field
// wins, then end-start when an end time parsed, then zero. Quantity
// fields that fail to parse as finite numbers are omitted from the
// record, never cause rejection.
func NormalizeWorkout(row map[string]string) *WorkoutRecord {
	typ := strings.TrimSpace(row["Workout Type"])
	startRaw := strings.TrimSpace(row["Start"])
	if typ == "" || startRaw == "" {
		return nil
	}

	start, ok := parseExportTime(startRaw)
	if !ok {
		return nil
	}

	w := &WorkoutRecord{
		Type:  typ,
		Start: start,
		Row:   row,
	}

	if end, ok := parseExportTime(strings.TrimSpace(row["End"])); ok {
		w.End = &end
	}

	if secs, ok := parseClockDuration(row["Duration"]); ok {
		w.DurationSeconds = secs
	} else if w.End != nil {
		secs := int(math.Round(w.End.Sub(start).Seconds()))
		if secs > 0 {
			w.DurationSeconds = secs
		}
	}

	for header, field := range row {
		slot := quantitySlot(w, header)
		if slot == nil {
			continue
		}
		v, ok := parseFinite(field)
		if !ok {
			continue
		}
		_, unit := splitFieldUnit(header)
		*slot = &Quantity{Value: v, Unit: unit}
	}

	return w
}

// parseExportTime parses an export date-time, normalising the first space
// toward an ISO-like form.
func parseExportTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if i := strings.Index(s, " "); i >= 0 {
		s = s[:i] + "T" + s[i+1:]
	}
	for _, layout := range exportTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClockDuration parses "H:MM:SS" or "MM:SS" by accumulating
// colon-separated integer parts as total = total*60 + part.
func parseClockDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// parseFinite parses a locale-agnostic float and rejects NaN/Inf.
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// splitFieldUnit splits a summary header like "Distance (mi)" into its
// base name and unit. Headers without a parenthesised suffix have an
// empty unit.
func splitFieldUnit(header string) (string, string) {
	open := strings.LastIndex(header, "(")
	end := strings.LastIndex(header, ")")
	if open >= 0 && end > open {
		base := strings.TrimSpace(header[:open])
		unit := strings.TrimSpace(header[open+1 : end])
		return base, unit
	}
	return strings.TrimSpace(header), ""
}

// quantitySlot maps a summary header to the record field it populates,
// or nil for headers with no canonical slot (they stay reachable through
// Row). Matching is case-insensitive and ignores periods, so both
// "Avg. Heart Rate (bpm)" and "Average Heart Rate" land in AvgHeartRate.
func quantitySlot(w *WorkoutRecord, header string) **Quantity {
	base, _ := splitFieldUnit(header)
	key := strings.ToLower(strings.ReplaceAll(base, ".", ""))
	key = strings.Join(strings.Fields(key), " ")

	switch key {
	case "active energy":
		return &w.ActiveEnergy
	case "total energy":
		return &w.TotalEnergy
	case "distance":
		return &w.Distance
	case "avg heart rate", "average heart rate":
		return &w.AvgHeartRate
	case "max heart rate":
		return &w.MaxHeartRate
	case "avg speed", "average speed":
		return &w.AvgSpeed
	case "elevation gain", "elevation ascended":
		return &w.ElevationGain
	case "temperature":
		return &w.Temperature
	case "humidity":
		return &w.Humidity
	case "step count", "steps":
		return &w.StepCount
	case "flights climbed":
		return &w.FlightsClimbed
	}
	return nil
}
