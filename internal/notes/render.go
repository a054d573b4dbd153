// Package notes renders imported workouts into Markdown vault notes
// with YAML frontmatter.
package notes

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/sowilo/internal/healthexport"
)

// Note is a rendered workout note ready to be written into the vault.
// RoutePath and Route are empty when the workout has no GPX route.
type Note struct {
	Path      string
	Title     string
	Content   []byte
	RoutePath string
	Route     []byte
}

// frontmatter is the YAML header of a workout note. Field order follows
// struct order under yaml.v3, keeping generated notes diff-friendly.
type frontmatter struct {
	Title        string   `yaml:"title"`
	Workout      string   `yaml:"workout"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end,omitempty"`
	Duration     string   `yaml:"duration"`
	ActiveEnergy string   `yaml:"active_energy,omitempty"`
	Distance     string   `yaml:"distance,omitempty"`
	AvgHeartRate string   `yaml:"avg_heart_rate,omitempty"`
	Tags         []string `yaml:"tags"`
}

const timeLayout = "2006-01-02 15:04:05 -0700"

// Render builds the Markdown note (and route file, when present) for one
// imported workout. The note path is deterministic for a given workout
// type and start, so re-importing the same archive targets the same note.
func Render(imp healthexport.ImportedWorkout) (*Note, error) {
	w := imp.Workout
	if w == nil {
		return nil, fmt.Errorf("notes: nil workout record")
	}

	stem := fmt.Sprintf("%s %s", w.Type, w.Start.Format("2006-01-02 15.04.05"))
	title := fmt.Sprintf("%s %s", w.Type, w.Start.Format("2006-01-02 15:04"))

	n := &Note{
		Path:  "Workouts/" + stem + ".md",
		Title: title,
	}
	if imp.Details != nil && imp.Details.RouteGPX != "" {
		n.RoutePath = "Workouts/routes/" + stem + ".gpx"
		n.Route = []byte(imp.Details.RouteGPX)
	}

	fm := frontmatter{
		Title:    title,
		Workout:  w.Type,
		Start:    w.Start.Format(timeLayout),
		Duration: formatDuration(w.DurationSeconds),
		Tags:     []string{"workout", slug(w.Type)},
	}
	if w.End != nil {
		fm.End = w.End.Format(timeLayout)
	}
	if w.ActiveEnergy != nil {
		fm.ActiveEnergy = formatQuantity(w.ActiveEnergy)
	}
	if w.Distance != nil {
		fm.Distance = formatQuantity(w.Distance)
	}
	if w.AvgHeartRate != nil {
		fm.AvgHeartRate = formatQuantity(w.AvgHeartRate)
	}

	fmYAML, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("notes: marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmYAML)
	b.WriteString("---\n\n")
	b.WriteString("# " + title + "\n\n")
	writeSummaryTable(&b, w)
	if imp.Details != nil {
		writeSeriesSections(&b, imp.Details)
		if n.RoutePath != "" {
			b.WriteString(fmt.Sprintf("## Route\n\n[GPX route](%s)\n", n.RoutePath))
		}
	}

	n.Content = []byte(b.String())
	return n, nil
}

func writeSummaryTable(b *strings.Builder, w *healthexport.WorkoutRecord) {
	rows := []struct {
		label string
		q     *healthexport.Quantity
	}{
		{"Active Energy", w.ActiveEnergy},
		{"Total Energy", w.TotalEnergy},
		{"Distance", w.Distance},
		{"Avg Heart Rate", w.AvgHeartRate},
		{"Max Heart Rate", w.MaxHeartRate},
		{"Avg Speed", w.AvgSpeed},
		{"Elevation Gain", w.ElevationGain},
		{"Temperature", w.Temperature},
		{"Humidity", w.Humidity},
		{"Step Count", w.StepCount},
		{"Flights Climbed", w.FlightsClimbed},
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| Duration | %s |\n", formatDuration(w.DurationSeconds)))
	for _, r := range rows {
		if r.q == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("| %s | %s |\n", r.label, formatQuantity(r.q)))
	}
	b.WriteString("\n")
}

func writeSeriesSections(b *strings.Builder, d *healthexport.DetailBundle) {
	sections := []struct {
		label  string
		points []healthexport.SeriesPoint
	}{
		{"Heart Rate", d.HeartRate},
		{"Active Energy", d.ActiveEnergy},
		{"Resting Energy", d.RestingEnergy},
		{"Distance", d.Distance},
		{"Step Count", d.StepCount},
		{"Heart Rate Recovery", d.HeartRateRecovery},
	}
	for _, s := range sections {
		if len(s.points) == 0 {
			continue
		}
		b.WriteString("## " + s.label + "\n\n")
		lo, hi, ok := seriesRange(s.points)
		if ok {
			b.WriteString(fmt.Sprintf("%d samples, range %.1f–%.1f\n\n", len(s.points), lo, hi))
		} else {
			b.WriteString(fmt.Sprintf("%d samples\n\n", len(s.points)))
		}
	}
}

// seriesRange returns the numeric range across a series, using whichever
// schema the series carries.
func seriesRange(points []healthexport.SeriesPoint) (lo, hi float64, ok bool) {
	consider := func(v *float64) {
		if v == nil {
			return
		}
		if !ok {
			lo, hi, ok = *v, *v, true
			return
		}
		if *v < lo {
			lo = *v
		}
		if *v > hi {
			hi = *v
		}
	}
	for _, p := range points {
		consider(p.Value)
		consider(p.Min)
		consider(p.Max)
		consider(p.Avg)
	}
	return lo, hi, ok
}

func formatQuantity(q *healthexport.Quantity) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q.Value), "0"), ".")
	if q.Unit != "" {
		return s + " " + q.Unit
	}
	return s
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// slug converts a workout type into a lowercase kebab-case tag.
func slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
