package healthexport

import "strings"

// ParseSeries converts one detail CSV into a sequence of samples. The
// first line is the header; it decides the schema for every row: a header
// mentioning "Min" reads rows as (timestamp, min, max, avg), one
// mentioning "Value" reads (timestamp, value), and a header with neither
// marker falls back to the min/max/avg layout.
//
// Rows with fewer than two fields are skipped; numeric fields that fail
// to parse are absent on that point rather than zero.
func ParseSeries(text string) []SeriesPoint {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil
	}

	header := strings.ToLower(lines[0])
	singleValue := !strings.Contains(header, "min") && strings.Contains(header, "value")

	var points []SeriesPoint
	for _, line := range lines[1:] {
		fields := Tokenize(line)
		if len(fields) < 2 {
			continue
		}

		p := SeriesPoint{Timestamp: fields[0]}
		if singleValue {
			p.Value = optFloat(fields, 1)
		} else {
			p.Min = optFloat(fields, 1)
			p.Max = optFloat(fields, 2)
			p.Avg = optFloat(fields, 3)
		}
		points = append(points, p)
	}

	return points
}

// optFloat returns the field at i as a finite float, or nil when the
// field is missing or unparseable.
func optFloat(fields []string, i int) *float64 {
	if i >= len(fields) {
		return nil
	}
	v, ok := parseFinite(fields[i])
	if !ok {
		return nil
	}
	return &v
}

// splitLines splits CSV text into non-empty lines, tolerating CRLF.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
