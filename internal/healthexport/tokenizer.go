package healthexport

import "strings"

// Tokenize splits one CSV line into fields. Commas inside double-quoted
// spans do not split; a doubled quote inside a quoted span unescapes to a
// single quote character. Fields are trimmed of surrounding whitespace.
//
// Malformed quoting degrades to best-effort splitting: a trailing
// unmatched quote leaves the rest of the line as literal text. Tokenize
// never fails.
func Tokenize(line string) []string {
	var (
		fields   []string
		b        strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				b.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(b.String()))

	return fields
}
