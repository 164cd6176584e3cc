package dbx

import "strings"

// TextArray renders values as a PostgreSQL array literal, e.g. {"a","b"}.
// It lets a slice travel as one text parameter and be cast server-side
// ($1::uuid[], $1::text[]) without driver-specific array types.
func TextArray(values []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		for _, r := range v {
			if r == '"' || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}
