package schema

import "strings"

// NeedsQuoting reports whether a cell's raw text requires CSV quoting: it
// contains a double quote, comma, newline, or carriage return.
func NeedsQuoting(s string) bool {
	return strings.ContainsAny(s, "\",\n\r")
}

// EncodeCell renders one cell's canonical CSV text: quoted with doubled
// embedded quotes when it contains a sentinel character, verbatim
// otherwise. A nil value (valid=false) always renders as the empty
// string, which COPY's `NULL ''` option maps back to SQL NULL.
func EncodeCell(s string, valid bool) string {
	if !valid {
		return ""
	}
	if !NeedsQuoting(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' {
			b.WriteByte('"')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// EncodeRow joins already-encoded cells with commas and a trailing
// newline, producing one canonical CSV line.
func EncodeRow(cells []string) string {
	return strings.Join(cells, ",") + "\n"
}
