// Package codec contains the pure encoding helpers shared by the export,
// import, and finalize engines: RFC-4180 CSV field escaping, flat-table
// rendering, nested-object flattening, semicolon id lists, and WebVTT.
package codec

import (
	"strconv"
	"strings"
)

// BOM is the UTF-8 byte-order mark prefixed to CSV files served for
// download so spreadsheet tools auto-detect the encoding.
const BOM = "\uFEFF"

// EscapeCSVField renders a single CSV field per RFC 4180. Nil becomes the
// empty string. The field is quoted (with internal quotes doubled) only
// when it contains a comma, a quote, or any newline character.
func EscapeCSVField(value any) string {
	s := Stringify(value)
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Stringify converts a field value to its CSV text form. Floats are
// rendered with the shortest representation that round-trips, so whole
// numbers come out without a trailing ".0".
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return ""
	}
}

// RowsToCSV renders a header line followed by one line per row, fields in
// header order, each passed through EscapeCSVField. Lines are joined with
// "\n" and the result ends with a trailing newline.
func RowsToCSV(headers []string, rows []map[string]any) string {
	var b strings.Builder

	for i, h := range headers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeCSVField(h))
	}
	b.WriteByte('\n')

	for _, row := range rows {
		for i, h := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeCSVField(row[h]))
		}
		b.WriteByte('\n')
	}

	return b.String()
}
