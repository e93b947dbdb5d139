// Package tabular parses delimited text into rows of string fields.
//
// The parser is deliberately more forgiving than encoding/csv: quoted fields
// never span lines, rows with the wrong field count are dropped instead of
// aborting the parse, and delimiters are sniffed when not specified. Files
// exported from spreadsheets and re-serialized by other tools rarely survive
// strict RFC 4180 parsing, and one bad row should never block profiling the
// rest of the table.
package tabular

import "strings"

// Table is the transient parsed form of a delimited file. It is discarded
// after profiling except for a bounded preview slice.
//
// Every row has exactly len(Columns) cells; rows that did not are dropped
// during parsing. Column names are the header fields verbatim, duplicates
// included.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of retained data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Column returns the raw cell values of the column at index c, in row order.
func (t *Table) Column(c int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[c]
	}
	return out
}

// ColumnIndex returns the position of the first column whose trimmed name
// matches name (case-sensitive), or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.TrimSpace(c) == name {
			return i
		}
	}
	return -1
}

// IsMissing reports whether a raw cell value counts as a missing value.
// Only whitespace-or-empty cells are missing; tokens like "NA" are data.
func IsMissing(s string) bool {
	return strings.TrimSpace(s) == ""
}
