package tabular

import (
	"fmt"
	"strings"
)

// ParseError indicates the input could not yield a usable header plus at
// least one data row. It aborts ingestion; no partial table is returned.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s", e.Reason)
}

// Options controls parsing behavior.
type Options struct {
	// Delimiter separates fields. Zero means sniff among ',', ';', '\t', '|'
	// using the first non-empty line.
	Delimiter rune
}

// Parse tokenizes raw delimited text into a Table.
//
// Lines are split first: a quoted field cannot contain a raw newline
// (documented limitation). Within a line a double quote toggles quoted state
// and the delimiter only separates fields outside quotes; the quote
// characters themselves are not part of the field value.
//
// The first surviving line is the header. Data rows whose field count
// differs from the header length, and rows whose every cell is blank, are
// dropped. A *ParseError is returned when fewer than two rows (header plus
// one data row) remain.
func Parse(text string, opts Options) (*Table, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, &ParseError{Reason: "empty input"}
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(lines)
	}

	header := splitFields(lines[0], delim)
	if isBlankRow(header) {
		return nil, &ParseError{Reason: "empty header row"}
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		row := splitFields(line, delim)
		if len(row) != len(header) || isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("no data rows with %d fields after header", len(header))}
	}

	return &Table{Columns: header, Rows: rows}, nil
}

// splitLines splits on '\n', strips trailing '\r', and drops blank lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitFields tokenizes one line. A double quote toggles quoted state; the
// delimiter ends a field only outside quotes.
func splitFields(line string, delim rune) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	fields = append(fields, field.String())
	return fields
}

// isBlankRow reports whether every cell trims to empty.
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate that produces the most fields on the
// first line, preferring consistency with the second line when one exists.
// Comma wins ties.
func sniffDelimiter(lines []string) rune {
	best := ','
	bestScore := -1
	for _, d := range candidateDelimiters {
		n := len(splitFields(lines[0], d))
		if n < 2 {
			continue
		}
		score := n
		if len(lines) > 1 && len(splitFields(lines[1], d)) == n {
			// A second line agreeing on the field count is a strong signal.
			score += 1000
		}
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}
