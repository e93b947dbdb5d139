package profile

import (
	"strings"

	"github.com/prepdeck/prepdeck/internal/tabular"
)

// Build assembles the immutable DatasetProfile for a parsed table.
//
// Per-column failures never abort assembly: a column with no usable values
// simply carries no stats variant. The returned profile owns copies of the
// preview rows, so the caller may discard the table afterwards.
func Build(filename string, table *tabular.Table, policy Policy) *DatasetProfile {
	policy = policy.normalize()

	p := &DatasetProfile{
		Filename:    filename,
		ColumnNames: append([]string(nil), table.Columns...),
		RowCount:    table.RowCount(),
		TypeCounts:  make(map[ColumnType]int),
	}

	for c, name := range table.Columns {
		values := table.Column(c)
		col := buildColumn(name, values, policy)
		p.Columns = append(p.Columns, col)
		p.TypeCounts[col.Type]++
		p.TotalMissing += col.Missing
	}

	p.Correlation = correlationMatrix(table, p.NumericColumnNames(), policy)
	p.DuplicateRows = countDuplicateRows(table.Rows)
	p.SampleRows = sampleRows(table.Rows, policy.PreviewRows)

	return p
}

// buildColumn profiles a single column: shared base fields plus the stats
// variant matching the inferred type.
func buildColumn(name string, values []string, policy Policy) ColumnProfile {
	col := ColumnProfile{
		Name: name,
		Type: InferType(values, policy),
	}

	distinct := make(map[string]struct{})
	sawNull := false
	for _, v := range values {
		if tabular.IsMissing(v) {
			col.Missing++
			sawNull = true
			continue
		}
		col.NonNull++
		distinct[strings.TrimSpace(v)] = struct{}{}
	}

	// Null counts as one distinct value when present.
	col.UniqueValues = len(distinct)
	if sawNull {
		col.UniqueValues++
	}
	if total := col.Missing + col.NonNull; total > 0 {
		col.MissingPercent = float64(col.Missing) / float64(total) * 100
	}

	switch col.Type {
	case TypeNumeric:
		col.Numeric = numericStats(values, policy)
	case TypeCategorical, TypeBoolean:
		col.Categories = categoryStats(values)
	}

	return col
}

// countDuplicateRows returns rowCount − distinctRowCount: each repetition of
// an earlier full field tuple counts once.
func countDuplicateRows(rows [][]string) int {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		// Joined on the unit separator, which never occurs in
		// spreadsheet exports.
		seen[strings.Join(row, "\x1f")] = struct{}{}
	}
	return len(rows) - len(seen)
}

// sampleRows deep-copies a bounded prefix of the rows for preview.
func sampleRows(rows [][]string, limit int) [][]string {
	if len(rows) < limit {
		limit = len(rows)
	}
	out := make([][]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = append([]string(nil), rows[i]...)
	}
	return out
}
