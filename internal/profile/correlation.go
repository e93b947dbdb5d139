package profile

import (
	"math"

	"github.com/prepdeck/prepdeck/internal/tabular"
)

// correlationMatrix computes the symmetric Pearson correlation matrix over
// the named numeric columns.
//
// For each unordered pair it collects the rows where both cells parse as
// finite numbers; fewer than policy.MinCorrelationPairs paired values leave
// the entry at 0. The scan is O(columns² × rows), the dominant cost of
// profiling, so columns are capped and rows strided per the policy. Degenerate
// correlations (a vanished variance) are coerced to 0 and the matrix is
// flagged low-confidence so consumers never see NaN.
func correlationMatrix(table *tabular.Table, numericCols []string, policy Policy) *CorrelationMatrix {
	policy = policy.normalize()

	if len(numericCols) > policy.MaxCorrelationColumns {
		numericCols = numericCols[:policy.MaxCorrelationColumns]
	}

	m := &CorrelationMatrix{
		Labels: append([]string(nil), numericCols...),
		Values: make([][]float64, len(numericCols)),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(numericCols))
	}
	if len(numericCols) == 0 {
		return m
	}

	rows := table.Rows
	if policy.CorrelationSampleRows > 0 && len(rows) > policy.CorrelationSampleRows {
		rows = strideRows(rows, policy.CorrelationSampleRows)
		m.Sampled = true
	}

	// Parse each selected column once: values[c][r] with valid[c][r].
	cols := make([][]float64, len(numericCols))
	valid := make([][]bool, len(numericCols))
	for c, name := range numericCols {
		idx := columnIndex(table.Columns, name)
		cols[c] = make([]float64, len(rows))
		valid[c] = make([]bool, len(rows))
		if idx < 0 {
			continue
		}
		for r, row := range rows {
			if f, ok := tabular.ParseNumber(row[idx]); ok {
				cols[c][r] = f
				valid[c][r] = true
			}
		}
	}

	// Diagonal is 1 wherever the column has at least one usable value.
	for c := range numericCols {
		for r := range rows {
			if valid[c][r] {
				m.Values[c][c] = 1
				break
			}
		}
	}

	for i := 0; i < len(numericCols); i++ {
		for j := i + 1; j < len(numericCols); j++ {
			var xs, ys []float64
			for r := range rows {
				if valid[i][r] && valid[j][r] {
					xs = append(xs, cols[i][r])
					ys = append(ys, cols[j][r])
				}
			}
			if len(xs) < policy.MinCorrelationPairs {
				continue
			}

			r, ok := pearson(xs, ys)
			if !ok {
				m.LowConfidence = true
				continue
			}
			r = math.Round(r*100) / 100
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}

	return m
}

// pearson returns the Pearson correlation coefficient of the paired samples.
// The second result is false when a variance vanishes and the coefficient
// is undefined.
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0, false
	}
	r := cov / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	// Float error can push a perfect correlation just past the bound.
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r, true
}

// strideRows picks an evenly strided sample, always including index 0.
func strideRows(rows [][]string, max int) [][]string {
	stride := (len(rows) + max - 1) / max
	out := make([][]string, 0, max)
	for i := 0; i < len(rows); i += stride {
		out = append(out, rows[i])
	}
	return out
}

// columnIndex finds the first column matching name after trimming.
func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if trimmed(c) == trimmed(name) {
			return i
		}
	}
	return -1
}
