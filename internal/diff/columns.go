package diff

import (
	"math"
	"sort"

	"github.com/prepdeck/prepdeck/internal/profile"
)

// compareColumns aggregates the statistical movement of every column
// present in both profiles, in base column order.
func compareColumns(base, compare *profile.DatasetProfile, cols []pairedColumn, changed map[string]int, policy Policy) []ColumnComparison {
	out := make([]ColumnComparison, 0, len(cols))

	for _, col := range cols {
		bc := base.Column(col.name)
		cc := compare.Column(col.name)
		if bc == nil || cc == nil {
			continue
		}

		comparison := ColumnComparison{
			Name:         col.name,
			Type:         cc.Type,
			MissingDelta: cc.MissingPercent - bc.MissingPercent,
			OutlierDelta: outlierCount(cc) - outlierCount(bc),
			ChangedCells: changed[col.name],
		}

		if bc.Numeric != nil && cc.Numeric != nil {
			comparison.Numeric = &NumericDelta{
				Mean:   cc.Numeric.Mean - bc.Numeric.Mean,
				Median: cc.Numeric.Median - bc.Numeric.Median,
				Std:    cc.Numeric.Std - bc.Numeric.Std,
				Min:    cc.Numeric.Min - bc.Numeric.Min,
				Max:    cc.Numeric.Max - bc.Numeric.Max,
			}
		}

		if bc.Categories != nil && cc.Categories != nil {
			sim, shifts := distributionShift(bc, cc, policy)
			comparison.DistributionSimilarity = &sim
			comparison.CategoryShifts = shifts
		}

		out = append(out, comparison)
	}

	return out
}

func outlierCount(c *profile.ColumnProfile) int {
	if c.Numeric == nil {
		return 0
	}
	return c.Numeric.Outliers
}

// distributionShift compares two category distributions. Shares are
// percentages of non-null values; the similarity is max(0, 1 − Σ|Δ%|/100)
// over the union of category keys, and shifts at or above the significance
// threshold are surfaced, largest first, bounded by TopCategoryShifts.
func distributionShift(base, compare *profile.ColumnProfile, policy Policy) (float64, []CategoryShift) {
	basePct := categoryPercents(base)
	comparePct := categoryPercents(compare)

	keys := make([]string, 0, len(basePct)+len(comparePct))
	seen := make(map[string]struct{})
	for _, k := range base.Categories.Order {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for _, k := range compare.Categories.Order {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}

	var totalShift float64
	var shifts []CategoryShift
	for _, k := range keys {
		delta := comparePct[k] - basePct[k]
		totalShift += math.Abs(delta)
		if math.Abs(delta) >= policy.ShiftSignificance {
			shifts = append(shifts, CategoryShift{Value: k, Delta: delta})
		}
	}

	sort.SliceStable(shifts, func(i, j int) bool {
		return math.Abs(shifts[i].Delta) > math.Abs(shifts[j].Delta)
	})
	if len(shifts) > policy.TopCategoryShifts {
		shifts = shifts[:policy.TopCategoryShifts]
	}

	similarity := 1 - totalShift/100
	if similarity < 0 {
		similarity = 0
	}
	return similarity, shifts
}

// categoryPercents converts a frequency map into percentage shares of the
// column's non-null values.
func categoryPercents(c *profile.ColumnProfile) map[string]float64 {
	out := make(map[string]float64, len(c.Categories.Counts))
	if c.NonNull == 0 {
		return out
	}
	for k, n := range c.Categories.Counts {
		out[k] = float64(n) / float64(c.NonNull) * 100
	}
	return out
}

// correlationDeltas reports column pairs present in both matrices whose
// correlation moved by more than the significance threshold, strongest
// movement first, bounded by TopCorrelationDeltas. The second result is
// false when either side has no numeric columns to correlate.
func correlationDeltas(base, compare *profile.CorrelationMatrix, policy Policy) ([]CorrelationDelta, bool) {
	if base == nil || compare == nil || len(base.Labels) == 0 || len(compare.Labels) == 0 {
		return nil, false
	}

	var deltas []CorrelationDelta
	for i := 0; i < len(base.Labels); i++ {
		for j := i + 1; j < len(base.Labels); j++ {
			a, b := base.Labels[i], base.Labels[j]
			baseR := base.Values[i][j]
			compareR, ok := compare.At(a, b)
			if !ok {
				continue
			}
			delta := compareR - baseR
			if math.Abs(delta) > policy.CorrelationSignificance {
				deltas = append(deltas, CorrelationDelta{
					ColumnA: a,
					ColumnB: b,
					Base:    baseR,
					Compare: compareR,
					Delta:   delta,
				})
			}
		}
	}

	sort.SliceStable(deltas, func(i, j int) bool {
		return math.Abs(deltas[i].Delta) > math.Abs(deltas[j].Delta)
	})
	if len(deltas) > policy.TopCorrelationDeltas {
		deltas = deltas[:policy.TopCorrelationDeltas]
	}
	return deltas, true
}
