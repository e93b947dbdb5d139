package profile

import (
	"math"
	"sort"

	"github.com/prepdeck/prepdeck/internal/tabular"
)

// numericStats computes the numeric variant of a column profile. It returns
// nil when no value parses as a finite number, so one malformed column
// degrades instead of blocking the rest of the table.
func numericStats(values []string, policy Policy) *NumericStats {
	policy = policy.normalize()

	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := tabular.ParseNumber(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nil
	}

	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	n := len(sorted)
	min := sorted[0]
	max := sorted[n-1]

	var sum float64
	for _, f := range sorted {
		sum += f
	}
	mean := sum / float64(n)

	// Lower-middle element, no interpolation.
	median := sorted[(n-1)/2]

	var sq float64
	for _, f := range sorted {
		d := f - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(n))

	stats := &NumericStats{
		Count:  n,
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: median,
		Std:    std,
	}
	if math.IsNaN(std) || math.IsInf(std, 0) {
		stats.Std = 0
		stats.LowConfidence = true
	}

	stats.Buckets = histogram(sorted, min, max, policy.HistogramBuckets)
	stats.Outliers = countOutliers(sorted, policy.IQRMultiplier)
	return stats
}

// histogram builds equal-width buckets over [min, max]. A constant column
// collapses into the first bucket.
func histogram(sorted []float64, min, max float64, buckets int) []Bucket {
	out := make([]Bucket, buckets)
	width := (max - min) / float64(buckets)
	for i := range out {
		out[i].Low = min + float64(i)*width
		out[i].High = min + float64(i+1)*width
	}
	// Pin the last edge; accumulated float error must not exclude max.
	out[buckets-1].High = max

	for _, f := range sorted {
		idx := 0
		if width > 0 {
			idx = int((f - min) / width)
			if idx >= buckets {
				idx = buckets - 1
			}
		}
		out[idx].Count++
	}
	return out
}

// countOutliers counts values outside the fenced interquartile range. The
// quartiles are the elements at the integer-truncated positions n/4 and
// 3n/4 of the sorted values, not an interpolated quantile estimate.
func countOutliers(sorted []float64, multiplier float64) int {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	q1 := sorted[n/4]
	q3 := sorted[3*n/4]
	iqr := q3 - q1
	low := q1 - multiplier*iqr
	high := q3 + multiplier*iqr

	count := 0
	for _, f := range sorted {
		if f < low || f > high {
			count++
		}
	}
	return count
}

// categoryStats builds the frequency distribution of non-null values. The
// mode is the highest-frequency value, first seen winning ties.
func categoryStats(values []string) *CategoryStats {
	stats := &CategoryStats{Counts: make(map[string]int)}
	for _, v := range values {
		if tabular.IsMissing(v) {
			continue
		}
		if _, seen := stats.Counts[v]; !seen {
			stats.Order = append(stats.Order, v)
		}
		stats.Counts[v]++
	}
	if len(stats.Order) == 0 {
		return nil
	}

	best := -1
	for _, v := range stats.Order {
		if stats.Counts[v] > best {
			best = stats.Counts[v]
			stats.Mode = v
		}
	}
	return stats
}
