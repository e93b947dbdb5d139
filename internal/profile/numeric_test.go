package profile

import (
	"math"
	"testing"
)

func TestNumericStatsBasics(t *testing.T) {
	stats := numericStats([]string{"2", "4", "4", "4", "5", "5", "7", "9"}, DefaultPolicy())
	if stats == nil {
		t.Fatal("numericStats() returned nil")
	}

	if stats.Min != 2 || stats.Max != 9 {
		t.Errorf("min/max = %v/%v, want 2/9", stats.Min, stats.Max)
	}
	if stats.Mean != 5 {
		t.Errorf("mean = %v, want 5", stats.Mean)
	}
	// Population standard deviation of this classic sample is exactly 2.
	if stats.Std != 2 {
		t.Errorf("std = %v, want 2", stats.Std)
	}
	// Lower-middle of 8 sorted values is index 3.
	if stats.Median != 4 {
		t.Errorf("median = %v, want 4", stats.Median)
	}
}

func TestNumericStatsMedianLowerMiddle(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   float64
	}{
		{name: "odd count", values: []string{"5", "3", "7", "2", "9"}, want: 5},
		{name: "even count takes lower middle", values: []string{"1", "2", "3", "4"}, want: 2},
		{name: "single value", values: []string{"8"}, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := numericStats(tt.values, DefaultPolicy())
			if stats == nil {
				t.Fatal("numericStats() returned nil")
			}
			if stats.Median != tt.want {
				t.Errorf("median = %v, want %v", stats.Median, tt.want)
			}
		})
	}
}

func TestNumericStatsBounds(t *testing.T) {
	// min ≤ median ≤ max and min ≤ mean ≤ max for any non-empty column.
	columns := [][]string{
		{"1", "2", "3", "4", "1000"},
		{"-5", "-1", "0", "2", "7", "7"},
		{"3.14"},
		{"0", "0", "0"},
	}

	for _, values := range columns {
		stats := numericStats(values, DefaultPolicy())
		if stats == nil {
			t.Fatalf("numericStats(%v) returned nil", values)
		}
		if stats.Median < stats.Min || stats.Median > stats.Max {
			t.Errorf("median %v outside [%v, %v]", stats.Median, stats.Min, stats.Max)
		}
		if stats.Mean < stats.Min || stats.Mean > stats.Max {
			t.Errorf("mean %v outside [%v, %v]", stats.Mean, stats.Min, stats.Max)
		}
	}
}

func TestNumericStatsOutliers(t *testing.T) {
	// Index-truncated quartiles: q1 = sorted[5/4] = 2, q3 = sorted[15/4] = 4,
	// fences [-1, 7]; exactly "1000" falls outside.
	stats := numericStats([]string{"1", "2", "3", "4", "1000"}, DefaultPolicy())
	if stats == nil {
		t.Fatal("numericStats() returned nil")
	}
	if stats.Outliers != 1 {
		t.Errorf("outliers = %d, want 1", stats.Outliers)
	}
}

func TestNumericStatsHistogram(t *testing.T) {
	stats := numericStats([]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "10"}, DefaultPolicy())
	if stats == nil {
		t.Fatal("numericStats() returned nil")
	}

	if len(stats.Buckets) != 5 {
		t.Fatalf("buckets = %d, want 5", len(stats.Buckets))
	}

	total := 0
	for _, b := range stats.Buckets {
		total += b.Count
	}
	if total != stats.Count {
		t.Errorf("bucket counts sum to %d, want %d (no value may fall out)", total, stats.Count)
	}

	// The maximum must land in the last bucket, not overflow past it.
	if stats.Buckets[4].Count == 0 {
		t.Error("last bucket empty; max value overflowed the histogram")
	}
	if stats.Buckets[0].Low != stats.Min || stats.Buckets[4].High != stats.Max {
		t.Errorf("histogram range [%v, %v], want [%v, %v]",
			stats.Buckets[0].Low, stats.Buckets[4].High, stats.Min, stats.Max)
	}
}

func TestNumericStatsConstantColumn(t *testing.T) {
	stats := numericStats([]string{"5", "5", "5", "5"}, DefaultPolicy())
	if stats == nil {
		t.Fatal("numericStats() returned nil")
	}
	if stats.Std != 0 {
		t.Errorf("std = %v, want 0", stats.Std)
	}
	if math.IsNaN(stats.Mean) {
		t.Error("mean is NaN")
	}
	if stats.Buckets[0].Count != 4 {
		t.Errorf("constant column: first bucket = %d, want 4", stats.Buckets[0].Count)
	}
	if stats.Outliers != 0 {
		t.Errorf("outliers = %d, want 0", stats.Outliers)
	}
}

func TestNumericStatsUnparseable(t *testing.T) {
	if got := numericStats([]string{"a", "b", ""}, DefaultPolicy()); got != nil {
		t.Errorf("numericStats() = %+v, want nil for column without numbers", got)
	}
}

func TestCategoryStats(t *testing.T) {
	stats := categoryStats([]string{"b", "a", "b", "", "a", "c", "b"})
	if stats == nil {
		t.Fatal("categoryStats() returned nil")
	}

	if stats.Counts["b"] != 3 || stats.Counts["a"] != 2 || stats.Counts["c"] != 1 {
		t.Errorf("counts = %v", stats.Counts)
	}
	if stats.Mode != "b" {
		t.Errorf("mode = %q, want %q", stats.Mode, "b")
	}
	if len(stats.Order) != 3 || stats.Order[0] != "b" || stats.Order[1] != "a" {
		t.Errorf("order = %v, want first-seen order [b a c]", stats.Order)
	}
}

func TestCategoryStatsModeTieFirstSeen(t *testing.T) {
	stats := categoryStats([]string{"x", "y", "y", "x"})
	if stats == nil {
		t.Fatal("categoryStats() returned nil")
	}
	if stats.Mode != "x" {
		t.Errorf("mode = %q, want %q (first seen wins ties)", stats.Mode, "x")
	}
}
