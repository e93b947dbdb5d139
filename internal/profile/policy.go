// Package profile infers column types and computes dataset statistics.
//
// The entry point is Build, which turns a parsed tabular.Table into an
// immutable DatasetProfile: per-column type-conditional statistics, a
// Pearson correlation matrix over the numeric columns, duplicate-row
// detection and a bounded preview slice. A profile is never mutated after
// assembly; a new version of a dataset gets a new profile.
package profile

// Policy holds the tunable thresholds of profiling. The defaults are load
// bearing: existing consumers compare outputs across versions, so changing
// them changes observable classification and outlier counts.
type Policy struct {
	// TypeConfidence is the fraction of non-null values that must match a
	// type rule for the column to take that type.
	TypeConfidence float64

	// CategoricalUniqueRatio is the unique/non-null ratio below which a
	// non-typed column counts as categorical rather than free text.
	CategoricalUniqueRatio float64

	// IQRMultiplier scales the interquartile range when bounding outliers.
	IQRMultiplier float64

	// HistogramBuckets is the number of equal-width buckets in a numeric
	// column's distribution.
	HistogramBuckets int

	// MinCorrelationPairs is the minimum number of paired non-missing
	// values required before a correlation is reported; below it the
	// matrix entry stays 0.
	MinCorrelationPairs int

	// MaxCorrelationColumns caps how many numeric columns enter the
	// correlation matrix. The pairwise scan is O(columns² × rows) and is
	// the dominant cost of profiling; the cap keeps wide datasets bounded.
	MaxCorrelationColumns int

	// CorrelationSampleRows strides the row set when it is longer than
	// this, again to bound the pairwise scan. 0 disables sampling.
	CorrelationSampleRows int

	// PreviewRows is how many leading raw rows the profile retains for
	// display. Statistics always cover the full row set.
	PreviewRows int
}

// DefaultPolicy returns the documented default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		TypeConfidence:         0.8,
		CategoricalUniqueRatio: 0.2,
		IQRMultiplier:          1.5,
		HistogramBuckets:       5,
		MinCorrelationPairs:    6,
		MaxCorrelationColumns:  50,
		CorrelationSampleRows:  10000,
		PreviewRows:            100,
	}
}

// normalize fills zero-valued fields with defaults so a partially populated
// Policy (for example from config) still behaves.
func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p.TypeConfidence <= 0 {
		p.TypeConfidence = d.TypeConfidence
	}
	if p.CategoricalUniqueRatio <= 0 {
		p.CategoricalUniqueRatio = d.CategoricalUniqueRatio
	}
	if p.IQRMultiplier <= 0 {
		p.IQRMultiplier = d.IQRMultiplier
	}
	if p.HistogramBuckets <= 0 {
		p.HistogramBuckets = d.HistogramBuckets
	}
	if p.MinCorrelationPairs <= 0 {
		p.MinCorrelationPairs = d.MinCorrelationPairs
	}
	if p.MaxCorrelationColumns <= 0 {
		p.MaxCorrelationColumns = d.MaxCorrelationColumns
	}
	if p.CorrelationSampleRows < 0 {
		p.CorrelationSampleRows = d.CorrelationSampleRows
	}
	if p.PreviewRows <= 0 {
		p.PreviewRows = d.PreviewRows
	}
	return p
}
