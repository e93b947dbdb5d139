// Package diff compares two profiled versions of the same logical dataset.
//
// The engine consumes two independently built DatasetProfiles plus their raw
// rows and produces a row-level table (added/removed/modified/unchanged) and
// column-level statistical deltas. Computation is paged: a Pager does one
// page of row work per Next call so an interactive caller is never blocked
// for more than one page.
//
// Row identity is positional ("row_<i>") unless the caller designates a
// stable identifier column present on both sides; a true reconciliation of
// inserted or reordered rows is out of scope, so an insertion near the top
// of a file reports as a cascade of modified rows. This is a known,
// deliberate limitation.
package diff

import "github.com/prepdeck/prepdeck/internal/profile"

// RowStatus classifies one aligned row pair.
type RowStatus string

const (
	StatusAdded     RowStatus = "added"
	StatusRemoved   RowStatus = "removed"
	StatusModified  RowStatus = "modified"
	StatusUnchanged RowStatus = "unchanged"
)

// Row is one entry of the row-level diff table.
type Row struct {
	ID     string    `json:"id"`
	Status RowStatus `json:"status"`
	// Base is nil for added rows, Compare nil for removed rows.
	Base           []string `json:"base,omitempty"`
	Compare        []string `json:"compare,omitempty"`
	ChangedColumns []string `json:"changedColumns,omitempty"`
}

// NumericDelta reports compare − base for each numeric statistic.
type NumericDelta struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// CategoryShift is a category whose share moved by at least the significance
// threshold, in percentage points (positive means it grew in the compare
// version).
type CategoryShift struct {
	Value string  `json:"value"`
	Delta float64 `json:"delta"`
}

// ColumnComparison aggregates the statistical movement of one column that
// exists in both versions.
type ColumnComparison struct {
	Name         string             `json:"name"`
	Type         profile.ColumnType `json:"type"`
	MissingDelta float64            `json:"missingDelta"`
	OutlierDelta int                `json:"outlierDelta"`
	// DistributionSimilarity is max(0, 1 − Σ|Δcategory%|/100) over the
	// union of category keys; only set for categorical/boolean columns.
	DistributionSimilarity *float64        `json:"distributionSimilarity,omitempty"`
	Numeric                *NumericDelta   `json:"numeric,omitempty"`
	CategoryShifts         []CategoryShift `json:"categoryShifts,omitempty"`
	// ChangedCells counts cell-level changes observed in this column
	// during the row scan (over the strided sample when sampling kicked in).
	ChangedCells int `json:"changedCells"`
}

// CorrelationDelta is a column pair whose correlation moved by more than the
// significance threshold between versions.
type CorrelationDelta struct {
	ColumnA string  `json:"columnA"`
	ColumnB string  `json:"columnB"`
	Base    float64 `json:"base"`
	Compare float64 `json:"compare"`
	Delta   float64 `json:"delta"`
}

// Summary totals the row statuses.
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

// Result is the derived comparison of a (base, compare) version pair. It is
// recomputed on demand and never persisted.
type Result struct {
	Rows              []Row              `json:"rows"`
	Columns           []ColumnComparison `json:"columns"`
	CorrelationDeltas []CorrelationDelta `json:"correlationDeltas,omitempty"`
	Summary           Summary            `json:"summary"`
	// Sampled reports that column-level cell statistics were computed
	// over an evenly strided sample of the aligned rows.
	Sampled bool `json:"sampled,omitempty"`
	// Unavailable is set instead of an error when an input profile is
	// absent; the rest of the result is empty.
	Unavailable       bool   `json:"unavailable,omitempty"`
	UnavailableReason string `json:"unavailableReason,omitempty"`
	// CorrelationUnavailable is set when either side lacks the numeric
	// columns needed for correlation deltas; row and column sections are
	// still produced.
	CorrelationUnavailable bool `json:"correlationUnavailable,omitempty"`
}

// Policy holds the diff thresholds. Defaults are behavioral contract; see
// DefaultPolicy.
type Policy struct {
	// NumericTolerance is the minimum absolute difference for two
	// numeric-parseable cells to count as changed. The default of 1
	// deliberately absorbs floating-point round-trip noise from
	// re-serialized files.
	NumericTolerance float64

	// ShiftSignificance is the minimum category share movement, in
	// percentage points, to surface as a shift.
	ShiftSignificance float64

	// TopCategoryShifts bounds how many shifts are reported per column.
	TopCategoryShifts int

	// CorrelationSignificance is the minimum |Δr| to report.
	CorrelationSignificance float64

	// TopCorrelationDeltas bounds the reported correlation movements.
	TopCorrelationDeltas int

	// PageSize is how many aligned rows one Pager.Next call processes.
	PageSize int

	// MaxStatSamples strides the cell-change statistics when the aligned
	// row count exceeds it. The row table itself is never sampled.
	MaxStatSamples int
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		NumericTolerance:        1,
		ShiftSignificance:       5,
		TopCategoryShifts:       3,
		CorrelationSignificance: 0.1,
		TopCorrelationDeltas:    5,
		PageSize:                500,
		MaxStatSamples:          5000,
	}
}

func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p.NumericTolerance <= 0 {
		p.NumericTolerance = d.NumericTolerance
	}
	if p.ShiftSignificance <= 0 {
		p.ShiftSignificance = d.ShiftSignificance
	}
	if p.TopCategoryShifts <= 0 {
		p.TopCategoryShifts = d.TopCategoryShifts
	}
	if p.CorrelationSignificance <= 0 {
		p.CorrelationSignificance = d.CorrelationSignificance
	}
	if p.TopCorrelationDeltas <= 0 {
		p.TopCorrelationDeltas = d.TopCorrelationDeltas
	}
	if p.PageSize <= 0 {
		p.PageSize = d.PageSize
	}
	if p.MaxStatSamples <= 0 {
		p.MaxStatSamples = d.MaxStatSamples
	}
	return p
}
