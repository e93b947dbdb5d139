package profile

// ColumnType is the inferred semantic type of a column.
type ColumnType string

const (
	TypeNumeric     ColumnType = "numeric"
	TypeBoolean     ColumnType = "boolean"
	TypeDatetime    ColumnType = "datetime"
	TypeCategorical ColumnType = "categorical"
	TypeText        ColumnType = "text"
)

// ColumnProfile is the per-column statistical summary. The shared base
// fields are always populated; exactly the stats variant matching Type is
// non-nil (Numeric for numeric columns, Categories for categorical and
// boolean columns, neither for datetime and text). A numeric column whose
// values all fail to parse carries a nil Numeric rather than failing the
// profile.
type ColumnProfile struct {
	Name           string      `json:"name"`
	Type           ColumnType  `json:"type"`
	UniqueValues   int         `json:"uniqueValues"`
	Missing        int         `json:"missing"`
	MissingPercent float64     `json:"missingPercent"`
	NonNull        int         `json:"nonNull"`
	Numeric        *NumericStats  `json:"numeric,omitempty"`
	Categories     *CategoryStats `json:"categories,omitempty"`
}

// Bucket is one bar of an equal-width histogram over [Low, High).
// The last bucket is closed on both ends so the maximum lands inside it.
type Bucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// NumericStats holds statistics over the parseable numeric values of a
// column.
type NumericStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	// Median is the lower-middle element of the sorted values; no
	// interpolation between the two middles of an even-length column.
	Median float64 `json:"median"`
	// Std is the population standard deviation (divide by n).
	Std      float64  `json:"std"`
	Buckets  []Bucket `json:"buckets"`
	Outliers int      `json:"outliers"`
	// LowConfidence marks statistics where a degenerate computation
	// (zero variance, division by zero) was coerced to 0 instead of NaN.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// CategoryStats holds the value frequency distribution of a categorical or
// boolean column.
type CategoryStats struct {
	// Counts maps each non-null value to its occurrence count.
	Counts map[string]int `json:"counts"`
	// Order lists values in first-seen order; it breaks Mode ties and
	// keeps serialization deterministic.
	Order []string `json:"order"`
	// Mode is the highest-frequency value; first seen wins ties.
	Mode string `json:"mode"`
}

// CorrelationMatrix is a symmetric Pearson correlation matrix over numeric
// columns, indexed by Labels. The diagonal is 1 wherever the column has at
// least one parseable value; entries backed by fewer than the minimum
// number of pairs stay 0.
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
	// LowConfidence marks matrices where at least one entry was coerced
	// to 0 because a variance vanished.
	LowConfidence bool `json:"lowConfidence,omitempty"`
	// Sampled reports that rows were strided to bound the pairwise scan.
	Sampled bool `json:"sampled,omitempty"`
}

// At returns the correlation between the labelled columns, and false when
// either label is not part of the matrix.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, l := range m.Labels {
		if l == a {
			ia = i
		}
		if l == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// DatasetProfile is the immutable computed summary of one ingested file or
// processed version.
type DatasetProfile struct {
	Filename    string          `json:"filename"`
	Columns     []ColumnProfile `json:"columns"`
	ColumnNames []string        `json:"columnNames"`
	RowCount    int             `json:"rowCount"`
	// SampleRows is a bounded prefix of the raw rows kept for preview.
	// It is NOT the dataset: statistics cover the full row set.
	SampleRows    [][]string         `json:"sampleRows"`
	Correlation   *CorrelationMatrix `json:"correlation,omitempty"`
	TotalMissing  int                `json:"totalMissing"`
	DuplicateRows int                `json:"duplicateRows"`
	TypeCounts    map[ColumnType]int `json:"typeCounts"`
}

// Column returns the profile of the named column (trimmed match), or nil.
func (p *DatasetProfile) Column(name string) *ColumnProfile {
	for i := range p.Columns {
		if trimmed(p.Columns[i].Name) == name {
			return &p.Columns[i]
		}
	}
	return nil
}

// NumericColumnNames lists the columns classified numeric, in column order.
func (p *DatasetProfile) NumericColumnNames() []string {
	var names []string
	for _, c := range p.Columns {
		if c.Type == TypeNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}
