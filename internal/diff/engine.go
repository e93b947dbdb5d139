package diff

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/prepdeck/prepdeck/internal/profile"
	"github.com/prepdeck/prepdeck/internal/tabular"
)

// State is the lifecycle of a Pager.
type State string

const (
	StateIdle      State = "idle"
	StateComputing State = "computing"
	StateReady     State = "ready"
)

// Input is one (base, compare) pair: the two immutable profiles plus the raw
// rows they were built from. The engine has no other dependency on the
// profiling pipeline.
type Input struct {
	Base        *profile.DatasetProfile
	Compare     *profile.DatasetProfile
	BaseRows    [][]string
	CompareRows [][]string

	// IDColumn optionally names a stable identifier column. When it
	// exists on both sides with unique non-empty values, rows align by
	// that key instead of by position. Left empty, identity is ordinal:
	// a plain "id" column does NOT opt a dataset in, because consumers
	// depend on positional diff output staying stable.
	IDColumn string
}

// Pager computes a diff one page at a time. Callers pump Next until it
// returns false, then read Result. Each Next call does at most one page of
// row work, so a host loop can interleave other work between calls; there is
// no internal goroutine and no cancellation of a page in flight.
type Pager struct {
	policy Policy
	state  State
	in     Input

	columns []pairedColumn
	aligned []alignedRow
	stride  int

	cursor  int
	rows    []Row
	changed map[string]int
	summary Summary
	result  *Result
}

// pairedColumn is a column present in both versions, with its cell index on
// each side.
type pairedColumn struct {
	name       string
	baseIndex  int
	compareIdx int
}

// alignedRow pairs a base row with a compare row under one identity.
type alignedRow struct {
	id      string
	base    []string // nil when the row only exists in compare
	compare []string // nil when the row only exists in base
}

// New prepares a Pager for the pair. The returned pager is idle until the
// first Next call.
func New(in Input, policy Policy) *Pager {
	return &Pager{
		policy:  policy.normalize(),
		state:   StateIdle,
		in:      in,
		changed: make(map[string]int),
	}
}

// State returns the pager lifecycle state.
func (p *Pager) State() State {
	return p.state
}

// Result returns the computed diff, or nil before the pager is ready.
func (p *Pager) Result() *Result {
	if p.state != StateReady {
		return nil
	}
	return p.result
}

// Next performs one page of work. It returns true while more work remains.
func (p *Pager) Next() bool {
	switch p.state {
	case StateReady:
		return false
	case StateIdle:
		if p.in.Base == nil || p.in.Compare == nil {
			p.finish(&Result{
				Unavailable:       true,
				UnavailableReason: "both versions must be profiled before diffing",
			})
			return false
		}
		p.columns = pairColumns(p.in.Base, p.in.Compare)
		p.aligned = alignRows(p.in)
		p.stride = 1
		if n := len(p.aligned); n > p.policy.MaxStatSamples {
			p.stride = (n + p.policy.MaxStatSamples - 1) / p.policy.MaxStatSamples
		}
		p.state = StateComputing
		return true
	}

	// One page of aligned rows.
	end := p.cursor + p.policy.PageSize
	if end > len(p.aligned) {
		end = len(p.aligned)
	}
	for ; p.cursor < end; p.cursor++ {
		p.processRow(p.cursor)
	}
	if p.cursor < len(p.aligned) {
		return true
	}

	// Row work done; aggregation is cheap enough to finish in this call.
	p.assemble()
	return false
}

// processRow classifies one aligned row and records per-column cell changes.
func (p *Pager) processRow(i int) {
	ar := p.aligned[i]
	row := Row{ID: ar.id, Base: ar.base, Compare: ar.compare}

	switch {
	case ar.base == nil:
		row.Status = StatusAdded
		p.summary.Added++
	case ar.compare == nil:
		row.Status = StatusRemoved
		p.summary.Removed++
	default:
		for _, col := range p.columns {
			if !cellChanged(ar.base[col.baseIndex], ar.compare[col.compareIdx], p.policy.NumericTolerance) {
				continue
			}
			row.ChangedColumns = append(row.ChangedColumns, col.name)
			if i%p.stride == 0 {
				p.changed[col.name]++
			}
		}
		if len(row.ChangedColumns) > 0 {
			row.Status = StatusModified
			p.summary.Modified++
		} else {
			row.Status = StatusUnchanged
			p.summary.Unchanged++
		}
	}

	p.rows = append(p.rows, row)
}

// assemble finishes the result: display sort, column aggregation,
// correlation deltas.
func (p *Pager) assemble() {
	res := &Result{
		Rows:    p.rows,
		Summary: p.summary,
		Sampled: p.stride > 1,
	}

	sortRows(res.Rows)

	res.Columns = compareColumns(p.in.Base, p.in.Compare, p.columns, p.changed, p.policy)

	deltas, ok := correlationDeltas(p.in.Base.Correlation, p.in.Compare.Correlation, p.policy)
	res.CorrelationDeltas = deltas
	res.CorrelationUnavailable = !ok

	p.finish(res)
}

func (p *Pager) finish(res *Result) {
	p.result = res
	p.state = StateReady
}

// Compute drains a pager in one call, for callers without a cooperative
// scheduling loop (the CLI, tests).
func Compute(in Input, policy Policy) *Result {
	p := New(in, policy)
	for p.Next() {
	}
	return p.Result()
}

// pairColumns intersects the two column name lists after trimming, keeping
// base order. Only the first occurrence of a duplicated name participates.
func pairColumns(base, compare *profile.DatasetProfile) []pairedColumn {
	compareIdx := make(map[string]int)
	for i, name := range compare.ColumnNames {
		key := strings.TrimSpace(name)
		if _, ok := compareIdx[key]; !ok {
			compareIdx[key] = i
		}
	}

	var cols []pairedColumn
	seen := make(map[string]struct{})
	for i, name := range base.ColumnNames {
		key := strings.TrimSpace(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if j, ok := compareIdx[key]; ok {
			cols = append(cols, pairedColumn{name: key, baseIndex: i, compareIdx: j})
		}
	}
	return cols
}

// alignRows builds the aligned row list. Identity defaults to the ordinal
// index; a designated stable id column is preferred when it exists on both
// sides with unique values.
func alignRows(in Input) []alignedRow {
	if in.IDColumn != "" {
		if baseIdx, compareIdx, ok := stableIDColumn(in); ok {
			return alignByKey(in, baseIdx, compareIdx)
		}
	}
	return alignByPosition(in)
}

func alignByPosition(in Input) []alignedRow {
	n := len(in.BaseRows)
	if len(in.CompareRows) > n {
		n = len(in.CompareRows)
	}
	out := make([]alignedRow, 0, n)
	for i := 0; i < n; i++ {
		ar := alignedRow{id: fmt.Sprintf("row_%d", i)}
		if i < len(in.BaseRows) {
			ar.base = in.BaseRows[i]
		}
		if i < len(in.CompareRows) {
			ar.compare = in.CompareRows[i]
		}
		out = append(out, ar)
	}
	return out
}

func alignByKey(in Input, baseIdx, compareIdx int) []alignedRow {
	compareByKey := make(map[string][]string, len(in.CompareRows))
	compareOrder := make([]string, 0, len(in.CompareRows))
	for _, row := range in.CompareRows {
		key := strings.TrimSpace(row[compareIdx])
		compareByKey[key] = row
		compareOrder = append(compareOrder, key)
	}

	out := make([]alignedRow, 0, len(in.BaseRows))
	seen := make(map[string]struct{}, len(in.BaseRows))
	for _, row := range in.BaseRows {
		key := strings.TrimSpace(row[baseIdx])
		seen[key] = struct{}{}
		out = append(out, alignedRow{id: key, base: row, compare: compareByKey[key]})
	}
	for _, key := range compareOrder {
		if _, ok := seen[key]; !ok {
			out = append(out, alignedRow{id: key, compare: compareByKey[key]})
		}
	}
	return out
}

// stableIDColumn resolves the designated id column on both sides and checks
// its values are unique and non-empty within each version.
func stableIDColumn(in Input) (baseIdx, compareIdx int, ok bool) {
	baseIdx = findColumn(in.Base.ColumnNames, in.IDColumn)
	compareIdx = findColumn(in.Compare.ColumnNames, in.IDColumn)
	if baseIdx < 0 || compareIdx < 0 {
		return 0, 0, false
	}
	if !uniqueColumn(in.BaseRows, baseIdx) || !uniqueColumn(in.CompareRows, compareIdx) {
		return 0, 0, false
	}
	return baseIdx, compareIdx, true
}

func findColumn(names []string, target string) int {
	for i, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func uniqueColumn(rows [][]string, idx int) bool {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := strings.TrimSpace(row[idx])
		if key == "" {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// cellChanged compares two cells. Values are trimmed first, absorbing
// whitespace and line-ending noise from re-serialized files. When both sides
// parse as finite numbers the cells only count as changed at or beyond the
// tolerance; otherwise any post-trim inequality is a change.
func cellChanged(base, compare string, tolerance float64) bool {
	b := strings.TrimSpace(base)
	c := strings.TrimSpace(compare)

	bf, bok := tabular.ParseNumber(b)
	cf, cok := tabular.ParseNumber(c)
	if bok && cok {
		d := bf - cf
		if d < 0 {
			d = -d
		}
		return d >= tolerance
	}
	return b != c
}

// statusRank orders statuses for display: modified, added, removed,
// unchanged.
func statusRank(s RowStatus) int {
	switch s {
	case StatusModified:
		return 0
	case StatusAdded:
		return 1
	case StatusRemoved:
		return 2
	default:
		return 3
	}
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := statusRank(rows[i].Status), statusRank(rows[j].Status)
		if ri != rj {
			return ri < rj
		}
		return idLess(rows[i].ID, rows[j].ID)
	})
}

// idLess orders row ids ascending. Positional ids compare by ordinal so
// row_10 sorts after row_2; anything else compares lexicographically.
func idLess(a, b string) bool {
	if ai, aok := positionalIndex(a); aok {
		if bi, bok := positionalIndex(b); bok {
			return ai < bi
		}
	}
	return a < b
}

func positionalIndex(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "row_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
