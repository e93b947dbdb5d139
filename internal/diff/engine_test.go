package diff

import (
	"reflect"
	"testing"

	"github.com/prepdeck/prepdeck/internal/profile"
	"github.com/prepdeck/prepdeck/internal/tabular"
)

func profiled(columns []string, rows [][]string) *profile.DatasetProfile {
	return profile.Build("test.csv", &tabular.Table{Columns: columns, Rows: rows}, profile.DefaultPolicy())
}

func inputFor(columns []string, baseRows, compareRows [][]string) Input {
	return Input{
		Base:        profiled(columns, baseRows),
		Compare:     profiled(columns, compareRows),
		BaseRows:    baseRows,
		CompareRows: compareRows,
	}
}

func TestDiffSelfIsNeutral(t *testing.T) {
	rows := [][]string{
		{"1", "10.5", "retail"},
		{"2", "8.25", "wholesale"},
		{"3", "12.0", "retail"},
	}
	res := Compute(inputFor([]string{"id", "amount", "segment"}, rows, rows), DefaultPolicy())

	if res == nil || res.Unavailable {
		t.Fatalf("result = %+v", res)
	}
	if res.Summary.Added != 0 || res.Summary.Removed != 0 || res.Summary.Modified != 0 {
		t.Errorf("summary = %+v, want only unchanged rows", res.Summary)
	}
	if res.Summary.Unchanged != 3 {
		t.Errorf("unchanged = %d, want 3", res.Summary.Unchanged)
	}

	for _, col := range res.Columns {
		if col.MissingDelta != 0 || col.OutlierDelta != 0 || col.ChangedCells != 0 {
			t.Errorf("column %q has nonzero deltas: %+v", col.Name, col)
		}
		if col.Numeric != nil && *col.Numeric != (NumericDelta{}) {
			t.Errorf("column %q numeric deltas = %+v, want zero", col.Name, col.Numeric)
		}
	}
	if len(res.CorrelationDeltas) != 0 {
		t.Errorf("correlation deltas = %v, want none", res.CorrelationDeltas)
	}
}

func TestDiffModifiedCellWithNumericTolerance(t *testing.T) {
	// Row 2's id moves 2 → 3 (delta 1, at the tolerance: changed);
	// "label" is identical on both sides.
	header := []string{"id", "label"}
	base := [][]string{{"1", "a"}, {"2", "b"}}
	compare := [][]string{{"1", "a"}, {"3", "b"}}

	res := Compute(inputFor(header, base, compare), DefaultPolicy())

	if res.Summary.Modified != 1 || res.Summary.Unchanged != 1 {
		t.Fatalf("summary = %+v, want 1 modified / 1 unchanged", res.Summary)
	}

	// Display sort puts the modified row first.
	mod := res.Rows[0]
	if mod.Status != StatusModified || mod.ID != "row_1" {
		t.Fatalf("first row = %+v, want modified row_1", mod)
	}
	if !reflect.DeepEqual(mod.ChangedColumns, []string{"id"}) {
		t.Errorf("changedColumns = %v, want [id]", mod.ChangedColumns)
	}
}

func TestDiffNumericToleranceAbsorbsNoise(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		compare string
		want    bool
	}{
		{name: "sub-tolerance float noise", base: "10.0", compare: "10.4", want: false},
		{name: "at tolerance", base: "10", compare: "11", want: true},
		{name: "above tolerance", base: "10", compare: "12", want: true},
		{name: "whitespace only", base: " x ", compare: "x", want: false},
		{name: "string change", base: "x", compare: "y", want: true},
		{name: "numeric formatting noise", base: "5", compare: "5.00", want: false},
		{name: "one side numeric", base: "5", compare: "five", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellChanged(tt.base, tt.compare, 1); got != tt.want {
				t.Errorf("cellChanged(%q, %q) = %v, want %v", tt.base, tt.compare, got, tt.want)
			}
		})
	}
}

func TestDiffAddedAndRemovedRows(t *testing.T) {
	header := []string{"v"}
	base := [][]string{{"a"}, {"b"}, {"c"}}
	compare := [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}

	res := Compute(inputFor(header, base, compare), DefaultPolicy())
	if res.Summary.Added != 2 || res.Summary.Removed != 0 || res.Summary.Unchanged != 3 {
		t.Errorf("summary = %+v", res.Summary)
	}

	shrunk := Compute(inputFor(header, compare, base), DefaultPolicy())
	if shrunk.Summary.Removed != 2 || shrunk.Summary.Added != 0 {
		t.Errorf("summary = %+v", shrunk.Summary)
	}

	// Added rows carry no base side.
	for _, row := range res.Rows {
		if row.Status == StatusAdded && row.Base != nil {
			t.Errorf("added row %s has base side", row.ID)
		}
	}
}

func TestDiffDisplaySort(t *testing.T) {
	header := []string{"v"}
	base := [][]string{{"same"}, {"old"}, {"same"}, {"gone"}}
	compare := [][]string{{"same"}, {"new"}, {"same"}}

	res := Compute(inputFor(header, base, compare), DefaultPolicy())

	var statuses []RowStatus
	for _, row := range res.Rows {
		statuses = append(statuses, row.Status)
	}
	want := []RowStatus{StatusModified, StatusRemoved, StatusUnchanged, StatusUnchanged}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
}

func TestDiffRowSortOrdinalIDs(t *testing.T) {
	// Positional ids sort by ordinal within a status group: row_2 before
	// row_11, not the lexicographic row_11 < row_2.
	header := []string{"id", "amount"}
	var base, compare [][]string
	for i := 0; i < 12; i++ {
		base = append(base, []string{"x", "10"})
		compare = append(compare, []string{"x", "10"})
	}
	compare[2] = []string{"x", "50"}
	compare[11] = []string{"x", "50"}

	res := Compute(inputFor(header, base, compare), DefaultPolicy())

	if res.Summary.Modified != 2 {
		t.Fatalf("summary = %+v, want 2 modified", res.Summary)
	}
	if res.Rows[0].ID != "row_2" || res.Rows[1].ID != "row_11" {
		t.Errorf("modified order = %s, %s, want row_2, row_11", res.Rows[0].ID, res.Rows[1].ID)
	}
	if got := res.Rows[len(res.Rows)-1].ID; got != "row_10" {
		t.Errorf("last unchanged row = %s, want row_10", got)
	}
}

func TestDiffKeyedAlignment(t *testing.T) {
	header := []string{"id", "label"}
	base := [][]string{{"1", "a"}, {"2", "b"}}
	compare := [][]string{{"1", "a"}, {"3", "b"}}

	in := inputFor(header, base, compare)
	in.IDColumn = "id"
	res := Compute(in, DefaultPolicy())

	// Under keyed identity the same rows reconcile differently:
	// id 2 disappears and id 3 appears.
	if res.Summary.Added != 1 || res.Summary.Removed != 1 || res.Summary.Modified != 0 {
		t.Errorf("summary = %+v, want 1 added / 1 removed", res.Summary)
	}
}

func TestDiffKeyedAlignmentFallsBackOnDuplicates(t *testing.T) {
	header := []string{"id", "label"}
	base := [][]string{{"1", "a"}, {"1", "b"}}
	compare := [][]string{{"1", "a"}, {"1", "b"}}

	in := inputFor(header, base, compare)
	in.IDColumn = "id"
	res := Compute(in, DefaultPolicy())

	// Duplicate keys make the id column unusable; positional identity
	// still yields a clean self-diff.
	if res.Summary.Unchanged != 2 {
		t.Errorf("summary = %+v, want 2 unchanged", res.Summary)
	}
	if res.Rows[0].ID != "row_0" {
		t.Errorf("row id = %q, want positional ids", res.Rows[0].ID)
	}
}

func TestDiffUnavailableWithoutProfiles(t *testing.T) {
	res := Compute(Input{}, DefaultPolicy())
	if !res.Unavailable {
		t.Fatal("Unavailable = false, want true for missing profiles")
	}
	if len(res.Rows) != 0 || len(res.Columns) != 0 {
		t.Error("unavailable result must be empty")
	}
}

func TestPagerLifecycle(t *testing.T) {
	policy := DefaultPolicy()
	policy.PageSize = 2

	var rows [][]string
	for i := 0; i < 7; i++ {
		rows = append(rows, []string{string(rune('a' + i))})
	}
	p := New(inputFor([]string{"v"}, rows, rows), policy)

	if p.State() != StateIdle {
		t.Fatalf("state = %q, want idle", p.State())
	}
	if p.Result() != nil {
		t.Fatal("Result() before completion must be nil")
	}

	steps := 0
	for p.Next() {
		steps++
		if p.State() != StateComputing {
			t.Fatalf("state = %q mid-run, want computing", p.State())
		}
	}

	// Steps counts calls that reported more work: the alignment step
	// plus three of the four row pages; the final page call assembles the
	// result and returns false.
	if steps != 4 {
		t.Errorf("steps = %d, want 4", steps)
	}
	if p.State() != StateReady {
		t.Errorf("state = %q, want ready", p.State())
	}
	if res := p.Result(); res == nil || res.Summary.Unchanged != 7 {
		t.Errorf("result = %+v", res)
	}
}

func TestDiffSampledCellStats(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxStatSamples = 10

	var base, compare [][]string
	for i := 0; i < 100; i++ {
		base = append(base, []string{"x"})
		compare = append(compare, []string{"y"})
	}

	res := Compute(inputFor([]string{"v"}, base, compare), policy)
	if !res.Sampled {
		t.Fatal("Sampled = false, want true above MaxStatSamples")
	}
	// The row table itself is never sampled.
	if len(res.Rows) != 100 || res.Summary.Modified != 100 {
		t.Errorf("rows = %d modified = %d, want full row table", len(res.Rows), res.Summary.Modified)
	}
	// Cell stats cover every 10th row, starting at index 0.
	if res.Columns[0].ChangedCells != 10 {
		t.Errorf("changedCells = %d, want 10", res.Columns[0].ChangedCells)
	}
}
