package insight

import (
	"math"
	"reflect"
	"testing"
	"time"

	"salespipe/internal/table"
)

func build(t *testing.T, cols []*table.Column) *table.Table {
	t.Helper()
	tbl := table.New("merged")
	for _, c := range cols {
		if err := tbl.AddColumn(c); err != nil {
			t.Fatalf("AddColumn(%s): %v", c.Name, err)
		}
	}
	return tbl
}

// TestAggregateBasicStats verifies row/column counts by inferred kind.
func TestAggregateBasicStats(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "revenue", Kind: table.Numeric, Values: []any{1.0, 2.0}},
		{Name: "region", Kind: table.Categorical, Values: []any{"e", "w"}},
		{Name: "when", Kind: table.DateTime, Values: []any{time.Now(), time.Now()}},
		{Name: "notes", Kind: table.Unknown, Values: []any{"a", "b"}},
	})

	s := Aggregate(tbl)

	want := &BasicStats{Rows: 2, Columns: 4, Numeric: 1, Text: 1, DateTime: 1, Categorical: 1}
	if !reflect.DeepEqual(s.BasicStats, want) {
		t.Fatalf("BasicStats=%+v, want %+v", s.BasicStats, want)
	}
}

// TestFinancialSummary verifies the money-column statistics over
// non-missing values.
func TestFinancialSummary(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "revenue", Kind: table.Numeric, Values: []any{100.0, 200.0, nil}},
		{Name: "qty", Kind: table.Numeric, Values: []any{1.0, 2.0, 3.0}},
	})

	s := Aggregate(tbl)

	// qty is numeric but not money-named, so only revenue is summarized.
	if len(s.Financial) != 1 {
		t.Fatalf("Financial len=%d, want 1", len(s.Financial))
	}
	f := s.Financial[0]
	if f.Column != "revenue" || f.Count != 2 {
		t.Fatalf("Financial[0]=%+v", f)
	}
	if f.Sum != 300 || f.Mean != 150 || f.Median != 150 || f.Min != 100 || f.Max != 200 {
		t.Fatalf("stats=%+v", f)
	}
}

// TestFinancialSummaryAllMissing verifies that an all-missing money column
// yields zero values rather than NaN.
func TestFinancialSummaryAllMissing(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "cost", Kind: table.Numeric, Values: []any{nil, nil}},
	})

	s := Aggregate(tbl)

	if len(s.Financial) != 1 {
		t.Fatalf("Financial len=%d, want 1", len(s.Financial))
	}
	f := s.Financial[0]
	if f.Count != 0 || f.Sum != 0 || f.Mean != 0 || math.IsNaN(f.Mean) {
		t.Fatalf("all-missing stats=%+v", f)
	}
}

// TestCategoricalAnalysis verifies counts, descending order with first-seen
// tie-break, and the top-5 cut.
func TestCategoricalAnalysis(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "region", Kind: table.Categorical, Values: []any{"East", "West", "East"}},
	})

	s := Aggregate(tbl)

	if len(s.Categorical) != 1 {
		t.Fatalf("Categorical len=%d, want 1", len(s.Categorical))
	}
	c := s.Categorical[0]
	if c.Distinct != 2 {
		t.Fatalf("Distinct=%d, want 2", c.Distinct)
	}
	want := []ValueCount{{"East", 2}, {"West", 1}}
	if !reflect.DeepEqual(c.Distribution, want) {
		t.Fatalf("Distribution=%v, want %v", c.Distribution, want)
	}
	if !reflect.DeepEqual(c.Top, want) {
		t.Fatalf("Top=%v, want %v", c.Top, want)
	}
}

func TestCategoricalTopFiveAndTies(t *testing.T) {
	t.Parallel()

	// b and a tie at 2; b was seen first so it stays ahead. Seven distinct
	// values, Top keeps five.
	vals := []any{"b", "a", "b", "a", "c", "d", "e", "f", "g"}
	tbl := build(t, []*table.Column{
		{Name: "cat", Kind: table.Categorical, Values: vals},
	})

	s := Aggregate(tbl)
	c := s.Categorical[0]

	if c.Distinct != 7 || len(c.Distribution) != 7 || len(c.Top) != 5 {
		t.Fatalf("Distinct=%d dist=%d top=%d", c.Distinct, len(c.Distribution), len(c.Top))
	}
	if c.Top[0] != (ValueCount{"b", 2}) || c.Top[1] != (ValueCount{"a", 2}) {
		t.Fatalf("tie order wrong: %v", c.Top[:2])
	}
}

// TestTimeAnalysis verifies daily bucketing, zero-filled gap days, and
// earliest-day tie-breaking.
func TestTimeAnalysis(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	tbl := build(t, []*table.Column{
		{Name: "order_time", Kind: table.DateTime, Values: []any{
			day(1).Add(9 * time.Hour), day(1).Add(17 * time.Hour), day(4),
		}},
		{Name: "sales", Kind: table.Numeric, Values: []any{10.0, 20.0, 40.0}},
	})

	s := Aggregate(tbl)

	ta := s.TimeAnalysis
	if ta == nil {
		t.Fatalf("TimeAnalysis absent")
	}
	if ta.DateColumn != "order_time" || ta.ValueColumn != "sales" {
		t.Fatalf("columns=(%s,%s)", ta.DateColumn, ta.ValueColumn)
	}

	// Jan 1 sums to 30, Jan 2 and 3 are zero-fill, Jan 4 is 40.
	wantDaily := []DayTotal{
		{day(1), 30}, {day(2), 0}, {day(3), 0}, {day(4), 40},
	}
	if len(ta.Daily) != len(wantDaily) {
		t.Fatalf("Daily=%v, want %v", ta.Daily, wantDaily)
	}
	for i, w := range wantDaily {
		if !ta.Daily[i].Day.Equal(w.Day) || ta.Daily[i].Total != w.Total {
			t.Fatalf("Daily[%d]=%v, want %v", i, ta.Daily[i], w)
		}
	}
	if ta.DailyMean != 17.5 {
		t.Fatalf("DailyMean=%v, want 17.5", ta.DailyMean)
	}
	if !ta.BestDay.Equal(day(4)) || ta.BestTotal != 40 {
		t.Fatalf("Best=(%v,%v)", ta.BestDay, ta.BestTotal)
	}
	// Two zero days tie for worst; the earliest wins.
	if !ta.WorstDay.Equal(day(2)) || ta.WorstTotal != 0 {
		t.Fatalf("Worst=(%v,%v)", ta.WorstDay, ta.WorstTotal)
	}
}

func TestTimeAnalysisAbsentWithoutDates(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "sales", Kind: table.Numeric, Values: []any{1.0}},
	})
	if s := Aggregate(tbl); s.TimeAnalysis != nil {
		t.Fatalf("TimeAnalysis=%+v, want nil", s.TimeAnalysis)
	}
}

// TestCorrelations verifies the strong-pair threshold and pairwise-complete
// row selection.
func TestCorrelations(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "a", Kind: table.Numeric, Values: []any{1.0, 2.0, 3.0, 4.0}},
		{Name: "b", Kind: table.Numeric, Values: []any{2.0, 4.0, 6.0, 8.0}},
		{Name: "c", Kind: table.Numeric, Values: []any{5.0, -3.0, 4.0, -1.0}},
	})

	s := Aggregate(tbl)

	var found *Correlation
	for i := range s.Correlations {
		if s.Correlations[i].Col1 == "a" && s.Correlations[i].Col2 == "b" {
			found = &s.Correlations[i]
		}
	}
	if found == nil {
		t.Fatalf("perfect pair a/b not reported: %v", s.Correlations)
	}
	if math.Abs(found.Coefficient-1) > 1e-9 {
		t.Fatalf("Coefficient=%v, want 1", found.Coefficient)
	}
}

func TestCorrelationsExcludeWeakAndConstant(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "a", Kind: table.Numeric, Values: []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}},
		{Name: "noise", Kind: table.Numeric, Values: []any{3.0, -7.0, 5.0, 0.0, -2.0, 4.0}},
		{Name: "flat", Kind: table.Numeric, Values: []any{1.0, 1.0, 1.0, 1.0, 1.0, 1.0}},
	})

	s := Aggregate(tbl)

	for _, c := range s.Correlations {
		if c.Col1 == "flat" || c.Col2 == "flat" {
			t.Fatalf("constant column reported: %+v", c)
		}
		if math.Abs(c.Coefficient) <= strongCorrelation {
			t.Fatalf("weak pair reported: %+v", c)
		}
	}
}

// TestCorrelationMatrixSymmetry verifies the full matrix used by the
// dashboard heatmap.
func TestCorrelationMatrixSymmetry(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "a", Kind: table.Numeric, Values: []any{1.0, 2.0, 3.0}},
		{Name: "b", Kind: table.Numeric, Values: []any{3.0, 1.0, 2.0}},
	})

	names, m := CorrelationMatrix(tbl)

	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Fatalf("names=%v", names)
	}
	if m[0][0] != 1 || m[1][1] != 1 {
		t.Fatalf("diagonal=%v,%v, want 1,1", m[0][0], m[1][1])
	}
	if m[0][1] != m[1][0] {
		t.Fatalf("matrix not symmetric: %v vs %v", m[0][1], m[1][0])
	}
}

// TestAggregatePure verifies Aggregate does not mutate its input and is
// stable across calls.
func TestAggregatePure(t *testing.T) {
	t.Parallel()

	tbl := build(t, []*table.Column{
		{Name: "revenue", Kind: table.Numeric, Values: []any{100.0, 200.0}},
		{Name: "region", Kind: table.Categorical, Values: []any{"e", "w"}},
	})

	before := make([]any, 2)
	copy(before, tbl.Columns()[0].Values)

	s1 := Aggregate(tbl)
	s2 := Aggregate(tbl)

	if !reflect.DeepEqual(s1, s2) {
		t.Fatalf("Aggregate not stable across calls")
	}
	if !reflect.DeepEqual(tbl.Columns()[0].Values, before) {
		t.Fatalf("Aggregate mutated input")
	}
}
