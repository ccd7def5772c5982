package table

import (
	"reflect"
	"testing"
	"time"
)

// TestFromRows verifies header alignment, missing-cell handling, and the
// skip policy for malformed rows.
func TestFromRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  []string
		rows     [][]string
		wantRows int
		wantCol  map[string][]any
	}{
		{
			name:     "aligned_rows",
			headers:  []string{"a", "b"},
			rows:     [][]string{{"1", "x"}, {"2", "y"}},
			wantRows: 2,
			wantCol:  map[string][]any{"a": {"1", "2"}, "b": {"x", "y"}},
		},
		{
			name:     "empty_cell_becomes_missing",
			headers:  []string{"a", "b"},
			rows:     [][]string{{"1", ""}},
			wantRows: 1,
			wantCol:  map[string][]any{"b": {nil}},
		},
		{
			name:     "misaligned_row_skipped",
			headers:  []string{"a", "b"},
			rows:     [][]string{{"1", "x"}, {"only-one"}, {"2", "y", "extra"}},
			wantRows: 1,
			wantCol:  map[string][]any{"a": {"1"}},
		},
		{
			name:     "no_rows",
			headers:  []string{"a"},
			rows:     nil,
			wantRows: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl, err := FromRows("t", tc.headers, tc.rows)
			if err != nil {
				t.Fatalf("FromRows() err=%v, want nil", err)
			}
			if tbl.NumRows() != tc.wantRows {
				t.Fatalf("NumRows()=%d, want %d", tbl.NumRows(), tc.wantRows)
			}
			if tbl.NumCols() != len(tc.headers) {
				t.Fatalf("NumCols()=%d, want %d", tbl.NumCols(), len(tc.headers))
			}
			for name, want := range tc.wantCol {
				c, ok := tbl.Column(name)
				if !ok {
					t.Fatalf("column %q missing", name)
				}
				if !reflect.DeepEqual(c.Values, want) {
					t.Fatalf("column %q values=%v, want %v", name, c.Values, want)
				}
			}
		})
	}
}

// TestAddColumn verifies uniqueness and row-count enforcement.
func TestAddColumn(t *testing.T) {
	t.Parallel()

	tbl := New("t")
	if err := tbl.AddColumn(&Column{Name: "a", Values: []any{1.0, 2.0}}); err != nil {
		t.Fatalf("AddColumn(a) err=%v", err)
	}

	if err := tbl.AddColumn(&Column{Name: "a", Values: []any{3.0, 4.0}}); err == nil {
		t.Fatalf("duplicate column accepted")
	}
	if err := tbl.AddColumn(&Column{Name: "b", Values: []any{1.0}}); err == nil {
		t.Fatalf("row-count mismatch accepted")
	}
	if err := tbl.AddColumn(&Column{Name: ""}); err == nil {
		t.Fatalf("empty name accepted")
	}
	if err := tbl.AddColumn(&Column{Name: "b", Values: []any{3.0, 4.0}}); err != nil {
		t.Fatalf("AddColumn(b) err=%v", err)
	}
	if got := tbl.ColumnNames(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("ColumnNames()=%v", got)
	}
}

// TestColumnText verifies canonical text rendering per cell type.
func TestColumnText(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	c := &Column{Name: "c", Values: []any{"x", 42.0, 42.5, ts, nil}}

	tests := []struct {
		i      int
		want   string
		wantOK bool
	}{
		{0, "x", true},
		{1, "42", true},
		{2, "42.5", true},
		{3, "2024-03-15 10:30:00", true},
		{4, "", false},
		{99, "", false},
	}
	for _, tc := range tests {
		got, ok := c.Text(tc.i)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("Text(%d)=(%q,%v), want (%q,%v)", tc.i, got, ok, tc.want, tc.wantOK)
		}
	}
}

// TestColumnAccessors verifies Float, Time, Floats, and DistinctCount.
func TestColumnAccessors(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &Column{Name: "c", Values: []any{1.5, nil, "text", ts, 1.5}}

	if v, ok := c.Float(0); !ok || v != 1.5 {
		t.Fatalf("Float(0)=(%v,%v)", v, ok)
	}
	if _, ok := c.Float(1); ok {
		t.Fatalf("Float(nil) ok")
	}
	if _, ok := c.Float(2); ok {
		t.Fatalf("Float(text) ok")
	}
	if v, ok := c.Time(3); !ok || !v.Equal(ts) {
		t.Fatalf("Time(3)=(%v,%v)", v, ok)
	}
	if got := c.Floats(); !reflect.DeepEqual(got, []float64{1.5, 1.5}) {
		t.Fatalf("Floats()=%v", got)
	}
	// 1.5, "text", timestamp, 1.5 -> 3 distinct renderings.
	if got := c.DistinctCount(); got != 3 {
		t.Fatalf("DistinctCount()=%d, want 3", got)
	}
}

// TestKeepRows verifies row filtering across all columns.
func TestKeepRows(t *testing.T) {
	t.Parallel()

	tbl := New("t")
	_ = tbl.AddColumn(&Column{Name: "a", Values: []any{"r0", "r1", "r2"}})
	_ = tbl.AddColumn(&Column{Name: "b", Values: []any{0.0, 1.0, 2.0}})

	tbl.KeepRows([]int{0, 2})

	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows()=%d, want 2", tbl.NumRows())
	}
	a, _ := tbl.Column("a")
	if !reflect.DeepEqual(a.Values, []any{"r0", "r2"}) {
		t.Fatalf("a.Values=%v", a.Values)
	}
	b, _ := tbl.Column("b")
	if !reflect.DeepEqual(b.Values, []any{0.0, 2.0}) {
		t.Fatalf("b.Values=%v", b.Values)
	}
}
