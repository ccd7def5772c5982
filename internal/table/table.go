// Package table implements the in-memory tabular value shared by every
// ingester and consumed by inference, merging, and aggregation.
//
// A Table is an ordered set of named columns. All columns share the same row
// count and rows are positionally aligned: row i of every column describes
// the same logical record.
//
// Design constraints:
//   - Column names are unique within a table.
//   - Missing values are representable per cell (nil).
//   - Column kind is inferred once after load and is immutable afterwards.
package table

import (
	"fmt"
	"time"
)

// Kind is the inferred semantic kind of a column.
type Kind int

const (
	Unknown Kind = iota
	Numeric
	DateTime
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case DateTime:
		return "datetime"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a named sequence of optional values.
//
// Cell representation by kind:
//   - Numeric:     float64
//   - DateTime:    time.Time
//   - Categorical: string
//   - Unknown:     string (free text)
//
// nil always means missing.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Float returns the cell at row i as a float64.
// ok is false for missing cells and for non-numeric cells.
func (c *Column) Float(i int) (float64, bool) {
	if i < 0 || i >= len(c.Values) || c.Values[i] == nil {
		return 0, false
	}
	f, ok := c.Values[i].(float64)
	return f, ok
}

// Time returns the cell at row i as a time.Time.
func (c *Column) Time(i int) (time.Time, bool) {
	if i < 0 || i >= len(c.Values) || c.Values[i] == nil {
		return time.Time{}, false
	}
	t, ok := c.Values[i].(time.Time)
	return t, ok
}

// Text returns the cell at row i rendered as a string.
// ok is false for missing cells.
func (c *Column) Text(i int) (string, bool) {
	if i < 0 || i >= len(c.Values) || c.Values[i] == nil {
		return "", false
	}
	switch v := c.Values[i].(type) {
	case string:
		return v, true
	case float64:
		return trimFloat(v), true
	case time.Time:
		return v.Format("2006-01-02 15:04:05"), true
	default:
		return fmt.Sprint(v), true
	}
}

// Missing reports whether the cell at row i is absent.
func (c *Column) Missing(i int) bool {
	return i < 0 || i >= len(c.Values) || c.Values[i] == nil
}

// Floats returns all non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// DistinctCount counts distinct non-missing values.
// Values are compared by their Text rendering.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for i := range c.Values {
		if s, ok := c.Text(i); ok {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}

// Table is an ordered sequence of named columns sharing one row count.
type Table struct {
	Name string

	cols   []*Column
	byName map[string]int
	rows   int
}

// New returns an empty table with the given logical name.
func New(name string) *Table {
	return &Table{Name: name, byName: make(map[string]int)}
}

// AddColumn appends a column. The first column fixes the table's row count;
// later columns must match it. Duplicate names are rejected.
func (t *Table) AddColumn(c *Column) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("table %s: column must have a name", t.Name)
	}
	if _, exists := t.byName[c.Name]; exists {
		return fmt.Errorf("table %s: duplicate column %q", t.Name, c.Name)
	}
	if len(t.cols) > 0 && len(c.Values) != t.rows {
		return fmt.Errorf("table %s: column %q has %d rows, want %d", t.Name, c.Name, len(c.Values), t.rows)
	}
	if len(t.cols) == 0 {
		t.rows = len(c.Values)
	}
	t.byName[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// FromRows builds a table of raw text columns from a header and aligned
// string rows. Empty cells become missing. Rows whose width does not match
// the header are skipped (ingest is best-effort, mirroring sampling).
func FromRows(name string, headers []string, rows [][]string) (*Table, error) {
	t := New(name)
	cells := make([][]any, len(headers))
	for _, r := range rows {
		if len(r) != len(headers) {
			continue
		}
		for i, v := range r {
			if v == "" {
				cells[i] = append(cells[i], nil)
			} else {
				cells[i] = append(cells[i], v)
			}
		}
	}
	for i, h := range headers {
		vals := cells[i]
		if vals == nil {
			vals = make([]any, 0)
		}
		if err := t.AddColumn(&Column{Name: h, Kind: Unknown, Values: vals}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order. The slice is shared, not copied.
func (t *Table) Columns() []*Column { return t.cols }

// Column returns the named column, or false when absent.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// ColumnNames returns the column names in column order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// KeepRows retains exactly the rows whose index appears in keep (row order
// preserved) and drops the rest from every column.
func (t *Table) KeepRows(keep []int) {
	for _, c := range t.cols {
		vals := make([]any, 0, len(keep))
		for _, i := range keep {
			vals = append(vals, c.Values[i])
		}
		c.Values = vals
	}
	t.rows = len(keep)
}

func trimFloat(f float64) string {
	// Integral floats print without a decimal point so categorical text built
	// from numeric-looking cells stays stable.
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
