// Package infer classifies table columns into semantic kinds and coerces
// their raw text cells in place.
//
// The classifier combines two signals:
//   - Naming heuristics: keyword sets for date-like and money/quantity-like
//     column names.
//   - Value-based coercion attempts over the column's non-missing cells.
//
// All inference is best-effort and must never fail the run. A column that
// resists coercion keeps its raw text and the failure surfaces as a
// non-fatal warning.
package infer

import (
	"strconv"
	"strings"
	"time"

	"salespipe/internal/table"
)

// LowCardinality is the distinct-value count below which a text column is
// treated as categorical rather than free text.
const LowCardinality = 20

// dateKeywords mark columns that should be tried as timestamps.
var dateKeywords = []string{"date", "time", "created", "updated"}

// numericKeywords mark columns that should be coerced to numbers even when
// individual cells fail to parse.
var numericKeywords = []string{"price", "cost", "revenue", "amount", "quantity", "units", "sales"}

// Warning records a non-fatal inference problem on a single column.
type Warning struct {
	Column string
	Msg    string
}

// Schema runs inference over every column of t, coercing cell values in
// place, then drops rows that are missing across all columns.
//
// Classification per column:
//   - name contains a date keyword and every value parses as a timestamp
//     → DateTime (cells become time.Time)
//   - name contains a numeric keyword, or every value parses as a number
//     → Numeric (cells become float64; unparseable cells become missing)
//   - distinct count below LowCardinality → Categorical
//   - otherwise → Unknown (free text)
//
// This is heuristic, not a validated schema: ambiguously named columns may
// be misclassified and the pipeline accepts that.
func Schema(t *table.Table) []Warning {
	var warns []Warning

	for _, c := range t.Columns() {
		name := strings.ToLower(c.Name)

		if containsAny(name, dateKeywords) {
			if coerceDateTime(c) {
				continue
			}
			warns = append(warns, Warning{
				Column: c.Name,
				Msg:    "date-named column has non-timestamp values, kept as text",
			})
		}

		if containsAny(name, numericKeywords) || allNumeric(c) {
			coerceNumeric(c)
			continue
		}

		if c.DistinctCount() < LowCardinality {
			c.Kind = table.Categorical
		} else {
			c.Kind = table.Unknown
		}
	}

	dropEmptyRows(t)
	return warns
}

// coerceDateTime converts every cell to time.Time. It only commits the
// conversion when all non-missing cells parse; a single failure leaves the
// column untouched.
func coerceDateTime(c *table.Column) bool {
	parsed := make([]any, len(c.Values))
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return false
		}
		ts, _, ok := parseTimestampLoose(s)
		if !ok {
			return false
		}
		parsed[i] = ts
	}
	c.Kind = table.DateTime
	c.Values = parsed
	return true
}

// coerceNumeric converts cells to float64. Unparseable cells become missing;
// a cell-level failure never fails the column.
func coerceNumeric(c *table.Column) {
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			// already numeric
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				c.Values[i] = nil
				continue
			}
			c.Values[i] = f
		default:
			c.Values[i] = nil
		}
	}
	c.Kind = table.Numeric
}

// allNumeric reports whether the column has at least one value and every
// non-missing cell parses as a number.
func allNumeric(c *table.Column) bool {
	seen := false
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			seen = true
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
				return false
			}
			seen = true
		default:
			return false
		}
	}
	return seen
}

// dropEmptyRows removes rows where every column is missing. Partially
// missing rows are retained.
func dropEmptyRows(t *table.Table) {
	cols := t.Columns()
	if len(cols) == 0 {
		return
	}
	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		empty := true
		for _, c := range cols {
			if !c.Missing(i) {
				empty = false
				break
			}
		}
		if !empty {
			keep = append(keep, i)
		}
	}
	if len(keep) != t.NumRows() {
		t.KeepRows(keep)
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
}

var tsLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02.01.2006 15:04:05",
}

// parseTimestampLoose tries date layouts first, then timestamp layouts.
// The matched layout is returned for callers that want to report it.
func parseTimestampLoose(s string) (time.Time, string, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	for _, lay := range tsLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}
