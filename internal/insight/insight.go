// Package insight derives summary business metrics from a merged table.
//
// Aggregate is a pure function of its input: no mutation, no I/O, no hidden
// state. Every section is independently optional: a section with no
// qualifying columns is simply absent from the result, never an error.
package insight

import (
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"salespipe/internal/table"
)

// moneyKeywords select the numeric columns treated as financial measures.
var moneyKeywords = []string{"revenue", "sales", "amount", "price", "cost", "total"}

// strongCorrelation is the absolute Pearson threshold above which a pair is
// reported.
const strongCorrelation = 0.7

// Set holds every computed section. Nil / empty sections mean "not
// applicable to this data".
type Set struct {
	BasicStats   *BasicStats
	Financial    []FinancialStats
	Categorical  []CategoricalStats
	TimeAnalysis *TimeAnalysis
	Correlations []Correlation
}

// BasicStats counts rows and columns by inferred kind.
type BasicStats struct {
	Rows        int
	Columns     int
	Numeric     int
	Text        int
	DateTime    int
	Categorical int
}

// FinancialStats summarizes one money-like numeric column over its
// non-missing values. An all-missing column yields zero values rather than
// NaN so downstream rendering never fails.
type FinancialStats struct {
	Column string
	Count  int
	Sum    float64
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// ValueCount is one entry of a categorical distribution.
type ValueCount struct {
	Value string
	Count int
}

// CategoricalStats describes the distribution of a low-cardinality column.
// Distribution is ordered by descending count, ties broken by first-seen
// order so output is deterministic.
type CategoricalStats struct {
	Column       string
	Distinct     int
	Distribution []ValueCount
	Top          []ValueCount
}

// TimeAnalysis reports per-day sums of the first money column bucketed by
// the first datetime column. Days between the first and last observation
// with no rows count as zero-sum days, matching calendar bucketing.
type TimeAnalysis struct {
	DateColumn  string
	ValueColumn string
	DailyMean   float64
	BestDay     time.Time
	BestTotal   float64
	WorstDay    time.Time
	WorstTotal  float64
	Daily       []DayTotal
}

// DayTotal is one calendar day's sum, in day order.
type DayTotal struct {
	Day   time.Time
	Total float64
}

// Correlation is one strongly correlated numeric column pair. The
// coefficient is symmetric, so each unordered pair is reported once with
// the columns in table order.
type Correlation struct {
	Col1        string
	Col2        string
	Coefficient float64
}

// Aggregate computes every applicable section for t.
func Aggregate(t *table.Table) Set {
	var s Set
	s.BasicStats = basicStats(t)

	moneyCols := moneyColumns(t)
	s.Financial = financialSummary(moneyCols)
	s.Categorical = categoricalAnalysis(t)
	s.TimeAnalysis = timeAnalysis(t, moneyCols)
	s.Correlations = correlations(t)
	return s
}

func basicStats(t *table.Table) *BasicStats {
	b := &BasicStats{Rows: t.NumRows(), Columns: t.NumCols()}
	for _, c := range t.Columns() {
		switch c.Kind {
		case table.Numeric:
			b.Numeric++
		case table.DateTime:
			b.DateTime++
		case table.Categorical:
			b.Categorical++
		default:
			b.Text++
		}
	}
	return b
}

// moneyColumns returns numeric columns whose name matches a money keyword,
// in table column order.
func moneyColumns(t *table.Table) []*table.Column {
	var out []*table.Column
	for _, c := range t.Columns() {
		if c.Kind != table.Numeric {
			continue
		}
		name := strings.ToLower(c.Name)
		for _, k := range moneyKeywords {
			if strings.Contains(name, k) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func financialSummary(cols []*table.Column) []FinancialStats {
	out := make([]FinancialStats, 0, len(cols))
	for _, c := range cols {
		vals := c.Floats()
		fs := FinancialStats{Column: c.Name, Count: len(vals)}
		if len(vals) > 0 {
			fs.Sum = sum(vals)
			fs.Mean = stat.Mean(vals, nil)
			fs.Median = median(vals)
			fs.Min, fs.Max = minMax(vals)
		}
		out = append(out, fs)
	}
	return out
}

func categoricalAnalysis(t *table.Table) []CategoricalStats {
	var out []CategoricalStats
	for _, c := range t.Columns() {
		if c.Kind != table.Categorical {
			continue
		}
		counts := make(map[string]int)
		var firstSeen []string
		for i := range c.Values {
			s, ok := c.Text(i)
			if !ok {
				continue
			}
			if _, seen := counts[s]; !seen {
				firstSeen = append(firstSeen, s)
			}
			counts[s]++
		}
		if len(counts) == 0 {
			continue
		}

		dist := make([]ValueCount, 0, len(counts))
		for _, v := range firstSeen {
			dist = append(dist, ValueCount{Value: v, Count: counts[v]})
		}
		// Descending by count; equal counts keep first-seen order.
		sort.SliceStable(dist, func(i, j int) bool { return dist[i].Count > dist[j].Count })

		top := dist
		if len(top) > 5 {
			top = top[:5]
		}
		out = append(out, CategoricalStats{
			Column:       c.Name,
			Distinct:     len(counts),
			Distribution: dist,
			Top:          top,
		})
	}
	return out
}

// timeAnalysis buckets the first money column by calendar day of the first
// datetime column. Absent either column, the section is omitted.
func timeAnalysis(t *table.Table, moneyCols []*table.Column) *TimeAnalysis {
	var dateCol *table.Column
	for _, c := range t.Columns() {
		if c.Kind == table.DateTime {
			dateCol = c
			break
		}
	}
	if dateCol == nil || len(moneyCols) == 0 {
		return nil
	}
	valCol := moneyCols[0]

	sums := make(map[time.Time]float64)
	var minDay, maxDay time.Time
	for i := range dateCol.Values {
		ts, ok := dateCol.Time(i)
		if !ok {
			continue
		}
		day := ts.Truncate(24 * time.Hour)
		if _, exists := sums[day]; !exists {
			if minDay.IsZero() || day.Before(minDay) {
				minDay = day
			}
			if maxDay.IsZero() || day.After(maxDay) {
				maxDay = day
			}
			sums[day] = 0
		}
		if v, ok := valCol.Float(i); ok {
			sums[day] += v
		}
	}
	if len(sums) == 0 {
		return nil
	}

	ta := &TimeAnalysis{DateColumn: dateCol.Name, ValueColumn: valCol.Name}
	var total float64
	days := 0
	first := true
	// Walk the full calendar range so empty days count as zero-sum days.
	for day := minDay; !day.After(maxDay); day = day.Add(24 * time.Hour) {
		v := sums[day]
		ta.Daily = append(ta.Daily, DayTotal{Day: day, Total: v})
		total += v
		days++
		if first || v > ta.BestTotal {
			ta.BestDay, ta.BestTotal = day, v
		}
		if first || v < ta.WorstTotal {
			ta.WorstDay, ta.WorstTotal = day, v
		}
		first = false
	}
	ta.DailyMean = total / float64(days)
	return ta
}

// correlations computes pairwise Pearson coefficients over every unordered
// pair of numeric columns, using only rows where both values are present.
// Pairs with |r| above the threshold are reported; NaN coefficients
// (constant columns) are excluded.
func correlations(t *table.Table) []Correlation {
	var numeric []*table.Column
	for _, c := range t.Columns() {
		if c.Kind == table.Numeric {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) < 2 {
		return nil
	}

	var out []Correlation
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			x, y := pairedValues(numeric[i], numeric[j])
			if len(x) < 2 {
				continue
			}
			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) || math.Abs(r) <= strongCorrelation {
				continue
			}
			out = append(out, Correlation{
				Col1:        numeric[i].Name,
				Col2:        numeric[j].Name,
				Coefficient: r,
			})
		}
	}
	return out
}

// CorrelationMatrix computes the full pairwise Pearson matrix over every
// numeric column, using only rows where both values are present. Undefined
// coefficients (constant or empty pairs) come back as NaN; the diagonal is
// always 1.
func CorrelationMatrix(t *table.Table) (names []string, m [][]float64) {
	var numeric []*table.Column
	for _, c := range t.Columns() {
		if c.Kind == table.Numeric {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) < 2 {
		return nil, nil
	}

	names = make([]string, len(numeric))
	m = make([][]float64, len(numeric))
	for i, c := range numeric {
		names[i] = c.Name
		m[i] = make([]float64, len(numeric))
		m[i][i] = 1
	}
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r := math.NaN()
			if x, y := pairedValues(numeric[i], numeric[j]); len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			m[i][j], m[j][i] = r, r
		}
	}
	return names, m
}

// pairedValues extracts rows where both columns have a value.
func pairedValues(a, b *table.Column) (x, y []float64) {
	n := len(a.Values)
	if len(b.Values) < n {
		n = len(b.Values)
	}
	for i := 0; i < n; i++ {
		av, aok := a.Float(i)
		bv, bok := b.Float(i)
		if aok && bok {
			x = append(x, av)
			y = append(y, bv)
		}
	}
	return x, y
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func median(vals []float64) float64 {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	n := len(cp)
	if n%2 == 1 {
		return cp[n/2]
	}
	return (cp[n/2-1] + cp[n/2]) / 2
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
