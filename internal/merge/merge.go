// Package merge joins independently loaded tables into one denormalized
// dataset.
//
// The join key is either supplied explicitly or auto-detected from the
// intersection of column names. Auto-detection picks the lexicographically
// smallest shared name so repeated runs produce identical output; an
// unordered-set-derived choice would make merge results irreproducible.
//
// Joins are left-outer: every primary row appears in the output, matching
// secondary rows attach their columns, and a key matching several secondary
// rows fans out into one output row per match.
package merge

import (
	"sort"

	"salespipe/internal/table"
)

// Outcome describes how a single merge step resolved.
type Outcome int

const (
	// Merged means the join was performed.
	Merged Outcome = iota
	// NoCommonKey means the tables share no column name; the secondary
	// contributed nothing and the primary passed through unchanged.
	NoCommonKey
	// MissingExplicitKey means an explicit key was supplied but at least one
	// side lacks the named column; the merge was skipped.
	MissingExplicitKey
)

func (o Outcome) String() string {
	switch o {
	case Merged:
		return "merged"
	case NoCommonKey:
		return "no_common_key"
	case MissingExplicitKey:
		return "missing_explicit_key"
	default:
		return "unknown"
	}
}

// Key names the join columns on each side. Auto-detection always produces
// Left == Right; an explicit override may name different columns.
type Key struct {
	Left  string
	Right string
}

// Result reports the outcome of one merge step.
type Result struct {
	Outcome Outcome
	Key     Key
	// RowsOut is the output row count. Left-outer joins never drop primary
	// rows, but key fan-out can grow this past the primary's count.
	RowsOut int
}

// Tables left-outer joins secondary onto primary.
//
// role disambiguates colliding column names: a secondary column whose name
// already exists in primary (other than the join key) is renamed with the
// suffix "_" + role.
//
// A skipped merge (no common key, or explicit key absent on either side)
// returns the primary unchanged; it is a warning condition, never an error.
func Tables(primary, secondary *table.Table, role string, explicit *Key) (*table.Table, Result) {
	key, ok := resolveKey(primary, secondary, explicit)
	if !ok {
		out := NoCommonKey
		if explicit != nil {
			out = MissingExplicitKey
		}
		return primary, Result{Outcome: out, RowsOut: primary.NumRows()}
	}

	leftCol, _ := primary.Column(key.Left)
	rightCol, _ := secondary.Column(key.Right)

	// Index secondary rows by canonical key text. Missing keys never match.
	index := make(map[string][]int, secondary.NumRows())
	for j := 0; j < secondary.NumRows(); j++ {
		if s, ok := rightCol.Text(j); ok {
			index[s] = append(index[s], j)
		}
	}

	// Row plan: one (primary, secondary) index pair per output row, with
	// secondary -1 for unmatched primary rows.
	type pair struct{ left, right int }
	plan := make([]pair, 0, primary.NumRows())
	for i := 0; i < primary.NumRows(); i++ {
		s, ok := leftCol.Text(i)
		if !ok {
			plan = append(plan, pair{i, -1})
			continue
		}
		matches := index[s]
		if len(matches) == 0 {
			plan = append(plan, pair{i, -1})
			continue
		}
		for _, j := range matches {
			plan = append(plan, pair{i, j})
		}
	}

	merged := table.New(primary.Name)
	for _, c := range primary.Columns() {
		vals := make([]any, len(plan))
		for n, p := range plan {
			vals[n] = c.Values[p.left]
		}
		// Names were unique in primary, so AddColumn cannot fail here.
		_ = merged.AddColumn(&table.Column{Name: c.Name, Kind: c.Kind, Values: vals})
	}
	for _, c := range secondary.Columns() {
		if c.Name == key.Right {
			// The join key column is not duplicated.
			continue
		}
		vals := make([]any, len(plan))
		for n, p := range plan {
			if p.right >= 0 {
				vals[n] = c.Values[p.right]
			}
		}
		name := c.Name
		for merged.HasColumn(name) {
			name = name + "_" + role
		}
		_ = merged.AddColumn(&table.Column{Name: name, Kind: c.Kind, Values: vals})
	}

	return merged, Result{Outcome: Merged, Key: key, RowsOut: merged.NumRows()}
}

// resolveKey picks the join key. Explicit keys are honored only when both
// named columns exist; otherwise auto-detection scans the sorted name
// intersection.
func resolveKey(primary, secondary *table.Table, explicit *Key) (Key, bool) {
	if explicit != nil {
		if primary.HasColumn(explicit.Left) && secondary.HasColumn(explicit.Right) {
			return *explicit, true
		}
		return Key{}, false
	}

	var shared []string
	for _, name := range primary.ColumnNames() {
		if secondary.HasColumn(name) {
			shared = append(shared, name)
		}
	}
	if len(shared) == 0 {
		return Key{}, false
	}
	sort.Strings(shared)
	return Key{Left: shared[0], Right: shared[0]}, true
}
