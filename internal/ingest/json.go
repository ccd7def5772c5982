package ingest

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"salespipe/internal/table"
)

// envelopeKeys are object fields tried, in order, when a JSON source is a
// single object wrapping the actual record array.
var envelopeKeys = []string{"data", "products", "items"}

// JSON loads a metadata source that is either an array of records or a
// single object.
//
// Structure handling:
//   - array of objects            → one record per element
//   - object with data/products/items array → that array's records
//   - any other object            → a single-record table
//
// Nested objects are flattened with dotted keys. Column order is the sorted
// union of keys across records, keeping output deterministic regardless of
// key order in the source.
func JSON(path, name string) (*table.Table, error) {
	if err := statSource(path); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, parseErr(path, err)
	}

	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, parseErr(path, err)
	}

	recs := recordsFromRoot(root)
	if recs == nil {
		return nil, parseErr(path, errUnsupportedJSON)
	}

	flat := make([]map[string]any, 0, len(recs))
	keys := make(map[string]struct{})
	for _, r := range recs {
		m := make(map[string]any, len(r))
		flatten("", r, m)
		for k := range m {
			keys[k] = struct{}{}
		}
		flat = append(flat, m)
	}

	headers := make([]string, 0, len(keys))
	for k := range keys {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	t := table.New(name)
	for _, h := range headers {
		vals := make([]any, len(flat))
		for i, m := range flat {
			vals[i] = cellValue(m[h])
		}
		if err := t.AddColumn(&table.Column{Name: h, Kind: table.Unknown, Values: vals}); err != nil {
			return nil, parseErr(path, err)
		}
	}
	return t, nil
}

const errUnsupportedJSON = sourceError("unsupported JSON structure")

// recordsFromRoot normalizes the decoded root value into a record list, or
// nil when the structure is unsupported (e.g. a bare scalar).
func recordsFromRoot(root any) []map[string]any {
	switch v := root.(type) {
	case []any:
		recs := make([]map[string]any, 0, len(v))
		for _, el := range v {
			if m, ok := el.(map[string]any); ok {
				recs = append(recs, m)
			}
		}
		return recs

	case map[string]any:
		for _, key := range envelopeKeys {
			arr, ok := v[key].([]any)
			if !ok {
				continue
			}
			recs := make([]map[string]any, 0, len(arr))
			for _, el := range arr {
				if m, ok := el.(map[string]any); ok {
					recs = append(recs, m)
				}
			}
			if len(recs) > 0 {
				return recs
			}
		}
		// Plain object: a single-record table.
		return []map[string]any{v}

	default:
		return nil
	}
}

// flatten expands nested objects into dotted keys.
func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flatten(key, m, out)
			continue
		}
		out[key] = v
	}
}

// cellValue converts a decoded JSON scalar into a raw table cell.
// Numbers stay float64 so inference can classify them without reparsing.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	case float64:
		return t
	case bool:
		return strconv.FormatBool(t)
	default:
		// Arrays and anything exotic render as their JSON text.
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
}
