package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestCSV verifies header trimming, BOM stripping, and the malformed-row
// skip policy.
func TestCSV(t *testing.T) {
	t.Parallel()

	t.Run("basic", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "sales.csv",
			"﻿product_id , amount\np1,10\np2, 20 \nshort-row\np3,30,extra\n")

		tbl, err := CSV(path, "sales")
		if err != nil {
			t.Fatalf("CSV() err=%v", err)
		}
		if got := tbl.ColumnNames(); !reflect.DeepEqual(got, []string{"product_id", "amount"}) {
			t.Fatalf("ColumnNames()=%v", got)
		}
		if tbl.NumRows() != 2 {
			t.Fatalf("NumRows()=%d, want 2 (bad rows skipped)", tbl.NumRows())
		}
		c, _ := tbl.Column("amount")
		if s, _ := c.Text(1); s != "20" {
			t.Fatalf("amount[1]=%q, want trimmed %q", s, "20")
		}
	})

	t.Run("empty_cell_is_missing", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "s.csv", "a,b\n1,\n")
		tbl, err := CSV(path, "s")
		if err != nil {
			t.Fatalf("CSV() err=%v", err)
		}
		b, _ := tbl.Column("b")
		if !b.Missing(0) {
			t.Fatalf("empty cell not missing")
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()

		_, err := CSV(filepath.Join(t.TempDir(), "absent.csv"), "s")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err=%v, want ErrNotFound", err)
		}
	})
}

// TestJSON verifies the accepted root structures and the flattening and
// ordering rules.
func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		wantErr     error
		wantCols    []string
		wantRows    int
		wantCell    map[string]any // column -> row 0 value
	}{
		{
			name:     "array_of_records",
			content:  `[{"id":"p1","price":9.5},{"id":"p2","price":3}]`,
			wantCols: []string{"id", "price"},
			wantRows: 2,
			wantCell: map[string]any{"id": "p1", "price": 9.5},
		},
		{
			name:     "products_envelope",
			content:  `{"products":[{"id":"p1"},{"id":"p2"}]}`,
			wantCols: []string{"id"},
			wantRows: 2,
		},
		{
			name:     "data_envelope_preferred",
			content:  `{"data":[{"a":"1"}],"items":[{"b":"2"}]}`,
			wantCols: []string{"a"},
			wantRows: 1,
		},
		{
			name:     "plain_object_single_record",
			content:  `{"id":"p1","meta":{"color":"red"}}`,
			wantCols: []string{"id", "meta.color"},
			wantRows: 1,
			wantCell: map[string]any{"meta.color": "red"},
		},
		{
			name:     "sparse_records_union_headers",
			content:  `[{"a":"1"},{"b":"2"}]`,
			wantCols: []string{"a", "b"},
			wantRows: 2,
		},
		{
			name:     "bool_and_null_cells",
			content:  `[{"ok":true,"gone":null,"empty":""}]`,
			wantCols: []string{"empty", "gone", "ok"},
			wantRows: 1,
			wantCell: map[string]any{"ok": "true", "gone": nil, "empty": nil},
		},
		{
			name:    "bare_scalar_rejected",
			content: `42`,
			wantErr: ErrParse,
		},
		{
			name:    "invalid_json",
			content: `{nope`,
			wantErr: ErrParse,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, "meta.json", tc.content)
			tbl, err := JSON(path, "metadata")

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("JSON() err=%v", err)
			}
			if got := tbl.ColumnNames(); !reflect.DeepEqual(got, tc.wantCols) {
				t.Fatalf("ColumnNames()=%v, want %v", got, tc.wantCols)
			}
			if tbl.NumRows() != tc.wantRows {
				t.Fatalf("NumRows()=%d, want %d", tbl.NumRows(), tc.wantRows)
			}
			for col, want := range tc.wantCell {
				c, ok := tbl.Column(col)
				if !ok {
					t.Fatalf("column %q missing", col)
				}
				if want == nil {
					if !c.Missing(0) {
						t.Fatalf("%s[0]=%v, want missing", col, c.Values[0])
					}
					continue
				}
				if !reflect.DeepEqual(c.Values[0], want) {
					t.Fatalf("%s[0]=%v, want %v", col, c.Values[0], want)
				}
			}
		})
	}
}

// TestHTMLTable verifies header detection and row extraction from the
// first table element.
func TestHTMLTable(t *testing.T) {
	t.Parallel()

	t.Run("basic", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "region.html", `
<html><body>
<table>
  <tr><th>region</th><th>manager</th></tr>
  <tr><td>East</td><td>Ana</td></tr>
  <tr><td>West</td><td>Bo</td></tr>
</table>
<table><tr><th>ignored</th></tr></table>
</body></html>`)

		tbl, err := HTMLTable(path, "region")
		if err != nil {
			t.Fatalf("HTMLTable() err=%v", err)
		}
		if got := tbl.ColumnNames(); !reflect.DeepEqual(got, []string{"region", "manager"}) {
			t.Fatalf("ColumnNames()=%v", got)
		}
		if tbl.NumRows() != 2 {
			t.Fatalf("NumRows()=%d, want 2", tbl.NumRows())
		}
		c, _ := tbl.Column("manager")
		if s, _ := c.Text(0); s != "Ana" {
			t.Fatalf("manager[0]=%q", s)
		}
	})

	t.Run("no_table", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "empty.html", `<html><body><p>nothing</p></body></html>`)
		_, err := HTMLTable(path, "region")
		if !errors.Is(err, ErrParse) {
			t.Fatalf("err=%v, want ErrParse", err)
		}
	})
}

// TestStatSource verifies the not-found classification.
func TestStatSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if err := statSource(""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty path err=%v, want ErrNotFound", err)
	}
	if err := statSource(dir); !errors.Is(err, ErrNotFound) {
		t.Fatalf("directory err=%v, want ErrNotFound", err)
	}

	path := filepath.Join(dir, "f.csv")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := statSource(path); err != nil {
		t.Fatalf("existing file err=%v, want nil", err)
	}
}
