package ingest

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"salespipe/internal/table"
)

// HTMLTable loads the first <table> element of a saved HTML page.
//
// Header cells come from the table's first row (th or td); each following tr
// becomes one record. Rows whose cell count does not match the header are
// skipped, consistent with the other loaders.
//
// Missing selectors are not errors: a page with no table parses to a parse
// failure, since nothing tabular can be extracted from it.
func HTMLTable(path, name string) (*table.Table, error) {
	if err := statSource(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, parseErr(path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, parseErr(path, err)
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, parseErr(path, errNoTable)
	}

	var headers []string
	var rows [][]string

	tbl.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if headers == nil {
			headers = cells
			return
		}
		rows = append(rows, cells)
	})

	if headers == nil {
		return nil, parseErr(path, errNoTable)
	}

	t, err := table.FromRows(name, headers, rows)
	if err != nil {
		return nil, parseErr(path, err)
	}
	return t, nil
}

const errNoTable = sourceError("no table element found")
