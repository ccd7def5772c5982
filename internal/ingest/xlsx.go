package ingest

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"salespipe/internal/table"
)

// XLSX loads a single sheet of a spreadsheet. An empty sheet name selects
// the workbook's first sheet. The first row is the header; header names are
// whitespace-trimmed. Short rows are padded with missing cells (spreadsheet
// rows routinely omit trailing empties).
func XLSX(path, sheet, name string) (*table.Table, error) {
	if err := statSource(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, parseErr(path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, parseErr(path, errNoSheets)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, parseErr(path, err)
	}
	if len(rows) == 0 {
		return table.FromRows(name, nil, nil)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		out := make([]string, len(headers))
		for i := range headers {
			if i < len(r) {
				out[i] = strings.TrimSpace(r[i])
			}
		}
		data = append(data, out)
	}

	t, err := table.FromRows(name, headers, data)
	if err != nil {
		return nil, parseErr(path, err)
	}
	return t, nil
}

const errNoSheets = sourceError("workbook has no sheets")
