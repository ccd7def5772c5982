package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"salespipe/internal/table"
)

// CSV loads a record-oriented CSV file with a header row.
//
// Reading is best-effort in the same way sampling is:
//   - records with the wrong field count are skipped
//   - header and cells are whitespace-trimmed
//   - a UTF-8 BOM on the first header cell is stripped
func CSV(path, name string) (*table.Table, error) {
	if err := statSource(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, parseErr(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // we validate manually
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, parseErr(path, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
		if i == 0 {
			headers[i] = strings.TrimPrefix(headers[i], "﻿")
		}
	}

	rows := make([][]string, 0, 1024)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed record: skip, keep reading.
			continue
		}
		if len(rec) != len(headers) {
			continue
		}
		out := make([]string, len(rec))
		for i := range rec {
			out[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, out)
	}

	t, err := table.FromRows(name, headers, rows)
	if err != nil {
		return nil, parseErr(path, err)
	}
	return t, nil
}
