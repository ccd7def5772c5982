// Package ingest loads heterogeneous tabular sources into table.Table
// values.
//
// Every loader signals exactly one of three conditions:
//   - success, with a raw (uninferred) table
//   - ErrNotFound, when the path does not resolve to a file
//   - ErrParse, when the file exists but cannot be decoded into a table
//
// The pipeline core never distinguishes among ingestion technologies; it
// only consumes the resulting table. Loaders are intentionally lenient:
// misaligned rows are skipped, not fatal.
package ingest

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotFound marks a source path that does not resolve to a file.
var ErrNotFound = errors.New("source not found")

// ErrParse marks a source that exists but cannot be decoded.
var ErrParse = errors.New("source parse failure")

// sourceError is a constant error string used for decode failures with no
// underlying library error.
type sourceError string

func (e sourceError) Error() string { return string(e) }

// statSource maps filesystem errors onto the loader error taxonomy.
func statSource(path string) error {
	if path == "" {
		return fmt.Errorf("empty path: %w", ErrNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("%s: %v: %w", path, err, ErrNotFound)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}
	return nil
}

func parseErr(path string, err error) error {
	return fmt.Errorf("%s: %v: %w", path, err, ErrParse)
}
