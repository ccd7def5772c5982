// Package export writes the final merged table to output artifacts.
//
// The CSV export always runs. Database export is optional and goes through
// a backend-agnostic Sink interface with registered factories, so the
// pipeline never imports a driver directly; backend packages register
// themselves from init() and are pulled in with a blank import of
// internal/export/all.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"salespipe/internal/table"
)

// Config selects and configures a sink backend.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Sink stores the merged table in a database backend.
//
// Semantics are overwrite-per-run: implementations replace the target
// table so rerunning the pipeline never accumulates stale rows.
type Sink interface {
	// Write replaces the target table with the given table's columns and rows.
	Write(ctx context.Context, cfg Config, t *table.Table) error
	// Close releases backend resources. Call once.
	Close()
}

type sinkFactory func(ctx context.Context, cfg Config) (Sink, error)

var (
	sinkMu        sync.RWMutex
	sinkFactories = map[string]sinkFactory{}
)

// Register registers a sink backend under a kind (e.g. "sqlite").
// Registering a duplicate kind panics: backend selection must never be
// ambiguous.
func Register(kind string, f sinkFactory) {
	sinkMu.Lock()
	defer sinkMu.Unlock()

	if kind == "" {
		panic("export: Register called with empty kind")
	}
	if f == nil {
		panic("export: Register called with nil factory")
	}
	if _, exists := sinkFactories[kind]; exists {
		panic(fmt.Sprintf("export: sink already registered for kind=%q", kind))
	}
	sinkFactories[kind] = f
}

// New constructs a Sink for the configured backend kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("export: missing sink kind")
	}

	sinkMu.RLock()
	f, ok := sinkFactories[cfg.Kind]
	sinkMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("export: unsupported sink kind %q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// WriteCSV writes exactly the columns and rows of t to path, overwriting
// any previous artifact. Missing cells render as empty fields.
func WriteCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.ColumnNames()); err != nil {
		return err
	}

	cols := t.Columns()
	rec := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			s, ok := c.Text(i)
			if !ok {
				s = ""
			}
			rec[j] = s
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// BindValue converts a table cell into a driver-friendly bind value.
// Shared by the sink backends so NULL/typing behavior stays consistent.
func BindValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case float64, string:
		return t
	case time.Time:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// ColumnType maps an inferred column kind to a portable SQL type name.
// Backends may override specific kinds where the dialect requires it.
func ColumnType(k table.Kind) string {
	switch k {
	case table.Numeric:
		return "DOUBLE PRECISION"
	case table.DateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
