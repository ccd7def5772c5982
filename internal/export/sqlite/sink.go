// Package sqlite implements the export.Sink for a local SQLite database.
//
// SQLite stores timestamps with TEXT affinity; merged-table DateTime cells
// are bound as RFC3339 strings for reliable round-trip behavior and easy
// debugging.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"salespipe/internal/export"
	"salespipe/internal/table"
)

type sink struct {
	db *sql.DB
}

func init() {
	export.Register("sqlite", New)
}

// New opens (or creates) the SQLite database at cfg.DSN.
func New(ctx context.Context, cfg export.Config) (export.Sink, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sink{db: db}, nil
}

func (s *sink) Close() { _ = s.db.Close() }

// Write replaces the target table. DROP + CREATE keeps reruns idempotent.
func (s *sink) Write(ctx context.Context, cfg export.Config, t *table.Table) error {
	name := sqlIdent(cfg.Table)

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop table %s: %w", cfg.Table, err)
	}

	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		typ := "TEXT"
		if c.Kind == table.Numeric {
			typ = "REAL"
		}
		defs = append(defs, sqlIdent(c.Name)+" "+typ)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", cfg.Table, err)
	}

	if t.NumRows() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, ph)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			v := export.BindValue(c.Values[i])
			if ts, ok := v.(time.Time); ok {
				v = ts.Format(time.RFC3339)
			}
			args[j] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", cfg.Table, err)
		}
	}

	return tx.Commit()
}

func sqlIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
