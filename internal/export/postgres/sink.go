// Package postgres implements the export.Sink for Postgres.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"salespipe/internal/export"
	"salespipe/internal/table"
)

// insertBatchRows caps how many rows go into one multi-row INSERT so the
// statement stays well under Postgres's 65535 bind parameter limit.
const insertBatchRows = 500

type sink struct {
	pool *pgxpool.Pool
}

func init() {
	export.Register("postgres", New)
}

// New creates a Postgres-backed sink using a pgx connection pool.
func New(ctx context.Context, cfg export.Config) (export.Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &sink{pool: pool}, nil
}

// Close closes the connection pool.
func (s *sink) Close() {
	s.pool.Close()
}

// Write replaces the target table. DROP + CREATE keeps reruns idempotent.
func (s *sink) Write(ctx context.Context, cfg export.Config, t *table.Table) error {
	name := pgIdent(cfg.Table)

	if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop table %s: %w", cfg.Table, err)
	}

	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, pgIdent(c.Name)+" "+export.ColumnType(c.Kind))
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))
	if _, err := s.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("create table %s: %w", cfg.Table, err)
	}

	if t.NumRows() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for start := 0; start < t.NumRows(); start += insertBatchRows {
		end := start + insertBatchRows
		if end > t.NumRows() {
			end = t.NumRows()
		}
		sql, args := buildInsertSQL(name, cols, start, end)
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", cfg.Table, err)
		}
	}

	return tx.Commit(ctx)
}

// buildInsertSQL builds a multi-row INSERT with numbered placeholders for
// rows [start, end). Split out so placeholder numbering is unit testable
// without a database.
func buildInsertSQL(name string, cols []*table.Column, start, end int) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(name)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, (end-start)*len(cols))
	p := 1
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, c := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("$%d", p))
			args = append(args, export.BindValue(c.Values[i]))
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
