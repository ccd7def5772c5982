// Package mssql implements the export.Sink for Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"salespipe/internal/export"
	"salespipe/internal/table"
)

type sink struct {
	db *sql.DB
}

func init() {
	export.Register("mssql", New)
}

// New constructs a SQL Server sink using database/sql and the "sqlserver"
// driver. Connectivity is validated via PingContext.
func New(ctx context.Context, cfg export.Config) (export.Sink, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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

// Write replaces the target table. SQL Server has no DROP TABLE IF EXISTS
// before 2016, but supported versions all accept it.
func (s *sink) Write(ctx context.Context, cfg export.Config, t *table.Table) error {
	name := msIdent(cfg.Table)

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop table %s: %w", cfg.Table, err)
	}

	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, msIdent(c.Name)+" "+msColumnType(c.Kind))
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

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(name)
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c.Name))
	}
	b.WriteString(") VALUES (")
	for j := range cols {
		if j > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("@p%d", j+1))
	}
	b.WriteString(")")

	stmt, err := tx.PrepareContext(ctx, b.String())
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			args[j] = export.BindValue(c.Values[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", cfg.Table, err)
		}
	}

	return tx.Commit()
}

// msColumnType maps inferred kinds to T-SQL types. The portable names from
// export.ColumnType are not all valid in T-SQL.
func msColumnType(k table.Kind) string {
	switch k {
	case table.Numeric:
		return "FLOAT"
	case table.DateTime:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func msIdent(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}
