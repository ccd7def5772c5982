// Package all registers every sink backend. Blank-import it from the main
// package to make the backends selectable by config.
package all

import (
	_ "salespipe/internal/export/mssql"
	_ "salespipe/internal/export/postgres"
	_ "salespipe/internal/export/sqlite"
)
