// Package duckio opens a hardened in-memory DuckDB connection and builds
// read_parquet() queries against an explicit file list — the query
// engine for storage's manifest ledger and for query (the txnlog's
// tracked file set is the source of truth, never a filesystem glob).
package duckio

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Open returns a hardened in-memory DuckDB connection: no extension
// autoload, no remote filesystem access, configuration locked after set.
func Open() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("duckio: open: %w", err)
	}
	for _, stmt := range []string{
		"SET autoinstall_known_extensions = false",
		"SET autoload_known_extensions = false",
		"SET allow_community_extensions = false",
		"SET disabled_filesystems = 'HTTPFileSystem'",
		"SET lock_configuration = true",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("duckio: configure (%s): %w", stmt, err)
		}
	}
	return db, nil
}

// SQLLiteral escapes s for embedding as a SQL string literal.
func SQLLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ReadParquetExpr builds a read_parquet([...]) table expression over an
// explicit, non-glob file list.
func ReadParquetExpr(files []string) string {
	if len(files) == 0 {
		return "(SELECT NULL WHERE false)"
	}
	lits := make([]string, len(files))
	for i, f := range files {
		lits[i] = SQLLiteral(f)
	}
	return fmt.Sprintf("read_parquet([%s])", strings.Join(lits, ", "))
}
