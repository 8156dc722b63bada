// This file implements JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column lists.
// The order matters: products load after the tables they belong to.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{tablesJSONL, "chart_tables", []string{"table_id", "name", "is_default", "position"}},
	{productsJSONL, "products", []string{
		"table_id", "product_id", "ordinal", "pid", "type", "name", "vendor", "uid",
		"planned_cost", "price", "paid_by", "note", "link", "group_name", "is_final",
	}},
	{catalogJSONL, "catalog", []string{"object_id", "name", "price", "type", "uid", "active", "promoted"}},
	{ownersJSONL, "owners", []string{"uid", "user_name", "email"}},
}

// loadAllJSONL reads each JSONL file from dataDir and inserts records into the
// corresponding SQLite tables. Loading is transactional: all succeed or the
// database remains empty. Malformed lines are skipped and unknown fields in
// JSONL records are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mapping := range jsonlTableMapping {
		path := filepath.Join(dataDir, mapping.file)
		records, err := readJSONL(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}

		if len(records) == 0 {
			continue
		}

		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}

	return nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only
// columns listed in the mapping are extracted; columns absent from a record
// take their SQLite default.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		var cols, placeholders []string
		var args []any
		for _, col := range columns {
			val, ok := obj[col]
			if !ok {
				continue
			}
			cols = append(cols, col)
			placeholders = append(placeholders, "?")
			args = append(args, val)
		}
		if len(cols) == 0 {
			continue
		}

		insertSQL := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			table,
			joinColumns(cols),
			joinColumns(placeholders),
		)
		if _, err := tx.Exec(insertSQL, args...); err != nil {
			// Records that violate constraints are skipped.
			continue
		}
	}
	return nil
}

// joinColumns joins column names with commas.
func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
