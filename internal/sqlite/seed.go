// This file seeds the shared template table on first attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/giftcharts/internal/mutation"
)

// templateTableName names the read-only table seeded on first attach.
const templateTableName = "Wedding budget template"

// templateProduct describes one product of the seeded template table.
type templateProduct struct {
	name        string
	group       string
	plannedCost float64
}

// templateProducts lists the products of the template table in list order.
var templateProducts = []templateProduct{
	{"Venue", "Ceremony", 5000},
	{"Officiant", "Ceremony", 400},
	{"Flowers", "Ceremony", 1200},
	{"Catering", "Reception", 6000},
	{"Cake", "Reception", 600},
	{"Band", "Reception", 2500},
	{"Photographer", "", 2000},
	{"Invitations", "", 300},
}

// seedTemplateTable creates the shared default table when chart_tables is
// empty. It reports whether a table was seeded.
func seedTemplateTable(db *sql.DB, dataDir string) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM chart_tables").Scan(&count); err != nil {
		return false, fmt.Errorf("counting tables: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	tableID := mutation.NewID()
	_, err = tx.Exec(
		"INSERT INTO chart_tables (table_id, name, is_default, position) VALUES (?, ?, 1, 0)",
		tableID, templateTableName,
	)
	if err != nil {
		return false, fmt.Errorf("seeding table: %w", err)
	}

	for i, p := range templateProducts {
		_, err = tx.Exec(
			`INSERT INTO products (table_id, product_id, ordinal, name, planned_cost, group_name)
            VALUES (?, ?, ?, ?, ?, ?)`,
			tableID, mutation.NewID(), i, p.name, p.plannedCost, p.group,
		)
		if err != nil {
			return false, fmt.Errorf("seeding product %s: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing seed transaction: %w", err)
	}

	if err := persistTablesJSONL(context.Background(), db, dataDir); err != nil {
		return false, fmt.Errorf("persisting seeded data: %w", err)
	}
	return true, nil
}
