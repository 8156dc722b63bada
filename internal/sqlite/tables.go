package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

const productColumns = `product_id, pid, type, name, vendor, uid, planned_cost, price,
    paid_by, note, link, group_name, is_final`

// LoadTables returns every gift table in creation order with its products
// in list order.
func (b *Backend) LoadTables(ctx context.Context) ([]types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	db, err := b.readyLocked()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT table_id, name, is_default FROM chart_tables ORDER BY position, table_id")
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []types.Table
	for rows.Next() {
		var t types.Table
		if err := rows.Scan(&t.ID, &t.Name, &t.Default); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	rows.Close()

	for i := range tables {
		products, err := queryProducts(ctx, db, tables[i].ID)
		if err != nil {
			return nil, err
		}
		tables[i].Products = products
	}
	return tables, nil
}

func queryProducts(ctx context.Context, db *sql.DB, tableID string) ([]types.Product, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE table_id = ? ORDER BY ordinal", tableID)
	if err != nil {
		return nil, fmt.Errorf("querying products of %s: %w", tableID, err)
	}
	defer rows.Close()

	products := []types.Product{}
	for rows.Next() {
		var p types.Product
		var pid, typ sql.NullString
		if err := rows.Scan(&p.ID, &pid, &typ, &p.Name, &p.Vendor, &p.OwnerID,
			&p.PlannedCost, &p.Price, &p.PaidBy, &p.Note, &p.Link, &p.Group, &p.IsFinal); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.PID = pid.String
		p.Type = typ.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// UpdateTable writes the whole table, creating it when the id is new.
// Products are stored in slice order. Returns ErrInvalidID for an empty table
// or product id, ErrInvalidName for a blank name and ErrDuplicateID when two
// products share an id.
func (b *Backend) UpdateTable(ctx context.Context, t types.Table) error {
	if t.ID == "" {
		return types.ErrInvalidID
	}
	if strings.TrimSpace(t.Name) == "" {
		return types.ErrInvalidName
	}
	seen := make(map[string]bool, len(t.Products))
	for _, p := range t.Products {
		if p.ID == "" {
			return types.ErrInvalidID
		}
		if seen[p.ID] {
			return types.ErrDuplicateID
		}
		seen[p.ID] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.readyLocked()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO chart_tables (table_id, name, is_default, position)
        VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM chart_tables))
        ON CONFLICT(table_id) DO UPDATE SET name = excluded.name, is_default = excluded.is_default`,
		t.ID, t.Name, t.Default)
	if err != nil {
		return fmt.Errorf("upserting table %s: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE table_id = ?", t.ID); err != nil {
		return fmt.Errorf("clearing products of %s: %w", t.ID, err)
	}
	for i, p := range t.Products {
		r := productRecord(t.ID, i, p)
		_, err := tx.ExecContext(ctx, `INSERT INTO products (table_id, ordinal, `+productColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.TableID, r.Ordinal, r.ProductID, r.PID, r.Type, r.Name, r.Vendor, r.UID,
			r.PlannedCost, r.Price, r.PaidBy, r.Note, r.Link, r.GroupName, r.IsFinal)
		if err != nil {
			return fmt.Errorf("inserting product %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update: %w", err)
	}

	b.logger.Debug("table updated", zap.String("table", t.ID), zap.Int("products", len(t.Products)))
	return persistTablesJSONL(ctx, db, b.config.DataDir)
}

// DeleteTable removes the table and its products. Returns ErrNotFound when
// no table has the id.
func (b *Backend) DeleteTable(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := b.readyLocked()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE table_id = ?", id); err != nil {
		return fmt.Errorf("deleting products of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM chart_tables WHERE table_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting table %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}

	b.logger.Debug("table deleted", zap.String("table", id))
	return persistTablesJSONL(ctx, db, b.config.DataDir)
}

// persistTablesJSONL rewrites chart_tables.jsonl and products.jsonl from
// SQLite.
func persistTablesJSONL(ctx context.Context, db *sql.DB, dataDir string) error {
	rows, err := db.QueryContext(ctx,
		"SELECT table_id, name, is_default, position FROM chart_tables ORDER BY position, table_id")
	if err != nil {
		return fmt.Errorf("querying tables for JSONL: %w", err)
	}
	defer rows.Close()

	var tables []tableJSON
	for rows.Next() {
		var r tableJSON
		if err := rows.Scan(&r.TableID, &r.Name, &r.IsDefault, &r.Position); err != nil {
			return fmt.Errorf("scanning table for JSONL: %w", err)
		}
		tables = append(tables, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	var products []productJSON
	for _, t := range tables {
		ps, err := queryProducts(ctx, db, t.TableID)
		if err != nil {
			return err
		}
		for i, p := range ps {
			products = append(products, productRecord(t.TableID, i, p))
		}
	}

	if err := persistJSONL(dataDir, tablesJSONL, tables); err != nil {
		return fmt.Errorf("writing %s: %w", tablesJSONL, err)
	}
	if err := persistJSONL(dataDir, productsJSONL, products); err != nil {
		return fmt.Errorf("writing %s: %w", productsJSONL, err)
	}
	return nil
}
