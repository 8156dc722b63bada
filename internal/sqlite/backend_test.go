// Tests for the SQLite backend lifecycle and gift table persistence.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

func attachBackend(t *testing.T, dir string, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(opts...)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := attachBackend(t, dir)

	_, err := os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err, "database file created")
	for _, name := range jsonlFiles {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyOpen)
}

func TestBackendAttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
}

func TestBackendDetach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	ctx := context.Background()
	_, err := b.LoadTables(ctx)
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	assert.ErrorIs(t, b.UpdateTable(ctx, types.Table{ID: "t", Name: "n"}), types.ErrStoreClosed)
	assert.ErrorIs(t, b.DeleteTable(ctx, "t"), types.ErrStoreClosed)
	_, err = b.SearchCatalog(ctx, types.CatalogQuery{})
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = b.GetOwnerDisplayName(ctx, "u1")
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestBackendSeedsTemplateOnFirstAttach(t *testing.T) {
	b := attachBackend(t, t.TempDir())

	tables, err := b.LoadTables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.True(t, tables[0].Default)
	assert.Len(t, tables[0].Products, len(templateProducts))
}

func TestBackendWithoutSeed(t *testing.T) {
	b := attachBackend(t, t.TempDir(), WithoutSeed())

	tables, err := b.LoadTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func weddingTable() types.Table {
	return types.Table{
		ID:   "t1",
		Name: "Our wedding",
		Products: []types.Product{
			{ID: "p1", PID: "c1", Type: "product", Name: "Cake", Vendor: "Sweet Bakery", OwnerID: "u1", Price: 120, Group: "Food"},
			{ID: "p2", Name: "Band", PlannedCost: 2000, Price: 1800.5, PaidBy: "Ann", Note: "deposit paid", Link: "http://band.example", IsFinal: true},
			{ID: "p3", Name: "Flowers", Group: "Decor"},
		},
	}
}

func TestUpdateAndLoadTables(t *testing.T) {
	ctx := context.Background()
	b := attachBackend(t, t.TempDir(), WithoutSeed())

	want := weddingTable()
	require.NoError(t, b.UpdateTable(ctx, want))
	second := types.Table{ID: "t2", Name: "Birthday", Products: []types.Product{}}
	require.NoError(t, b.UpdateTable(ctx, second))

	tables, err := b.LoadTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, want, tables[0])
	assert.Equal(t, second, tables[1])

	// Reordering and renaming keeps the table position.
	want.Name = "Wedding 2027"
	want.Products = []types.Product{want.Products[2], want.Products[0]}
	require.NoError(t, b.UpdateTable(ctx, want))

	tables, err = b.LoadTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, tables[0])
	assert.Equal(t, "t2", tables[1].ID)
}

func TestUpdateTableValidation(t *testing.T) {
	ctx := context.Background()
	b := attachBackend(t, t.TempDir(), WithoutSeed())

	tests := []struct {
		name    string
		table   types.Table
		wantErr error
	}{
		{"empty id", types.Table{Name: "x"}, types.ErrInvalidID},
		{"blank name", types.Table{ID: "t", Name: "  "}, types.ErrInvalidName},
		{"empty product id", types.Table{ID: "t", Name: "x", Products: []types.Product{{Name: "a"}}}, types.ErrInvalidID},
		{"duplicate product id", types.Table{ID: "t", Name: "x", Products: []types.Product{{ID: "p"}, {ID: "p"}}}, types.ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, b.UpdateTable(ctx, tt.table), tt.wantErr)
		})
	}
}

func TestDeleteTable(t *testing.T) {
	ctx := context.Background()
	b := attachBackend(t, t.TempDir(), WithoutSeed())
	require.NoError(t, b.UpdateTable(ctx, weddingTable()))

	require.NoError(t, b.DeleteTable(ctx, "t1"))
	assert.ErrorIs(t, b.DeleteTable(ctx, "t1"), types.ErrNotFound)
	assert.ErrorIs(t, b.DeleteTable(ctx, ""), types.ErrInvalidID)

	tables, err := b.LoadTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	var count int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count))
	assert.Zero(t, count)
}

func TestTablesPersistAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	seeded, err := b.LoadTables(ctx)
	require.NoError(t, err)
	require.NoError(t, b.UpdateTable(ctx, weddingTable()))
	require.NoError(t, b.Detach())

	b2 := attachBackend(t, dir)
	tables, err := b2.LoadTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2, "template is not seeded twice")
	assert.Equal(t, seeded[0], tables[0])
	assert.Equal(t, weddingTable(), tables[1])
}
