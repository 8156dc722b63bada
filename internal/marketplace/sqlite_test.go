package marketplace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/giftcharts/internal/sqlite"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

func TestBrowseOverSQLiteCatalog(t *testing.T) {
	ctx := context.Background()
	b := sqlite.NewBackend(sqlite.WithoutSeed())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	for _, e := range []types.CatalogEntry{
		{ObjectID: "c1", Name: "Wedding cake", Price: 120, Type: "product", UID: "u1", Active: true},
		{ObjectID: "c2", Name: "Cake topper", Price: 15, Type: "product", UID: "u2", Active: true, Promoted: true},
		{ObjectID: "c3", Name: "Cake stand rental", Price: 30, Type: "service", UID: "u1", Active: true},
		{ObjectID: "c4", Name: "Cake pops", Price: 8, Type: "product", UID: "u3", Active: true},
		{ObjectID: "c5", Name: "Cake fund", Price: 50, Type: "charity", UID: "u3", Active: true},
	} {
		require.NoError(t, b.PutCatalogEntry(ctx, e))
	}
	require.NoError(t, b.PutOwner(ctx, types.Owner{ID: "u1", Name: "Sweet Things"}))

	page, err := NewBrowser(b, b, 10, nil).Browse(ctx, Query{Text: "cake"})
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, map[string]string{"u1": "Sweet Things"}, page.Sellers)
	require.Len(t, page.Facets, 2)
	assert.Equal(t, Facet{Name: types.FacetType, Values: []FacetValue{
		{Value: "product", Label: "product", Count: 2},
		{Value: "service", Label: "service", Count: 1},
	}}, page.Facets[0])
	assert.Equal(t, Facet{Name: types.FacetSeller, Values: []FacetValue{
		{Value: "u1", Label: "Sweet Things", Count: 2},
		{Value: "u3", Label: "u3", Count: 1},
	}}, page.Facets[1])
}
