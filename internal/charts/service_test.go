package charts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/giftcharts/internal/drafts"
	"github.com/mesh-intelligence/giftcharts/internal/projector"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

type fixture struct {
	svc       *Service
	tables    *memTables
	presenter *recordingPresenter
	navigator *recordingNavigator
	directory *countingDirectory
}

func template() types.Table {
	return types.Table{ID: "tpl", Name: "Template", Default: true, Products: []types.Product{
		{ID: "x1", Name: "Venue", Group: "Ceremony"},
	}}
}

func wedding() types.Table {
	return types.Table{ID: "w", Name: "Wedding", Products: []types.Product{
		{ID: "p1", Name: "Cake", Group: "A", Price: 100, OwnerID: "u1"},
		{ID: "p2", Name: "Flowers", Group: "B", Price: 50},
		{ID: "p3", Name: "Band", Group: "A", Price: 500, IsFinal: true},
	}}
}

func newFixture(t *testing.T, actor types.Actor) *fixture {
	t.Helper()
	f := &fixture{
		tables:    &memTables{tables: []types.Table{template(), wedding()}},
		presenter: &recordingPresenter{},
		navigator: &recordingNavigator{},
		directory: &countingDirectory{contacts: map[string]string{"u1": "cakes@example.com"}},
	}
	id := 0
	dm := drafts.New(emptySearcher{}, f.directory,
		drafts.WithDebounce(time.Millisecond),
		drafts.WithIDGenerator(func() string {
			id++
			return fmt.Sprintf("new-%d", id)
		}))
	t.Cleanup(dm.Close)

	f.svc = NewService(NewStore(), f.tables, dm, f.directory,
		WithPresenter(f.presenter),
		WithNavigator(f.navigator),
		WithActor(actor))
	require.NoError(t, f.svc.Load(context.Background()))
	return f
}

var user = types.Actor{UserID: "u-1"}

func TestLoadFailure(t *testing.T) {
	svc := NewService(NewStore(), &memTables{err: errors.New("disk gone")}, drafts.New(emptySearcher{}, nil), nil)
	assert.Error(t, svc.Load(context.Background()))
}

func TestCurrentFallsBackToFirstTable(t *testing.T) {
	f := newFixture(t, user)
	cur, err := f.svc.Current()
	require.NoError(t, err)
	assert.Equal(t, "tpl", cur.ID)

	require.NoError(t, f.svc.SelectTable("w"))
	cur, err = f.svc.Current()
	require.NoError(t, err)
	assert.Equal(t, "w", cur.ID)
}

func TestAddProductAfterAnchor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	d, err := f.svc.OpenNewDraft("p1")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Group)
	assert.Equal(t, 1, d.Index)

	view, err := f.svc.View(nil)
	require.NoError(t, err)
	rows := view.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, projector.RowNewDraft, rows[1].Kind, "draft shown right after its anchor")

	dm := f.svc.Drafts()
	require.NoError(t, dm.UpdateField(types.SlotNew, types.FieldName, "Pie"))
	require.NoError(t, dm.UpdateField(types.SlotNew, types.FieldPrice, "49.99"))
	require.NoError(t, dm.WaitIdle(ctx, types.SlotNew))

	saved, err := f.svc.SaveNewDraft(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	stored, ok := f.tables.get("w")
	require.True(t, ok)
	require.Len(t, stored.Products, 4)
	assert.Equal(t, "new-1", stored.Products[1].ID)
	assert.Equal(t, 49.99, stored.Products[1].Price)
	assert.Equal(t, "A", stored.Products[1].Group)

	cur, err := f.svc.Current()
	require.NoError(t, err)
	assert.Equal(t, stored, cur, "store replaced after persistence")

	_, open := dm.Draft(types.SlotNew)
	assert.False(t, open, "slot cleared after save")
}

func TestNewDraftFollowsAnchorAfterRemoval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	d, err := f.svc.OpenNewDraft("p2")
	require.NoError(t, err)
	assert.Equal(t, "B", d.Group)
	assert.Equal(t, 2, d.Index)

	removed, err := f.svc.RemoveProduct(ctx, "p1")
	require.NoError(t, err)
	require.True(t, removed)

	dm := f.svc.Drafts()
	open, ok := dm.Draft(types.SlotNew)
	require.True(t, ok)
	assert.Equal(t, 1, open.Index, "splice position follows the anchor")

	view, err := f.svc.View(nil)
	require.NoError(t, err)
	assert.Nil(t, view.Trailing)
	rows := view.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "p2", rows[0].Product.ID)
	assert.Equal(t, projector.RowNewDraft, rows[1].Kind, "draft shown right after p2")
	assert.Equal(t, "p3", rows[2].Product.ID)

	require.NoError(t, dm.UpdateField(types.SlotNew, types.FieldName, "Tulips"))
	require.NoError(t, dm.WaitIdle(ctx, types.SlotNew))
	saved, err := f.svc.SaveNewDraft(ctx)
	require.NoError(t, err)
	require.True(t, saved)

	stored, ok := f.tables.get("w")
	require.True(t, ok)
	var order []string
	for _, p := range stored.Products {
		order = append(order, p.ID)
	}
	assert.Equal(t, []string{"p2", "new-1", "p3"}, order)
}

func TestNewDraftAppendsWhenAnchorRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	_, err := f.svc.OpenNewDraft("p2")
	require.NoError(t, err)
	removed, err := f.svc.RemoveProduct(ctx, "p2")
	require.NoError(t, err)
	require.True(t, removed)

	view, err := f.svc.View(nil)
	require.NoError(t, err)
	require.NotNil(t, view.Trailing)

	dm := f.svc.Drafts()
	require.NoError(t, dm.UpdateField(types.SlotNew, types.FieldName, "Tulips"))
	require.NoError(t, dm.WaitIdle(ctx, types.SlotNew))
	saved, err := f.svc.SaveNewDraft(ctx)
	require.NoError(t, err)
	require.True(t, saved)

	stored, ok := f.tables.get("w")
	require.True(t, ok)
	require.Len(t, stored.Products, 3)
	assert.Equal(t, "new-1", stored.Products[2].ID)
}

func TestSaveWhileSearchingIsSilentNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))
	dm := drafts.New(emptySearcher{}, nil, drafts.WithDebounce(time.Hour))
	t.Cleanup(dm.Close)
	f.svc.drafts = dm

	_, err := f.svc.OpenNewDraft("")
	require.NoError(t, err)
	require.NoError(t, dm.UpdateField(types.SlotNew, types.FieldName, "Cake topper"))

	saved, err := f.svc.SaveNewDraft(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, f.tables.updates)
	_, open := dm.Draft(types.SlotNew)
	assert.True(t, open)
}

func TestSaveWithoutDraft(t *testing.T) {
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))
	_, err := f.svc.SaveNewDraft(context.Background())
	assert.ErrorIs(t, err, types.ErrNoDraft)
	_, err = f.svc.SaveEditDraft(context.Background())
	assert.ErrorIs(t, err, types.ErrNoDraft)
}

func TestEditProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	d, err := f.svc.OpenEditDraft("p2")
	require.NoError(t, err)
	assert.Equal(t, "Flowers", d.Name)

	dm := f.svc.Drafts()
	require.NoError(t, dm.UpdateField(types.SlotEdit, types.FieldNote, "peonies"))
	require.NoError(t, dm.UpdateField(types.SlotEdit, types.FieldPaidBy, "Sam"))

	view, err := f.svc.View(nil)
	require.NoError(t, err)
	var edited []projector.Row
	for _, r := range view.Rows() {
		if r.Kind == projector.RowEditDraft {
			edited = append(edited, r)
		}
	}
	require.Len(t, edited, 1)
	assert.Equal(t, "peonies", edited[0].Draft.Note)

	saved, err := f.svc.SaveEditDraft(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	stored, _ := f.tables.get("w")
	assert.Equal(t, types.Product{ID: "p2", Name: "Flowers", Group: "B", Price: 50, Note: "peonies", PaidBy: "Sam"}, stored.Products[1])

	_, err = f.svc.OpenEditDraft("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMutationsOnTemplateRequireDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)

	_, err := f.svc.OpenNewDraft("")
	assert.ErrorIs(t, err, types.ErrReadOnlyTable)
	_, err = f.svc.OpenEditDraft("x1")
	assert.ErrorIs(t, err, types.ErrReadOnlyTable)
	_, err = f.svc.RemoveProduct(ctx, "x1")
	assert.ErrorIs(t, err, types.ErrReadOnlyTable)
	_, err = f.svc.MarkFinal(ctx, "x1", types.StateFinal)
	assert.ErrorIs(t, err, types.ErrReadOnlyTable)
	_, err = f.svc.RenameTable(ctx, "tpl", "Mine")
	assert.ErrorIs(t, err, types.ErrReadOnlyTable)
	assert.ErrorIs(t, f.svc.DeleteTable(ctx, "tpl"), types.ErrReadOnlyTable)
	assert.ErrorIs(t, f.svc.RequestRename(), types.ErrReadOnlyTable)

	assert.Zero(t, f.tables.updates)
	for _, kind := range f.presenter.kinds() {
		assert.Equal(t, types.ModalDuplicateRequired, kind)
	}
	assert.Len(t, f.presenter.modals, 7)
}

func TestMutationsRequireLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, types.Actor{})
	require.NoError(t, f.svc.SelectTable("w"))

	_, err := f.svc.OpenNewDraft("p1")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	_, err = f.svc.RemoveProduct(ctx, "p2")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	_, err = f.svc.DuplicateTable(ctx, "tpl", "")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)

	assert.Equal(t, []string{types.ModalLoginRequired, types.ModalLoginRequired, types.ModalLoginRequired}, f.presenter.kinds())
	assert.Zero(t, f.tables.updates)

	f.svc.SetActor(user)
	removed, err := f.svc.RemoveProduct(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRemoveProductKeepsFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	removed, err := f.svc.RemoveProduct(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Zero(t, f.tables.updates)

	removed, err = f.svc.RemoveProduct(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed)
	stored, _ := f.tables.get("w")
	assert.Len(t, stored.Products, 2)
}

func TestMarkFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	changed, err := f.svc.MarkFinal(ctx, "p1", types.StateFinal)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.svc.MarkFinal(ctx, "p1", types.StateFinal)
	require.NoError(t, err)
	assert.False(t, changed, "already final")

	_, err = f.svc.MarkFinal(ctx, "p1", types.FinalState("maybe"))
	assert.ErrorIs(t, err, types.ErrInvalidFinalState)

	stored, _ := f.tables.get("w")
	assert.True(t, stored.Products[0].IsFinal)
	assert.Equal(t, 1, f.tables.updates)
}

func TestPersistFailureKeepsStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))
	f.tables.err = errors.New("write failed")

	_, err := f.svc.RemoveProduct(ctx, "p1")
	require.Error(t, err)

	cur, err := f.svc.Current()
	require.NoError(t, err)
	assert.Len(t, cur.Products, 3)
}

func TestTableRequests(t *testing.T) {
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	require.NoError(t, f.svc.RequestRename())
	require.NoError(t, f.svc.RequestDelete())
	assert.Equal(t, []string{types.ModalEditTableName, types.ModalDeleteTable}, f.presenter.kinds())
	require.NotNil(t, f.presenter.modals[0].payload.Table)
	assert.Equal(t, "w", f.presenter.modals[0].payload.Table.ID)
}

func TestRenameTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)

	out, err := f.svc.RenameTable(ctx, "w", "  Summer wedding ")
	require.NoError(t, err)
	assert.Equal(t, "Summer wedding", out.Name)
	stored, _ := f.tables.get("w")
	assert.Equal(t, "Summer wedding", stored.Name)

	_, err = f.svc.RenameTable(ctx, "w", " ")
	assert.ErrorIs(t, err, types.ErrInvalidName)
	_, err = f.svc.RenameTable(ctx, "nope", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	require.NoError(t, f.svc.DeleteTable(ctx, "w"))
	_, ok := f.tables.get("w")
	assert.False(t, ok)
	cur, err := f.svc.Current()
	require.NoError(t, err)
	assert.Equal(t, "tpl", cur.ID)
}

func TestDuplicateTemplate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)

	out, err := f.svc.DuplicateTable(ctx, "tpl", "My wedding")
	require.NoError(t, err)
	assert.False(t, out.Default)
	assert.Equal(t, "My wedding", out.Name)
	assert.NotEqual(t, "tpl", out.ID)
	require.Len(t, out.Products, 1)
	assert.NotEqual(t, "x1", out.Products[0].ID)

	cur, err := f.svc.Current()
	require.NoError(t, err)
	assert.Equal(t, out.ID, cur.ID, "the copy becomes current")

	_, err = f.svc.OpenNewDraft("")
	assert.NoError(t, err, "the copy is editable")
	assert.Len(t, f.svc.Tables(), 3)
}

func TestVendorContactCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, user)

	for i := 0; i < 3; i++ {
		c, err := f.svc.VendorContact(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "cakes@example.com", c)
	}
	assert.Equal(t, 1, f.directory.calls)

	_, err := f.svc.VendorContact(ctx, "u9")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.svc.VendorContact(ctx, "u9")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, 3, f.directory.calls, "failures are not cached")

	_, err = f.svc.VendorContact(ctx, "")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSearchProductName(t *testing.T) {
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	require.NoError(t, f.svc.SearchProductName("p2"))
	assert.Equal(t, []string{"Flowers"}, f.navigator.terms)
	assert.ErrorIs(t, f.svc.SearchProductName("zz"), types.ErrNotFound)
}

func TestViewFilter(t *testing.T) {
	f := newFixture(t, user)
	require.NoError(t, f.svc.SelectTable("w"))

	view, err := f.svc.View(&types.SearchFilter{Field: types.SearchByName, Term: "an"})
	require.NoError(t, err)
	rows := view.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "p3", rows[0].Product.ID)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, user)
	d := f.svc.Dashboard()
	assert.Equal(t, 650.0, d.Overall)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, 100.0, d.Lines[1].Share)
}
