package charts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/giftcharts/internal/drafts"
	"github.com/mesh-intelligence/giftcharts/internal/mutation"
	"github.com/mesh-intelligence/giftcharts/internal/projector"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithPresenter sets the modal collaborator used by the gate and by the
// table rename and delete requests.
func WithPresenter(p types.ModalPresenter) ServiceOption {
	return func(s *Service) { s.presenter = p }
}

// WithNavigator sets the global search collaborator.
func WithNavigator(n types.Navigator) ServiceOption {
	return func(s *Service) { s.navigator = n }
}

// WithActor sets the initial actor.
func WithActor(a types.Actor) ServiceOption {
	return func(s *Service) { s.actor = a }
}

// Service executes user actions against the current table. Mutations pass
// the gate, run through the mutation engine, are persisted, and only then
// replace the stored table.
type Service struct {
	store     *Store
	tables    types.TableStore
	drafts    *drafts.Manager
	directory types.Directory
	presenter types.ModalPresenter
	navigator types.Navigator
	gate      *Gate
	logger    *zap.Logger

	mu       sync.Mutex
	actor    types.Actor
	contacts map[string]string
}

// NewService creates a Service. directory may be nil, in which case vendor
// contacts are never found.
func NewService(store *Store, tables types.TableStore, dm *drafts.Manager, directory types.Directory, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		tables:    tables,
		drafts:    dm,
		directory: directory,
		logger:    zap.NewNop(),
		contacts:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = NewGate(s.presenter)
	return s
}

// SetActor changes the user on whose behalf actions run.
func (s *Service) SetActor(a types.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actor = a
}

// Actor returns the current user.
func (s *Service) Actor() types.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor
}

// Drafts returns the draft manager the service commits from.
func (s *Service) Drafts() *drafts.Manager {
	return s.drafts
}

// Load replaces the store contents with the persisted tables.
func (s *Service) Load(ctx context.Context) error {
	tables, err := s.tables.LoadTables(ctx)
	if err != nil {
		return fmt.Errorf("loading tables: %w", err)
	}
	s.store.Set(tables)
	s.logger.Debug("tables loaded", zap.Int("count", len(tables)))
	return nil
}

// Tables returns every loaded table.
func (s *Service) Tables() []types.Table {
	return s.store.Tables()
}

// Current returns the table being viewed.
func (s *Service) Current() (types.Table, error) {
	return s.store.Current()
}

// SelectTable switches the viewed table.
func (s *Service) SelectTable(id string) error {
	return s.store.Select(id)
}

// View projects the current table with the open drafts through filter.
func (s *Service) View(filter *types.SearchFilter) (projector.Projection, error) {
	t, err := s.store.Current()
	if err != nil {
		return projector.Projection{}, err
	}
	newDraft, editDraft := s.drafts.Snapshot()
	return projector.Project(t, projector.Drafts{New: newDraft, Edit: editDraft}, filter), nil
}

// OpenNewDraft starts a new product in the current table. With an anchor
// product id the draft joins that product's group right after it; an empty
// id appends to the end of the table.
func (s *Service) OpenNewDraft(afterProductID string) (types.Draft, error) {
	t, err := s.store.Current()
	if err != nil {
		return types.Draft{}, err
	}
	if err := s.gate.Check(s.Actor(), t, "add products"); err != nil {
		return types.Draft{}, err
	}
	if afterProductID == "" {
		return s.drafts.OpenNewDraft(t, nil, -1), nil
	}
	i := t.IndexOf(afterProductID)
	if i < 0 {
		return types.Draft{}, types.ErrNotFound
	}
	return s.drafts.OpenNewDraft(t, &t.Products[i], i), nil
}

// OpenEditDraft starts editing a product of the current table.
func (s *Service) OpenEditDraft(productID string) (types.Draft, error) {
	t, err := s.store.Current()
	if err != nil {
		return types.Draft{}, err
	}
	if err := s.gate.Check(s.Actor(), t, "edit products"); err != nil {
		return types.Draft{}, err
	}
	p, err := t.Product(productID)
	if err != nil {
		return types.Draft{}, err
	}
	return s.drafts.OpenEditDraft(p), nil
}

// SaveNewDraft inserts the new draft into the current table right after its
// anchor product, or at the end when the anchor is gone. It reports false without error while a catalog search is pending.
func (s *Service) SaveNewDraft(ctx context.Context) (bool, error) {
	t, err := s.store.Current()
	if err != nil {
		return false, err
	}
	actor := s.Actor()
	if err := s.gate.Check(actor, t, "add products"); err != nil {
		return false, err
	}
	d, ok := s.drafts.Draft(types.SlotNew)
	if !ok {
		return false, types.ErrNoDraft
	}
	p, err := s.commit(types.SlotNew)
	if err != nil || p == nil {
		return false, err
	}

	out, err := mutation.AddProduct(actor, t, *p, d.InsertAt(t))
	if err != nil {
		return false, err
	}
	if err := s.persist(ctx, out); err != nil {
		return false, err
	}
	s.drafts.Discard(types.SlotNew)
	s.logger.Info("product added", zap.String("table", out.ID), zap.String("product", p.ID))
	return true, nil
}

// SaveEditDraft writes the edit draft back over the product it was opened
// from. It reports false without error while a catalog search is pending.
func (s *Service) SaveEditDraft(ctx context.Context) (bool, error) {
	t, err := s.store.Current()
	if err != nil {
		return false, err
	}
	if err := s.gate.Check(s.Actor(), t, "edit products"); err != nil {
		return false, err
	}
	p, err := s.commit(types.SlotEdit)
	if err != nil || p == nil {
		return false, err
	}

	out, err := mutation.ReplaceProduct(t, p.ID, *p)
	if err != nil {
		return false, err
	}
	if err := s.persist(ctx, out); err != nil {
		return false, err
	}
	s.drafts.Discard(types.SlotEdit)
	s.logger.Info("product updated", zap.String("table", out.ID), zap.String("product", p.ID))
	return true, nil
}

// commit returns nil without error when the draft cannot be saved yet.
func (s *Service) commit(slot types.Slot) (*types.Product, error) {
	p, err := s.drafts.Commit(slot)
	if errors.Is(err, types.ErrInvalidDraftState) {
		s.logger.Debug("save ignored while catalog search is pending", zap.String("slot", string(slot)))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CancelDraft discards the draft in slot.
func (s *Service) CancelDraft(slot types.Slot) {
	s.drafts.Discard(slot)
}

// RemoveProduct deletes a product from the current table. Final products
// are kept; the result reports whether anything was removed.
func (s *Service) RemoveProduct(ctx context.Context, productID string) (bool, error) {
	t, err := s.store.Current()
	if err != nil {
		return false, err
	}
	if err := s.gate.Check(s.Actor(), t, "remove products"); err != nil {
		return false, err
	}
	out, changed, err := mutation.RemoveProduct(t, productID)
	if err != nil || !changed {
		return false, err
	}
	if err := s.persist(ctx, out); err != nil {
		return false, err
	}
	return true, nil
}

// MarkFinal moves a product of the current table to the target state.
func (s *Service) MarkFinal(ctx context.Context, productID string, target types.FinalState) (bool, error) {
	t, err := s.store.Current()
	if err != nil {
		return false, err
	}
	if err := s.gate.Check(s.Actor(), t, "change products"); err != nil {
		return false, err
	}
	out, changed, err := mutation.ToggleFinal(t, productID, target)
	if err != nil || !changed {
		return false, err
	}
	if err := s.persist(ctx, out); err != nil {
		return false, err
	}
	return true, nil
}

// RequestRename asks the user for a new name of the current table.
func (s *Service) RequestRename() error {
	return s.requestTableModal(types.ModalEditTableName, "rename this table")
}

// RequestDelete asks the user to confirm deleting the current table.
func (s *Service) RequestDelete() error {
	return s.requestTableModal(types.ModalDeleteTable, "delete this table")
}

func (s *Service) requestTableModal(kind, action string) error {
	t, err := s.store.Current()
	if err != nil {
		return err
	}
	if err := s.gate.Check(s.Actor(), t, action); err != nil {
		return err
	}
	if s.presenter != nil {
		s.presenter.PresentModal(kind, types.ModalPayload{Table: &t})
	}
	return nil
}

// RenameTable sets the name of the table with the given id.
func (s *Service) RenameTable(ctx context.Context, id, name string) (types.Table, error) {
	t, err := s.store.Table(id)
	if err != nil {
		return types.Table{}, err
	}
	if err := s.gate.Check(s.Actor(), t, "rename this table"); err != nil {
		return types.Table{}, err
	}
	out, err := mutation.RenameTable(t, name)
	if err != nil {
		return types.Table{}, err
	}
	if err := s.persist(ctx, out); err != nil {
		return types.Table{}, err
	}
	return out, nil
}

// DeleteTable removes the table with the given id.
func (s *Service) DeleteTable(ctx context.Context, id string) error {
	t, err := s.store.Table(id)
	if err != nil {
		return err
	}
	if err := s.gate.Check(s.Actor(), t, "delete this table"); err != nil {
		return err
	}
	if err := s.tables.DeleteTable(ctx, id); err != nil {
		return fmt.Errorf("deleting table %s: %w", id, err)
	}
	s.store.Remove(id)
	s.logger.Info("table deleted", zap.String("table", id))
	return nil
}

// DuplicateTable copies a table, shared templates included, into a new
// editable table and makes the copy current. Only authentication is
// required.
func (s *Service) DuplicateTable(ctx context.Context, id, name string) (types.Table, error) {
	t, err := s.store.Table(id)
	if err != nil {
		return types.Table{}, err
	}
	if err := s.gate.CheckAuth(s.Actor(), "duplicate tables"); err != nil {
		return types.Table{}, err
	}
	out := mutation.DuplicateTable(t, name)
	if err := s.persist(ctx, out); err != nil {
		return types.Table{}, err
	}
	if err := s.store.Select(out.ID); err != nil {
		return types.Table{}, err
	}
	s.logger.Info("table duplicated", zap.String("from", id), zap.String("table", out.ID))
	return out, nil
}

// persist stores t durably and then replaces the in-memory copy.
func (s *Service) persist(ctx context.Context, t types.Table) error {
	if err := s.tables.UpdateTable(ctx, t); err != nil {
		return fmt.Errorf("persisting table %s: %w", t.ID, err)
	}
	s.store.Put(t)
	if cur, err := s.store.Current(); err == nil && cur.ID == t.ID {
		s.drafts.Rebase(t)
	}
	return nil
}

// VendorContact returns the contact email of a product's seller. Successful
// lookups are cached per owner.
func (s *Service) VendorContact(ctx context.Context, ownerID string) (string, error) {
	if ownerID == "" {
		return "", types.ErrNotFound
	}
	s.mu.Lock()
	contact, ok := s.contacts[ownerID]
	s.mu.Unlock()
	if ok {
		return contact, nil
	}
	if s.directory == nil {
		return "", types.ErrNotFound
	}

	contact, err := s.directory.GetOwnerContact(ctx, ownerID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.contacts[ownerID] = contact
	s.mu.Unlock()
	return contact, nil
}

// SearchProductName hands the name of a product in the current table to the
// global search.
func (s *Service) SearchProductName(productID string) error {
	t, err := s.store.Current()
	if err != nil {
		return err
	}
	p, err := t.Product(productID)
	if err != nil {
		return err
	}
	if s.navigator != nil {
		s.navigator.TriggerGlobalSearch(p.Name)
	}
	return nil
}

// Dashboard summarizes every loaded table.
func (s *Service) Dashboard() Dashboard {
	return Summarize(s.store.Tables())
}
