// Package drafts holds the two process-wide draft slots (one new product,
// one edited product) and drives their catalog-match lifecycle:
//
//	Idle -> Searching -> {Bound, Unbound}
//
// Typing a name longer than two characters schedules a debounced catalog
// search. While it is outstanding the draft cannot be committed. Each
// request carries a per-slot token and responses whose token is no longer
// current are dropped, so a slow search or owner lookup never overwrites
// newer input.
package drafts

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/giftcharts/internal/mutation"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// minSearchLen is the name length above which a catalog search starts.
const minSearchLen = 2

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithBlocker sets the collaborator raised while an owner lookup runs.
func WithBlocker(b types.Blocker) Option {
	return func(m *Manager) { m.blocker = b }
}

// WithDebounce sets the search quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// WithSearchLimit caps the number of catalog matches per search.
func WithSearchLimit(n int) Option {
	return func(m *Manager) { m.limit = n }
}

// WithIDGenerator replaces the product id generator.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// Manager owns the draft slots. It is safe for concurrent use; search and
// lookup completions arrive on timer goroutines.
type Manager struct {
	mu    sync.Mutex
	slots map[types.Slot]*slot

	searcher  types.CatalogSearcher
	directory types.Directory
	blocker   types.Blocker
	logger    *zap.Logger
	debounce  time.Duration
	limit     int
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc
}

// slot is one draft cell. A slot value is replaced, never reused, when a
// draft is opened, so identity checks detect reopened slots.
type slot struct {
	draft   types.Draft
	state   types.SearchState
	matches []types.CatalogEntry
	token   uint64
	timer   *time.Timer
	idle    chan struct{} // closed when a search settles
}

type noopBlocker struct{}

func (noopBlocker) Block(bool) {}

// New creates a Manager with empty slots.
func New(searcher types.CatalogSearcher, directory types.Directory, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		slots:     make(map[types.Slot]*slot),
		searcher:  searcher,
		directory: directory,
		blocker:   noopBlocker{},
		logger:    zap.NewNop(),
		debounce:  types.DefaultSearchDebounce,
		limit:     types.DefaultSearchLimit,
		newID:     mutation.NewID,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close stops pending searches and cancels in-flight collaborator calls.
// The slots keep their drafts.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		m.settleLocked(s)
	}
	m.cancel()
}

// OpenNewDraft starts a new-product draft, replacing any existing one. With
// an anchor product the draft inherits its group and is placed right after
// it, following the anchor by id when t changes; a negative afterIndex
// appends to the end of t.
func (m *Manager) OpenNewDraft(t types.Table, after *types.Product, afterIndex int) types.Draft {
	d := types.Draft{ID: m.newID(), Index: len(t.Products)}
	if after != nil {
		d.Group = after.Group
		d.AnchorID = after.ID
	}
	if afterIndex >= 0 {
		d.Index = afterIndex + 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(types.SlotNew, &slot{draft: d, state: types.SearchIdle})
	return d
}

// Rebase recomputes the splice position of the new draft against t, the
// table as it now stands. A draft whose anchor was removed appends.
func (m *Manager) Rebase(t types.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[types.SlotNew]; ok {
		s.draft.Index = s.draft.InsertAt(t)
	}
}

// OpenEditDraft copies p into the edit slot, discarding any unsaved edit.
// A bound product starts in SearchBound with its own entry as the only match.
func (m *Manager) OpenEditDraft(p types.Product) types.Draft {
	s := &slot{draft: types.DraftFromProduct(p), state: types.SearchIdle}
	if p.Bound() {
		s.state = types.SearchBound
		s.matches = []types.CatalogEntry{{
			ObjectID: p.PID,
			Name:     p.Name,
			Price:    p.Price,
			Type:     p.Type,
			UID:      p.OwnerID,
			Active:   true,
		}}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceLocked(types.SlotEdit, s)
	return s.draft
}

func (m *Manager) replaceLocked(name types.Slot, s *slot) {
	if old, ok := m.slots[name]; ok {
		m.settleLocked(old)
	}
	m.slots[name] = s
}

// Draft returns a copy of the draft in the slot.
func (m *Manager) Draft(name types.Slot) (types.Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[name]
	if !ok {
		return types.Draft{}, false
	}
	return s.draft, true
}

// Snapshot returns copies of both drafts; a nil pointer means the slot is empty.
func (m *Manager) Snapshot() (newDraft, editDraft *types.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[types.SlotNew]; ok {
		d := s.draft
		newDraft = &d
	}
	if s, ok := m.slots[types.SlotEdit]; ok {
		d := s.draft
		editDraft = &d
	}
	return newDraft, editDraft
}

// State returns the search state of the slot; an empty slot is idle.
func (m *Manager) State(name types.Slot) types.SearchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[name]; ok {
		return s.state
	}
	return types.SearchIdle
}

// CanSave reports whether the slot holds a draft that may be committed.
func (m *Manager) CanSave(name types.Slot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[name]
	return ok && s.state != types.SearchSearching
}

// Matches returns the catalog entries found by the last settled search.
func (m *Manager) Matches(name types.Slot) []types.CatalogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[name]
	if !ok {
		return nil
	}
	out := make([]types.CatalogEntry, len(s.matches))
	copy(out, s.matches)
	return out
}

func (m *Manager) slotLocked(name types.Slot) (*slot, error) {
	if name != types.SlotNew && name != types.SlotEdit {
		return nil, types.ErrUnknownSlot
	}
	s, ok := m.slots[name]
	if !ok {
		return nil, types.ErrNoDraft
	}
	return s, nil
}

// UpdateField sets one field of the draft. Negative or non-numeric amounts
// and edits to vendor or price of a bound draft are rejected and leave the
// draft unchanged. A name longer than two characters schedules a catalog
// search; a shorter one cancels the pending search.
func (m *Manager) UpdateField(name types.Slot, f types.Field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.slotLocked(name)
	if err != nil {
		return err
	}
	if s.draft.Bound() && (f == types.FieldVendor || f == types.FieldPrice) {
		return types.ErrFieldLocked
	}
	if err := s.draft.Set(f, value); err != nil {
		return err
	}
	if f != types.FieldName {
		return nil
	}
	if utf8.RuneCountInString(value) > minSearchLen {
		m.scheduleSearchLocked(name, s, value)
	} else {
		m.settleLocked(s)
	}
	return nil
}

func (m *Manager) scheduleSearchLocked(name types.Slot, s *slot, text string) {
	if m.ctx.Err() != nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.token++
	token := s.token
	s.state = types.SearchSearching
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	s.timer = time.AfterFunc(m.debounce, func() {
		m.runSearch(name, s, token, text)
	})
	m.logger.Debug("catalog search scheduled",
		zap.String("slot", string(name)),
		zap.Uint64("token", token),
		zap.String("text", text))
}

func (m *Manager) runSearch(name types.Slot, s *slot, token uint64, text string) {
	res, err := m.searcher.SearchCatalog(m.ctx, types.CatalogQuery{
		Text:       text,
		ActiveOnly: true,
		Limit:      m.limit,
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slots[name] != s || s.token != token {
		m.logger.Debug("stale catalog search dropped",
			zap.String("slot", string(name)),
			zap.Uint64("token", token))
		return
	}
	if err != nil {
		m.logger.Warn("catalog search failed", zap.String("text", text), zap.Error(err))
		res = types.CatalogResult{}
	}

	s.matches = res.Hits
	if len(s.matches) == 0 {
		s.draft.PID = ""
		s.draft.Type = ""
		s.draft.Vendor = ""
		s.draft.OwnerID = ""
	}
	s.timer = nil
	m.finishLocked(s)
}

// settleLocked cancels a pending search, if any, invalidating its token.
func (m *Manager) settleLocked(s *slot) {
	if s.state != types.SearchSearching {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.token++
	m.finishLocked(s)
}

// finishLocked leaves the Searching state and wakes WaitIdle callers.
func (m *Manager) finishLocked(s *slot) {
	if s.draft.Bound() {
		s.state = types.SearchBound
	} else {
		s.state = types.SearchUnbound
	}
	if s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
}

// WaitIdle blocks until the slot has no outstanding search or ctx is done.
func (m *Manager) WaitIdle(ctx context.Context, name types.Slot) error {
	m.mu.Lock()
	s, ok := m.slots[name]
	if !ok || s.idle == nil {
		m.mu.Unlock()
		return nil
	}
	idle := s.idle
	m.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BindCatalogEntry binds the draft to a catalog entry: name, price and type
// come from the entry, vendor from ownerName, and the link is cleared.
func (m *Manager) BindCatalogEntry(name types.Slot, entry types.CatalogEntry, ownerName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.slotLocked(name)
	if err != nil {
		return err
	}
	m.bindLocked(s, entry, ownerName)
	return nil
}

func (m *Manager) bindLocked(s *slot, entry types.CatalogEntry, ownerName string) {
	m.settleLocked(s)
	s.token++
	s.draft.PID = entry.ObjectID
	s.draft.Name = entry.Name
	s.draft.Price = types.FormatAmount(entry.Price)
	s.draft.Type = entry.Type
	s.draft.OwnerID = entry.UID
	s.draft.Vendor = ownerName
	s.draft.Link = ""
	s.state = types.SearchBound
}

// ClearCatalogBinding unbinds the draft and clears name, vendor, price and link.
func (m *Manager) ClearCatalogBinding(name types.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.slotLocked(name)
	if err != nil {
		return err
	}
	m.settleLocked(s)
	s.token++
	s.draft.PID = ""
	s.draft.Type = ""
	s.draft.OwnerID = ""
	s.draft.Name = ""
	s.draft.Vendor = ""
	s.draft.Price = ""
	s.draft.Link = ""
	s.state = types.SearchUnbound
	return nil
}

// SelectMatch binds the draft to one of its current matches. The owner's
// display name is looked up with the blocker raised; a failed lookup is
// logged and leaves the vendor empty. If the draft changed while the lookup
// ran, the result is dropped.
func (m *Manager) SelectMatch(ctx context.Context, name types.Slot, objectID string) error {
	m.mu.Lock()
	s, err := m.slotLocked(name)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	var entry types.CatalogEntry
	found := false
	for _, e := range s.matches {
		if e.ObjectID == objectID {
			entry, found = e, true
			break
		}
	}
	token := s.token
	m.mu.Unlock()

	if !found {
		return types.ErrNoMatch
	}

	ownerName := m.lookupOwner(ctx, entry.UID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots[name] != s || s.token != token {
		m.logger.Debug("stale owner lookup dropped",
			zap.String("slot", string(name)),
			zap.String("objectID", objectID))
		return nil
	}
	m.bindLocked(s, entry, ownerName)
	return nil
}

func (m *Manager) lookupOwner(ctx context.Context, ownerID string) string {
	m.blocker.Block(true)
	defer m.blocker.Block(false)

	if m.directory == nil || ownerID == "" {
		return ""
	}
	name, err := m.directory.GetOwnerDisplayName(ctx, ownerID)
	if err != nil {
		m.logger.Warn("owner lookup failed",
			zap.String("owner", ownerID),
			zap.Error(errors.Join(types.ErrLookupFailure, err)))
		return ""
	}
	return name
}

// Discard empties the slot and cancels its pending search.
func (m *Manager) Discard(name types.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[name]; ok {
		m.settleLocked(s)
		delete(m.slots, name)
	}
}

// Commit converts the draft into a product: the index is dropped and the
// amounts become numbers. The slot keeps its draft; the caller discards it
// once the product is stored. Returns ErrInvalidDraftState while a search
// is outstanding.
func (m *Manager) Commit(name types.Slot) (types.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.slotLocked(name)
	if err != nil {
		return types.Product{}, err
	}
	if s.state == types.SearchSearching {
		return types.Product{}, types.ErrInvalidDraftState
	}
	return s.draft.Product()
}
