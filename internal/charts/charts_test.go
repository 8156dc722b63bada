package charts

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// memTables is an in-memory TableStore.
type memTables struct {
	mu      sync.Mutex
	tables  []types.Table
	updates int
	err     error
}

func (m *memTables) LoadTables(ctx context.Context) ([]types.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.Table, len(m.tables))
	for i, t := range m.tables {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *memTables) UpdateTable(ctx context.Context, t types.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.updates++
	for i := range m.tables {
		if m.tables[i].ID == t.ID {
			m.tables[i] = t.Clone()
			return nil
		}
	}
	m.tables = append(m.tables, t.Clone())
	return nil
}

func (m *memTables) DeleteTable(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.tables {
		if m.tables[i].ID == id {
			m.tables = append(m.tables[:i], m.tables[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (m *memTables) get(id string) (types.Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return types.Table{}, false
}

type modal struct {
	kind    string
	payload types.ModalPayload
}

type recordingPresenter struct {
	modals []modal
}

func (p *recordingPresenter) PresentModal(kind string, payload types.ModalPayload) {
	p.modals = append(p.modals, modal{kind, payload})
}

func (p *recordingPresenter) kinds() []string {
	var out []string
	for _, m := range p.modals {
		out = append(out, m.kind)
	}
	return out
}

type recordingNavigator struct {
	terms []string
}

func (n *recordingNavigator) TriggerGlobalSearch(term string) {
	n.terms = append(n.terms, term)
}

type emptySearcher struct{}

func (emptySearcher) SearchCatalog(ctx context.Context, q types.CatalogQuery) (types.CatalogResult, error) {
	return types.CatalogResult{}, nil
}

// countingDirectory answers contact lookups from a map and counts calls.
type countingDirectory struct {
	mu       sync.Mutex
	contacts map[string]string
	calls    int
}

func (d *countingDirectory) GetOwnerDisplayName(ctx context.Context, ownerID string) (string, error) {
	return "", types.ErrNotFound
}

func (d *countingDirectory) GetOwnerContact(ctx context.Context, ownerID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	c, ok := d.contacts[ownerID]
	if !ok {
		return "", types.ErrNotFound
	}
	return c, nil
}
