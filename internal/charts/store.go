// Package charts wires the charts core together: the in-memory table store,
// the authorization gate in front of every mutation, and the Service that
// turns user actions into draft, mutation and persistence calls.
package charts

import (
	"sync"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// Store holds the loaded tables and the id of the table being viewed.
// Reads return copies.
type Store struct {
	mu        sync.RWMutex
	tables    []types.Table
	currentID string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces every table. The selected id is kept as is; Current falls
// back to the first table while no table has that id.
func (s *Store) Set(tables []types.Table) {
	cp := make([]types.Table, len(tables))
	for i, t := range tables {
		cp[i] = t.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = cp
}

// Tables returns copies of all tables in store order.
func (s *Store) Tables() []types.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = t.Clone()
	}
	return out
}

// Table returns a copy of the table with the given id.
// Returns ErrNotFound if it is not loaded.
func (s *Store) Table(id string) (types.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tables[i].Clone(), nil
	}
	return types.Table{}, types.ErrNotFound
}

// Current returns the selected table, falling back to the first table when
// nothing valid is selected. Returns ErrNoTableFound when the store is empty.
func (s *Store) Current() (types.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.tables) == 0 {
		return types.Table{}, types.ErrNoTableFound
	}
	if i := s.indexLocked(s.currentID); i >= 0 {
		return s.tables[i].Clone(), nil
	}
	return s.tables[0].Clone(), nil
}

// Select makes the table with the given id current.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return types.ErrNotFound
	}
	s.currentID = id
	return nil
}

// Put stores t, replacing the table with the same id or appending it.
func (s *Store) Put(t types.Table) {
	t = t.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(t.ID); i >= 0 {
		s.tables[i] = t
		return
	}
	s.tables = append(s.tables, t)
}

// Remove drops the table with the given id. Removing the current table
// clears the selection.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	s.tables = append(s.tables[:i], s.tables[i+1:]...)
	if s.currentID == id {
		s.currentID = ""
	}
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, t := range s.tables {
		if t.ID == id {
			return i
		}
	}
	return -1
}
