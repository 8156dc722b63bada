package types

import (
	"context"
	"errors"
)

// Table is one registry chart: a named, ordered collection of desired
// products. A Default table is the shared read-only template; it must be
// duplicated before it can be edited.
type Table struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Default  bool      `json:"default"`
	Products []Product `json:"products"`
}

// Clone returns a deep copy of the table. The product slice of the copy
// shares no memory with the original.
func (t Table) Clone() Table {
	c := t
	if t.Products != nil {
		c.Products = make([]Product, len(t.Products))
		copy(c.Products, t.Products)
	}
	return c
}

// IndexOf returns the position of the product with the given id, or -1.
func (t Table) IndexOf(productID string) int {
	for i, p := range t.Products {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

// Product returns the product with the given id.
// Returns ErrNotFound if no product in the table has that id.
func (t Table) Product(productID string) (Product, error) {
	i := t.IndexOf(productID)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	return t.Products[i], nil
}

// Total returns the sum of the product prices.
func (t Table) Total() float64 {
	var sum float64
	for _, p := range t.Products {
		sum += p.Price
	}
	return sum
}

// TableStore is the persistence collaborator. UpdateTable stores the full
// table, creating it when its id is unknown.
type TableStore interface {
	LoadTables(ctx context.Context) ([]Table, error)
	UpdateTable(ctx context.Context, table Table) error
	DeleteTable(ctx context.Context, tableID string) error
}

// Table and lookup errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidID    = errors.New("invalid entity ID")
	ErrDuplicateID  = errors.New("duplicate product ID")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidData  = errors.New("invalid entity data")
	ErrStoreClosed  = errors.New("store is detached")
	ErrAlreadyOpen  = errors.New("store is already attached")
	ErrNoTableFound = errors.New("no table selected")
)

// Authorization and mutation errors.
var (
	ErrPermissionDenied  = errors.New("authentication required")
	ErrReadOnlyTable     = errors.New("table is read-only; duplicate it first")
	ErrInvalidFinalState = errors.New("final state must be final or optional")
)
