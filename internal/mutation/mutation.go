// Package mutation applies registry edits copy-on-write. Every operation
// returns a fresh table that shares no memory with its input; the caller
// persists the result and replaces its own reference. Operations on a
// default (shared template) table return ErrReadOnlyTable together with an
// unchanged copy.
package mutation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// NewID generates a UUID v7 for tables and products.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// AddProduct inserts p at position at, clamped to [0, len(products)].
// Returns ErrPermissionDenied for an anonymous actor, ErrReadOnlyTable for a
// default table, ErrInvalidID for an empty product id and ErrDuplicateID when
// the id is already present.
func AddProduct(actor types.Actor, t types.Table, p types.Product, at int) (types.Table, error) {
	out := t.Clone()
	if !actor.Authenticated() {
		return out, types.ErrPermissionDenied
	}
	if t.Default {
		return out, types.ErrReadOnlyTable
	}
	if p.ID == "" {
		return out, types.ErrInvalidID
	}
	if t.IndexOf(p.ID) >= 0 {
		return out, types.ErrDuplicateID
	}

	if at < 0 {
		at = 0
	}
	if at > len(out.Products) {
		at = len(out.Products)
	}
	products := make([]types.Product, 0, len(out.Products)+1)
	products = append(products, out.Products[:at]...)
	products = append(products, p)
	products = append(products, out.Products[at:]...)
	out.Products = products
	return out, nil
}

// RemoveProduct deletes the product with the given id. A missing id or a
// final product leaves the table unchanged; changed reports whether a
// product was removed.
func RemoveProduct(t types.Table, productID string) (out types.Table, changed bool, err error) {
	out = t.Clone()
	if t.Default {
		return out, false, types.ErrReadOnlyTable
	}
	i := out.IndexOf(productID)
	if i < 0 || out.Products[i].IsFinal {
		return out, false, nil
	}
	out.Products = append(out.Products[:i], out.Products[i+1:]...)
	return out, true, nil
}

// ReplaceProduct swaps the product with the given id for p, keeping its
// position. The id of the stored product never changes.
// Returns ErrNotFound if no product has that id.
func ReplaceProduct(t types.Table, productID string, p types.Product) (types.Table, error) {
	out := t.Clone()
	if t.Default {
		return out, types.ErrReadOnlyTable
	}
	i := out.IndexOf(productID)
	if i < 0 {
		return out, types.ErrNotFound
	}
	p.ID = productID
	out.Products[i] = p
	return out, nil
}

// ToggleFinal moves a product into the target state. A product already in
// that state, or a missing id, is a no-op.
func ToggleFinal(t types.Table, productID string, target types.FinalState) (out types.Table, changed bool, err error) {
	out = t.Clone()
	if t.Default {
		return out, false, types.ErrReadOnlyTable
	}
	if !target.Valid() {
		return out, false, types.ErrInvalidFinalState
	}
	i := out.IndexOf(productID)
	if i < 0 || target.Is(out.Products[i]) {
		return out, false, nil
	}
	out.Products[i].IsFinal = !out.Products[i].IsFinal
	return out, true, nil
}

// RenameTable sets the display name of a table.
func RenameTable(t types.Table, name string) (types.Table, error) {
	out := t.Clone()
	if t.Default {
		return out, types.ErrReadOnlyTable
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return out, types.ErrInvalidName
	}
	out.Name = name
	return out, nil
}

// DuplicateTable copies a table, default or not, into a new editable table
// with fresh table and product ids. An empty name reuses the source name.
func DuplicateTable(t types.Table, name string) types.Table {
	out := t.Clone()
	out.ID = NewID()
	out.Default = false
	if name = strings.TrimSpace(name); name != "" {
		out.Name = name
	}
	for i := range out.Products {
		out.Products[i].ID = NewID()
	}
	return out
}
