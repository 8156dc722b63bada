// Package projector turns a registry table, the pending drafts and an
// optional search filter into the grouped, ordered rows a view renders.
// Every function here is pure: inputs are never modified.
package projector

import (
	"strings"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// RowKind tells a renderer which widget a row needs.
type RowKind int

// Row kinds.
const (
	RowProduct RowKind = iota
	RowNewDraft
	RowEditDraft
)

func (k RowKind) String() string {
	switch k {
	case RowProduct:
		return "product"
	case RowNewDraft:
		return "new"
	case RowEditDraft:
		return "edit"
	default:
		return "unknown"
	}
}

// Row is one rendered line. Position is the product's index in the
// unfiltered table, or -1 for a new-draft row. For draft rows Draft holds
// the in-progress values; for edit rows Product still holds the persisted
// values.
type Row struct {
	Kind     RowKind
	Position int
	Product  types.Product
	Draft    *types.Draft
}

// Section is the run of rows belonging to one group.
type Section struct {
	Group      string
	ShowHeader bool
	Rows       []Row
}

// Projection is the full render plan of a table. Trailing is set when a new
// draft has no visible anchor product.
type Projection struct {
	Groups   []string
	Sections []Section
	Trailing *Row
}

// Rows flattens the projection in render order, trailing row last.
func (p Projection) Rows() []Row {
	var rows []Row
	for _, s := range p.Sections {
		rows = append(rows, s.Rows...)
	}
	if p.Trailing != nil {
		rows = append(rows, *p.Trailing)
	}
	return rows
}

// Drafts are the two draft slots as seen by the projector.
type Drafts struct {
	New  *types.Draft
	Edit *types.Draft
}

// GroupOf returns the section a product belongs to.
func GroupOf(p types.Product) string {
	if p.Group == "" {
		return types.OtherGroup
	}
	return p.Group
}

// Groups returns the table's sections: distinct non-empty groups in order of
// first appearance, then OtherGroup when any product is ungrouped. A table
// without products has the single group OtherGroup.
func Groups(t types.Table) []string {
	var groups []string
	seen := make(map[string]bool)
	other := false
	for _, p := range t.Products {
		if p.Group == "" || p.Group == types.OtherGroup {
			other = true
			continue
		}
		if !seen[p.Group] {
			seen[p.Group] = true
			groups = append(groups, p.Group)
		}
	}
	if other || len(groups) == 0 {
		groups = append(groups, types.OtherGroup)
	}
	return groups
}

// Matches reports whether p passes the filter. A nil filter or an empty term
// passes everything.
func Matches(p types.Product, f *types.SearchFilter) bool {
	if f == nil || f.Term == "" {
		return true
	}
	var value string
	switch f.Field {
	case types.SearchByVendor:
		value = p.Vendor
	default:
		value = p.Name
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(f.Term))
}

// Project builds the render plan. Products are ordered by the index of their
// group in Groups, keeping table order inside a group.
func Project(t types.Table, d Drafts, f *types.SearchFilter) Projection {
	groups := Groups(t)
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g] = i
	}

	anchor := -1
	if d.New != nil {
		// Empty groups compare equal, so an ungrouped draft anchors on an
		// ungrouped product.
		a := d.New.Index - 1
		if d.New.AnchorID != "" {
			a = t.IndexOf(d.New.AnchorID)
		}
		if a >= 0 && a < len(t.Products) && d.New.Group == t.Products[a].Group {
			anchor = a
		}
	}

	sections := make([]Section, len(groups))
	for i, g := range groups {
		sections[i] = Section{
			Group:      g,
			ShowHeader: len(groups) > 1 || g != types.OtherGroup,
		}
	}

	injected := false
	for pos, p := range t.Products {
		if !Matches(p, f) {
			continue
		}
		s := &sections[index[GroupOf(p)]]

		row := Row{Kind: RowProduct, Position: pos, Product: p}
		if d.Edit != nil && d.Edit.ID == p.ID {
			edit := *d.Edit
			row.Kind = RowEditDraft
			row.Draft = &edit
		}
		s.Rows = append(s.Rows, row)

		if pos == anchor {
			draft := *d.New
			s.Rows = append(s.Rows, Row{Kind: RowNewDraft, Position: -1, Draft: &draft})
			injected = true
		}
	}

	proj := Projection{Groups: groups, Sections: sections}
	if d.New != nil && !injected {
		draft := *d.New
		proj.Trailing = &Row{Kind: RowNewDraft, Position: -1, Draft: &draft}
	}
	return proj
}
