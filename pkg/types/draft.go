package types

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Slot addresses one of the two process-wide draft cells.
type Slot string

// Draft slots.
const (
	SlotNew  Slot = "new"
	SlotEdit Slot = "edit"
)

// Field names a user-editable draft field.
type Field string

// Editable draft fields.
const (
	FieldName        Field = "name"
	FieldVendor      Field = "vendor"
	FieldPlannedCost Field = "plannedCost"
	FieldPrice       Field = "price"
	FieldPaidBy      Field = "paidBy"
	FieldNote        Field = "note"
	FieldLink        Field = "link"
	FieldGroup       Field = "group"
)

// SearchState tracks the catalog-match lifecycle of a draft.
type SearchState int

// Search states. A draft may be saved in every state except SearchSearching.
const (
	SearchIdle SearchState = iota
	SearchSearching
	SearchBound
	SearchUnbound
)

func (s SearchState) String() string {
	switch s {
	case SearchIdle:
		return "idle"
	case SearchSearching:
		return "searching"
	case SearchBound:
		return "bound"
	case SearchUnbound:
		return "unbound"
	default:
		return "unknown"
	}
}

// Draft is an uncommitted product. Amounts are kept as the text the user
// typed and converted to numbers by Product. A new draft is placed right
// after the product named by AnchorID, or appended when it has none; Index
// caches that splice position for the table as last seen. Edit drafts are
// matched by ID instead.
type Draft struct {
	ID          string `json:"id"`
	PID         string `json:"pid,omitempty"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name"`
	Vendor      string `json:"vendor"`
	OwnerID     string `json:"uid,omitempty"`
	PlannedCost string `json:"plannedCost"`
	Price       string `json:"price"`
	PaidBy      string `json:"paidBy"`
	Note        string `json:"note"`
	Link        string `json:"link"`
	Group       string `json:"group"`
	IsFinal     bool   `json:"isFinal"`
	AnchorID    string `json:"anchorId,omitempty"`
	Index       int    `json:"index"`
}

// Draft errors.
var (
	ErrNoDraft           = errors.New("no draft in slot")
	ErrInvalidDraftState = errors.New("catalog search in progress")
	ErrInvalidAmount     = errors.New("amount must be a number")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrFieldLocked       = errors.New("field is locked by catalog binding")
	ErrUnknownField      = errors.New("unknown draft field")
	ErrUnknownSlot       = errors.New("unknown draft slot")
	ErrLookupFailure     = errors.New("directory lookup failed")
	ErrNoMatch           = errors.New("no catalog match with that id")
)

// DraftFromProduct copies every field of p into a draft.
func DraftFromProduct(p Product) Draft {
	return Draft{
		ID:          p.ID,
		PID:         p.PID,
		Type:        p.Type,
		Name:        p.Name,
		Vendor:      p.Vendor,
		OwnerID:     p.OwnerID,
		PlannedCost: FormatAmount(p.PlannedCost),
		Price:       FormatAmount(p.Price),
		PaidBy:      p.PaidBy,
		Note:        p.Note,
		Link:        p.Link,
		Group:       p.Group,
		IsFinal:     p.IsFinal,
	}
}

// InsertAt returns the splice position of a new draft in t: right after its
// anchor product, or the end of t when it has no anchor or the anchor is
// gone. The result is always within [0, len(t.Products)].
func (d Draft) InsertAt(t Table) int {
	if d.AnchorID != "" {
		if i := t.IndexOf(d.AnchorID); i >= 0 {
			return i + 1
		}
	}
	return len(t.Products)
}

// Bound reports whether the draft references a catalog entry.
func (d Draft) Bound() bool {
	return d.PID != ""
}

// Product drops the index and converts the amounts to numbers. An empty
// amount becomes zero.
func (d Draft) Product() (Product, error) {
	price, err := ParseAmount(d.Price)
	if err != nil {
		return Product{}, err
	}
	planned, err := ParseAmount(d.PlannedCost)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:          d.ID,
		PID:         d.PID,
		Type:        d.Type,
		Name:        d.Name,
		Vendor:      d.Vendor,
		OwnerID:     d.OwnerID,
		PlannedCost: planned,
		Price:       price,
		PaidBy:      d.PaidBy,
		Note:        d.Note,
		Link:        d.Link,
		Group:       d.Group,
		IsFinal:     d.IsFinal,
	}, nil
}

// Get returns the current text of a field.
func (d Draft) Get(f Field) (string, error) {
	switch f {
	case FieldName:
		return d.Name, nil
	case FieldVendor:
		return d.Vendor, nil
	case FieldPlannedCost:
		return d.PlannedCost, nil
	case FieldPrice:
		return d.Price, nil
	case FieldPaidBy:
		return d.PaidBy, nil
	case FieldNote:
		return d.Note, nil
	case FieldLink:
		return d.Link, nil
	case FieldGroup:
		return d.Group, nil
	default:
		return "", ErrUnknownField
	}
}

// Set assigns a field. Amount fields reject non-numeric and negative text;
// on error the draft is left unchanged.
func (d *Draft) Set(f Field, value string) error {
	switch f {
	case FieldName:
		d.Name = value
	case FieldVendor:
		d.Vendor = value
	case FieldPlannedCost, FieldPrice:
		v, err := ParseAmount(value)
		if err != nil {
			return err
		}
		if v < 0 {
			return ErrNegativeAmount
		}
		if f == FieldPrice {
			d.Price = value
		} else {
			d.PlannedCost = value
		}
	case FieldPaidBy:
		d.PaidBy = value
	case FieldNote:
		d.Note = value
	case FieldLink:
		d.Link = value
	case FieldGroup:
		d.Group = value
	default:
		return ErrUnknownField
	}
	return nil
}

// ParseAmount converts user-entered text to a number. Empty text is zero.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders a number the way ParseAmount reads it back.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
