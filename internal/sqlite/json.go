package sqlite

import "github.com/mesh-intelligence/giftcharts/pkg/types"

// JSONL record structures. Field names match the SQLite column names so the
// loader can map records to columns directly.

// tableJSON is one line of chart_tables.jsonl.
type tableJSON struct {
	TableID   string `json:"table_id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Position  int    `json:"position"`
}

// productJSON is one line of products.jsonl.
type productJSON struct {
	TableID     string  `json:"table_id"`
	ProductID   string  `json:"product_id"`
	Ordinal     int     `json:"ordinal"`
	PID         *string `json:"pid"`
	Type        *string `json:"type"`
	Name        string  `json:"name"`
	Vendor      string  `json:"vendor"`
	UID         string  `json:"uid"`
	PlannedCost float64 `json:"planned_cost"`
	Price       float64 `json:"price"`
	PaidBy      string  `json:"paid_by"`
	Note        string  `json:"note"`
	Link        string  `json:"link"`
	GroupName   string  `json:"group_name"`
	IsFinal     bool    `json:"is_final"`
}

// catalogJSON is one line of catalog.jsonl.
type catalogJSON struct {
	ObjectID string  `json:"object_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Type     string  `json:"type"`
	UID      string  `json:"uid"`
	Active   bool    `json:"active"`
	Promoted bool    `json:"promoted"`
}

// ownerJSON is one line of owners.jsonl.
type ownerJSON struct {
	UID      string `json:"uid"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// nullable maps the empty string to a JSON null, the stored form of an
// unbound catalog reference.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func productRecord(tableID string, ordinal int, p types.Product) productJSON {
	return productJSON{
		TableID:     tableID,
		ProductID:   p.ID,
		Ordinal:     ordinal,
		PID:         nullable(p.PID),
		Type:        nullable(p.Type),
		Name:        p.Name,
		Vendor:      p.Vendor,
		UID:         p.OwnerID,
		PlannedCost: p.PlannedCost,
		Price:       p.Price,
		PaidBy:      p.PaidBy,
		Note:        p.Note,
		Link:        p.Link,
		GroupName:   p.Group,
		IsFinal:     p.IsFinal,
	}
}
