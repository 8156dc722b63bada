package charts

import "github.com/mesh-intelligence/giftcharts/pkg/types"

// BudgetLine is one table's row on the dashboard.
type BudgetLine struct {
	TableID  string  `json:"table_id"`
	Name     string  `json:"name"`
	Default  bool    `json:"default"`
	Products int     `json:"products"`
	Final    int     `json:"final"`
	Planned  float64 `json:"planned"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"` // percent of Dashboard.Overall
}

// Dashboard summarizes the budget of every table.
type Dashboard struct {
	Lines   []BudgetLine `json:"lines"`
	Overall float64      `json:"overall"`
}

// Summarize computes the dashboard for tables. Shares are percentages of
// the overall price total and are all zero when that total is zero.
func Summarize(tables []types.Table) Dashboard {
	d := Dashboard{Lines: make([]BudgetLine, 0, len(tables))}
	for _, t := range tables {
		line := BudgetLine{
			TableID:  t.ID,
			Name:     t.Name,
			Default:  t.Default,
			Products: len(t.Products),
			Total:    t.Total(),
		}
		for _, p := range t.Products {
			line.Planned += p.PlannedCost
			if p.IsFinal {
				line.Final++
			}
		}
		d.Overall += line.Total
		d.Lines = append(d.Lines, line)
	}
	if d.Overall == 0 {
		return d
	}
	for i := range d.Lines {
		d.Lines[i].Share = d.Lines[i].Total / d.Overall * 100
	}
	return d
}
