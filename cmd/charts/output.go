// Output formatting shared by the charts commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/giftcharts/internal/charts"
	"github.com/mesh-intelligence/giftcharts/internal/marketplace"
	"github.com/mesh-intelligence/giftcharts/internal/projector"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// rowView is the JSON shape of one projected row.
type rowView struct {
	Kind     string        `json:"kind"`
	Position int           `json:"position"`
	Product  types.Product `json:"product"`
	Draft    *types.Draft  `json:"draft,omitempty"`
}

type sectionView struct {
	Group      string    `json:"group"`
	ShowHeader bool      `json:"show_header"`
	Rows       []rowView `json:"rows"`
}

type tableView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Default  bool          `json:"default"`
	Total    float64       `json:"total"`
	Groups   []string      `json:"groups"`
	Sections []sectionView `json:"sections"`
	Trailing *rowView      `json:"trailing,omitempty"`
}

func newRowView(r projector.Row) rowView {
	return rowView{Kind: r.Kind.String(), Position: r.Position, Product: r.Product, Draft: r.Draft}
}

func newTableView(t types.Table, p projector.Projection) tableView {
	v := tableView{ID: t.ID, Name: t.Name, Default: t.Default, Total: t.Total(), Groups: p.Groups}
	for _, s := range p.Sections {
		sv := sectionView{Group: s.Group, ShowHeader: s.ShowHeader, Rows: make([]rowView, 0, len(s.Rows))}
		for _, r := range s.Rows {
			sv.Rows = append(sv.Rows, newRowView(r))
		}
		v.Sections = append(v.Sections, sv)
	}
	if p.Trailing != nil {
		r := newRowView(*p.Trailing)
		v.Trailing = &r
	}
	return v
}

// printProjection renders a table grouped into sections.
func printProjection(w io.Writer, t types.Table, p projector.Projection) error {
	suffix := ""
	if t.Default {
		suffix = " (shared template, read-only)"
	}
	fmt.Fprintf(w, "%s [%s]%s\n", t.Name, t.ID, suffix)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tVENDOR\tPLANNED\tPRICE\tPAID BY\tFINAL")
	for _, s := range p.Sections {
		if s.ShowHeader {
			fmt.Fprintf(tw, "%s\t\t\t\t\t\t\n", strings.ToUpper(s.Group))
		}
		for _, r := range s.Rows {
			printRow(tw, r)
		}
	}
	if p.Trailing != nil {
		printRow(tw, *p.Trailing)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total: %s\n", types.FormatAmount(t.Total()))
	return err
}

func printRow(w io.Writer, r projector.Row) {
	if r.Draft != nil {
		d := r.Draft
		fmt.Fprintf(w, "* %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Vendor, d.PlannedCost, d.Price, d.PaidBy, r.Kind)
		return
	}
	p := r.Product
	final := ""
	if p.IsFinal {
		final = "yes"
	}
	fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		p.ID, p.Name, p.Vendor, types.FormatAmount(p.PlannedCost), types.FormatAmount(p.Price), p.PaidBy, final)
}

func printTables(w io.Writer, tables []types.Table, currentID string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tPRODUCTS\tTOTAL\tSHARED")
	for _, t := range tables {
		marker := " "
		if t.ID == currentID {
			marker = "*"
		}
		shared := ""
		if t.Default {
			shared = "yes"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%d\t%s\t%s\n",
			marker, t.ID, t.Name, len(t.Products), types.FormatAmount(t.Total()), shared)
	}
	return tw.Flush()
}

func printDashboard(w io.Writer, d charts.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tPRODUCTS\tFINAL\tPLANNED\tTOTAL\tSHARE")
	for _, l := range d.Lines {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%.1f%%\n",
			l.Name, l.Products, l.Final, types.FormatAmount(l.Planned), types.FormatAmount(l.Total), l.Share)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Overall: %s\n", types.FormatAmount(d.Overall))
	return err
}

func printEntries(w io.Writer, entries []types.CatalogEntry, sellers map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT ID\tNAME\tPRICE\tTYPE\tSELLER")
	for _, e := range entries {
		seller := e.UID
		if name, ok := sellers[e.UID]; ok {
			seller = name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ObjectID, e.Name, types.FormatAmount(e.Price), e.Type, seller)
	}
	return tw.Flush()
}

// printPage renders a marketplace page with its facets and page links.
func printPage(w io.Writer, term string, page marketplace.Page) error {
	fmt.Fprintf(w, "%d results for %q\n", page.TotalItems, term)
	if err := printEntries(w, page.Hits, page.Sellers); err != nil {
		return err
	}
	for _, f := range page.Facets {
		labels := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			labels = append(labels, fmt.Sprintf("%s (%d)", v.Label, v.Count))
		}
		fmt.Fprintf(w, "%s: %s\n", f.Name, strings.Join(labels, ", "))
	}

	win, ok := marketplace.PageWindow(page.Page, page.TotalPages)
	if !ok {
		return nil
	}
	links := make([]string, 0, len(win.Pages)+2)
	if win.CanPrev {
		links = append(links, "<")
	}
	for _, p := range win.Pages {
		if p == win.Current {
			links = append(links, fmt.Sprintf("[%d]", p+1))
		} else {
			links = append(links, fmt.Sprintf("%d", p+1))
		}
	}
	if win.CanNext {
		links = append(links, ">")
	}
	_, err := fmt.Fprintf(w, "pages: %s\n", strings.Join(links, " "))
	return err
}
