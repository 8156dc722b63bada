// Catalog, owner and marketplace commands for the charts CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/giftcharts/internal/marketplace"
	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

var catalogFlags struct {
	id       string
	name     string
	price    float64
	kind     string
	seller   string
	inactive bool
	promoted bool
	all      bool
	limit    int
}

var marketFlags struct {
	page    int
	types   []string
	sellers []string
}

var ownerFlags struct {
	id    string
	name  string
	email string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Search and populate the local catalog",
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search catalog entries by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.backend.SearchCatalog(cmd.Context(), types.CatalogQuery{
			Text:       args[0],
			ActiveOnly: !catalogFlags.all,
			Limit:      catalogFlags.limit,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), res.Hits)
		}
		return printEntries(cmd.OutOrStdout(), res.Hits, nil)
	},
}

var catalogAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a catalog entry",
	Long: `Add stores a catalog entry. An existing entry with the same object id is
replaced.

Example:
  charts catalog add --id c1 --name "Wedding cake" --price 120 --type food --seller u1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		e := types.CatalogEntry{
			ObjectID: catalogFlags.id,
			Name:     catalogFlags.name,
			Price:    catalogFlags.price,
			Type:     catalogFlags.kind,
			UID:      catalogFlags.seller,
			Active:   !catalogFlags.inactive,
			Promoted: catalogFlags.promoted,
		}
		if err := a.backend.PutCatalogEntry(cmd.Context(), e); err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), e)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored catalog entry %q [%s]\n", e.Name, e.ObjectID)
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Manage seller directory records",
}

var ownerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a seller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		o := types.Owner{ID: ownerFlags.id, Name: ownerFlags.name, Email: ownerFlags.email}
		if err := a.backend.PutOwner(cmd.Context(), o); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored owner %q [%s]\n", o.Name, o.ID)
		return nil
	},
}

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Browse the marketplace",
}

var marketSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search active marketplace listings with facets",
	Long: `Search lists active, non-promoted marketplace listings one page at a time.
Charity listings are not shown. Narrow the results with --type and --seller;
both take facet values as printed under the results.

Example:
  charts market search cake
  charts market search cake --page 2 --type food`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if marketFlags.page < 1 {
			return fmt.Errorf("%w: --page starts at 1", errUsage)
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		text := ""
		if len(args) == 1 {
			text = args[0]
		}
		page, err := a.browser.Browse(cmd.Context(), marketplace.Query{
			Text:    text,
			Page:    marketFlags.page - 1,
			Types:   marketFlags.types,
			Sellers: marketFlags.sellers,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), page)
		}
		return printPage(cmd.OutOrStdout(), text, page)
	},
}

func init() {
	catalogSearchCmd.Flags().BoolVar(&catalogFlags.all, "all", false, "include inactive entries")
	catalogSearchCmd.Flags().IntVar(&catalogFlags.limit, "limit", types.DefaultSearchLimit, "maximum entries to list (0 for all)")

	f := catalogAddCmd.Flags()
	f.StringVar(&catalogFlags.id, "id", "", "object id (required)")
	f.StringVar(&catalogFlags.name, "name", "", "listing name (required)")
	f.Float64Var(&catalogFlags.price, "price", 0, "listing price")
	f.StringVar(&catalogFlags.kind, "type", "", "listing type")
	f.StringVar(&catalogFlags.seller, "seller", "", "seller uid")
	f.BoolVar(&catalogFlags.inactive, "inactive", false, "store the entry as inactive")
	f.BoolVar(&catalogFlags.promoted, "promoted", false, "mark the entry as promoted")
	_ = catalogAddCmd.MarkFlagRequired("id")
	_ = catalogAddCmd.MarkFlagRequired("name")

	f = ownerAddCmd.Flags()
	f.StringVar(&ownerFlags.id, "id", "", "owner uid (required)")
	f.StringVar(&ownerFlags.name, "name", "", "display name")
	f.StringVar(&ownerFlags.email, "email", "", "contact email")
	_ = ownerAddCmd.MarkFlagRequired("id")

	marketSearchCmd.Flags().IntVar(&marketFlags.page, "page", 1, "page number, starting at 1")
	marketSearchCmd.Flags().StringSliceVar(&marketFlags.types, "type", nil, "only these listing types")
	marketSearchCmd.Flags().StringSliceVar(&marketFlags.sellers, "seller", nil, "only these seller uids")

	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	ownerCmd.AddCommand(ownerAddCmd)
	marketCmd.AddCommand(marketSearchCmd)
}
