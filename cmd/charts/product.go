// Product commands for the charts CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// productFlags holds the field flags shared by "product add" and
// "product edit". Only flags given on the command line are applied.
var productFlags struct {
	name    string
	vendor  string
	planned string
	price   string
	paidBy  string
	note    string
	link    string
	group   string
	after   string
	match   string
	unbind  bool
}

// draftFlags maps field flags to draft fields in the order they are applied.
var draftFlags = []struct {
	flag  string
	field types.Field
	value *string
}{
	{"vendor", types.FieldVendor, &productFlags.vendor},
	{"planned", types.FieldPlannedCost, &productFlags.planned},
	{"price", types.FieldPrice, &productFlags.price},
	{"paid-by", types.FieldPaidBy, &productFlags.paidBy},
	{"note", types.FieldNote, &productFlags.note},
	{"link", types.FieldLink, &productFlags.link},
	{"group", types.FieldGroup, &productFlags.group},
}

func addProductFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&productFlags.name, "name", "", "product name; more than two characters searches the catalog")
	f.StringVar(&productFlags.vendor, "vendor", "", "vendor (not allowed on catalog products)")
	f.StringVar(&productFlags.planned, "planned", "", "planned cost")
	f.StringVar(&productFlags.price, "price", "", "price (not allowed on catalog products)")
	f.StringVar(&productFlags.paidBy, "paid-by", "", "who pays")
	f.StringVar(&productFlags.note, "note", "", "free text note")
	f.StringVar(&productFlags.link, "link", "", "shop link")
	f.StringVar(&productFlags.group, "group", "", "group the product is listed under")
	f.StringVar(&productFlags.match, "match", "", "bind to the catalog match with this object id")
}

// fillDraft applies the given flags to the draft in slot. A name change
// waits for its catalog search so --match can pick from the results.
func fillDraft(cmd *cobra.Command, a *app, slot types.Slot) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	if productFlags.unbind {
		if err := a.drafts.ClearCatalogBinding(slot); err != nil {
			return err
		}
	}
	if flags.Changed("name") {
		if err := a.drafts.UpdateField(slot, types.FieldName, productFlags.name); err != nil {
			return fmt.Errorf("name: %w", err)
		}
		if err := a.drafts.WaitIdle(ctx, slot); err != nil {
			return err
		}
	}

	matches := a.drafts.Matches(slot)
	if productFlags.match != "" {
		if err := a.drafts.SelectMatch(ctx, slot, productFlags.match); err != nil {
			return fmt.Errorf("match %q: %w", productFlags.match, err)
		}
	} else if len(matches) > 0 {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "%d catalog matches; bind one with --match <object id>:\n", len(matches))
		if err := printEntries(errOut, matches, nil); err != nil {
			return err
		}
	}

	for _, df := range draftFlags {
		if !flags.Changed(df.flag) {
			continue
		}
		if err := a.drafts.UpdateField(slot, df.field, *df.value); err != nil {
			return fmt.Errorf("%s: %w", df.flag, err)
		}
	}
	return nil
}

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Add, edit and remove products of the selected table",
}

var productAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product to the selected table",
	Long: `Add creates a product in the selected table. With --after the product
joins the group of that product and is placed right after it; otherwise
it is appended.

A name longer than two characters is searched in the catalog. Pass
--match with one of the listed object ids to take the name, price and
vendor from that catalog entry.

Example:
  charts product add --name "Flowers" --planned 300 --group Ceremony
  charts product add --name "Wedding cake" --match c1
  charts product add --name "Band" --after 0190c7a4-...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.service.OpenNewDraft(productFlags.after)
		if err != nil {
			return err
		}
		if err := fillDraft(cmd, a, types.SlotNew); err != nil {
			return err
		}
		saved, err := a.service.SaveNewDraft(cmd.Context())
		if err != nil {
			return err
		}
		if !saved {
			return fmt.Errorf("catalog search still pending; product not saved")
		}
		return reportProduct(cmd, a, "Added", d.ID)
	},
}

var productEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a product of the selected table",
	Long: `Edit changes the given fields of a product. Vendor and price of a
product bound to a catalog entry cannot be changed; pass --unbind to clear
the binding first.

Example:
  charts product edit <id> --paid-by "Parents" --note "deposit paid"
  charts product edit <id> --unbind --name "Homemade cake" --price 40`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.service.OpenEditDraft(args[0]); err != nil {
			return err
		}
		if err := fillDraft(cmd, a, types.SlotEdit); err != nil {
			return err
		}
		saved, err := a.service.SaveEditDraft(cmd.Context())
		if err != nil {
			return err
		}
		if !saved {
			return fmt.Errorf("catalog search still pending; product not saved")
		}
		return reportProduct(cmd, a, "Updated", args[0])
	},
}

func reportProduct(cmd *cobra.Command, a *app, verb, id string) error {
	t, err := a.service.Current()
	if err != nil {
		return err
	}
	p, err := t.Product(id)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %q [%s]\n", verb, p.Name, p.ID)
	return nil
}

var productRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a product that is not final",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.service.RemoveProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing removed: %s is missing or final\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

func newFinalStateCmd(target types.FinalState) *cobra.Command {
	return &cobra.Command{
		Use:   string(target) + " <id>",
		Short: fmt.Sprintf("Mark a product %s", target),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			changed, err := a.service.MarkFinal(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already %s or missing\n", args[0], target)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s %s\n", args[0], target)
			return nil
		},
	}
}

var productFindCmd = &cobra.Command{
	Use:   "find <id>",
	Short: "Search the marketplace for a product's name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.service.SearchProductName(args[0])
	},
}

var productContactCmd = &cobra.Command{
	Use:   "contact <id>",
	Short: "Show the contact of a catalog product's seller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		t, err := a.service.Current()
		if err != nil {
			return err
		}
		p, err := t.Product(args[0])
		if err != nil {
			return err
		}
		contact, err := a.service.VendorContact(cmd.Context(), p.OwnerID)
		if err != nil {
			return fmt.Errorf("contact for %q: %w", p.Name, err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), map[string]string{"uid": p.OwnerID, "contact": contact})
		}
		fmt.Fprintln(cmd.OutOrStdout(), contact)
		return nil
	},
}

func init() {
	addProductFlags(productAddCmd)
	productAddCmd.Flags().StringVar(&productFlags.after, "after", "", "insert after this product id")
	addProductFlags(productEditCmd)
	productEditCmd.Flags().BoolVar(&productFlags.unbind, "unbind", false, "clear the catalog binding before applying changes")

	productCmd.AddCommand(productAddCmd)
	productCmd.AddCommand(productEditCmd)
	productCmd.AddCommand(productRemoveCmd)
	productCmd.AddCommand(newFinalStateCmd(types.StateFinal))
	productCmd.AddCommand(newFinalStateCmd(types.StateOptional))
	productCmd.AddCommand(productFindCmd)
	productCmd.AddCommand(productContactCmd)
}
