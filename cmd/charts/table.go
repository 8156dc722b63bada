// Table commands for the charts CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

var (
	filterField string
	filterTerm  string
	dupName     string
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List every table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tables := a.service.Tables()
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), tables)
		}
		currentID := ""
		if t, err := a.service.Current(); err == nil {
			currentID = t.ID
		}
		return printTables(cmd.OutOrStdout(), tables, currentID)
	},
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Show and manage the selected table",
}

var tableShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the selected table grouped into sections",
	Long: `Show prints the products of the selected table grouped by their group.
Products without a group are listed under "Other".

Example:
  charts table show
  charts table show --filter cake
  charts table show --filter-field vendor --filter bakery`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter *types.SearchFilter
		if filterTerm != "" {
			field := types.SearchField(filterField)
			if field != types.SearchByName && field != types.SearchByVendor {
				return fmt.Errorf("%w: --filter-field must be name or vendor", errUsage)
			}
			filter = &types.SearchFilter{Field: field, Term: filterTerm}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return showCurrent(cmd, a, filter)
	},
}

// showCurrent prints the selected table as it projects right now.
func showCurrent(cmd *cobra.Command, a *app, filter *types.SearchFilter) error {
	t, err := a.service.Current()
	if err != nil {
		return err
	}
	p, err := a.service.View(filter)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), newTableView(t, p))
	}
	return printProjection(cmd.OutOrStdout(), t, p)
}

var tableSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a table the selected table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.SelectTable(args[0]); err != nil {
			return fmt.Errorf("table %q: %w", args[0], err)
		}
		if err := saveSetting(config, configDir, cfgKeyTable, args[0]); err != nil {
			return fmt.Errorf("save selection: %w", err)
		}
		t, _ := a.service.Current()
		fmt.Fprintf(cmd.OutOrStdout(), "Selected %q [%s]\n", t.Name, t.ID)
		return nil
	},
}

var tableRenameCmd = &cobra.Command{
	Use:   "rename <name>",
	Short: "Rename the selected table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.RequestRename(); err != nil {
			return err
		}
		t, err := a.service.Current()
		if err != nil {
			return err
		}
		out, err := a.service.RenameTable(cmd.Context(), t.ID, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", t.Name, out.Name)
		return nil
	},
}

var tableDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the selected table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.service.RequestDelete(); err != nil {
			return err
		}
		t, err := a.service.Current()
		if err != nil {
			return err
		}
		if err := a.service.DeleteTable(cmd.Context(), t.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q [%s]\n", t.Name, t.ID)
		return nil
	},
}

var tableDuplicateCmd = &cobra.Command{
	Use:   "duplicate [id]",
	Short: "Copy a table into a new editable table",
	Long: `Duplicate copies a table, the shared template included, into a new
editable table and selects the copy. Without an id the selected table is
copied.

Example:
  charts table duplicate --name "Our wedding"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id := ""
		if len(args) == 1 {
			id = args[0]
		} else {
			t, err := a.service.Current()
			if err != nil {
				return err
			}
			id = t.ID
		}

		out, err := a.service.DuplicateTable(cmd.Context(), id, dupName)
		if err != nil {
			return err
		}
		if err := saveSetting(config, configDir, cfgKeyTable, out.ID); err != nil {
			return fmt.Errorf("save selection: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %q [%s]\n", out.Name, out.ID)
		return nil
	},
}

func init() {
	tableShowCmd.Flags().StringVar(&filterField, "filter-field", string(types.SearchByName), "field to filter on: name or vendor")
	tableShowCmd.Flags().StringVar(&filterTerm, "filter", "", "show only products whose field contains this text")
	tableDuplicateCmd.Flags().StringVar(&dupName, "name", "", "name of the copy (default: the original name)")

	tableCmd.AddCommand(tableShowCmd)
	tableCmd.AddCommand(tableSelectCmd)
	tableCmd.AddCommand(tableRenameCmd)
	tableCmd.AddCommand(tableDeleteCmd)
	tableCmd.AddCommand(tableDuplicateCmd)
}
