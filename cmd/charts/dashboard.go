// Dashboard command for the charts CLI.
package main

import (
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the budget of every table and its share of the overall budget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		d := a.service.Dashboard()
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), d)
		}
		return printDashboard(cmd.OutOrStdout(), d)
	},
}
