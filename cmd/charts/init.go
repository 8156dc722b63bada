// Init command for the charts CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/giftcharts/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration and data directories",
	Long: `Init writes a default config.yaml if none exists, then attaches the
storage backend once so the data directory and the shared template table
are created.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := paths.ResolveDataDir(flagDataDir, config.GetString(cfgKeyDataDir))
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		written, err := writeConfigIfMissing(configDir, dataDir)
		if err != nil {
			return err
		}
		if written {
			// Pick up the file just written.
			v, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			config = v
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "charts initialized successfully")
		fmt.Fprintln(out, "  config:", configDir)
		fmt.Fprintln(out, "  data:  ", a.dataDir)
		fmt.Fprintln(out, "  tables:", len(a.service.Tables()))
		return nil
	},
}
