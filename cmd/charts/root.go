// Root command for the charts CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/giftcharts/internal/paths"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagUser      string
	flagTable     string
	flagJSON      bool
	flagVerbose   bool
)

// Set by PersistentPreRunE for every subcommand.
var (
	configDir string
	config    *viper.Viper
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "charts",
	Short: "charts manages gift registry and budget tables",
	Long: `charts keeps registry tables of products, binds products to marketplace
catalog entries, and reports the budget of every table.

Tables are stored as JSONL files in the data directory. A shared template
table is created on first use; duplicate it to get an editable copy.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		v, err := loadConfig(dir)
		if err != nil {
			return err
		}
		l, err := newLogger(v.GetString(cfgKeyLogLevel))
		if err != nil {
			return err
		}
		configDir, config, logger = dir, v, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: data_dir from config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "act as this user id (default: user from config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagTable, "table", "", "table id to work on (default: the selected table)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(marketCmd)
}

// newLogger builds a production zap logger writing to stderr at level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log_level %q", errUsage, level)
	}
	if flagVerbose {
		lvl = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return l, nil
}
