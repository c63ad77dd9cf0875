package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "aiodev",
	Short: "Local dev harness for launcher widget scripts",
	Long: `aiodev - Run launcher widget scripts (Lua) against a local host with
mockable network, persistent store and a device snapshot.

Widgets talk to the host through the ui / http / json / store / device /
system capability modules installed before the script loads.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "./data", "Data directory (scripts, prefs, device snapshot)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose logging")
}

func newLogger(cmd *cobra.Command) *zap.SugaredLogger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
