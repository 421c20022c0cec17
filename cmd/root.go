package cmd

import (
	"fmt"
	"os"

	"inventory-reconciler/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// envDir is where LoadConfig looks for a .env file.
var envDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "inventory-reconciler",
	Short: "Network inventory reconciliation service",
	Long: `Inventory Reconciler commits the facts collected from polled network
devices into the canonical inventory database, resolving each staged record
to its stored row and cleaning up what a device no longer reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps for CLI users
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "Directory holding the .env file")
}
