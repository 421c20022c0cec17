package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// historyCmd lists or prints archived run reports.
var historyCmd = &cobra.Command{
	Use:   "history [sysname] [run-id]",
	Short: "View archived run reports of a device",
	Long: `Lists the archived run reports of a device, newest first. With a run id the
full report is printed as JSON.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runHistory,
}

func init() {
	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	env, err := bootstrap()
	if err != nil {
		return err
	}
	defer env.Close()

	arch, err := env.archive(ctx)
	if err != nil {
		return err
	}
	if arch == nil {
		return errors.New("run-report archive is disabled (set STORAGE_ENABLED=true)")
	}

	sysname := args[0]
	if len(args) == 2 {
		report, err := arch.Load(ctx, sysname, args[1])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	entries, err := arch.List(ctx, sysname)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		env.log.Info("No archived reports", zap.String("sysname", sysname))
		return nil
	}
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\t%d\n", e.LastModified.Format("2006-01-02T15:04:05Z07:00"), e.RunID, e.Size)
	}
	return nil
}
