package cmd

import (
	"errors"
	"fmt"
	"strings"

	"inventory-reconciler/feature/integrity"
	"inventory-reconciler/feature/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the inventory schema and the run-report bucket",
	Long:  `Runs every check when called without a subcommand. Nothing is changed unless --fix is given to a subcommand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, true, true, false)
	},
}

// schemaCmd compares the live tables with the inventory models.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check and fix the inventory tables",
	Long: `Reports tables and columns the canonical database lacks. With --fix the
tables are migrated and the net type vocabulary is seeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, true, false, fixFlag)
	},
}

// bucketCmd checks the run-report bucket.
var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Check and fix the run-report bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd, false, true, fixFlag)
	},
}

// orderCmd prints the commit order.
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the commit order of the entity types",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := inventory.NewRegistry(inventory.Config{})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, t := range reg.Order() {
			deps := reg.Dependencies(t)
			if len(deps) == 0 {
				fmt.Fprintln(out, t)
				continue
			}
			names := make([]string, len(deps))
			for i, d := range deps {
				names[i] = string(d)
			}
			fmt.Fprintf(out, "%s <- %s\n", t, strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(schemaCmd, bucketCmd, orderCmd)

	schemaCmd.Flags().BoolVar(&fixFlag, "fix", false, "Migrate missing tables and columns")
	bucketCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the bucket when missing")
}

func runIntegrityChecks(cmd *cobra.Command, runSchema, runBucket, fix bool) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}
	defer env.Close()
	logg := env.log
	ctx := cmd.Context()

	svc, err := env.integrity()
	if err != nil {
		return err
	}

	failed := false
	if runSchema {
		logg.Info("Checking inventory schema...", zap.String("driver", env.cfg.Database.Driver))
		drift, err := svc.CheckSchema(ctx)
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}

		if len(drift) == 0 {
			logg.Info("Schema matches the inventory models.")
		} else {
			for _, d := range drift {
				if d.Absent {
					logg.Warn("Missing table", zap.String("table", d.Table))
				} else {
					logg.Warn("Missing columns", zap.String("table", d.Table), zap.Strings("columns", d.Missing))
				}
			}
			if fix {
				if err := svc.FixSchema(ctx); err != nil {
					return fmt.Errorf("failed to migrate schema: %w", err)
				}
				logg.Info("Schema migrated successfully.")
			} else {
				logg.Info("Run 'integrity schema --fix' to migrate.")
				failed = true
			}
		}
	}

	if runBucket {
		exists, err := svc.CheckBucket(ctx)
		switch {
		case errors.Is(err, integrity.ErrArchiveDisabled):
			logg.Info("Run-report archive is disabled.")
		case err != nil:
			return fmt.Errorf("bucket check failed: %w", err)
		case exists:
			logg.Info("Bucket is present.", zap.String("bucket", svc.Bucket()))
		case fix:
			if err := svc.FixBucket(ctx); err != nil {
				return fmt.Errorf("failed to create bucket: %w", err)
			}
			logg.Info("Bucket created successfully.", zap.String("bucket", svc.Bucket()))
		default:
			logg.Warn("Bucket is missing", zap.String("bucket", svc.Bucket()))
			logg.Info("Run 'integrity bucket --fix' to create it.")
			failed = true
		}
	}

	if failed {
		return errors.New("integrity checks failed")
	}
	return nil
}
