package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/facts"
	"inventory-reconciler/feature/poller"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the reconcile command
	reconcileWorkers int
	reconcileJSON    bool
)

// reconcileCmd commits facts documents read from files.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile [facts-file...]",
	Short: "Commit collected facts documents to the inventory",
	Long: `Reads one facts document per file (YAML or JSON, "-" for stdin), stages
its records and commits them. Documents for different devices are committed
concurrently; a failed document does not stop the others.

Examples:
  # Commit one device
  reconcile sw1.yaml

  # Commit many with 8 workers and print the reports as JSON
  reconcile --workers 8 --json facts/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileWorkers, "workers", 0, "Concurrent runs (defaults to poller.workers)")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "Print run reports as JSON")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	docs := make([]*facts.Document, 0, len(args))
	for _, path := range args {
		doc, err := readFacts(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	env, err := bootstrap()
	if err != nil {
		return err
	}
	defer env.Close()
	l := env.log

	engine, err := env.engine()
	if err != nil {
		return err
	}

	pcfg := env.cfg.Poller
	if reconcileWorkers > 0 {
		pcfg.Workers = reconcileWorkers
	}
	opts := []poller.Option{poller.WithLogger(l)}
	arch, err := env.archive(ctx)
	if err != nil {
		return err
	}
	if arch != nil {
		opts = append(opts, poller.WithArchiver(arch))
	}

	l.Info("Starting reconciliation", zap.Int("documents", len(docs)), zap.Int("workers", pcfg.Workers))
	results := poller.New(engine, env.db, pcfg, opts...).RunAll(ctx, docs)

	failed := 0
	reports := make([]*reconcile.Report, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if r.Report != nil {
			reports = append(reports, r.Report)
		}
		if !reconcileJSON {
			printRunReport(l, r)
		}
	}

	if reconcileJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func readFacts(stdin io.Reader, path string) (*facts.Document, error) {
	if path == "-" {
		return facts.Decode(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := facts.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// printRunReport prints a formatted run report using logger.
func printRunReport(l *zap.Logger, r poller.Result) {
	if r.Report == nil {
		l.Error("Run failed", zap.String("sysname", r.Sysname), zap.Error(r.Err))
		return
	}
	rep := r.Report
	fields := []zap.Field{
		zap.String("sysname", r.Sysname),
		zap.String("run_id", rep.RunID),
		zap.Int("writes", rep.Writes()),
		zap.Int("corrective_writes", rep.CorrectiveWrites),
		zap.Int("events", rep.Events),
		zap.Duration("duration", rep.Duration),
	}
	if r.Err != nil {
		l.Error("Run failed", append(fields, zap.String("failed_type", string(rep.FailedType)), zap.Error(r.Err))...)
	} else {
		l.Info("Run report", fields...)
	}

	types := make([]string, 0, len(rep.Types))
	for t := range rep.Types {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		s := rep.Types[reconcile.TypeName(t)]
		if s.Writes() == 0 {
			continue
		}
		l.Info("Type changes",
			zap.String("type", t),
			zap.Int("inserted", s.Inserted),
			zap.Int("updated", s.Updated),
			zap.Int("patched", s.Patched),
			zap.Int("deleted", s.Deleted),
			zap.Int("unchanged", s.Unchanged),
		)
	}
}
