package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oufit/oufit/pkg/config"
	"github.com/oufit/oufit/pkg/stores"
)

func newRunsCommand() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted inference runs",
		Long: `List runs recorded in the run store and show their posteriors.

Runs are written by 'oufit fit' and 'oufit watch' when a store is
configured via --store or the config file.`,
	}

	cmd.PersistentFlags().StringVar(&storePath, "store", "", "sqlite file holding the runs (default from config)")

	cmd.AddCommand(newRunsListCommand(&storePath))
	cmd.AddCommand(newRunsShowCommand(&storePath))
	cmd.AddCommand(newRunsDeleteCommand(&storePath))

	return cmd
}

func newRunsListCommand(storePath *string) *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Example: `  # Most recent runs
  oufit runs list --store runs.db

  # Page through older runs
  oufit runs list --store runs.db --limit 20 --offset 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openRunStore(ctx, *storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit, offset)
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func newRunsShowCommand(storePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <run-id>",
		Short:   "Show one run and its marginal posteriors",
		Args:    cobra.ExactArgs(1),
		Example: `  oufit runs show 6f1c2a8e-... --store runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openRunStore(ctx, *storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			printRunDetail(os.Stdout, run)

			posteriors, err := store.GetPosteriors(ctx, run.ID)
			if err != nil {
				return err
			}
			if len(posteriors) > 0 {
				fmt.Fprintln(os.Stdout)
				printSummary(os.Stdout, posteriors, run.Acceptance)
			}
			return nil
		},
	}

	return cmd
}

func newRunsDeleteCommand(storePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its posteriors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openRunStore(ctx, *storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted run %s\n", args[0])
			return nil
		},
	}

	return cmd
}

// openRunStore resolves the store path from the flag or config and
// opens it. Unlike the fit path, a missing store is an error here:
// there is nothing to inspect without one.
func openRunStore(ctx context.Context, flagPath string) (*stores.SQLiteStore, error) {
	path := flagPath
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Store.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no run store configured: set --store or store.path in the config file")
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func printRuns(w io.Writer, runs []*stores.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	fmt.Fprintf(w, "%-36s %-22s %-10s %8s %8s %8s  %s\n",
		"ID", "MODEL", "STATUS", "POINTS", "DRAWS", "ACCEPT", "STARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s %-22s %-10s %8d %8d %8.3f  %s\n",
			r.ID, r.Model, r.Status, r.DataPoints, r.Draws, r.Acceptance,
			r.StartedAt.Format(time.RFC3339))
	}
}

func printRunDetail(w io.Writer, r *stores.Run) {
	fmt.Fprintf(w, "ID:          %s\n", r.ID)
	fmt.Fprintf(w, "Model:       %s\n", r.Model)
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	fmt.Fprintf(w, "Data:        %s (%d points)\n", r.DataPath, r.DataPoints)
	fmt.Fprintf(w, "Draws:       %d over %d chain(s)\n", r.Draws, r.Chains)
	fmt.Fprintf(w, "Acceptance:  %.3f\n", r.Acceptance)
	fmt.Fprintf(w, "Started:     %s\n", r.StartedAt.Format(time.RFC3339))
	if r.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:   %s\n", r.CompletedAt.Format(time.RFC3339))
	}
	if r.Error != nil {
		fmt.Fprintf(w, "Error:       %s\n", *r.Error)
	}
	if r.Metadata != "" {
		fmt.Fprintf(w, "Hypers:      %s\n", r.Metadata)
	}
}
