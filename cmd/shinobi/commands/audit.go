package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinobi-platform/shinobi/pkg/stores"
)

func newAuditCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect recorded synthesis runs",
		Long:  `Query the audit store for past synthesis runs and their events.`,
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "shinobi.db", "audit store database path")

	cmd.AddCommand(newAuditRunsCommand(&dbPath))
	cmd.AddCommand(newAuditShowCommand(&dbPath))
	cmd.AddCommand(newAuditEventsCommand(&dbPath))

	return cmd
}

func openAuditStore(ctx context.Context, path string) (*stores.AuditStore, error) {
	store, err := stores.NewAuditStore(stores.Config{Path: path})
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

func newAuditRunsCommand(dbPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded synthesis runs",
		Example: `  # Show the last 20 runs
  shinobi audit runs --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			for _, r := range runs {
				status := "ok"
				if r.Failed {
					status = "failed"
				}
				fmt.Printf("  %s  %-20s %-16s %-7s components=%d bindings=%d violations=%d\n",
					r.StartedAt.Format("2006-01-02 15:04:05"),
					r.Service, r.Framework, status,
					r.ComponentCount, r.BindingCount, r.ViolationCount)
				fmt.Printf("      run: %s\n", r.RunID)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of runs to list")

	return cmd
}

func newAuditShowCommand(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the full report of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			report, err := store.GetRunReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}

	return cmd
}

func newAuditEventsCommand(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events <run-id>",
		Short: "List the audit events of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openAuditStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			events, err := store.ListEvents(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}

			for _, e := range events {
				fmt.Printf("  %s  %-24s %-16s %s\n",
					e.CreatedAt.Format("15:04:05.000"),
					e.EventType, e.Component, e.Message)
			}
			return nil
		},
	}

	return cmd
}
