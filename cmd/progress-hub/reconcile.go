package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"progress-hub/internal/domain"
	"progress-hub/internal/infrastructure/postgres"
	"progress-hub/internal/output"
	"progress-hub/internal/usecase"
	"progress-hub/utils/logger"

	"github.com/spf13/cobra"
)

func newReconcileCmd(opts *globalOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Delete progress of accounts that no longer exist in Invidious",
		Long: `Compares the owners of stored watch progress with the Invidious users
table and deletes progress owned by accounts that are gone. The serve command
runs this every hour; use this command to run it once, or with --dry-run to
only list what would be removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, false)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ReconcileTimeout)
			defer cancel()

			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.NewProgressRepository(pool)
			uc := usecase.NewReconcileAccounts(postgres.NewAccountRoster(pool), repo, slog.Default())
			return runReconcile(ctx, uc, output.NewPrinter(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list stale accounts and their record counts without deleting")
	return cmd
}

// reconciler is the part of usecase.ReconcileAccounts the command drives.
type reconciler interface {
	Plan(ctx context.Context) (domain.ReconcileReport, error)
	Execute(ctx context.Context) (domain.ReconcileReport, error)
	Counts(ctx context.Context, owners []domain.Identity) (map[domain.Identity]int64, error)
}

func runReconcile(ctx context.Context, uc reconciler, p *output.Printer, dryRun bool) error {
	if !dryRun {
		report, err := uc.Execute(ctx)
		if err != nil {
			p.Error("reconciliation failed")
			return err
		}
		if len(report.Removed) == 0 {
			p.Success("nothing to prune (%d accounts, %d progress owners)", report.Roster, report.Stored)
			return nil
		}
		p.Success("removed %d records of %d deleted accounts", report.RowsDeleted, len(report.Removed))
		return nil
	}

	report, err := uc.Plan(ctx)
	if err != nil {
		p.Error("reconciliation plan failed")
		return err
	}
	p.Info("%d accounts in Invidious, %d progress owners stored", report.Roster, report.Stored)
	if len(report.Removed) == 0 {
		p.Success("nothing to prune")
		return nil
	}

	counts, err := uc.Counts(ctx, report.Removed)
	if err != nil {
		return fmt.Errorf("count stale records: %w", err)
	}

	table := output.NewTable(p.Out(), []string{"username", "records"})
	for _, id := range report.Removed {
		table.AddRow(id.String(), strconv.FormatInt(counts[id], 10))
	}
	if err := table.Render(); err != nil {
		return err
	}
	p.Warning("dry run: %d accounts would be pruned, nothing was deleted", len(report.Removed))
	return nil
}
