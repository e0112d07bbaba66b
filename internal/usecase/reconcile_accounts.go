package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"progress-hub/internal/domain"
	"progress-hub/utils/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ReconcileAccounts prunes progress of accounts Invidious no longer knows.
type ReconcileAccounts struct {
	roster domain.AccountRoster
	owners domain.ProgressOwners
	logger *slog.Logger
}

// NewReconcileAccounts creates a new ReconcileAccounts usecase.
func NewReconcileAccounts(r domain.AccountRoster, o domain.ProgressOwners, l *slog.Logger) *ReconcileAccounts {
	return &ReconcileAccounts{roster: r, owners: o, logger: l}
}

// Plan computes the stale owners without deleting anything.
func (uc *ReconcileAccounts) Plan(ctx context.Context) (domain.ReconcileReport, error) {
	roster, err := uc.roster.ListAccounts(ctx)
	if err != nil {
		return domain.ReconcileReport{}, fmt.Errorf("fetch account roster: %w", err)
	}

	stored, err := uc.owners.ListOwners(ctx)
	if err != nil {
		return domain.ReconcileReport{}, fmt.Errorf("fetch progress owners: %w", err)
	}

	known := make(map[domain.Identity]struct{}, len(roster))
	for _, id := range roster {
		known[id] = struct{}{}
	}

	stale := make([]domain.Identity, 0)
	for _, id := range stored {
		if _, ok := known[id]; !ok {
			stale = append(stale, id)
		}
	}
	slices.Sort(stale)
	stale = slices.Compact(stale)

	return domain.ReconcileReport{
		Roster:  len(roster),
		Stored:  len(stored),
		Removed: stale,
		DryRun:  true,
	}, nil
}

// Execute runs one reconciliation pass. A failed pass is not retried; the
// next scheduled pass picks up whatever is left.
func (uc *ReconcileAccounts) Execute(ctx context.Context) (domain.ReconcileReport, error) {
	ctx, span := tracer.Start(ctx, "ReconcileAccounts.Execute")
	defer span.End()

	report, err := uc.Plan(ctx)
	if err != nil {
		metrics.RecordReconcile("error", 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan failed")
		return report, err
	}
	report.DryRun = false
	span.SetAttributes(
		attribute.Int("reconcile.roster", report.Roster),
		attribute.Int("reconcile.stored", report.Stored),
		attribute.Int("reconcile.stale", len(report.Removed)),
	)

	if len(report.Removed) == 0 {
		metrics.RecordReconcile("noop", 0)
		uc.logger.DebugContext(ctx, "reconciliation found nothing to prune",
			"roster", report.Roster, "stored", report.Stored)
		return report, nil
	}

	rows, err := uc.owners.DeleteByOwners(ctx, report.Removed)
	if err != nil {
		metrics.RecordReconcile("error", 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return report, fmt.Errorf("delete stale progress: %w", err)
	}
	report.RowsDeleted = rows

	metrics.RecordReconcile("pruned", len(report.Removed))
	uc.logger.InfoContext(ctx, "pruned progress of deleted accounts",
		"accounts", len(report.Removed),
		"rows", rows,
		"roster", report.Roster)
	return report, nil
}

// Counts returns the number of stored records for each owner.
func (uc *ReconcileAccounts) Counts(ctx context.Context, owners []domain.Identity) (map[domain.Identity]int64, error) {
	return uc.owners.CountByOwners(ctx, owners)
}
