package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"progress-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoster implements domain.AccountRoster for testing.
type fakeRoster struct {
	accounts []domain.Identity
	err      error
}

func (f *fakeRoster) ListAccounts(context.Context) ([]domain.Identity, error) {
	return f.accounts, f.err
}

// fakeProgressOwners implements domain.ProgressOwners over an in-memory
// username -> record count map.
type fakeProgressOwners struct {
	records   map[domain.Identity]int64
	listErr   error
	deleteErr error
	deletes   [][]domain.Identity
}

func (f *fakeProgressOwners) ListOwners(context.Context) ([]domain.Identity, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	owners := make([]domain.Identity, 0, len(f.records))
	for id := range f.records {
		owners = append(owners, id)
	}
	return owners, nil
}

func (f *fakeProgressOwners) CountByOwners(_ context.Context, owners []domain.Identity) (map[domain.Identity]int64, error) {
	counts := make(map[domain.Identity]int64)
	for _, id := range owners {
		if n, ok := f.records[id]; ok {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *fakeProgressOwners) DeleteByOwners(_ context.Context, owners []domain.Identity) (int64, error) {
	f.deletes = append(f.deletes, owners)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var rows int64
	for _, id := range owners {
		rows += f.records[id]
		delete(f.records, id)
	}
	return rows, nil
}

func TestReconcileAccounts_PrunesUnknownAndIsIdempotent(t *testing.T) {
	roster := &fakeRoster{accounts: []domain.Identity{"a", "b"}}
	owners := &fakeProgressOwners{records: map[domain.Identity]int64{"a": 2, "b": 5, "c": 3}}
	uc := NewReconcileAccounts(roster, owners, slog.Default())

	report, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Identity{"c"}, report.Removed)
	assert.Equal(t, int64(3), report.RowsDeleted)
	assert.Equal(t, map[domain.Identity]int64{"a": 2, "b": 5}, owners.records, "a and b are untouched")
	require.Len(t, owners.deletes, 1)

	report, err = uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Removed)
	assert.Len(t, owners.deletes, 1, "second run issues no delete")
}

func TestReconcileAccounts_SingleBulkDelete(t *testing.T) {
	roster := &fakeRoster{accounts: []domain.Identity{"keep"}}
	owners := &fakeProgressOwners{records: map[domain.Identity]int64{"keep": 1, "x": 1, "y": 1, "z": 1}}
	uc := NewReconcileAccounts(roster, owners, slog.Default())

	report, err := uc.Execute(context.Background())

	require.NoError(t, err)
	require.Len(t, owners.deletes, 1)
	assert.Equal(t, []domain.Identity{"x", "y", "z"}, owners.deletes[0])
	assert.Equal(t, 4, report.Stored)
	assert.Equal(t, 1, report.Roster)
}

func TestReconcileAccounts_RosterErrorDeletesNothing(t *testing.T) {
	roster := &fakeRoster{err: errors.New("connection refused")}
	owners := &fakeProgressOwners{records: map[domain.Identity]int64{"a": 1}}
	uc := NewReconcileAccounts(roster, owners, slog.Default())

	_, err := uc.Execute(context.Background())

	assert.ErrorContains(t, err, "fetch account roster")
	assert.Empty(t, owners.deletes)
}

func TestReconcileAccounts_OwnersErrorDeletesNothing(t *testing.T) {
	roster := &fakeRoster{accounts: []domain.Identity{"a"}}
	owners := &fakeProgressOwners{listErr: errors.New("timeout")}
	uc := NewReconcileAccounts(roster, owners, slog.Default())

	_, err := uc.Execute(context.Background())

	assert.ErrorContains(t, err, "fetch progress owners")
	assert.Empty(t, owners.deletes)
}

func TestReconcileAccounts_DeleteErrorIsReturned(t *testing.T) {
	roster := &fakeRoster{accounts: []domain.Identity{"a"}}
	owners := &fakeProgressOwners{
		records:   map[domain.Identity]int64{"a": 1, "gone": 2},
		deleteErr: errors.New("deadlock"),
	}
	uc := NewReconcileAccounts(roster, owners, slog.Default())

	report, err := uc.Execute(context.Background())

	assert.ErrorContains(t, err, "delete stale progress")
	assert.Equal(t, []domain.Identity{"gone"}, report.Removed)
	assert.Len(t, owners.deletes, 1, "no retry within a run")
}

func TestReconcileAccounts_PlanDoesNotDelete(t *testing.T) {
	roster := &fakeRoster{accounts: []domain.Identity{"a"}}
	owners := &fakeProgressOwners{records: map[domain.Identity]int64{"a": 1, "b": 4}}
	uc := NewReconcileAccounts(roster, owners, slog.Default())

	report, err := uc.Plan(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, []domain.Identity{"b"}, report.Removed)
	assert.Empty(t, owners.deletes)

	counts, err := uc.Counts(context.Background(), report.Removed)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Identity]int64{"b": 4}, counts)
}
