package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"progress-hub/internal/domain"
	"progress-hub/internal/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	plan      domain.ReconcileReport
	executed  bool
	execErr   error
	counts    map[domain.Identity]int64
	countsFor []domain.Identity
}

func (f *fakeReconciler) Plan(context.Context) (domain.ReconcileReport, error) {
	return f.plan, nil
}

func (f *fakeReconciler) Execute(context.Context) (domain.ReconcileReport, error) {
	f.executed = true
	report := f.plan
	report.DryRun = false
	report.RowsDeleted = 7
	return report, f.execErr
}

func (f *fakeReconciler) Counts(_ context.Context, owners []domain.Identity) (map[domain.Identity]int64, error) {
	f.countsFor = owners
	return f.counts, nil
}

func TestRunReconcile_DryRunListsWithoutDeleting(t *testing.T) {
	var out, errOut bytes.Buffer
	p := output.NewPrinterWithWriters(&out, &errOut, false)
	uc := &fakeReconciler{
		plan:   domain.ReconcileReport{Roster: 2, Stored: 3, Removed: []domain.Identity{"gone@example.com"}, DryRun: true},
		counts: map[domain.Identity]int64{"gone@example.com": 5},
	}

	require.NoError(t, runReconcile(context.Background(), uc, p, true))

	assert.False(t, uc.executed)
	assert.Equal(t, []domain.Identity{"gone@example.com"}, uc.countsFor)
	assert.Contains(t, out.String(), "gone@example.com")
	assert.Contains(t, out.String(), "5")
	assert.Contains(t, errOut.String(), "nothing was deleted")
}

func TestRunReconcile_DryRunNothingToDo(t *testing.T) {
	var out bytes.Buffer
	p := output.NewPrinterWithWriters(&out, &out, false)
	uc := &fakeReconciler{plan: domain.ReconcileReport{Roster: 1, Stored: 1}}

	require.NoError(t, runReconcile(context.Background(), uc, p, true))

	assert.Contains(t, out.String(), "nothing to prune")
	assert.Nil(t, uc.countsFor)
}

func TestRunReconcile_Executes(t *testing.T) {
	var out bytes.Buffer
	p := output.NewPrinterWithWriters(&out, &out, false)
	uc := &fakeReconciler{plan: domain.ReconcileReport{Removed: []domain.Identity{"a", "b"}}}

	require.NoError(t, runReconcile(context.Background(), uc, p, false))

	assert.True(t, uc.executed)
	assert.Contains(t, out.String(), "removed 7 records of 2 deleted accounts")
}

func TestRunReconcile_ExecuteError(t *testing.T) {
	var out bytes.Buffer
	p := output.NewPrinterWithWriters(&out, &out, false)
	uc := &fakeReconciler{execErr: errors.New("db down")}

	err := runReconcile(context.Background(), uc, p, false)

	assert.Error(t, err)
	assert.Contains(t, out.String(), "[ERROR]")
}
