package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"progress-hub/internal/domain"
	"progress-hub/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type staticRoster struct {
	accounts []domain.Identity
	err      error
}

func (s staticRoster) ListAccounts(context.Context) ([]domain.Identity, error) {
	return s.accounts, s.err
}

type staticOwners struct {
	owners  []domain.Identity
	deleted []domain.Identity
}

func (s *staticOwners) ListOwners(context.Context) ([]domain.Identity, error) {
	return s.owners, nil
}

func (s *staticOwners) CountByOwners(context.Context, []domain.Identity) (map[domain.Identity]int64, error) {
	return nil, nil
}

func (s *staticOwners) DeleteByOwners(_ context.Context, owners []domain.Identity) (int64, error) {
	s.deleted = append(s.deleted, owners...)
	return int64(len(owners)), nil
}

func TestInternalHandler_HandleReconcile(t *testing.T) {
	owners := &staticOwners{owners: []domain.Identity{"a", "gone"}}
	uc := usecase.NewReconcileAccounts(staticRoster{accounts: []domain.Identity{"a"}}, owners, slog.Default())

	e := echo.New()
	e.POST("/internal/reconcile", NewInternalHandler(uc).HandleReconcile)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"roster":1,"stored":2,"removed":1,"rows_deleted":1}`, rec.Body.String())
	assert.Equal(t, []domain.Identity{"gone"}, owners.deleted)
}

func TestInternalHandler_HandleReconcileFailure(t *testing.T) {
	uc := usecase.NewReconcileAccounts(staticRoster{err: errors.New("db down")}, &staticOwners{}, slog.Default())

	e := echo.New()
	e.POST("/internal/reconcile", NewInternalHandler(uc).HandleReconcile)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/reconcile", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
