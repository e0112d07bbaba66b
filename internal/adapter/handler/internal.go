package handler

import (
	"log/slog"
	"net/http"

	"progress-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// InternalHandler handles operator requests.
type InternalHandler struct {
	uc *usecase.ReconcileAccounts
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(uc *usecase.ReconcileAccounts) *InternalHandler {
	return &InternalHandler{uc: uc}
}

type reconcileResponse struct {
	Roster      int   `json:"roster"`
	Stored      int   `json:"stored"`
	Removed     int   `json:"removed"`
	RowsDeleted int64 `json:"rows_deleted"`
}

// HandleReconcile runs one reconciliation pass immediately.
func (h *InternalHandler) HandleReconcile(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.uc.Execute(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "manual reconciliation failed", "error", err, "remote_addr", c.RealIP())
		return echo.NewHTTPError(http.StatusBadGateway, "reconciliation failed")
	}

	slog.InfoContext(ctx, "manual reconciliation finished", "removed", len(report.Removed), "remote_addr", c.RealIP())
	return c.JSON(http.StatusOK, reconcileResponse{
		Roster:      report.Roster,
		Stored:      report.Stored,
		Removed:     len(report.Removed),
		RowsDeleted: report.RowsDeleted,
	})
}
