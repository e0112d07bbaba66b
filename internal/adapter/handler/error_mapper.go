package handler

import (
	"errors"
	"net/http"

	"progress-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// mapDomainError converts a domain error into an appropriate echo.HTTPError.
func mapDomainError(err error) *echo.HTTPError {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"message": "validation failed",
			"errors":  verr.Fields,
		})

	case errors.Is(err, domain.ErrInvalidVideoID),
		errors.Is(err, domain.ErrTooManyVideoIDs),
		errors.Is(err, domain.ErrInvalidProgress):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthorized.Error())

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
