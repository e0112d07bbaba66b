package middleware

import (
	"context"
	"net/http"

	"progress-hub/internal/domain"

	"github.com/labstack/echo/v4"
)

// Authenticator resolves an Authorization header value to an account.
type Authenticator interface {
	Execute(ctx context.Context, authorization string) (domain.Identity, error)
}

// RequireIdentity rejects requests that do not carry a valid Invidious
// credential and stores the resolved identity on the request context.
// Every rejection reason yields the same 401 body.
func RequireIdentity(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := auth.Execute(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthorized.Error())
			}

			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}
