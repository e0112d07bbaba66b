package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"progress-hub/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubAuthenticator struct {
	id     domain.Identity
	err    error
	header string
}

func (s *stubAuthenticator) Execute(_ context.Context, authorization string) (domain.Identity, error) {
	s.header = authorization
	return s.id, s.err
}

func newIdentityEcho(auth Authenticator) *echo.Echo {
	e := echo.New()
	e.Use(RequireIdentity(auth))
	e.GET("/me", func(c echo.Context) error {
		id, ok := domain.IdentityFromContext(c.Request().Context())
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, id.String())
	})
	return e
}

func TestRequireIdentity_StoresIdentity(t *testing.T) {
	auth := &stubAuthenticator{id: "alice@example.com"}
	e := newIdentityEcho(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer SIDVALUE")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Body.String())
	assert.Equal(t, "Bearer SIDVALUE", auth.header)
}

func TestRequireIdentity_RejectionsLookTheSame(t *testing.T) {
	reasons := []error{
		domain.ErrMissingCredential,
		domain.ErrExternalRejected,
		domain.ErrInvidiousUnavailable,
		domain.ErrUnknownSession,
		domain.ErrSessionStoreUnavailable,
	}

	var bodies []string
	for _, reason := range reasons {
		e := newIdentityEcho(&stubAuthenticator{err: reason})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer x")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, reason.Error())
		bodies = append(bodies, rec.Body.String())
	}
	for _, b := range bodies[1:] {
		assert.Equal(t, bodies[0], b)
	}
	assert.Contains(t, bodies[0], "not authorized")
}
