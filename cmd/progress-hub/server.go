package main

import (
	"log/slog"
	"net/http"

	"progress-hub/config"
	adapterhandler "progress-hub/internal/adapter/handler"
	"progress-hub/internal/usecase"
	appmiddleware "progress-hub/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// serverDeps are the collaborators the HTTP surface is built from.
type serverDeps struct {
	cfg         *config.Config
	otelEnabled bool
	serviceName string

	auth      appmiddleware.Authenticator
	progress  *usecase.Progress
	reconcile *usecase.ReconcileAccounts
	health    *adapterhandler.HealthHandler
	limiter   *appmiddleware.RateLimiter
}

func newServer(d serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = adapterhandler.NewRequestValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if d.otelEnabled {
		e.Use(otelecho.Middleware(d.serviceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"request_id", v.RequestID,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error == nil || v.Status < http.StatusInternalServerError {
				slog.InfoContext(rctx, "request completed", attrs...)
				return nil
			}
			slog.ErrorContext(rctx, "request failed", append(attrs, "error", v.Error.Error())...)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	if len(d.cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     d.cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodOptions, http.MethodGet, http.MethodDelete, http.MethodPost},
			AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
			AllowCredentials: true,
		}))
	}

	e.Use(middleware.BodyLimit("4K"))

	// Public routes
	e.GET("/health", d.health.Handle)
	e.GET("/health/ready", d.health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if d.cfg.ProgressEnabled {
		api := e.Group("/api/v1/progress",
			d.limiter.Middleware(),
			appmiddleware.RequireIdentity(d.auth),
		)
		adapterhandler.NewProgressHandler(d.progress, slog.Default()).Register(api)

		// Internal routes (protected by shared secret)
		if d.cfg.InternalSharedSecret != "" {
			internal := e.Group("/internal",
				d.limiter.Middleware(),
				appmiddleware.InternalAuth(d.cfg.InternalSharedSecret),
			)
			internal.POST("/reconcile", adapterhandler.NewInternalHandler(d.reconcile).HandleReconcile)
		}
	}

	return e
}
