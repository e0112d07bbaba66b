package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"progress-hub/config"
	adapterhandler "progress-hub/internal/adapter/handler"
	"progress-hub/internal/db/migrate"
	infracache "progress-hub/internal/infrastructure/cache"
	"progress-hub/internal/infrastructure/postgres"
	"progress-hub/internal/job"
	"progress-hub/internal/usecase"
	appmiddleware "progress-hub/middleware"
	"progress-hub/utils/logger"
	"progress-hub/utils/otel"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled reconciliation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Initialize OpenTelemetry
			otelCfg := otel.ConfigFromEnv()
			otelShutdown, err := otel.InitProvider(ctx, otelCfg)
			if err != nil {
				slog.WarnContext(ctx, "failed to initialize OpenTelemetry, continuing without tracing", "error", err)
				otelCfg.Enabled = false
				otelShutdown = func(context.Context) error { return nil }
			}

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger.Init(cfg.LogLevel, otelCfg.Enabled)

			slog.InfoContext(ctx, "configuration loaded",
				"invidious_url", cfg.InvidiousURL,
				"port", cfg.Port,
				"cache_backend", cfg.CacheBackend,
				"cache_ttl", cfg.CacheTTL.String(),
				"progress_enabled", cfg.ProgressEnabled)

			return serve(ctx, cfg, otelCfg, otelShutdown)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, otelCfg otel.Config, otelShutdown otel.ShutdownFunc) error {
	// Infrastructure
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.ProgressEnabled && cfg.AutoMigrate {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return err
		}
		slog.InfoContext(ctx, "progress schema is up to date")
	}

	authCache, err := newAuthCache(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := authCache.Close(); err != nil {
			slog.Warn("failed to close auth cache", "error", err)
		}
	}()

	checks := map[string]adapterhandler.ReadinessCheck{"postgres": pool.Ping}
	if rc, ok := authCache.(*infracache.RedisCache); ok {
		checks["redis"] = rc.Ping
	}

	progressRepo := postgres.NewProgressRepository(pool)

	// Usecases
	authUC := usecase.NewAuthenticate(newInvidiousGateway(cfg), postgres.NewSessionStore(pool), authCache, slog.Default())
	progressUC := usecase.NewProgress(progressRepo, slog.Default())
	reconcileUC := usecase.NewReconcileAccounts(postgres.NewAccountRoster(pool), progressRepo, slog.Default())

	limiter := appmiddleware.PerMinute(cfg.RateLimitPerMinute)
	defer limiter.Stop()

	e := newServer(serverDeps{
		cfg:         cfg,
		otelEnabled: otelCfg.Enabled,
		serviceName: otelCfg.ServiceName,
		auth:        authUC,
		progress:    progressUC,
		reconcile:   reconcileUC,
		health:      adapterhandler.NewHealthHandler(checks),
		limiter:     limiter,
	})

	scheduler := job.NewJobScheduler(slog.Default())
	if cfg.ProgressEnabled {
		scheduler.Add(job.Job{
			Name:       "reconcile-accounts",
			Interval:   cfg.ReconcileInterval,
			Timeout:    cfg.ReconcileTimeout,
			Align:      true,
			RunOnStart: cfg.ReconcileOnStart,
			Fn: func(ctx context.Context) error {
				_, err := reconcileUC.Execute(ctx)
				return err
			},
		})
	}

	// Start server with errgroup for graceful shutdown
	address := ":" + cfg.Port
	slog.InfoContext(ctx, "starting progress-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)
	scheduler.Start(gCtx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		scheduler.Shutdown()
		return err
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server exited properly")
	return nil
}
