package main

import (
	"context"
	"fmt"
	"log/slog"

	"progress-hub/config"
	"progress-hub/internal/adapter/gateway"
	"progress-hub/internal/domain"
	infracache "progress-hub/internal/infrastructure/cache"
	"progress-hub/internal/infrastructure/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// closableCache is an auth cache owned by the process.
type closableCache interface {
	domain.AuthCache
	Close() error
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxConns: cfg.DBMaxConns}, slog.Default())
}

func newAuthCache(cfg *config.Config) (closableCache, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		c, err := infracache.NewRedisCacheFromURL(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("redis auth cache: %w", err)
		}
		return c, nil
	default:
		return infracache.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL), nil
	}
}

func newInvidiousGateway(cfg *config.Config) *gateway.InvidiousGateway {
	var opts []gateway.InvidiousOption
	if cfg.Debug {
		opts = append(opts, gateway.WithInsecureTLS())
	}
	return gateway.NewInvidiousGateway(cfg.InvidiousURL, cfg.InvidiousTimeout, opts...)
}
