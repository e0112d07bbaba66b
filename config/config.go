package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the application configuration
type Config struct {
	Port     string // Service port
	Debug    bool   // Skips TLS verification towards Invidious
	LogLevel string

	InvidiousURL     string        // Base URL of the Invidious instance
	InvidiousTimeout time.Duration // Bound on one session verification call

	DatabaseURL string // Invidious PostgreSQL DSN
	DBMaxConns  int

	CacheBackend string        // memory or redis
	CacheTTL     time.Duration // Auth cache entry lifetime
	CacheSize    int           // Memory cache capacity
	RedisURL     string

	AllowedOrigins     []string
	ProgressEnabled    bool
	RateLimitPerMinute int

	ReconcileInterval time.Duration
	ReconcileTimeout  time.Duration
	ReconcileOnStart  bool
	AutoMigrate       bool

	InternalSharedSecret string // Enables POST /internal/reconcile when set
}

// Options controls where Load reads from.
type Options struct {
	// EnvFile is loaded with godotenv when it exists. Values already in the
	// environment win.
	EnvFile string
	// Flags, when set, override the matching environment variables.
	Flags *pflag.FlagSet
}

// flagKeys maps command line flags onto environment keys.
var flagKeys = map[string]string{
	"port":          "PORT",
	"debug":         "DEBUG",
	"log-level":     "LOG_LEVEL",
	"invidious-url": "INVIDIOUS_URL",
	"database-url":  "DATABASE_URL",
	"cache-backend": "CACHE_BACKEND",
	"redis-url":     "REDIS_URL",
}

// RegisterFlags adds the overridable settings to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("port", "", "HTTP listen port (env PORT)")
	flags.Bool("debug", false, "debug mode, skips TLS verification towards Invidious (env DEBUG)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String("invidious-url", "", "Invidious base URL (env INVIDIOUS_URL)")
	flags.String("database-url", "", "Invidious PostgreSQL DSN (env DATABASE_URL)")
	flags.String("cache-backend", "", "auth cache backend: memory or redis (env CACHE_BACKEND)")
	flags.String("redis-url", "", "Redis URL for the redis cache backend (env REDIS_URL)")
}

// Load reads configuration from flags, environment variables and an
// optional .env file, in that order of precedence.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	l := &loader{v: v}

	config := &Config{
		Port:                 l.str("PORT", "8080"),
		Debug:                l.boolean("DEBUG", false),
		LogLevel:             l.str("LOG_LEVEL", "info"),
		InvidiousURL:         strings.TrimRight(l.str("INVIDIOUS_URL", ""), "/"),
		InvidiousTimeout:     l.duration("INVIDIOUS_TIMEOUT", 5*time.Second),
		DatabaseURL:          l.str("DATABASE_URL", ""),
		DBMaxConns:           l.integer("DB_MAX_CONNS", 10),
		CacheBackend:         strings.ToLower(l.str("CACHE_BACKEND", CacheMemory)),
		CacheTTL:             l.duration("CACHE_TTL", 60*time.Second),
		CacheSize:            l.integer("CACHE_SIZE", 10000),
		RedisURL:             l.str("REDIS_URL", ""),
		AllowedOrigins:       splitList(l.str("ALLOWED_ORIGINS", "")),
		ProgressEnabled:      l.boolean("PROGRESS_ENABLED", true),
		RateLimitPerMinute:   l.integer("RATE_LIMIT_PER_MINUTE", 600),
		ReconcileInterval:    l.duration("RECONCILE_INTERVAL", time.Hour),
		ReconcileTimeout:     l.duration("RECONCILE_TIMEOUT", 5*time.Minute),
		ReconcileOnStart:     l.boolean("RECONCILE_ON_START", false),
		AutoMigrate:          l.boolean("AUTO_MIGRATE", true),
		InternalSharedSecret: l.str("INTERNAL_SHARED_SECRET", ""),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = BuildDSN(
			l.str("DB_HOST", "localhost"),
			l.str("DB_PORT", "5432"),
			l.str("DB_USER", "kemal"),
			l.str("DB_PASSWORD", "kemal"),
			l.str("DB_NAME", "invidious"),
			l.str("DB_SSLMODE", "disable"),
		)
	}

	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.InvidiousURL == "" {
		return fmt.Errorf("INVIDIOUS_URL cannot be empty")
	}
	u, err := url.Parse(c.InvidiousURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INVIDIOUS_URL must be an absolute http(s) URL")
	}

	if c.InvidiousTimeout <= 0 {
		return fmt.Errorf("INVIDIOUS_TIMEOUT must be positive")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	switch c.CacheBackend {
	case CacheMemory:
		if c.CacheSize <= 0 {
			return fmt.Errorf("CACHE_SIZE must be positive")
		}
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}

	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}

	if c.ReconcileTimeout <= 0 {
		return fmt.Errorf("RECONCILE_TIMEOUT must be positive")
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	return nil
}

// BuildDSN assembles a PostgreSQL URL from its parts.
func BuildDSN(host, port, user, password, name, sslmode string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

// loader resolves keys from a _FILE secret, viper (flag, then environment)
// and finally the fallback. Parse errors are collected, not fatal per key.
type loader struct {
	v    *viper.Viper
	errs []error
}

func (l *loader) str(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
		l.errs = append(l.errs, fmt.Errorf("read %s_FILE: %w", key, err))
	}

	if value := l.v.GetString(key); value != "" {
		return value
	}
	return fallback
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s format: %w", key, err))
		return fallback
	}
	return d
}

func (l *loader) integer(key string, fallback int) int {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func (l *loader) boolean(key string, fallback bool) bool {
	raw := l.str(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
