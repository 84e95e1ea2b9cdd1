package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	CurrencyCode           string
	ShippingFreeThreshold  int64
	ShippingFlatFee        int64
	CartTTL                time.Duration
	CartSweepInterval      time.Duration
	CatalogCacheTTL        time.Duration
	IdempotencyTTL         time.Duration
	RateLimitRequests      int64
	RateLimitWindow        time.Duration
	DBMaxOpenConns         int
	DBMaxIdleConns         int
	ObsLogFormat           string
	ObsLogLevel            string
	ObsMetricsNamespace    string
	ObsLatencyBucketsCSV   string
	TracingEnabled         bool
	TracingEndpoint        string
	TracingSamplingRatio   float64
	PprofEnabled           bool
	WorkerConcurrency      int
	OrderNotifyEmailSender string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CurrencyCode:           valueOrDefault(k.String("CURRENCY_CODE"), "USD"),
		ShippingFreeThreshold:  parseInt64(k.String("SHIPPING_FREE_THRESHOLD"), 8000),
		ShippingFlatFee:        parseInt64(k.String("SHIPPING_FLAT_FEE"), 495),
		CartTTL:                parseDuration(k.String("CART_TTL"), "720h"),
		CartSweepInterval:      parseDuration(k.String("CART_SWEEP_INTERVAL"), "15m"),
		CatalogCacheTTL:        parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:         parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitRequests:      parseInt64(k.String("RATE_LIMIT_REQUESTS"), 120),
		RateLimitWindow:        parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		DBMaxOpenConns:         int(parseInt64(k.String("DB_MAX_OPEN_CONNS"), 0)),
		DBMaxIdleConns:         int(parseInt64(k.String("DB_MAX_IDLE_CONNS"), 0)),
		ObsLogFormat:           valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		ObsLogLevel:            valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		ObsMetricsNamespace:    valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "kedai"),
		ObsLatencyBucketsCSV:   k.String("OBS_LATENCY_BUCKETS_MS"),
		TracingEnabled:         parseBool(k.String("TRACING_ENABLED")),
		TracingEndpoint:        strings.TrimSpace(k.String("TRACING_ENDPOINT")),
		TracingSamplingRatio:   parseFloat(k.String("TRACING_SAMPLING_RATIO"), 1),
		PprofEnabled:           parseBool(k.String("OBS_ENABLE_PPROF")),
		WorkerConcurrency:      int(parseInt64(k.String("WORKER_CONCURRENCY"), 10)),
		OrderNotifyEmailSender: valueOrDefault(k.String("ORDER_NOTIFY_EMAIL_SENDER"), "nop"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.ShippingFreeThreshold < 0 || cfg.ShippingFlatFee < 0 {
		return nil, errors.New("shipping amounts must be non-negative")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
