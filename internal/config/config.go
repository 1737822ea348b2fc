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
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	IdempotencyTTL     time.Duration
	CORSAllowedOrigins []string
	BodyLimitBytes     int64
	Pricing            pricing.Rules
	Obs                ObsConfig
}

// ObsConfig controls logging, metrics and tracing.
type ObsConfig struct {
	LogFormat            string
	LogLevel             string
	EnablePrometheus     bool
	MetricsNamespace     string
	HistogramBuckets     string
	EnableTracing        bool
	TracingExporter      string
	OTLPEndpoint         string
	TracingSamplingRatio float64
}

// Load reads configuration from environment variables and optional .env files.
// Malformed values are reported together rather than replaced by defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	r := &reader{k: k}

	defaults := pricing.DefaultRules()
	cfg := &Config{
		AppEnv:             r.str("APP_ENV", "development"),
		Port:               r.str("PORT", "8080"),
		RedisURL:           r.str("REDIS_URL", ""),
		IdempotencyTTL:     r.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS"),
		BodyLimitBytes:     r.integer("HTTP_BODY_LIMIT_BYTES", 1<<20),
		Pricing: pricing.Rules{
			TaxRate:           r.amount("PRICING_TAX_RATE", defaults.TaxRate),
			DiscountThreshold: r.amount("PRICING_DISCOUNT_THRESHOLD", defaults.DiscountThreshold),
			DiscountRate:      r.amount("PRICING_DISCOUNT_RATE", defaults.DiscountRate),
		},
		Obs: ObsConfig{
			LogFormat:            r.str("OBS_LOG_FORMAT", "json"),
			LogLevel:             r.str("OBS_LOG_LEVEL", "info"),
			EnablePrometheus:     r.boolean("OBS_ENABLE_PROMETHEUS", true),
			MetricsNamespace:     r.str("OBS_METRICS_NAMESPACE", "kasir"),
			HistogramBuckets:     r.str("OBS_HISTOGRAM_BUCKETS", ""),
			EnableTracing:        r.boolean("OBS_ENABLE_TRACING", false),
			TracingExporter:      r.str("OBS_TRACING_EXPORTER", "otlp"),
			OTLPEndpoint:         r.str("OBS_OTLP_ENDPOINT", ""),
			TracingSamplingRatio: r.float("OBS_TRACING_SAMPLING_RATIO", 1),
		},
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := cfg.Pricing.Validate(); err != nil {
		return nil, fmt.Errorf("pricing rules: %w", err)
	}
	if cfg.BodyLimitBytes <= 0 {
		return nil, errors.New("HTTP_BODY_LIMIT_BYTES must be positive")
	}
	if cfg.IdempotencyTTL <= 0 {
		return nil, errors.New("IDEMPOTENCY_TTL must be positive")
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

// IdempotencyEnabled reports whether POST routes are backed by Redis.
func (c *Config) IdempotencyEnabled() bool {
	return c.RedisURL != ""
}

// reader pulls typed values out of koanf, collecting one error per bad key.
type reader struct {
	k    *koanf.Koanf
	errs []error
}

func (r *reader) raw(key string) string {
	return strings.TrimSpace(r.k.String(key))
}

func (r *reader) fail(key, value, want string) {
	r.errs = append(r.errs, fmt.Errorf("%s: invalid %s %q", key, want, value))
}

func (r *reader) str(key, fallback string) string {
	if v := r.raw(key); v != "" {
		return v
	}
	return fallback
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.raw(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, "duration")
		return fallback
	}
	return d
}

func (r *reader) boolean(key string, fallback bool) bool {
	v := r.raw(key)
	switch strings.ToLower(v) {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		r.fail(key, v, "boolean")
		return fallback
	}
}

func (r *reader) float(key string, fallback float64) float64 {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, "number")
		return fallback
	}
	return f
}

func (r *reader) integer(key string, fallback int64) int64 {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, v, "integer")
		return fallback
	}
	return n
}

func (r *reader) amount(key string, fallback decimal.Decimal) decimal.Decimal {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(key, v, "decimal")
		return fallback
	}
	return d
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
