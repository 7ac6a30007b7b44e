// Package config loads habitd settings from the environment. Every variable
// has a default; a value that is set but unparsable is reported instead of
// silently replaced, and all problems are returned together.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDBPath keeps the idempotency ledger in a shared in-memory SQLite
// database, so nothing outlives the process unless DB_PATH says otherwise.
const DefaultDBPath = "file::memory:?cache=shared"

// CORSConfig lists the browser origins allowed to call the API. Empty means
// any origin.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig configures trace export over OTLP/gRPC.
type OTELConfig struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

// Config is the full runtime configuration of habitd.
type Config struct {
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	GinMode           string

	LogLevel     string
	LogPretty    bool
	LogFile      string
	LogMaxSizeMB int

	SwaggerEnabled bool
	APIBasePath    string

	// DBPath is the SQLite DSN of the idempotency ledger.
	DBPath         string
	IdempotencyTTL time.Duration

	RateRPS   float64
	RateBurst int

	CORS        CORSConfig
	Security    SecurityConfig
	GzipEnabled bool

	OTEL OTELConfig
}

// Load builds a Config from the environment and validates it.
func Load() (Config, error) {
	var env envReader

	cfg := Config{
		Port:              env.str("PORT", "8080"),
		ReadTimeout:       env.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: env.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      env.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       env.dur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   env.dur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    env.num("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode(env.str("GIN_MODE", "release")),

		LogLevel:     logLevel(env.str("LOG_LEVEL", "info")),
		LogPretty:    env.flag("LOG_PRETTY", false),
		LogFile:      env.str("LOG_FILE", ""),
		LogMaxSizeMB: env.num("LOG_MAX_SIZE_MB", 100),

		SwaggerEnabled: env.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(env.str("API_BASE_PATH", "/api")),

		DBPath:         env.str("DB_PATH", DefaultDBPath),
		IdempotencyTTL: env.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		RateRPS:   env.float("RATE_RPS", 5),
		RateBurst: env.num("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: env.list("CORS_ALLOWED_ORIGINS")},
		Security: SecurityConfig{
			EnableHSTS: env.flag("ENABLE_HSTS", false),
			HSTSMaxAge: env.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		GzipEnabled: env.flag("GZIP_ENABLED", false),

		OTEL: OTELConfig{
			Enabled:     env.flag("OTEL_ENABLED", false),
			Endpoint:    env.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    env.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: env.str("OTEL_SERVICE_NAME", "go-habit-backend"),
			SampleRatio: env.float("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	return cfg, errors.Join(append(env.errs, cfg.validate()...)...)
}

func (c Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error, fatal, panic", c.LogLevel))
	}
	check(c.Port != "", "PORT must not be empty")
	for name, d := range map[string]time.Duration{
		"READ_TIMEOUT":        c.ReadTimeout,
		"READ_HEADER_TIMEOUT": c.ReadHeaderTimeout,
		"WRITE_TIMEOUT":       c.WriteTimeout,
		"IDLE_TIMEOUT":        c.IdleTimeout,
		"SHUTDOWN_TIMEOUT":    c.ShutdownTimeout,
		"IDEMPOTENCY_TTL":     c.IdempotencyTTL,
	} {
		check(d > 0, name+" must be positive")
	}
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be positive")
	check(c.DBPath != "", "DB_PATH must not be empty")
	check(c.LogFile == "" || c.LogMaxSizeMB > 0, "LOG_MAX_SIZE_MB must be positive when LOG_FILE is set")
	check(c.RateRPS >= 0, "RATE_RPS must not be negative")
	check(c.RateBurst >= 1, "RATE_BURST must be at least 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must not be negative")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be within [0,1]")
	return errs
}

// LoadEnvFile merges KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// envReader reads typed variables and remembers every parse failure.
// Unset and blank variables take the default.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (r *envReader) fail(key, raw string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
}

func (r *envReader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

func (r *envReader) num(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return f
}

func (r *envReader) flag(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	r.fail(key, v, errors.New("not a boolean"))
	return def
}

func (r *envReader) dur(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

// list splits a comma-separated variable, dropping blank entries.
func (r *envReader) list(key string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ginMode(m string) string {
	switch m = strings.ToLower(m); m {
	case "debug", "release", "test":
		return m
	}
	return "release"
}

func logLevel(l string) string {
	if l = strings.ToLower(l); l == "warning" {
		return "warn"
	}
	return l
}

// normalizeBasePath returns p with exactly one leading slash and no trailing
// slash; blank becomes "/".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
