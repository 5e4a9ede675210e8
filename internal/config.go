package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Catalog API
	CatalogAPIURL     string
	CatalogAPIToken   string
	CatalogAPITimeout time.Duration

	// Catalog table
	DefaultPageSize int

	// Gateway headers carrying the acting admin
	RoleHeader   string
	TenantHeader string

	// Optional YAML file with extra form validation rules
	ValidationRulesFile string

	// Catalog writes allowed per tenant and IP per window; 0 disables limiting
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Send HSTS; enable when served over HTTPS
	HSTSEnabled bool

	// Development: reload templates from disk on every render
	TemplatesDir string
	StaticDir    string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		Env:      env.getEnv("ENV", "development"),
		Port:     env.getEnvInt("PORT", 8080),
		LogLevel: env.getEnv("LOG_LEVEL", "debug"),

		CatalogAPIURL:     os.Getenv("CATALOG_API_URL"),
		CatalogAPIToken:   env.getEnv("CATALOG_API_TOKEN", ""),
		CatalogAPITimeout: env.getEnvDuration("CATALOG_API_TIMEOUT", 10*time.Second),

		DefaultPageSize: env.getEnvInt("DEFAULT_PAGE_SIZE", 5),

		RoleHeader:   env.getEnv("ROLE_HEADER", "X-Actor-Role"),
		TenantHeader: env.getEnv("TENANT_HEADER", "X-Actor-Tenant"),

		ValidationRulesFile: env.getEnv("VALIDATION_RULES_FILE", ""),

		WriteRateLimit:  env.getEnvInt("WRITE_RATE_LIMIT", 60),
		WriteRateWindow: env.getEnvDuration("WRITE_RATE_WINDOW", time.Minute),

		HSTSEnabled: env.getEnvBool("HSTS_ENABLED", false),

		TemplatesDir: env.getEnv("TEMPLATES_DIR", ""),
		StaticDir:    env.getEnv("STATIC_DIR", ""),

		MetricsUsername: env.getEnv("METRICS_USERNAME", ""),
		MetricsPassword: env.getEnv("METRICS_PASSWORD", ""),
	}

	err := env.errs

	// Required
	if cfg.CatalogAPIURL == "" {
		err = multierr.Append(err, fmt.Errorf("CATALOG_API_URL is required"))
	} else if u, perr := url.Parse(cfg.CatalogAPIURL); perr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("CATALOG_API_URL must be an absolute URL, got: %s", cfg.CatalogAPIURL))
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("PORT must be between 1 and 65535, got: %d", cfg.Port))
	}
	if cfg.DefaultPageSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got: %d", cfg.DefaultPageSize))
	}
	if cfg.CatalogAPITimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("CATALOG_API_TIMEOUT must be positive, got: %s", cfg.CatalogAPITimeout))
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got: %s", cfg.LogLevel))
	}

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// envReader reads typed env vars, collecting malformed values instead of
// silently falling back.
type envReader struct {
	errs error
}

func (e *envReader) getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (e *envReader) getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s must be an integer, got: %s", key, value))
		return fallback
	}
	return i
}

func (e *envReader) getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s must be a boolean, got: %s", key, value))
		return fallback
	}
	return b
}

func (e *envReader) getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = multierr.Append(e.errs, fmt.Errorf("%s must be a duration, got: %s", key, value))
		return fallback
	}
	return d
}
