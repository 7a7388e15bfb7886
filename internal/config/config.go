// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default cache TTLs. Structural pattern lookups are cheap to recompute, so
// they expire quickly; external-model refinements are expensive and stable,
// so they are kept for a day.
const (
	DefaultLookupCacheTTL      = 5 * time.Minute
	DefaultEnhancementCacheTTL = 24 * time.Hour
)

// Config holds all configuration for the pipeline.
type Config struct {
	DatabaseURL         string
	GeminiAPIKey        string
	LogLevel            string
	DefaultCurrency     string
	PaymentAccount      string
	LookupCacheTTL      time.Duration
	EnhancementCacheTTL time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		DefaultCurrency:     os.Getenv("DEFAULT_CURRENCY"),
		PaymentAccount:      os.Getenv("PAYMENT_ACCOUNT"),
		LookupCacheTTL:      DefaultLookupCacheTTL,
		EnhancementCacheTTL: DefaultEnhancementCacheTTL,
	}

	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "THB"
	}
	if cfg.PaymentAccount == "" {
		cfg.PaymentAccount = "Assets:Cash"
	}

	if ttlStr := os.Getenv("LOOKUP_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil && ttl > 0 {
			cfg.LookupCacheTTL = ttl
		}
	}
	if ttlStr := os.Getenv("ENHANCEMENT_CACHE_TTL"); ttlStr != "" {
		if ttl, err := time.ParseDuration(ttlStr); err == nil && ttl > 0 {
			cfg.EnhancementCacheTTL = ttl
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.DefaultCurrency) != 3 {
		errs = append(errs, "DEFAULT_CURRENCY must be a 3-letter currency code")
	}

	if !strings.Contains(c.PaymentAccount, ":") {
		errs = append(errs, "PAYMENT_ACCOUNT must be a colon-delimited account path")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
