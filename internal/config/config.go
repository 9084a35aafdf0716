// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/solidario/solidario/internal/model"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Bonus policy. Amounts are minor units (cents).
	HouseAccountID   string `env:"HOUSE_ACCOUNT_ID,required"`
	DirectBonusCents int64  `env:"DIRECT_BONUS_CENTS" envDefault:"1000"`
	HouseBonusCents  int64  `env:"HOUSE_BONUS_CENTS" envDefault:"500"`

	// Payment policy: comma-separated allowed denominations in cents.
	PaymentDenominations string `env:"PAYMENT_DENOMINATIONS_CENTS" envDefault:"500,1000"`

	// Subscription term granted by activate/renew.
	SubscriptionTerm time.Duration `env:"SUBSCRIPTION_TERM" envDefault:"720h"`

	// Block-explorer oracle used to verify claimed transactions.
	OracleURL     string        `env:"ORACLE_URL,required"`
	OracleAPIKey  string        `env:"ORACLE_API_KEY,required"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"10s"`

	// Mailing-list provider (best-effort side effect).
	MailingURL     string `env:"MAILING_URL" envDefault:"https://connect.mailerlite.com"`
	MailingAPIKey  string `env:"MAILING_API_KEY" envDefault:""`
	MailingGroupID string `env:"MAILING_GROUP_ID" envDefault:""`

	// Rate limiting
	RateLimitEnabled     bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPublicRPS   int  `env:"RATE_LIMIT_PUBLIC_RPS" envDefault:"10"`
	RateLimitPublicBurst int  `env:"RATE_LIMIT_PUBLIC_BURST" envDefault:"20"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MailingEnabled returns true if a mailing API credential is configured.
func (c *Config) MailingEnabled() bool {
	return c.MailingAPIKey != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// GetPaymentDenominations parses the allowed payment amounts.
func (c *Config) GetPaymentDenominations() ([]model.Amount, error) {
	parts := strings.Split(c.PaymentDenominations, ",")
	result := make([]model.Amount, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		var cents int64
		if _, err := fmt.Sscanf(trimmed, "%d", &cents); err != nil || cents <= 0 {
			return nil, fmt.Errorf("invalid payment denomination %q", trimmed)
		}
		result = append(result, model.Amount(cents))
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no payment denominations configured")
	}
	return result, nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
