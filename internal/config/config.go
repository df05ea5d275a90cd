package config

import (
	"os"
	"strconv"

	"pdf-toolkit/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort          string
	DatabaseURL         string
	LogLevel            string
	JWTSecret           string
	MaxUploadBytes      int64
	FrontendURL         string
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceBasic    string
	StripePricePro      string
	TierLimits          domain.TierLimits
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	defaults := domain.DefaultTierLimits()
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:          getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", "your-secret-key-change-in-production"),
		MaxUploadBytes:      getEnvInt64OrDefault("MAX_FILE_SIZE_MB", 10) * 1024 * 1024,
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		StripeSecretKey:     getEnvOrDefault("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnvOrDefault("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceBasic:    getEnvOrDefault("STRIPE_PRICE_BASIC", ""),
		StripePricePro:      getEnvOrDefault("STRIPE_PRICE_PRO", ""),
		TierLimits: domain.TierLimits{
			Free:  getEnvIntOrDefault("FREE_TIER_LIMIT", defaults.Free),
			Basic: getEnvIntOrDefault("BASIC_TIER_LIMIT", defaults.Basic),
			Pro:   getEnvIntOrDefault("PRO_TIER_LIMIT", defaults.Pro),
		},
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetDatabaseURL returns the Postgres connection string
func (c *AppConfig) GetDatabaseURL() string {
	return c.DatabaseURL
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetJWTSecret returns the JWT signing secret
func (c *AppConfig) GetJWTSecret() string {
	return c.JWTSecret
}

// GetMaxUploadBytes returns the maximum allowed upload size per file
func (c *AppConfig) GetMaxUploadBytes() int64 {
	return c.MaxUploadBytes
}

// GetFrontendURL returns the base URL used for checkout redirects
func (c *AppConfig) GetFrontendURL() string {
	return c.FrontendURL
}

// GetStripeSecretKey returns the Stripe API secret key
func (c *AppConfig) GetStripeSecretKey() string {
	return c.StripeSecretKey
}

// GetStripeWebhookSecret returns the Stripe webhook signing secret
func (c *AppConfig) GetStripeWebhookSecret() string {
	return c.StripeWebhookSecret
}

// GetStripePriceBasic returns the Stripe price ID mapped to the basic tier
func (c *AppConfig) GetStripePriceBasic() string {
	return c.StripePriceBasic
}

// GetStripePricePro returns the Stripe price ID mapped to the pro tier
func (c *AppConfig) GetStripePricePro() string {
	return c.StripePricePro
}

// GetTierLimits returns the per-cycle operation quotas
func (c *AppConfig) GetTierLimits() domain.TierLimits {
	return c.TierLimits
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
