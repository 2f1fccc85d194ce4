// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Base URL of this service (used for OAuth redirect construction)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache / sessions / events (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Image generation service
	GenerationAPIURL   string        `env:"GENERATION_API_URL" envDefault:"https://api.replicate.com/v1"`
	GenerationAPIToken string        `env:"GENERATION_API_TOKEN,required"`
	GenerationModel    string        `env:"GENERATION_MODEL" envDefault:"google/imagen-4"`
	GenerationTimeout  time.Duration `env:"GENERATION_TIMEOUT" envDefault:"120s"`

	// Identity provider (OAuth code flow)
	IdentityAuthorizeURL string `env:"IDENTITY_AUTHORIZE_URL,required"`
	IdentityTokenURL     string `env:"IDENTITY_TOKEN_URL,required"`
	IdentityUserInfoURL  string `env:"IDENTITY_USERINFO_URL,required"`
	IdentityClientID     string `env:"IDENTITY_CLIENT_ID,required"`
	IdentityClientSecret string `env:"IDENTITY_CLIENT_SECRET,required"`

	// Object storage (S3)
	S3Region    string `env:"S3_REGION,required"`
	S3Bucket    string `env:"S3_BUCKET,required"`
	S3AccessKey string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey string `env:"S3_SECRET_KEY,required"`

	// Credits
	StartingCredits int `env:"STARTING_CREDITS" envDefault:"10"`

	// Sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"` // 7 days

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"150s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled   bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	AuthRateLimitRPS   int  `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int  `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB; prompts are small)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
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

// RedirectURL is the OAuth callback URL registered with the identity provider.
func (c *Config) RedirectURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/auth/callback"
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
