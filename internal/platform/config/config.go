// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (token service, lockout, stores) via constructors.
  - Zero Hidden State: No global variables are used to store config.

Optional backends fall back to in-memory implementations when their URL is empty,
so the API can boot with nothing but JWT_SECRET set.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/bizdesk/internal/platform/constants"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

// # Configuration Schema

// Config holds all runtime configuration for the Bizdesk API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL). Empty selects the in-memory identity store.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Empty selects the in-memory token store.
	RedisURL string `env:"REDIS_URL"`

	// Token signing
	JWTSecret        string        `env:"JWT_SECRET,required"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL"  envDefault:"24h"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	// Account lockout
	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION"  envDefault:"30m"`

	// Password hashing
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// Cross-Origin Resource Sharing (comma separated)
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(options env.Options) (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.ParseWithOptions(cfg, options); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.JWTAccessTTL <= 0:
		return fmt.Errorf("JWT_ACCESS_TTL must be positive")
	case c.JWTRefreshTTL <= 0:
		return fmt.Errorf("JWT_REFRESH_TTL must be positive")
	case c.LockoutThreshold < 1:
		return fmt.Errorf("LOCKOUT_THRESHOLD must be at least 1")
	case c.LockoutDuration <= 0:
		return fmt.Errorf("LOCKOUT_DURATION must be positive")
	}
	return nil
}

// # Derived Settings

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DebugResponses reports whether error envelopes may carry their cause.
func (c *Config) DebugResponses() bool {
	return c.Debug || !c.IsProduction()
}

// CORSOrigins returns the explicit origin allow-list.
func (c *Config) CORSOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// TokenConfig maps the JWT settings onto the token service configuration.
func (c *Config) TokenConfig() sec.TokenConfig {
	return sec.TokenConfig{
		AccessSecret:  c.JWTSecret,
		RefreshSecret: c.JWTRefreshSecret,
		AccessTTL:     c.JWTAccessTTL,
		RefreshTTL:    c.JWTRefreshTTL,
		Issuer:        constants.AuthIssuer,
	}
}

// LockoutPolicy maps the lockout settings onto the state machine policy.
func (c *Config) LockoutPolicy() identity.LockoutPolicy {
	return identity.LockoutPolicy{
		Threshold: c.LockoutThreshold,
		Duration:  c.LockoutDuration,
	}
}
