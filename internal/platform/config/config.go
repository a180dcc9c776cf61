// Copyright (c) 2026 Procura. All rights reserved.
// Author: adhi.wirawan@procura.id

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
  - DI-Friendly: Passed to core components (stores, upstream client) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the gateway is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Store Backends

const (
	// StoreBackendRedis keeps session state in a shared Redis instance.
	StoreBackendRedis = "redis"

	// StoreBackendBolt keeps session state in an embedded bbolt file.
	StoreBackendBolt = "bolt"

	// StoreBackendMemory keeps session state in process memory (dev/tests only).
	StoreBackendMemory = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Procura session gateway.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Upstream e-procurement REST API
	UpstreamURL     string        `env:"UPSTREAM_URL,required"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`

	// Token store backend selection
	StoreBackend string `env:"STORE_BACKEND" envDefault:"bolt"`
	RedisURL     string `env:"REDIS_URL"`
	BoltPath     string `env:"BOLT_PATH"     envDefault:"./data/sessions.db"`

	// Session lifecycle
	SessionSecret    string        `env:"SESSION_SECRET,required"`
	InactivityWindow time.Duration `env:"INACTIVITY_WINDOW" envDefault:"1h"`
	ExpirySweep      time.Duration `env:"EXPIRY_SWEEP"      envDefault:"1s"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Cross-field rules that tags cannot express.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces backend-specific requirements.
func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: STORE_BACKEND=redis requires REDIS_URL")
		}
	case StoreBackendBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("config: STORE_BACKEND=bolt requires BOLT_PATH")
		}
	case StoreBackendMemory:
		// nothing to check
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.InactivityWindow <= 0 {
		return fmt.Errorf("config: INACTIVITY_WINDOW must be positive")
	}
	if c.ExpirySweep <= 0 {
		return fmt.Errorf("config: EXPIRY_SWEEP must be positive")
	}

	return nil
}

// IsDevelopment reports whether the gateway is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the gateway is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra origins admitted by CORS outside of
// development mode, parsed from the comma-separated EXTRA_ORIGINS variable.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
