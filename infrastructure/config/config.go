// Package config loads engine configuration from the environment and the
// suggestion rule table from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all engine configuration
type Config struct {
	Environment string
	LogLevel    string

	// RulesPath points at the YAML suggestion rule table; empty means the
	// built-in defaults.
	RulesPath string

	// CacheTTLSeconds bounds how long memoized similarity and metrics
	// results live without an explicit invalidation.
	CacheTTLSeconds int

	// MaxSuggestions caps how many proposals a single suggestion query
	// may request.
	MaxSuggestions int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RulesPath:       getEnv("SUGGESTION_RULES_PATH", ""),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 300),
		MaxSuggestions:  getEnvInt("MAX_SUGGESTIONS", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.CacheTTLSeconds < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS cannot be negative")
	}
	if c.MaxSuggestions <= 0 {
		return fmt.Errorf("MAX_SUGGESTIONS must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
