package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.RulesPath)
	assert.Equal(t, 300, cfg.CacheTTLSeconds)
	assert.Equal(t, 100, cfg.MaxSuggestions)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SUGGESTION_RULES_PATH", "/etc/engine/rules.yaml")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("MAX_SUGGESTIONS", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/etc/engine/rules.yaml", cfg.RulesPath)
	assert.Equal(t, 60, cfg.CacheTTLSeconds)
	assert.Equal(t, 25, cfg.MaxSuggestions)
}

func TestLoadConfig_IgnoresUnparsableInt(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.CacheTTLSeconds)
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "-1")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("CACHE_TTL_SECONDS", "0")
	t.Setenv("MAX_SUGGESTIONS", "0")
	_, err = LoadConfig()
	assert.Error(t, err)
}
