package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min below one", func(c *Config) { c.Planner.MinSubQueries = 0 }},
		{"max below min", func(c *Config) { c.Planner.MaxSubQueries = 2 }},
		{"temperature out of range", func(c *Config) { c.Planner.Temperature = 1.5 }},
		{"max in flight below one", func(c *Config) { c.Retrieval.MaxInFlight = 0 }},
		{"negative per query k", func(c *Config) { c.Retrieval.PerQueryK = -1 }},
		{"negative timeout", func(c *Config) { c.Retrieval.QueryTimeoutMS = -1 }},
		{"negative prior weight", func(c *Config) { c.Feedback.PriorWeight = -1 }},
		{"empty source key", func(c *Config) { c.RateLimitsMS[""] = 100 }},
		{"negative interval", func(c *Config) { c.RateLimitsMS["github"] = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Planner, cfg.Planner)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[planner]
min_sub_queries = 2
max_sub_queries = 6
temperature = 0.3

[rate_limits_ms]
embedding = 100
vector_index = 10
github = 1200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Planner.MinSubQueries)
	assert.Equal(t, 6, cfg.Planner.MaxSubQueries)
	assert.InDelta(t, 0.3, cfg.Planner.Temperature, 1e-9)
	assert.Equal(t, int64(1200), cfg.RateLimitsMS["github"])

	intervals := cfg.RateIntervals()
	assert.Equal(t, 100*time.Millisecond, intervals[SourceEmbedding])
	assert.Equal(t, 1200*time.Millisecond, intervals["github"])
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[planner]
min_sub_queries = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
