// Package config defines the engine's startup configuration. Every
// recognised source key, planner threshold, and retrieval bound is
// enumerated explicitly and validated before any request is served;
// unknown or malformed values fail fast instead of silently defaulting.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Source keys recognised by the rate governor. Each outbound
// dependency the retrieval path talks to gets its own key so pacing
// for one never stalls another.
const (
	SourceEmbedding   = "embedding"
	SourceVectorIndex = "vector_index"
	SourceLLM         = "llm"
)

// Planner holds query-planning thresholds.
type Planner struct {
	// MinSubQueries is the minimum breadth of an accepted plan.
	// Plans below this fall back to a single sub-query.
	MinSubQueries int `toml:"min_sub_queries"`

	// MaxSubQueries bounds fan-out cost.
	MaxSubQueries int `toml:"max_sub_queries"`

	// Temperature is passed to the language model.
	Temperature float64 `toml:"temperature"`
}

// Retrieval holds fan-out bounds.
type Retrieval struct {
	// MaxInFlight caps concurrent sub-query calls.
	MaxInFlight int `toml:"max_in_flight"`

	// PerQueryK is how many candidates each sub-query requests.
	// Zero derives it from the requested limit.
	PerQueryK int `toml:"per_query_k"`

	// QueryTimeoutMS bounds each individual sub-query call.
	QueryTimeoutMS int64 `toml:"query_timeout_ms"`
}

// Feedback holds quality-score parameters.
type Feedback struct {
	// PriorWeight is the pseudo-count pulling the quality score toward
	// the neutral prior at low volume. Larger values discount small
	// samples more aggressively.
	PriorWeight float64 `toml:"prior_weight"`
}

// Ollama holds connection settings for the local model server used by
// the CLI wiring.
type Ollama struct {
	BaseURL    string `toml:"base_url"`
	LLMModel   string `toml:"llm_model"`
	EmbedModel string `toml:"embed_model"`
}

// Config is the engine's complete startup configuration.
type Config struct {
	Planner   Planner   `toml:"planner"`
	Retrieval Retrieval `toml:"retrieval"`
	Feedback  Feedback  `toml:"feedback"`
	Ollama    Ollama    `toml:"ollama"`

	// RateLimitsMS maps each source key to its minimum inter-request
	// interval in milliseconds, derived from the source's published
	// rate limit with a safety margin.
	RateLimitsMS map[string]int64 `toml:"rate_limits_ms"`

	// DataDir is where persistent state (feedback log) lives.
	// Empty defaults to ~/.recall/data.
	DataDir string `toml:"data_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Planner: Planner{
			MinSubQueries: 4,
			MaxSubQueries: 12,
			Temperature:   0.7,
		},
		Retrieval: Retrieval{
			MaxInFlight:    4,
			QueryTimeoutMS: 10_000,
		},
		Feedback: Feedback{
			PriorWeight: 10,
		},
		RateLimitsMS: map[string]int64{
			SourceEmbedding:   50,
			SourceVectorIndex: 20,
			SourceLLM:         200,
		},
	}
}

// Load reads configuration from the TOML file at path, layered over
// the defaults. A missing file is not an error: defaults apply. If
// path is empty, ~/.recall/config.toml is used. The result is
// validated before being returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".recall", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and returns the first problem
// found. Called once at startup so misconfiguration is fatal there,
// never mid-request.
func (c Config) Validate() error {
	if c.Planner.MinSubQueries < 1 {
		return fmt.Errorf("planner.min_sub_queries must be >= 1, got %d", c.Planner.MinSubQueries)
	}
	if c.Planner.MaxSubQueries < c.Planner.MinSubQueries {
		return fmt.Errorf("planner.max_sub_queries (%d) below min_sub_queries (%d)",
			c.Planner.MaxSubQueries, c.Planner.MinSubQueries)
	}
	if c.Planner.Temperature < 0 || c.Planner.Temperature > 1 {
		return fmt.Errorf("planner.temperature must be in [0,1], got %v", c.Planner.Temperature)
	}
	if c.Retrieval.MaxInFlight < 1 {
		return fmt.Errorf("retrieval.max_in_flight must be >= 1, got %d", c.Retrieval.MaxInFlight)
	}
	if c.Retrieval.PerQueryK < 0 {
		return fmt.Errorf("retrieval.per_query_k must be >= 0, got %d", c.Retrieval.PerQueryK)
	}
	if c.Retrieval.QueryTimeoutMS < 0 {
		return fmt.Errorf("retrieval.query_timeout_ms must be >= 0, got %d", c.Retrieval.QueryTimeoutMS)
	}
	if c.Feedback.PriorWeight < 0 {
		return fmt.Errorf("feedback.prior_weight must be >= 0, got %v", c.Feedback.PriorWeight)
	}
	for key, ms := range c.RateLimitsMS {
		if key == "" {
			return fmt.Errorf("rate_limits_ms: empty source key")
		}
		if ms < 0 {
			return fmt.Errorf("rate_limits_ms.%s: negative interval %d", key, ms)
		}
	}
	return nil
}

// RateIntervals converts the configured millisecond limits into
// durations for the rate governor.
func (c Config) RateIntervals() map[string]time.Duration {
	intervals := make(map[string]time.Duration, len(c.RateLimitsMS))
	for key, ms := range c.RateLimitsMS {
		intervals[key] = time.Duration(ms) * time.Millisecond
	}
	return intervals
}

// QueryTimeout returns the per-sub-query timeout as a duration.
func (c Config) QueryTimeout() time.Duration {
	return time.Duration(c.Retrieval.QueryTimeoutMS) * time.Millisecond
}
