// Package cli provides the cobra command tree for the Recall
// retrieval engine.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	embeddingollama "github.com/recall-labs/recall-cli/internal/adapters/driven/embedding/ollama"
	llmollama "github.com/recall-labs/recall-cli/internal/adapters/driven/llm/ollama"
	"github.com/recall-labs/recall-cli/internal/config"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/services"
	"github.com/recall-labs/recall-cli/internal/logger"
	"github.com/recall-labs/recall-cli/internal/ratelimit"
)

// version is set at build time via -ldflags.
var version = "0.1.0-dev"

var (
	verbose    bool
	configPath string

	// cfg is loaded once before any command runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Search your personal knowledge base",
	Long: `Recall retrieves and ranks content from your personal knowledge base:
code, posts, tracks, issues, documents, photos, and events.

A query is expanded into multiple sub-queries, each searched
concurrently against the vector index, and the results are merged
into one ranked, deduplicated list.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.recall/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newGovernor builds the rate governor from the configured per-source
// intervals.
func newGovernor() (*ratelimit.Governor, error) {
	governor, err := ratelimit.NewGovernor(cfg.RateIntervals())
	if err != nil {
		return nil, fmt.Errorf("creating rate governor: %w", err)
	}
	return governor, nil
}

// newEmbedder builds the Ollama embedding client from configuration.
func newEmbedder() driven.EmbeddingService {
	return embeddingollama.NewEmbeddingService(embeddingollama.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.EmbedModel,
	})
}

// newPlanner builds the planner. The LLM client is created eagerly
// but only contacted at plan time; an unreachable model degrades to
// the fallback plan, it never blocks startup.
func newPlanner() *services.PlannerService {
	llm := llmollama.NewLLMService(llmollama.LLMConfig{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.LLMModel,
	})
	return services.NewPlannerService(llm, cfg.Planner)
}
