package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/memory"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/services"
)

var (
	searchInput    string
	searchLimit    int
	searchTypes    []string
	searchTemporal string
	searchJSON     bool
	searchSections bool
	searchNoPlan   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested content",
	Long: `Plans the query into multiple sub-queries, searches each against the
vector index concurrently, and prints one ranked, deduplicated list.

Content is loaded from a JSONL file where each line has source_id,
entity_type, text, and optional metadata/created_at fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchInput, "input", "i", "", "JSONL file to ingest and search (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().StringSliceVarP(&searchTypes, "types", "t", nil, "restrict to entity types (code, tweet, track, issue, document, photo, event)")
	searchCmd.Flags().StringVar(&searchTemporal, "since", "", "temporal hint woven into sub-queries (e.g. \"last week\")")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchSections, "sections", false, "group results by entity type")
	searchCmd.Flags().BoolVar(&searchNoPlan, "no-plan", false, "skip LLM query expansion")
	_ = searchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	entityTypes, err := parseEntityTypes(searchTypes)
	if err != nil {
		return err
	}

	governor, err := newGovernor()
	if err != nil {
		return err
	}
	embedder := newEmbedder()
	defer embedder.Close()

	index := memory.NewVectorIndex()
	if _, err := ingestFile(ctx, searchInput, embedder, index, governor); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	planner := newPlanner()
	if searchNoPlan {
		planner = services.NewPlannerService(nil, cfg.Planner)
	}
	plan, err := planner.Plan(ctx, query, domain.PlanOptions{
		EntityTypes:   entityTypes,
		Temporal:      searchTemporal != "",
		TimeReference: searchTemporal,
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	retriever := services.NewRetrievalService(embedder, index, governor, cfg.Retrieval)
	results, err := retriever.Retrieve(ctx, plan, domain.RetrieveOptions{
		Limit:        searchLimit,
		QueryTimeout: cfg.QueryTimeout(),
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if searchJSON {
		return outputResultsJSON(cmd, results)
	}
	if searchSections {
		return outputResultsSections(cmd, results)
	}
	return outputResultsTable(cmd, results)
}

func outputResultsJSON(cmd *cobra.Command, results []domain.RankedItem) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResultsTable(cmd *cobra.Command, results []domain.RankedItem) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, result := range results {
		cmd.Printf("  [%d] %s %s (%.3f)\n", i+1, result.Record.EntityType, result.Record.SourceID, result.Score)
		cmd.Printf("      %s\n", snippet(result.Record.RawText, 120))
		cmd.Println()
	}
	return nil
}

func outputResultsSections(cmd *cobra.Command, results []domain.RankedItem) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for _, section := range services.GroupBySections(results) {
		cmd.Printf("%s:\n", section.Name)
		for _, item := range section.Items {
			cmd.Printf("  %s (%.3f) %s\n", item.Record.SourceID, item.Score, snippet(item.Record.RawText, 100))
		}
		cmd.Println()
	}
	return nil
}

// snippet truncates text to maxRunes for single-line display.
func snippet(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
