package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

var (
	planCount    int
	planTypes    []string
	planTemporal string
	planJSON     bool
)

var planCmd = &cobra.Command{
	Use:   "plan [query]",
	Short: "Show the query plan without searching",
	Long: `Expands the query into sub-queries via the language model and prints
the plan. Useful for inspecting what a search would fan out to.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVarP(&planCount, "count", "n", 0, "desired number of sub-queries (0 = configured maximum)")
	planCmd.Flags().StringSliceVarP(&planTypes, "types", "t", nil, "restrict to entity types")
	planCmd.Flags().StringVar(&planTemporal, "since", "", "temporal hint woven into sub-queries")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "output plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	entityTypes, err := parseEntityTypes(planTypes)
	if err != nil {
		return err
	}

	plan, err := newPlanner().Plan(context.Background(), args[0], domain.PlanOptions{
		DesiredCount:  planCount,
		EntityTypes:   entityTypes,
		Temporal:      planTemporal != "",
		TimeReference: planTemporal,
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	if planJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Plan for %q (source: %s):\n", plan.OriginalQuery, plan.Source)
	for _, subQuery := range plan.SubQueries {
		cmd.Printf("  [%d] %s\n", subQuery.ID, subQuery.Text)
	}
	if len(plan.Tags) > 0 {
		cmd.Printf("Tags: %v\n", plan.Tags)
	}
	return nil
}
