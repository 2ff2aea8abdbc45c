package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/adapters/driven/storage/sqlite"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/services"
)

var (
	feedbackUser    string
	feedbackSession string

	statsWindow time.Duration
	statsJSON   bool

	trendBucket time.Duration
	trendWindow time.Duration
	trendJSON   bool

	problemsLimit  int
	problemsWindow time.Duration
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and inspect result feedback",
}

var feedbackRecordCmd = &cobra.Command{
	Use:   "record [result-id] [rating]",
	Short: "Record feedback for a result",
	Long: `Records one feedback event. Rating is one of: thumbs_up, thumbs_down,
neutral. Events are append-only; a correction is a new event.`,
	Args: cobra.ExactArgs(2),
	RunE: runFeedbackRecord,
}

var feedbackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated feedback statistics",
	Args:  cobra.NoArgs,
	RunE:  runFeedbackStats,
}

var feedbackTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show quality score over time",
	Args:  cobra.NoArgs,
	RunE:  runFeedbackTrend,
}

var feedbackProblemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List recent thumbs-down results",
	Args:  cobra.NoArgs,
	RunE:  runFeedbackProblems,
}

func init() {
	feedbackRecordCmd.Flags().StringVar(&feedbackUser, "user", "", "user identifier")
	feedbackRecordCmd.Flags().StringVar(&feedbackSession, "session", "", "session identifier")

	feedbackStatsCmd.Flags().DurationVar(&statsWindow, "window", 0, "time window (0 = all history)")
	feedbackStatsCmd.Flags().StringVar(&feedbackUser, "user", "", "restrict to one user")
	feedbackStatsCmd.Flags().StringVar(&feedbackSession, "session", "", "restrict to one session")
	feedbackStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")

	feedbackTrendCmd.Flags().DurationVar(&trendBucket, "bucket", time.Hour, "bucket size")
	feedbackTrendCmd.Flags().DurationVar(&trendWindow, "window", 24*time.Hour, "time window")
	feedbackTrendCmd.Flags().BoolVar(&trendJSON, "json", false, "output as JSON")

	feedbackProblemsCmd.Flags().IntVarP(&problemsLimit, "limit", "n", 10, "maximum number of results")
	feedbackProblemsCmd.Flags().DurationVar(&problemsWindow, "window", 0, "time window (0 = all history)")

	feedbackCmd.AddCommand(feedbackRecordCmd)
	feedbackCmd.AddCommand(feedbackStatsCmd)
	feedbackCmd.AddCommand(feedbackTrendCmd)
	feedbackCmd.AddCommand(feedbackProblemsCmd)
	rootCmd.AddCommand(feedbackCmd)
}

// withFeedbackService opens the persistent feedback store, runs fn,
// and closes the store.
func withFeedbackService(fn func(*services.FeedbackService) error) error {
	store, err := sqlite.NewFeedbackStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening feedback store: %w", err)
	}
	defer store.Close()

	return fn(services.NewFeedbackService(store, cfg.Feedback))
}

func runFeedbackRecord(cmd *cobra.Command, args []string) error {
	resultID := args[0]
	rating := domain.Rating(strings.ToLower(args[1]))

	return withFeedbackService(func(service *services.FeedbackService) error {
		stored, err := service.Record(context.Background(), domain.FeedbackEvent{
			ResultID:  resultID,
			Rating:    rating,
			UserID:    feedbackUser,
			SessionID: feedbackSession,
		})
		if err != nil {
			return fmt.Errorf("recording feedback: %w", err)
		}

		cmd.Printf("Recorded %s for %s (event %s)\n", stored.Rating, stored.ResultID, stored.ID)
		return nil
	})
}

func runFeedbackStats(cmd *cobra.Command, _ []string) error {
	return withFeedbackService(func(service *services.FeedbackService) error {
		stats, err := service.Stats(context.Background(), statsWindow, domain.FeedbackFilter{
			UserID:    feedbackUser,
			SessionID: feedbackSession,
		})
		if err != nil {
			return fmt.Errorf("computing stats: %w", err)
		}

		if statsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal stats: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		cmd.Printf("Total:         %d\n", stats.Total)
		cmd.Printf("Thumbs up:     %d\n", stats.ThumbsUp)
		cmd.Printf("Thumbs down:   %d\n", stats.ThumbsDown)
		cmd.Printf("Neutral:       %d\n", stats.Neutral)
		cmd.Printf("Thumbs-up rate: %.1f%%\n", stats.ThumbsUpRate*100)
		cmd.Printf("Quality score: %.1f\n", stats.QualityScore)
		return nil
	})
}

func runFeedbackTrend(cmd *cobra.Command, _ []string) error {
	return withFeedbackService(func(service *services.FeedbackService) error {
		points, err := service.Trend(context.Background(), trendBucket, trendWindow)
		if err != nil {
			return fmt.Errorf("computing trend: %w", err)
		}

		if trendJSON {
			data, err := json.MarshalIndent(points, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal trend: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		for _, point := range points {
			cmd.Printf("%s  score %.1f  (%d events, +%d/-%d)\n",
				point.Timestamp.Format(time.RFC3339),
				point.Score,
				point.TotalFeedback,
				point.ThumbsUpCount,
				point.ThumbsDownCount,
			)
		}
		return nil
	})
}

func runFeedbackProblems(cmd *cobra.Command, _ []string) error {
	return withFeedbackService(func(service *services.FeedbackService) error {
		problems, err := service.Problems(context.Background(), problemsLimit, problemsWindow)
		if err != nil {
			return fmt.Errorf("listing problems: %w", err)
		}

		if len(problems) == 0 {
			cmd.Println("No problem results recorded.")
			return nil
		}

		for _, event := range problems {
			cmd.Printf("%s  %s", event.Timestamp.Format(time.RFC3339), event.ResultID)
			if event.UserID != "" {
				cmd.Printf("  (user %s)", event.UserID)
			}
			cmd.Println()
		}
		return nil
	})
}
