package driving

import (
	"context"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// FeedbackService records result feedback and derives quality
// aggregates for display.
type FeedbackService interface {
	// Record appends one feedback event, filling in its ID and
	// timestamp when absent, and returns the stored event.
	Record(ctx context.Context, event domain.FeedbackEvent) (domain.FeedbackEvent, error)

	// Stats aggregates feedback within the window (zero = all history)
	// under the optional filter.
	Stats(ctx context.Context, window time.Duration, filter domain.FeedbackFilter) (domain.FeedbackStats, error)

	// Trend buckets the window into contiguous intervals and reports
	// one quality point per bucket, empty buckets included.
	Trend(ctx context.Context, bucketSize, window time.Duration) ([]domain.QualityTrendPoint, error)

	// Problems lists the most recent thumbs-down events in the window.
	Problems(ctx context.Context, limit int, window time.Duration) ([]domain.FeedbackEvent, error)
}
