package driven

import (
	"context"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// FeedbackStore persists feedback events. The log is append-only and
// safe for concurrent writers; List returns a consistent snapshot,
// which may not include events appended concurrently with the read.
type FeedbackStore interface {
	// Append stores one event. Events are never mutated or deleted.
	Append(ctx context.Context, event domain.FeedbackEvent) error

	// List returns events with Timestamp >= since, newest last,
	// restricted by the filter. A zero since means all history.
	List(ctx context.Context, since time.Time, filter domain.FeedbackFilter) ([]domain.FeedbackEvent, error)

	// Close releases resources.
	Close() error
}
