package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// RetrievalService fans a query plan out against the vector index and
// returns one ranked, deduplicated result list.
type RetrievalService interface {
	// Retrieve executes the plan's sub-queries concurrently and merges
	// their results. Individual sub-query failures are dropped; if
	// every sub-query fails the result is empty, not an error. When
	// ctx carries a deadline, expiry degrades to whatever partial
	// results have completed.
	Retrieve(ctx context.Context, plan domain.QueryPlan, opts domain.RetrieveOptions) ([]domain.RankedItem, error)
}
