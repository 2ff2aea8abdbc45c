package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// VectorIndex provides similarity search over ingested content
// records. The storage engine behind it is external to the core; each
// Search call may fail or time out independently, and the retrieval
// fan-out tolerates that.
type VectorIndex interface {
	// Add inserts a record and its embedding into the index.
	Add(ctx context.Context, record domain.ContentRecord) error

	// Search finds the k nearest records to the query vector,
	// optionally restricted by the filter.
	Search(ctx context.Context, query []float32, k int, filter SearchFilter) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// SearchFilter restricts a similarity search.
type SearchFilter struct {
	// EntityTypes limits hits to the given types. Empty means all.
	EntityTypes []domain.EntityType
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// Record is the matched content record.
	Record domain.ContentRecord

	// Similarity is the cosine similarity score (0-1, higher is closer).
	Similarity float64
}
