package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force in-memory similarity index. Every
// search scans all records, which is fine for personal-scale corpora
// and exact: no approximation artefacts in tests.
type VectorIndex struct {
	mu      sync.RWMutex
	records []domain.ContentRecord
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Add inserts a record and its embedding into the index.
func (idx *VectorIndex) Add(_ context.Context, record domain.ContentRecord) error {
	if len(record.Vector) == 0 {
		return fmt.Errorf("add record %s: empty vector", record.SourceID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.records = append(idx.records, record)
	return nil
}

// Search scans the index for the k records most similar to the query
// vector. Equal similarities tie-break on insertion order, so results
// are deterministic for a given index state.
func (idx *VectorIndex) Search(_ context.Context, query []float32, k int, filter driven.SearchFilter) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("search: empty query vector")
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(idx.records))
	for _, record := range idx.records {
		if !matchesFilter(record, filter) {
			continue
		}
		similarity, err := cosineSimilarity(query, record.Vector)
		if err != nil {
			return nil, fmt.Errorf("search record %s: %w", record.SourceID, err)
		}
		hits = append(hits, driven.VectorHit{Record: record, Similarity: similarity})
	}
	idx.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports the number of indexed records.
func (idx *VectorIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Close releases resources.
func (idx *VectorIndex) Close() error {
	return nil
}

func matchesFilter(record domain.ContentRecord, filter driven.SearchFilter) bool {
	if len(filter.EntityTypes) == 0 {
		return true
	}
	for _, entityType := range filter.EntityTypes {
		if record.EntityType == entityType {
			return true
		}
	}
	return false
}

// cosineSimilarity computes the cosine of the angle between two
// vectors, mapped from [-1,1] to [0,1] so scores compose with the
// ranker's descending sort.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cosine + 1) / 2, nil
}
