package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/recall-labs/recall-cli/internal/config"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
	"github.com/recall-labs/recall-cli/internal/ratelimit"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

const (
	// defaultLimit is the merged result count when the caller does not
	// specify one.
	defaultLimit = 20

	// minPerQueryK floors the per-sub-query candidate count so narrow
	// plans still retrieve enough candidates to survive deduplication.
	minPerQueryK = 20

	// overFetchFactor requests more candidates than the final limit to
	// compensate for cross-sub-query duplicates.
	overFetchFactor = 1.5

	// lowGainThreshold is the minimum number of new unique results a
	// completed sub-query must contribute to reset the early-stop
	// counter.
	lowGainThreshold = 3

	// maxLowGainStreak stops the fan-out after this many consecutive
	// low-gain sub-queries. Later sub-queries in a plan are broader
	// rephrasings, so a diminishing-returns streak rarely recovers.
	maxLowGainStreak = 3
)

// RetrievalService executes a query plan: each sub-query is embedded
// and searched concurrently under a fan-out bound, and the partial
// result lists are merged into one ranked, deduplicated list.
type RetrievalService struct {
	embedder     driven.EmbeddingService
	index        driven.VectorIndex
	governor     *ratelimit.Governor
	maxInFlight  int
	perQueryK    int
	queryTimeout time.Duration
}

// NewRetrievalService creates a retrieval service with the given
// fan-out bounds. The governor is optional (can be nil); outbound
// calls are then unpaced.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	governor *ratelimit.Governor,
	cfg config.Retrieval,
) *RetrievalService {
	maxInFlight := cfg.MaxInFlight
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &RetrievalService{
		embedder:     embedder,
		index:        index,
		governor:     governor,
		maxInFlight:  maxInFlight,
		perQueryK:    cfg.PerQueryK,
		queryTimeout: time.Duration(cfg.QueryTimeoutMS) * time.Millisecond,
	}
}

// Retrieve fans the plan out against the vector index. Failed
// sub-queries are logged and dropped; the merged ranking is built from
// whichever sub-queries succeeded. If ctx expires mid-flight the
// completed partial results are merged and returned instead of an
// error. The output is deterministic for a given plan and index state
// regardless of sub-query completion order.
func (s *RetrievalService) Retrieve(ctx context.Context, plan domain.QueryPlan, opts domain.RetrieveOptions) ([]domain.RankedItem, error) {
	logger.Section("Retrieval")

	if s.embedder == nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrEmbeddingUnavailable)
	}
	if s.index == nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ErrVectorIndexUnavailable)
	}
	if len(plan.SubQueries) == 0 {
		return nil, fmt.Errorf("retrieve: %w: plan has no sub-queries", domain.ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	perQueryK := s.resolvePerQueryK(opts, limit, len(plan.SubQueries))
	queryTimeout := opts.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = s.queryTimeout
	}
	logger.Debug("Fanning out %d sub-queries (k=%d, max in-flight %d)",
		len(plan.SubQueries), perQueryK, s.maxInFlight)

	// Results land in per-sub-query buckets so the flattened order
	// depends on the plan, never on completion order.
	var (
		mu      sync.Mutex
		buckets = make([][]domain.RankedItem, len(plan.SubQueries))
		seen    = make(map[string]struct{})
		stop    = newEarlyStop(limit)
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxInFlight)

	for _, subQuery := range plan.SubQueries {
		subQuery := subQuery
		group.Go(func() error {
			if stop.triggered() {
				return nil
			}

			hits, err := s.searchOne(groupCtx, subQuery, perQueryK, queryTimeout)
			if err != nil {
				// Partial failure tolerance: one bad sub-query must not
				// sink the whole retrieval.
				logger.Warn("Sub-query %d (%q) failed: %v", subQuery.ID, subQuery.Text, err)
				return nil
			}

			items := make([]domain.RankedItem, len(hits))
			for i, hit := range hits {
				items[i] = domain.RankedItem{
					Record:     hit.Record,
					Score:      hit.Similarity,
					SubQueryID: subQuery.ID,
				}
			}

			mu.Lock()
			buckets[subQuery.ID] = items
			gained := 0
			for _, item := range items {
				key := item.Record.Fingerprint
				if key == "" {
					key = item.Record.SourceID
				}
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					gained++
				}
			}
			stop.observe(gained, len(seen))
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		// Sub-query errors never propagate, so Wait's error is
		// uninteresting; it only signals completion.
		_ = group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Retrieval deadline reached, returning partial results")
	}

	mu.Lock()
	flat := make([]domain.RankedItem, 0, len(seen))
	for _, bucket := range buckets {
		flat = append(flat, bucket...)
	}
	mu.Unlock()

	merged := RankAndMerge(flat, limit)
	logger.Info("Retrieved %d results (%d candidates before merge)", len(merged), len(flat))
	return merged, nil
}

// searchOne embeds one sub-query and searches the index, pacing both
// outbound calls through the governor. The timeout bounds the whole
// embed-and-search round trip.
func (s *RetrievalService) searchOne(ctx context.Context, subQuery domain.SubQuery, k int, timeout time.Duration) ([]driven.VectorHit, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.acquire(ctx, config.SourceEmbedding); err != nil {
		return nil, err
	}
	vector, err := s.embedder.Embed(ctx, subQuery.Text)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	if err := s.acquire(ctx, config.SourceVectorIndex); err != nil {
		return nil, err
	}
	hits, err := s.index.Search(ctx, vector, k, driven.SearchFilter{EntityTypes: subQuery.EntityTypes})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return hits, nil
}

func (s *RetrievalService) acquire(ctx context.Context, source string) error {
	if s.governor == nil {
		return nil
	}
	return s.governor.Acquire(ctx, source)
}

// resolvePerQueryK picks the per-sub-query candidate count: explicit
// option, then configuration, then derived from the limit with
// over-fetch spread across the plan.
func (s *RetrievalService) resolvePerQueryK(opts domain.RetrieveOptions, limit, queryCount int) int {
	if opts.PerQueryK > 0 {
		return opts.PerQueryK
	}
	if s.perQueryK > 0 {
		return s.perQueryK
	}
	derived := int(math.Ceil(float64(limit) * overFetchFactor / float64(queryCount)))
	if derived < minPerQueryK {
		return minPerQueryK
	}
	return derived
}

// earlyStop tracks diminishing returns across completed sub-queries.
// Callers must hold their own lock around observe; triggered is safe
// to call concurrently.
type earlyStop struct {
	target    int
	lowStreak int
	done      bool
	mu        sync.Mutex
}

func newEarlyStop(target int) *earlyStop {
	return &earlyStop{target: target}
}

func (e *earlyStop) observe(gained, uniqueTotal int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if uniqueTotal >= e.target {
		e.done = true
		return
	}
	if gained < lowGainThreshold {
		e.lowStreak++
		if e.lowStreak >= maxLowGainStreak {
			e.done = true
		}
		return
	}
	e.lowStreak = 0
}

func (e *earlyStop) triggered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}
