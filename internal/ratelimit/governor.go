// Package ratelimit paces outbound calls per source key so concurrent
// work never exceeds a source's allowed request cadence. Limits are
// static configuration derived from each external API's published rate
// limit with a safety margin; the governor does not auto-discover them.
package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// Governor enforces a minimum interval between grants for each source
// key. Keys are fully independent: waiting on one never blocks another.
//
// Each key is backed by a token bucket holding a single token refilled
// once per interval, which is exactly the leaky-bucket-of-one model the
// upstream limits call for. The bucket's internal accounting is the
// only mutable state shared across callers, and the limiter updates it
// exclusively, so two concurrent acquisitions can never both observe a
// stale "elapsed" view and double-grant.
type Governor struct {
	limiters map[string]*rate.Limiter
}

// NewGovernor builds a governor from a static mapping of source key to
// minimum inter-request interval. It fails fast on malformed
// configuration: empty keys and negative intervals are rejected here
// so they are never encountered mid-request. A zero interval disables
// pacing for that key.
func NewGovernor(intervals map[string]time.Duration) (*Governor, error) {
	limiters := make(map[string]*rate.Limiter, len(intervals))
	for key, interval := range intervals {
		if key == "" {
			return nil, fmt.Errorf("rate limit config: empty source key")
		}
		if interval < 0 {
			return nil, fmt.Errorf("rate limit config: negative interval %v for source %q", interval, key)
		}

		limit := rate.Inf
		if interval > 0 {
			limit = rate.Every(interval)
		}
		limiters[key] = rate.NewLimiter(limit, 1)
	}

	return &Governor{limiters: limiters}, nil
}

// Acquire blocks until the per-source minimum interval has elapsed
// since the last grant for sourceKey, then returns. It never rejects
// on pacing grounds - it only delays; callers needing a hard timeout
// wrap ctx themselves. An unconfigured key is an error: silently
// defaulting would hide a misconfigured connector.
func (g *Governor) Acquire(ctx context.Context, sourceKey string) error {
	limiter, ok := g.limiters[sourceKey]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownSource, sourceKey)
	}
	return limiter.Wait(ctx)
}

// Allow reports whether a grant for sourceKey is available right now
// without blocking. Unknown keys report false.
func (g *Governor) Allow(sourceKey string) bool {
	limiter, ok := g.limiters[sourceKey]
	if !ok {
		return false
	}
	return limiter.Allow()
}

// Sources returns the configured source keys, sorted.
func (g *Governor) Sources() []string {
	keys := make([]string, 0, len(g.limiters))
	for key := range g.limiters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
