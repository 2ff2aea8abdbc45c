package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recall-labs/recall-cli/internal/config"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure FeedbackService implements the interface.
var _ driving.FeedbackService = (*FeedbackService)(nil)

// neutralScore is the prior a quality score decays toward when there
// is little or no feedback.
const neutralScore = 50.0

// FeedbackService records result feedback and derives windowed quality
// aggregates. All aggregates are computed from the append-only event
// log on demand; nothing derived is ever persisted.
type FeedbackService struct {
	store       driven.FeedbackStore
	priorWeight float64

	// now is swapped in tests to pin the window boundaries.
	now func() time.Time
}

// NewFeedbackService creates a feedback service backed by the store.
func NewFeedbackService(store driven.FeedbackStore, cfg config.Feedback) *FeedbackService {
	priorWeight := cfg.PriorWeight
	if priorWeight < 0 {
		priorWeight = 0
	}
	return &FeedbackService{
		store:       store,
		priorWeight: priorWeight,
		now:         time.Now,
	}
}

// Record validates and appends one feedback event, filling in a fresh
// ID and timestamp when absent, and returns the event as stored.
func (s *FeedbackService) Record(ctx context.Context, event domain.FeedbackEvent) (domain.FeedbackEvent, error) {
	if s.store == nil {
		return domain.FeedbackEvent{}, fmt.Errorf("record feedback: %w", domain.ErrFeedbackStoreUnavailable)
	}
	if event.ResultID == "" {
		return domain.FeedbackEvent{}, fmt.Errorf("record feedback: %w: missing result ID", domain.ErrInvalidInput)
	}
	if !event.Rating.Valid() {
		return domain.FeedbackEvent{}, fmt.Errorf("record feedback: %w: %q", domain.ErrInvalidRating, event.Rating)
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}

	if err := s.store.Append(ctx, event); err != nil {
		return domain.FeedbackEvent{}, fmt.Errorf("record feedback: %w", err)
	}
	logger.Debug("Recorded %s feedback for result %s", event.Rating, event.ResultID)
	return event, nil
}

// Stats aggregates feedback within the window (zero means all
// history), restricted by the filter.
func (s *FeedbackService) Stats(ctx context.Context, window time.Duration, filter domain.FeedbackFilter) (domain.FeedbackStats, error) {
	if s.store == nil {
		return domain.FeedbackStats{}, fmt.Errorf("feedback stats: %w", domain.ErrFeedbackStoreUnavailable)
	}

	var since time.Time
	if window > 0 {
		since = s.now().Add(-window)
	}

	events, err := s.store.List(ctx, since, filter)
	if err != nil {
		return domain.FeedbackStats{}, fmt.Errorf("feedback stats: %w", err)
	}

	var up, down, neutral int
	for _, event := range events {
		switch event.Rating {
		case domain.RatingThumbsUp:
			up++
		case domain.RatingThumbsDown:
			down++
		case domain.RatingNeutral:
			neutral++
		}
	}

	total := len(events)
	stats := domain.FeedbackStats{
		Total:        total,
		ThumbsUp:     up,
		ThumbsDown:   down,
		Neutral:      neutral,
		QualityScore: s.qualityScore(up, down, total),
	}
	if total > 0 {
		stats.ThumbsUpRate = float64(up) / float64(total)
	}
	return stats, nil
}

// Trend splits the window into contiguous buckets of bucketSize and
// reports one quality point per bucket. Buckets with no events are
// present with the neutral score and zero counts, so consumers can
// plot the series without gap handling.
func (s *FeedbackService) Trend(ctx context.Context, bucketSize, window time.Duration) ([]domain.QualityTrendPoint, error) {
	if s.store == nil {
		return nil, fmt.Errorf("feedback trend: %w", domain.ErrFeedbackStoreUnavailable)
	}
	if bucketSize <= 0 {
		return nil, fmt.Errorf("feedback trend: %w: bucket size must be positive", domain.ErrInvalidInput)
	}
	if window <= 0 {
		return nil, fmt.Errorf("feedback trend: %w: window must be positive", domain.ErrInvalidInput)
	}

	start := s.now().Add(-window)
	count := int((window + bucketSize - 1) / bucketSize)

	events, err := s.store.List(ctx, start, domain.FeedbackFilter{})
	if err != nil {
		return nil, fmt.Errorf("feedback trend: %w", err)
	}

	type bucketCounts struct{ up, down, total int }
	counts := make([]bucketCounts, count)
	for _, event := range events {
		idx := int(event.Timestamp.Sub(start) / bucketSize)
		if idx < 0 || idx >= count {
			continue
		}
		counts[idx].total++
		switch event.Rating {
		case domain.RatingThumbsUp:
			counts[idx].up++
		case domain.RatingThumbsDown:
			counts[idx].down++
		}
	}

	points := make([]domain.QualityTrendPoint, count)
	for i, c := range counts {
		points[i] = domain.QualityTrendPoint{
			Timestamp:       start.Add(time.Duration(i) * bucketSize),
			Score:           s.qualityScore(c.up, c.down, c.total),
			TotalFeedback:   c.total,
			ThumbsUpCount:   c.up,
			ThumbsDownCount: c.down,
		}
	}
	return points, nil
}

// Problems lists the most recent thumbs-down events in the window,
// newest first, capped at limit.
func (s *FeedbackService) Problems(ctx context.Context, limit int, window time.Duration) ([]domain.FeedbackEvent, error) {
	if s.store == nil {
		return nil, fmt.Errorf("feedback problems: %w", domain.ErrFeedbackStoreUnavailable)
	}
	if limit <= 0 {
		limit = 10
	}

	var since time.Time
	if window > 0 {
		since = s.now().Add(-window)
	}

	events, err := s.store.List(ctx, since, domain.FeedbackFilter{Rating: domain.RatingThumbsDown})
	if err != nil {
		return nil, fmt.Errorf("feedback problems: %w", err)
	}

	// The store returns newest last; reverse for display.
	problems := make([]domain.FeedbackEvent, 0, limit)
	for i := len(events) - 1; i >= 0 && len(problems) < limit; i-- {
		problems = append(problems, events[i])
	}
	return problems, nil
}

// qualityScore maps feedback counts onto a 0-100 scale centred on 50.
// The prior weight acts as pseudo-count ballast: one lone thumbs-up
// nudges the score slightly above neutral, while a hundred pull it
// close to the ceiling. Zero feedback is exactly neutral.
func (s *FeedbackService) qualityScore(up, down, total int) float64 {
	if total == 0 {
		return neutralScore
	}
	score := neutralScore + neutralScore*float64(up-down)/(float64(total)+s.priorWeight)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
