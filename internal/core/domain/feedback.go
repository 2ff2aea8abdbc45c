package domain

import "time"

// Rating is a user's judgement of one result.
type Rating string

const (
	// RatingThumbsUp marks a result as relevant.
	RatingThumbsUp Rating = "thumbs_up"

	// RatingThumbsDown marks a result as irrelevant.
	RatingThumbsDown Rating = "thumbs_down"

	// RatingNeutral records an explicit "no opinion".
	RatingNeutral Rating = "neutral"
)

// Valid reports whether the rating is one of the recognised values.
func (r Rating) Valid() bool {
	switch r {
	case RatingThumbsUp, RatingThumbsDown, RatingNeutral:
		return true
	}
	return false
}

// FeedbackEvent records one user judgement of one result. Events are
// append-only and immutable; a correction is a new event, never a
// mutation of an existing one.
type FeedbackEvent struct {
	// ID uniquely identifies the event.
	ID string

	// ResultID identifies the ranked result being judged.
	ResultID string

	// Rating is the user's judgement.
	Rating Rating

	// UserID identifies the user who gave feedback.
	UserID string

	// SessionID identifies the session the feedback belongs to.
	SessionID string

	// Timestamp is when the feedback was given.
	Timestamp time.Time
}

// FeedbackFilter narrows which events a stats or listing query
// considers. Zero values mean "no constraint".
type FeedbackFilter struct {
	// Rating restricts to a single rating value.
	Rating Rating

	// UserID restricts to one user.
	UserID string

	// SessionID restricts to one session.
	SessionID string
}

// FeedbackStats summarises feedback over a time window.
type FeedbackStats struct {
	// Total is the number of events considered.
	Total int

	// ThumbsUp is the count of thumbs_up events.
	ThumbsUp int

	// ThumbsDown is the count of thumbs_down events.
	ThumbsDown int

	// Neutral is the count of neutral events.
	Neutral int

	// ThumbsUpRate is ThumbsUp/Total in [0,1]; 0 when Total is 0.
	ThumbsUpRate float64

	// QualityScore is a volume-discounted composite on a 0-100 scale.
	// 50 is the neutral prior.
	QualityScore float64
}

// QualityTrendPoint is the quality aggregate for one time bucket.
// Derived on demand from feedback history; never stored.
type QualityTrendPoint struct {
	// Timestamp is the bucket start.
	Timestamp time.Time

	// Score is the bucket's quality score (0-100, 50 neutral).
	Score float64

	// TotalFeedback is the number of events in the bucket.
	TotalFeedback int

	// ThumbsUpCount is the thumbs_up count in the bucket.
	ThumbsUpCount int

	// ThumbsDownCount is the thumbs_down count in the bucket.
	ThumbsDownCount int
}
