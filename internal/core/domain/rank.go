package domain

import "time"

// RankedItem is a content record paired with the relevance score it
// earned and the sub-query that produced it. Multiple ranked items may
// reference the same record across different sub-queries; the ranker
// collapses them by fingerprint, keeping the highest score observed.
type RankedItem struct {
	// Record is the matched content record.
	Record ContentRecord

	// Score is the similarity/relevance measure. Higher is better.
	Score float64

	// SubQueryID identifies the sub-query that produced this item.
	SubQueryID int
}

// Section is a named grouping of ranked items, used when the caller
// wants a sectioned view (by entity type) instead of one flat list.
// Sectioning is a pure regrouping of an already ranked sequence.
type Section struct {
	// Name is the section label (the entity type).
	Name string

	// Items preserve their relative order from the ranked sequence.
	Items []RankedItem
}

// RetrieveOptions configures retrieval fan-out.
type RetrieveOptions struct {
	// Limit is the maximum number of ranked items returned.
	Limit int

	// PerQueryK is how many candidates each sub-query requests from
	// the vector index. Zero means derive from Limit.
	PerQueryK int

	// QueryTimeout bounds each individual sub-query call. Zero means
	// use the configured default.
	QueryTimeout time.Duration
}
