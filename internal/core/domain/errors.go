package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRating indicates a feedback rating outside the
	// recognised set.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrUnknownSource indicates a rate-limit acquisition for a source
	// key that was never configured. This is a configuration error and
	// should be caught at startup, never mid-request.
	ErrUnknownSource = errors.New("unknown source key")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Query planning degrades to the single-subquery fallback.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Retrieval cannot run without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Retrieval cannot run without it.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrFeedbackStoreUnavailable indicates the feedback store is not
	// configured.
	ErrFeedbackStoreUnavailable = errors.New("feedback store unavailable")
)
