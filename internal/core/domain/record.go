package domain

import "time"

// EntityType identifies the kind of content a record holds.
// Each connector produces records of one or more entity types.
type EntityType string

const (
	// EntityCode is source code from a repository connector.
	EntityCode EntityType = "code"

	// EntityTweet is a social post.
	EntityTweet EntityType = "tweet"

	// EntityTrack is a listened music track.
	EntityTrack EntityType = "track"

	// EntityIssue is an issue or task from a tracker.
	EntityIssue EntityType = "issue"

	// EntityDocument is a note or text document.
	EntityDocument EntityType = "document"

	// EntityPhoto is a photo with extracted text/caption.
	EntityPhoto EntityType = "photo"

	// EntityEvent is a calendar event.
	EntityEvent EntityType = "event"
)

// KnownEntityTypes lists every entity type the engine recognises.
var KnownEntityTypes = []EntityType{
	EntityCode,
	EntityTweet,
	EntityTrack,
	EntityIssue,
	EntityDocument,
	EntityPhoto,
	EntityEvent,
}

// Valid reports whether the entity type is one the engine recognises.
func (t EntityType) Valid() bool {
	for _, known := range KnownEntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ContentRecord is one ingested unit from any source.
// Records are created at ingestion time and are immutable on the
// retrieval path; only Metadata may be refreshed by a re-sync.
type ContentRecord struct {
	// SourceID is the opaque per-connector identifier.
	SourceID string

	// EntityType classifies the record for scoped retrieval.
	EntityType EntityType

	// RawText is the text used for fingerprinting and embedding.
	RawText string

	// Vector is the fixed-length embedding, produced externally.
	Vector []float32

	// Metadata contains arbitrary key-value pairs from the connector.
	Metadata map[string]any

	// Fingerprint is the dedup key derived from normalised RawText.
	// Two records with the same fingerprint are duplicates regardless
	// of which source produced them.
	Fingerprint string

	// CreatedAt is when the record was ingested.
	CreatedAt time.Time
}
