// Package sqlite provides SQLite-backed persistent storage. The
// feedback log lives here so quality aggregates survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure FeedbackStore implements the interface.
var _ driven.FeedbackStore = (*FeedbackStore)(nil)

// schema is applied on every open; CREATE IF NOT EXISTS makes it
// idempotent. The table is append-only, so no migration machinery is
// needed beyond additive columns.
const schema = `
CREATE TABLE IF NOT EXISTS feedback_events (
	id         TEXT PRIMARY KEY,
	result_id  TEXT NOT NULL,
	rating     TEXT NOT NULL,
	user_id    TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback_events(created_at);
CREATE INDEX IF NOT EXISTS idx_feedback_rating ON feedback_events(rating);
`

// FeedbackStore is a SQLite-backed append-only feedback log.
type FeedbackStore struct {
	db   *sql.DB
	path string
}

// NewFeedbackStore opens (creating if needed) the feedback database in
// dataDir. If dataDir is empty, defaults to ~/.recall/data/feedback.db.
func NewFeedbackStore(dataDir string) (*FeedbackStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "feedback.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &FeedbackStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *FeedbackStore) Path() string {
	return s.path
}

// Append stores one event. Timestamps are stored as Unix nanoseconds
// in UTC so range scans are a plain integer comparison.
func (s *FeedbackStore) Append(ctx context.Context, event domain.FeedbackEvent) error {
	if event.ID == "" {
		return fmt.Errorf("append feedback: missing event ID")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_events (id, result_id, rating, user_id, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.ResultID,
		string(event.Rating),
		event.UserID,
		event.SessionID,
		event.Timestamp.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	return nil
}

// List returns matching events ordered by timestamp, newest last.
func (s *FeedbackStore) List(ctx context.Context, since time.Time, filter domain.FeedbackFilter) ([]domain.FeedbackEvent, error) {
	query := `SELECT id, result_id, rating, user_id, session_id, created_at
	          FROM feedback_events WHERE 1=1`
	var args []any

	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since.UTC().UnixNano())
	}
	if filter.Rating != "" {
		query += " AND rating = ?"
		args = append(args, string(filter.Rating))
	}
	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var events []domain.FeedbackEvent
	for rows.Next() {
		var (
			event  domain.FeedbackEvent
			rating string
			nanos  int64
		)
		if err := rows.Scan(&event.ID, &event.ResultID, &rating, &event.UserID, &event.SessionID, &nanos); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		event.Rating = domain.Rating(rating)
		event.Timestamp = time.Unix(0, nanos).UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}
	return events, nil
}

// Close closes the database connection.
func (s *FeedbackStore) Close() error {
	return s.db.Close()
}
