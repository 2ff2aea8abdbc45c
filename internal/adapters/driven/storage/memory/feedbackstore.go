// Package memory provides in-memory storage adapters. They are used
// in tests and for running the engine without persistent state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure FeedbackStore implements the interface.
var _ driven.FeedbackStore = (*FeedbackStore)(nil)

// FeedbackStore is an in-memory append-only feedback log.
type FeedbackStore struct {
	mu     sync.RWMutex
	events []domain.FeedbackEvent
}

// NewFeedbackStore creates an empty in-memory feedback store.
func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{}
}

// Append stores one event.
func (s *FeedbackStore) Append(_ context.Context, event domain.FeedbackEvent) error {
	if event.ID == "" {
		return fmt.Errorf("append feedback: missing event ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns matching events ordered by timestamp, newest last.
func (s *FeedbackStore) List(_ context.Context, since time.Time, filter domain.FeedbackFilter) ([]domain.FeedbackEvent, error) {
	s.mu.RLock()
	result := make([]domain.FeedbackEvent, 0, len(s.events))
	for _, event := range s.events {
		if !since.IsZero() && event.Timestamp.Before(since) {
			continue
		}
		if filter.Rating != "" && event.Rating != filter.Rating {
			continue
		}
		if filter.UserID != "" && event.UserID != filter.UserID {
			continue
		}
		if filter.SessionID != "" && event.SessionID != filter.SessionID {
			continue
		}
		result = append(result, event)
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// Close releases resources.
func (s *FeedbackStore) Close() error {
	return nil
}
