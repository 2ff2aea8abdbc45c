package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/recall-labs/recall-cli/internal/config"
	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/fingerprint"
	"github.com/recall-labs/recall-cli/internal/logger"
	"github.com/recall-labs/recall-cli/internal/ratelimit"
)

// embedBatchSize bounds how many texts are sent to the embedding
// service per request.
const embedBatchSize = 32

// maxLineBytes allows long single-line records; documents routinely
// exceed bufio's default token size.
const maxLineBytes = 1 << 20

// ingestRecord is one line of the JSONL input format.
type ingestRecord struct {
	SourceID   string         `json:"source_id"`
	EntityType string         `json:"entity_type"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
}

// ingestStats summarises one ingestion run.
type ingestStats struct {
	Indexed    int
	Duplicates int
	Skipped    int
}

// ingestFile reads JSONL records from path, fingerprints and
// deduplicates them, embeds the survivors in batches, and adds them to
// the index. Malformed lines are logged and skipped, not fatal.
func ingestFile(
	ctx context.Context,
	path string,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	governor *ratelimit.Governor,
) (ingestStats, error) {
	logger.Section("Ingestion")

	file, err := os.Open(path)
	if err != nil {
		return ingestStats{}, fmt.Errorf("opening input %s: %w", path, err)
	}
	defer file.Close()

	var (
		stats   ingestStats
		pending []domain.ContentRecord
		seen    = make(map[string]struct{})
		lineNo  int
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if governor != nil {
			if err := governor.Acquire(ctx, config.SourceEmbedding); err != nil {
				return err
			}
		}

		texts := make([]string, len(pending))
		for i, record := range pending {
			texts[i] = record.RawText
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch: %w", err)
		}

		for i, record := range pending {
			record.Vector = vectors[i]
			if err := index.Add(ctx, record); err != nil {
				return fmt.Errorf("indexing %s: %w", record.SourceID, err)
			}
			stats.Indexed++
		}
		pending = pending[:0]
		return nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw ingestRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			logger.Warn("Line %d: invalid JSON, skipping: %v", lineNo, err)
			stats.Skipped++
			continue
		}

		record, err := buildRecord(raw)
		if err != nil {
			logger.Warn("Line %d: %v, skipping", lineNo, err)
			stats.Skipped++
			continue
		}

		if _, dup := seen[record.Fingerprint]; dup {
			stats.Duplicates++
			continue
		}
		seen[record.Fingerprint] = struct{}{}

		pending = append(pending, record)
		if len(pending) >= embedBatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading input %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return stats, err
	}

	logger.Info("Indexed %d records (%d duplicates, %d skipped)",
		stats.Indexed, stats.Duplicates, stats.Skipped)
	return stats, nil
}

// buildRecord validates one parsed line and derives its fingerprint.
func buildRecord(raw ingestRecord) (domain.ContentRecord, error) {
	if raw.SourceID == "" {
		return domain.ContentRecord{}, fmt.Errorf("missing source_id")
	}
	if raw.Text == "" {
		return domain.ContentRecord{}, fmt.Errorf("missing text")
	}

	entityType := domain.EntityType(raw.EntityType)
	if !entityType.Valid() {
		return domain.ContentRecord{}, fmt.Errorf("unknown entity_type %q", raw.EntityType)
	}

	createdAt := raw.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return domain.ContentRecord{
		SourceID:    raw.SourceID,
		EntityType:  entityType,
		RawText:     raw.Text,
		Metadata:    raw.Metadata,
		Fingerprint: fingerprint.Fingerprint(raw.Text),
		CreatedAt:   createdAt,
	}, nil
}

// parseEntityTypes validates the --types flag values.
func parseEntityTypes(names []string) ([]domain.EntityType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]domain.EntityType, 0, len(names))
	for _, name := range names {
		entityType := domain.EntityType(name)
		if !entityType.Valid() {
			return nil, fmt.Errorf("unknown entity type %q (known: %v)", name, domain.KnownEntityTypes)
		}
		types = append(types, entityType)
	}
	return types, nil
}
