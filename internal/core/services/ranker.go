package services

import (
	"math"
	"sort"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/fingerprint"
)

// RankAndMerge sorts candidates by descending score, collapses
// duplicates by content fingerprint, and truncates to limit. Sorting
// happens BEFORE deduplication so the survivor of each duplicate group
// is always its highest-scored member; the reverse order would keep
// whichever copy an arbitrary sub-query returned first.
func RankAndMerge(items []domain.RankedItem, limit int) []domain.RankedItem {
	ranked := make([]domain.RankedItem, len(items))
	copy(ranked, items)

	sortByScore(ranked)
	ranked = DeduplicateByKey(ranked, func(item domain.RankedItem) string {
		if item.Record.Fingerprint != "" {
			return item.Record.Fingerprint
		}
		return fingerprint.Fingerprint(item.Record.RawText)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// DeduplicateByKey removes items whose key was already seen, keeping
// the first occurrence. Order is otherwise preserved.
func DeduplicateByKey(items []domain.RankedItem, keyFn func(domain.RankedItem) string) []domain.RankedItem {
	seen := make(map[string]struct{}, len(items))
	result := items[:0:0]

	for _, item := range items {
		key := keyFn(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// RankAndLimit sorts items by descending score and truncates to limit
// without deduplicating. A limit of zero or below means no truncation.
func RankAndLimit(items []domain.RankedItem, limit int) []domain.RankedItem {
	ranked := make([]domain.RankedItem, len(items))
	copy(ranked, items)

	sortByScore(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// GroupBySections splits a ranked list into per-entity-type sections,
// ordered by each type's first appearance in the ranking. Within a
// section the ranked order is preserved.
func GroupBySections(items []domain.RankedItem) []domain.Section {
	index := make(map[domain.EntityType]int)
	var sections []domain.Section

	for _, item := range items {
		entityType := item.Record.EntityType
		i, ok := index[entityType]
		if !ok {
			i = len(sections)
			index[entityType] = i
			sections = append(sections, domain.Section{Name: string(entityType)})
		}
		sections[i].Items = append(sections[i].Items, item)
	}
	return sections
}

// sortByScore stable-sorts descending by score. Stability keeps the
// incoming order (sub-query order, then index order) as the tiebreak,
// so equal-scored results are deterministic across runs. NaN scores
// sort last.
func sortByScore(items []domain.RankedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return comparableScore(items[i].Score) > comparableScore(items[j].Score)
	})
}

func comparableScore(score float64) float64 {
	if math.IsNaN(score) {
		return math.Inf(-1)
	}
	return score
}
