package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

func rankedItem(fingerprint string, score float64, subQueryID int) domain.RankedItem {
	return domain.RankedItem{
		Record: domain.ContentRecord{
			SourceID:    "src-" + fingerprint,
			EntityType:  domain.EntityDocument,
			RawText:     "text " + fingerprint,
			Fingerprint: fingerprint,
		},
		Score:      score,
		SubQueryID: subQueryID,
	}
}

func TestRankAndMerge_SortsDescending(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("a", 0.3, 0),
		rankedItem("b", 0.9, 0),
		rankedItem("c", 0.6, 1),
	}

	merged := RankAndMerge(items, 10)

	require.Len(t, merged, 3)
	assert.Equal(t, "b", merged[0].Record.Fingerprint)
	assert.Equal(t, "c", merged[1].Record.Fingerprint)
	assert.Equal(t, "a", merged[2].Record.Fingerprint)
}

func TestRankAndMerge_DuplicateKeepsHighestScore(t *testing.T) {
	// The same record surfaces from two sub-queries with different
	// scores; the survivor must carry the higher one.
	items := []domain.RankedItem{
		rankedItem("dup", 0.4, 0),
		rankedItem("other", 0.5, 0),
		rankedItem("dup", 0.8, 1),
	}

	merged := RankAndMerge(items, 10)

	require.Len(t, merged, 2)
	assert.Equal(t, "dup", merged[0].Record.Fingerprint)
	assert.Equal(t, 0.8, merged[0].Score)
	assert.Equal(t, 1, merged[0].SubQueryID)
}

func TestRankAndMerge_Truncates(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("a", 0.9, 0),
		rankedItem("b", 0.8, 0),
		rankedItem("c", 0.7, 0),
	}

	merged := RankAndMerge(items, 2)

	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].Record.Fingerprint)
	assert.Equal(t, "b", merged[1].Record.Fingerprint)
}

func TestRankAndMerge_EqualScoresStable(t *testing.T) {
	// Equal scores keep input order: sub-query order then hit order.
	items := []domain.RankedItem{
		rankedItem("first", 0.5, 0),
		rankedItem("second", 0.5, 0),
		rankedItem("third", 0.5, 1),
	}

	merged := RankAndMerge(items, 10)

	require.Len(t, merged, 3)
	assert.Equal(t, "first", merged[0].Record.Fingerprint)
	assert.Equal(t, "second", merged[1].Record.Fingerprint)
	assert.Equal(t, "third", merged[2].Record.Fingerprint)
}

func TestRankAndMerge_NaNSortsLast(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("nan", math.NaN(), 0),
		rankedItem("low", 0.1, 0),
	}

	merged := RankAndMerge(items, 10)

	require.Len(t, merged, 2)
	assert.Equal(t, "low", merged[0].Record.Fingerprint)
	assert.Equal(t, "nan", merged[1].Record.Fingerprint)
}

func TestRankAndMerge_MissingFingerprintDerivedFromText(t *testing.T) {
	a := rankedItem("", 0.9, 0)
	a.Record.RawText = "same content"
	b := rankedItem("", 0.4, 1)
	b.Record.RawText = "same content"
	c := rankedItem("", 0.5, 1)
	c.Record.RawText = "different content"

	merged := RankAndMerge([]domain.RankedItem{a, b, c}, 10)

	require.Len(t, merged, 2)
	assert.Equal(t, 0.9, merged[0].Score)
	assert.Equal(t, 0.5, merged[1].Score)
}

func TestRankAndMerge_Idempotent(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("a", 0.4, 0),
		rankedItem("b", 0.9, 0),
		rankedItem("a", 0.7, 1),
		rankedItem("c", 0.7, 1),
	}

	once := RankAndMerge(items, 3)
	twice := RankAndMerge(once, 3)

	assert.Equal(t, once, twice)
}

func TestRankAndMerge_CrossSubQueryDuplicates(t *testing.T) {
	// Four sub-queries each return 3 items from a 12-item universe
	// with 4 fingerprints duplicated across sub-queries: 8 unique
	// survivors.
	items := []domain.RankedItem{
		rankedItem("u1", 0.91, 0), rankedItem("d1", 0.82, 0), rankedItem("u2", 0.74, 0),
		rankedItem("d1", 0.88, 1), rankedItem("u3", 0.71, 1), rankedItem("d2", 0.65, 1),
		rankedItem("d2", 0.93, 2), rankedItem("u4", 0.60, 2), rankedItem("d3", 0.55, 2),
		rankedItem("d3", 0.79, 3), rankedItem("u5", 0.52, 3), rankedItem("d4", 0.50, 3),
	}

	merged := RankAndMerge(items, 20)

	require.Len(t, merged, 8)
	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i-1].Score, merged[i].Score)
	}
	// Each duplicate group keeps its highest-scoring occurrence.
	scores := make(map[string]float64)
	for _, item := range merged {
		scores[item.Record.Fingerprint] = item.Score
	}
	assert.Equal(t, 0.88, scores["d1"])
	assert.Equal(t, 0.93, scores["d2"])
	assert.Equal(t, 0.79, scores["d3"])
}

func TestRankAndMerge_DoesNotMutateInput(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("a", 0.1, 0),
		rankedItem("b", 0.9, 0),
	}

	_ = RankAndMerge(items, 10)

	assert.Equal(t, "a", items[0].Record.Fingerprint)
	assert.Equal(t, "b", items[1].Record.Fingerprint)
}

func TestRankAndMerge_Empty(t *testing.T) {
	assert.Empty(t, RankAndMerge(nil, 10))
}

func TestDeduplicateByKey_KeepsFirst(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("x", 0.9, 0),
		rankedItem("x", 0.1, 1),
		rankedItem("y", 0.5, 0),
	}

	result := DeduplicateByKey(items, func(item domain.RankedItem) string {
		return item.Record.Fingerprint
	})

	require.Len(t, result, 2)
	assert.Equal(t, 0.9, result[0].Score)
	assert.Equal(t, "y", result[1].Record.Fingerprint)
}

func TestRankAndLimit_NoDedup(t *testing.T) {
	items := []domain.RankedItem{
		rankedItem("x", 0.2, 0),
		rankedItem("x", 0.8, 1),
	}

	result := RankAndLimit(items, 10)

	require.Len(t, result, 2)
	assert.Equal(t, 0.8, result[0].Score)
}

func TestGroupBySections_OrderOfFirstAppearance(t *testing.T) {
	code := rankedItem("a", 0.9, 0)
	code.Record.EntityType = domain.EntityCode
	doc := rankedItem("b", 0.8, 0)
	doc.Record.EntityType = domain.EntityDocument
	code2 := rankedItem("c", 0.7, 1)
	code2.Record.EntityType = domain.EntityCode

	sections := GroupBySections([]domain.RankedItem{code, doc, code2})

	require.Len(t, sections, 2)
	assert.Equal(t, "code", sections[0].Name)
	assert.Len(t, sections[0].Items, 2)
	assert.Equal(t, "document", sections[1].Name)
	assert.Len(t, sections[1].Items, 1)
}
