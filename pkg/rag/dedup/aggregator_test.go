package dedup

import (
	"testing"

	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_RecordSeenByTwoQueries(t *testing.T) {
	sharedID := uuid.New()
	results := []search.TrackSearchResult{
		{
			Query:    "first question",
			SearchID: "Q1",
			Records:  []search.RetrievalRecord{{ID: sharedID, Content: "shared", Similarity: 0.70}},
		},
		{
			Query:    "second question",
			SearchID: "Q2",
			Records:  []search.RetrievalRecord{{ID: sharedID, Content: "shared", Similarity: 0.60, RerankScore: 0.80}},
		},
	}

	agg := Merge(results)

	group, ok := agg.Get(sharedID)
	require.True(t, ok)
	assert.Equal(t, 2, group.RetrievalCount())
	assert.Equal(t, 2, group.UniqueQueryCount())
	assert.Equal(t, 0.70, group.BestSimilarity)
	assert.Equal(t, 0.80, group.BestRerankScore)
	assert.True(t, group.IsDuplicateFound())
	assert.Equal(t, []string{"Q1", "Q2"}, group.SourceQueryIDs)
}

func TestMerge_BestScoresAreCommutativeMax(t *testing.T) {
	id := uuid.New()
	forward := []search.TrackSearchResult{
		{Query: "a", SearchID: "Q1", Records: []search.RetrievalRecord{{ID: id, Similarity: 0.9, RerankScore: 0.1}}},
		{Query: "b", SearchID: "Q2", Records: []search.RetrievalRecord{{ID: id, Similarity: 0.2, RerankScore: 0.7}}},
	}
	reversed := []search.TrackSearchResult{forward[1], forward[0]}

	groupA, _ := Merge(forward).Get(id)
	groupB, _ := Merge(reversed).Get(id)

	assert.Equal(t, groupA.BestSimilarity, groupB.BestSimilarity)
	assert.Equal(t, groupA.BestRerankScore, groupB.BestRerankScore)
	assert.Equal(t, 0.9, groupA.BestSimilarity)
	assert.Equal(t, 0.7, groupA.BestRerankScore)
}

func TestMerge_FirstSightingKeepsBaseRecord(t *testing.T) {
	id := uuid.New()
	results := []search.TrackSearchResult{
		{Query: "a", SearchID: "Q1", Records: []search.RetrievalRecord{{ID: id, Content: "first copy", Similarity: 0.5}}},
		{Query: "b", SearchID: "Q2", Records: []search.RetrievalRecord{{ID: id, Content: "second copy", Similarity: 0.9}}},
	}

	group, _ := Merge(results).Get(id)

	assert.Equal(t, "first copy", group.Base.Content)
	assert.Equal(t, 0.9, group.BestSimilarity)
}

func TestMerge_NegativeScoresAreReportedAsObserved(t *testing.T) {
	// Sub-threshold ILIKE matches can carry negative cosine similarity; the
	// best must be the observed value, not the zero start
	id := uuid.New()
	results := []search.TrackSearchResult{
		{Query: "a", SearchID: "Q1", Records: []search.RetrievalRecord{{ID: id, Similarity: -0.3, RerankScore: -0.1}}},
		{Query: "b", SearchID: "Q2", Records: []search.RetrievalRecord{{ID: id, Similarity: -0.2, RerankScore: -0.4}}},
	}

	group, _ := Merge(results).Get(id)

	assert.Equal(t, -0.2, group.BestSimilarity)
	assert.Equal(t, -0.1, group.BestRerankScore)
}

func TestMerge_InsertionOrderAndStats(t *testing.T) {
	first, second, third := uuid.New(), uuid.New(), uuid.New()
	results := []search.TrackSearchResult{
		{Query: "a", SearchID: "Q1", Records: []search.RetrievalRecord{
			{ID: first, Similarity: 0.8},
			{ID: second, Similarity: 0.7},
		}},
		{Query: "b", SearchID: "Q2", Records: []search.RetrievalRecord{
			{ID: second, Similarity: 0.6},
			{ID: third, Similarity: 0.5},
		}},
	}

	agg := Merge(results)

	require.Equal(t, 3, agg.UniqueCount())
	assert.Equal(t, 4, agg.TotalBefore())
	assert.Equal(t, 1, agg.DuplicatesRemoved())
	assert.Equal(t, 1, agg.FoundMultipleTimes())

	ordered := agg.InOrder()
	assert.Equal(t, first, ordered[0].Base.ID)
	assert.Equal(t, second, ordered[1].Base.ID)
	assert.Equal(t, third, ordered[2].Base.ID)
}

func TestMerge_FailedResultsContributeNothing(t *testing.T) {
	results := []search.TrackSearchResult{
		{Query: "a", SearchID: "Q1", Err: "embedding failed"},
	}

	agg := Merge(results)

	assert.Zero(t, agg.UniqueCount())
	assert.Zero(t, agg.TotalBefore())
}
