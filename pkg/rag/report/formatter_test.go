package report

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/dedup"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/fusion"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EmptyResultsReportNotFound(t *testing.T) {
	queries := search.NewSubQueries([]string{"unanswerable"})
	trackResults := []search.TrackSearchResult{
		{Query: "unanswerable", SearchID: "Q1", SearchTime: 120 * time.Millisecond},
	}
	agg := dedup.Merge(trackResults)

	report := Build(queries, trackResults, agg, nil, 150*time.Millisecond)

	assert.Equal(t, StatusNotFound, report.Status)
	assert.True(t, report.NotFound())
	assert.NotEmpty(t, report.Message)
	assert.Zero(t, report.TotalResults)
	assert.Zero(t, report.Summary.Dedup.DuplicatesRemoved)
	assert.Equal(t, 1, report.Summary.TotalQueries)
}

func TestBuild_ContentTruncatedWithEllipsis(t *testing.T) {
	long := strings.Repeat("x", 1000)
	report := buildSingleResult(t, long, 0.56789, 0.1234, 0.98765)

	require.Len(t, report.Results, 1)
	got := report.Results[0].Content
	assert.Len(t, got, 803)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestBuild_TruncationNeverSplitsARune(t *testing.T) {
	// 798 ASCII bytes, then a 3-byte rune straddling the 800-byte cut
	long := strings.Repeat("x", 798) + strings.Repeat("世", 80)
	report := buildSingleResult(t, long, 0.5, 0.5, 0.5)

	got := report.Results[0].Content
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("x", 798)+"...", got)
}

func TestBuild_ShortContentUntouched(t *testing.T) {
	report := buildSingleResult(t, "short passage", 0.5, 0.5, 0.5)

	assert.Equal(t, "short passage", report.Results[0].Content)
}

func TestBuild_ScoresRoundedToThreeDecimals(t *testing.T) {
	report := buildSingleResult(t, "content", 0.56789, 0.12345, 0.98765)

	result := report.Results[0]
	assert.Equal(t, 0.568, result.Similarity)
	assert.Equal(t, 0.123, result.RerankScore)
	assert.Equal(t, 0.988, result.FinalScore)
}

func TestBuild_ProvenanceIsSetInFirstSeenOrder(t *testing.T) {
	id := uuid.New()
	trackResults := []search.TrackSearchResult{
		{Query: "beta", SearchID: "Q1", Records: []search.RetrievalRecord{{ID: id, Content: "c", Similarity: 0.6}}},
		{Query: "alpha", SearchID: "Q2", Records: []search.RetrievalRecord{{ID: id, Content: "c", Similarity: 0.5}}},
		{Query: "beta", SearchID: "Q3", Records: []search.RetrievalRecord{{ID: id, Content: "c", Similarity: 0.4}}},
	}
	queries := search.NewSubQueries([]string{"beta", "alpha", "beta"})
	agg := dedup.Merge(trackResults)
	group, _ := agg.Get(id)
	fused := []fusion.Result{{Group: group, FinalRank: 1, FinalScore: 0.9}}

	report := Build(queries, trackResults, agg, fused, time.Second)

	result := report.Results[0]
	assert.Equal(t, []string{"beta", "alpha"}, result.RetrievedByQueries)
	assert.Equal(t, 3, result.RetrievalCount)
	assert.Equal(t, 2, result.UniqueQueryCount)
	assert.True(t, result.IsDuplicateFound)
}

func TestBuild_PerQueryDetailsCarryErrors(t *testing.T) {
	queries := search.NewSubQueries([]string{"good", "bad"})
	trackResults := []search.TrackSearchResult{
		{Query: "good", SearchID: "Q1", Records: []search.RetrievalRecord{{ID: uuid.New(), Content: "c", Similarity: 0.7}}, SearchTime: 80 * time.Millisecond},
		{Query: "bad", SearchID: "Q2", Err: "embedding failed: boom", SearchTime: 10 * time.Millisecond},
	}
	agg := dedup.Merge(trackResults)
	fused := []fusion.Result{{Group: agg.InOrder()[0], FinalRank: 1, FinalScore: 0.7}}

	report := Build(queries, trackResults, agg, fused, 100*time.Millisecond)

	require.Len(t, report.Summary.Queries, 2)
	assert.Equal(t, StatusOK, report.Status)
	assert.Equal(t, 1, report.Summary.Queries[0].ResultCount)
	assert.Empty(t, report.Summary.Queries[0].Error)
	assert.Equal(t, "embedding failed: boom", report.Summary.Queries[1].Error)
	assert.Equal(t, 0.08, report.Summary.Queries[0].SearchSeconds)
	assert.Equal(t, 0.1, report.Summary.TotalSeconds)
}

func buildSingleResult(t *testing.T, content string, similarity, rerankScore, finalScore float64) Report {
	t.Helper()
	id := uuid.New()
	trackResults := []search.TrackSearchResult{
		{Query: "q", SearchID: "Q1", Records: []search.RetrievalRecord{{
			ID:         id,
			Content:    content,
			Similarity: similarity,
			// per-record rerank score from the first pass
			RerankScore: rerankScore,
		}}},
	}
	agg := dedup.Merge(trackResults)
	group, ok := agg.Get(id)
	require.True(t, ok)
	fused := []fusion.Result{{Group: group, FinalRank: 1, FinalScore: finalScore}}
	return Build(search.NewSubQueries([]string{"q"}), trackResults, agg, fused, time.Second)
}
