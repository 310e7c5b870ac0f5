package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ashebbar-dev/Ojas-EB/internal/repository/contract"
	"github.com/ashebbar-dev/Ojas-EB/pkg/embedding"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rerank"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Generate(_ context.Context, _ string, _ string) (*embedding.EmbeddingResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

type stubChunks struct {
	broad     []contract.RetrievedChunk
	titled    []contract.RetrievedChunk
	broadErr  error
	titledErr error
}

func (s *stubChunks) SimpleHybridSearch(context.Context, []float32, string, int, float64) ([]contract.RetrievedChunk, error) {
	return s.broad, s.broadErr
}

func (s *stubChunks) TitleFilteredSearch(context.Context, []float32, string, int, float64, int) ([]contract.RetrievedChunk, error) {
	return s.titled, s.titledErr
}

type stubReranker struct {
	results []rerank.Result
	err     error
}

func (s *stubReranker) Rerank(context.Context, string, []string, int) ([]rerank.Result, error) {
	return s.results, s.err
}

func chunkRow(id uuid.UUID, content string, similarity float64) contract.RetrievedChunk {
	return contract.RetrievedChunk{Id: id, Content: content, PageTitle: "Page", Similarity: similarity}
}

func newTestExecutor(chunks *stubChunks, embedder *stubEmbedder, reranker *stubReranker) *Executor {
	return NewExecutor(chunks, embedder, reranker, noopLogger{}, DefaultConfig())
}

func TestExecute_EmbeddingFailureProducesErrorResult(t *testing.T) {
	executor := newTestExecutor(&stubChunks{}, &stubEmbedder{err: errors.New("boom")}, &stubReranker{})

	result := executor.Execute(context.Background(), SubQuery{Index: 0, ID: "Q1", Text: "anything"})

	assert.Empty(t, result.Records)
	assert.Contains(t, result.Err, "embedding failed")
	assert.Equal(t, "Q1", result.SearchID)
}

func TestExecute_MergeDeduplicatesFirstOccurrenceWins(t *testing.T) {
	shared := uuid.New()
	chunks := &stubChunks{
		broad:  []contract.RetrievedChunk{chunkRow(shared, "broad copy", 0.9)},
		titled: []contract.RetrievedChunk{chunkRow(shared, "titled copy", 0.5), chunkRow(uuid.New(), "other", 0.6)},
	}
	reranker := &stubReranker{results: []rerank.Result{
		{Index: 0, RelevanceScore: 0.95},
		{Index: 1, RelevanceScore: 0.90},
	}}
	executor := newTestExecutor(chunks, &stubEmbedder{}, reranker)

	result := executor.Execute(context.Background(), SubQuery{ID: "Q1", Text: "q"})

	require.Len(t, result.Records, 2)
	assert.Equal(t, "broad copy", result.Records[0].Content)
	assert.Equal(t, 0.95, result.Records[0].RerankScore)
	assert.Empty(t, result.Err)
}

func TestExecute_SingleTrackFailureDegrades(t *testing.T) {
	row := chunkRow(uuid.New(), "survivor", 0.8)
	chunks := &stubChunks{
		broadErr: errors.New("track down"),
		titled:   []contract.RetrievedChunk{row},
	}
	reranker := &stubReranker{results: []rerank.Result{{Index: 0, RelevanceScore: 0.7}}}
	executor := newTestExecutor(chunks, &stubEmbedder{}, reranker)

	result := executor.Execute(context.Background(), SubQuery{ID: "Q1", Text: "q"})

	require.Len(t, result.Records, 1)
	assert.Equal(t, "survivor", result.Records[0].Content)
	assert.Empty(t, result.Err)
}

func TestExecute_BothTracksFailing(t *testing.T) {
	chunks := &stubChunks{
		broadErr:  errors.New("a down"),
		titledErr: errors.New("b down"),
	}
	executor := newTestExecutor(chunks, &stubEmbedder{}, &stubReranker{})

	result := executor.Execute(context.Background(), SubQuery{ID: "Q1", Text: "q"})

	assert.Empty(t, result.Records)
	assert.Contains(t, result.Err, "both retrieval tracks failed")
}

func TestExecute_RerankFailureFallsBackToSimilarityOrder(t *testing.T) {
	var rows []contract.RetrievedChunk
	for i := 0; i < 5; i++ {
		rows = append(rows, chunkRow(uuid.New(), fmt.Sprintf("doc-%d", i), float64(i)*0.1))
	}
	chunks := &stubChunks{broad: rows}
	executor := newTestExecutor(chunks, &stubEmbedder{}, &stubReranker{err: errors.New("rerank down")})

	result := executor.Execute(context.Background(), SubQuery{ID: "Q1", Text: "q"})

	// Rerank degradation is soft: similarity order, no error recorded
	require.Len(t, result.Records, 5)
	assert.Empty(t, result.Err)
	for i := 1; i < len(result.Records); i++ {
		assert.GreaterOrEqual(t, result.Records[i-1].Similarity, result.Records[i].Similarity)
	}
	assert.Zero(t, result.Records[0].RerankScore)
}

func TestExecute_FallbackCapsAtTopK(t *testing.T) {
	var rows []contract.RetrievedChunk
	for i := 0; i < 12; i++ {
		rows = append(rows, chunkRow(uuid.New(), fmt.Sprintf("doc-%d", i), float64(i)*0.05))
	}
	chunks := &stubChunks{broad: rows}
	executor := newTestExecutor(chunks, &stubEmbedder{}, &stubReranker{err: errors.New("rerank down")})

	result := executor.Execute(context.Background(), SubQuery{ID: "Q1", Text: "q"})

	assert.Len(t, result.Records, DefaultConfig().FallbackTopK)
}

func TestExecute_RecordsSearchTime(t *testing.T) {
	executor := newTestExecutor(&stubChunks{}, &stubEmbedder{}, &stubReranker{})

	result := executor.Execute(context.Background(), SubQuery{ID: "Q1", Text: "q"})

	assert.GreaterOrEqual(t, result.SearchTime, time.Duration(0))
}
