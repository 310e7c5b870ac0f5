package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/contract"
	"github.com/ashebbar-dev/Ojas-EB/pkg/embedding"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rerank"
)

// Config encapsulates the tuning knobs of one dual-track search.
type Config struct {
	MatchCount          int
	TitleMatchCount     int
	SimilarityThreshold float64
	RerankTopN          int
	FallbackTopK        int
	CallTimeout         time.Duration
}

// DefaultConfig returns the production retrieval configuration.
func DefaultConfig() Config {
	return Config{
		MatchCount:          30,
		TitleMatchCount:     10,
		SimilarityThreshold: 0.40,
		RerankTopN:          10,
		FallbackTopK:        8,
		CallTimeout:         15 * time.Second,
	}
}

// Executor runs one sub-query through both retrieval tracks, merges and
// deduplicates the rows, then reranks the survivors.
type Executor struct {
	chunks   contract.ChunkRepository
	embedder embedding.EmbeddingProvider
	reranker rerank.Reranker
	logger   logger.ILogger
	config   Config
}

func NewExecutor(
	chunks contract.ChunkRepository,
	embedder embedding.EmbeddingProvider,
	reranker rerank.Reranker,
	log logger.ILogger,
	config Config,
) *Executor {
	return &Executor{
		chunks:   chunks,
		embedder: embedder,
		reranker: reranker,
		logger:   log,
		config:   config,
	}
}

// Execute never returns an error and never panics past its boundary. Any
// failure is recorded on the result so sibling searches proceed untouched.
func (e *Executor) Execute(ctx context.Context, query SubQuery) (result TrackSearchResult) {
	start := time.Now()
	result = TrackSearchResult{Query: query.Text, SearchID: query.ID}

	defer func() {
		if r := recover(); r != nil {
			result.Records = nil
			result.Err = fmt.Sprintf("search panicked: %v", r)
			result.SearchTime = time.Since(start)
			e.logger.Error("SearchExecutor", "Recovered panic during search", map[string]interface{}{
				"search_id": query.ID,
				"panic":     fmt.Sprintf("%v", r),
			})
		}
	}()

	embedCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	embedRes, err := e.embedder.Generate(embedCtx, query.Text, "query")
	if err != nil {
		result.Err = fmt.Sprintf("embedding failed: %v", err)
		result.SearchTime = time.Since(start)
		e.logger.Error("SearchExecutor", "Embedding failed", map[string]interface{}{
			"search_id": query.ID,
			"error":     err.Error(),
		})
		return result
	}
	vector := embedRes.Embedding.Values

	broad, titled, trackErrs := e.runTracks(ctx, vector, query.Text)
	merged := mergeTracks(broad, titled)

	if len(merged) == 0 {
		// With no rows the track errors are all the caller can act on
		if len(trackErrs) == 2 {
			result.Err = fmt.Sprintf("both retrieval tracks failed: %v; %v", trackErrs[0], trackErrs[1])
		}
		result.SearchTime = time.Since(start)
		return result
	}

	result.Records = e.rerankMerged(ctx, query, merged)
	result.SearchTime = time.Since(start)

	e.logger.Debug("SearchExecutor", "Search completed", map[string]interface{}{
		"search_id":  query.ID,
		"merged":     len(merged),
		"returned":   len(result.Records),
		"elapsed_ms": result.SearchTime.Milliseconds(),
	})
	return result
}

// runTracks issues both retrieval calls concurrently and joins them before
// returning. A single failed track degrades to the other track's rows.
func (e *Executor) runTracks(ctx context.Context, vector []float32, keyword string) (broad, titled []contract.RetrievedChunk, errs []error) {
	type trackOutcome struct {
		rows []contract.RetrievedChunk
		err  error
	}

	broadCh := make(chan trackOutcome, 1)
	titledCh := make(chan trackOutcome, 1)

	go func() {
		callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
		defer cancel()
		rows, err := e.chunks.SimpleHybridSearch(callCtx, vector, keyword, e.config.MatchCount, e.config.SimilarityThreshold)
		broadCh <- trackOutcome{rows: rows, err: err}
	}()

	go func() {
		callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
		defer cancel()
		rows, err := e.chunks.TitleFilteredSearch(callCtx, vector, keyword, e.config.MatchCount, e.config.SimilarityThreshold, e.config.TitleMatchCount)
		titledCh <- trackOutcome{rows: rows, err: err}
	}()

	broadOut := <-broadCh
	titledOut := <-titledCh

	if broadOut.err != nil {
		errs = append(errs, broadOut.err)
		e.logger.Warn("SearchExecutor", "Hybrid track failed", map[string]interface{}{
			"error": broadOut.err.Error(),
		})
	}
	if titledOut.err != nil {
		errs = append(errs, titledOut.err)
		e.logger.Warn("SearchExecutor", "Title track failed", map[string]interface{}{
			"error": titledOut.err.Error(),
		})
	}

	return broadOut.rows, titledOut.rows, errs
}

// mergeTracks deduplicates by record id. First occurrence wins for all
// stored fields, so broad-track rows take precedence over title-track rows.
func mergeTracks(broad, titled []contract.RetrievedChunk) []RetrievalRecord {
	seen := make(map[string]bool)
	var merged []RetrievalRecord

	for _, row := range append(broad, titled...) {
		key := row.Id.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, RetrievalRecord{
			ID:           row.Id,
			Content:      row.Content,
			SourceURL:    row.SourceUrl,
			PageTitle:    row.PageTitle,
			TopicHeading: row.TopicHeading,
			Similarity:   row.Similarity,
		})
	}
	return merged
}

// rerankMerged asks the cross-encoder for the top slice. A rerank failure is
// soft: it degrades to similarity ordering and does not mark the search failed.
func (e *Executor) rerankMerged(ctx context.Context, query SubQuery, merged []RetrievalRecord) []RetrievalRecord {
	documents := make([]string, len(merged))
	for i, record := range merged {
		documents[i] = record.Content
	}

	rerankCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	ranked, err := e.reranker.Rerank(rerankCtx, query.Text, documents, e.config.RerankTopN)
	if err != nil {
		e.logger.Warn("SearchExecutor", "Rerank failed, using similarity order", map[string]interface{}{
			"search_id": query.ID,
			"error":     err.Error(),
		})
		return similarityFallback(merged, e.config.FallbackTopK)
	}

	records := make([]RetrievalRecord, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(merged) {
			continue
		}
		record := merged[r.Index]
		record.RerankScore = r.RelevanceScore
		records = append(records, record)
	}
	return records
}

func similarityFallback(merged []RetrievalRecord, topK int) []RetrievalRecord {
	records := make([]RetrievalRecord, len(merged))
	copy(records, merged)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Similarity > records[j].Similarity
	})
	if len(records) > topK {
		records = records[:topK]
	}
	return records
}
