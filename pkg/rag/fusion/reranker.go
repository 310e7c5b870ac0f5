package fusion

import (
	"context"
	"strings"
	"time"

	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/dedup"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rerank"
)

// Config holds the fusion cuts.
type Config struct {
	TopN            int // Cross-query rerank cut
	FallbackTopK    int // Insertion-order cut when the rerank call fails
	SingleQueryTopK int // Cut when only one sub-query was issued
	CallTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopN:            10,
		FallbackTopK:    12,
		SingleQueryTopK: 8,
		CallTimeout:     15 * time.Second,
	}
}

// Result is one finally-ranked group.
type Result struct {
	Group      *dedup.Group
	FinalRank  int
	FinalScore float64
}

// Fuser applies the second, cross-sub-query reranking pass over the
// deduplicated set.
type Fuser struct {
	reranker rerank.Reranker
	logger   logger.ILogger
	config   Config
}

func NewFuser(reranker rerank.Reranker, log logger.ILogger, config Config) *Fuser {
	return &Fuser{
		reranker: reranker,
		logger:   log,
		config:   config,
	}
}

// Fuse ranks the aggregate against all sub-query texts joined into one
// synthetic query. With a single sub-query the per-query rerank already
// ordered the groups, so fusion is skipped and the head is taken as-is.
// A failed fusion rerank degrades to insertion order.
func (f *Fuser) Fuse(ctx context.Context, queries []search.SubQuery, agg *dedup.Aggregate) []Result {
	groups := agg.InOrder()
	if len(groups) == 0 {
		return nil
	}

	if len(queries) <= 1 {
		return headOf(groups, f.config.SingleQueryTopK)
	}

	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}
	combined := strings.Join(texts, " ")

	documents := make([]string, len(groups))
	for i, g := range groups {
		documents[i] = g.Base.Content
	}

	rerankCtx, cancel := context.WithTimeout(ctx, f.config.CallTimeout)
	defer cancel()

	ranked, err := f.reranker.Rerank(rerankCtx, combined, documents, f.config.TopN)
	if err != nil {
		f.logger.Warn("FusionReranker", "Fusion rerank failed, using insertion order", map[string]interface{}{
			"groups": len(groups),
			"error":  err.Error(),
		})
		return headOf(groups, f.config.FallbackTopK)
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(groups) {
			continue
		}
		results = append(results, Result{
			Group:      groups[r.Index],
			FinalRank:  len(results) + 1,
			FinalScore: r.RelevanceScore,
		})
	}
	return results
}

func headOf(groups []*dedup.Group, topK int) []Result {
	if len(groups) > topK {
		groups = groups[:topK]
	}
	results := make([]Result, len(groups))
	for i, g := range groups {
		results[i] = Result{
			Group:      g,
			FinalRank:  i + 1,
			FinalScore: g.BestRerankScore,
		}
	}
	return results
}
