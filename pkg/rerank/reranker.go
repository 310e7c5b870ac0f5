package rerank

import "context"

// Result is one row of a rerank response: the index of the document in the
// submitted slice and its relevance score, ordered best-first.
type Result struct {
	Index          int
	RelevanceScore float64
}

// Reranker scores a set of documents against a query with a cross-encoder.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)
}
