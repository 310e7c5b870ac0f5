package contract

import (
	"context"

	"github.com/google/uuid"
)

// RetrievedChunk is one scored row returned by a retrieval track.
type RetrievedChunk struct {
	Id           uuid.UUID
	Content      string
	SourceUrl    string
	PageTitle    string
	TopicHeading string
	Similarity   float64
}

type ChunkRepository interface {
	// SimpleHybridSearch ranks the full corpus by cosine similarity against
	// the query embedding, keeping rows above the threshold or matching the
	// keyword lexically.
	SimpleHybridSearch(ctx context.Context, embedding []float32, keyword string, matchCount int, threshold float64) ([]RetrievedChunk, error)

	// TitleFilteredSearch ranks only chunks belonging to pages whose title
	// matches the keyword, boosting documents the query names directly.
	TitleFilteredSearch(ctx context.Context, embedding []float32, keyword string, matchCount int, threshold float64, titleMatchCount int) ([]RetrievedChunk, error)
}
