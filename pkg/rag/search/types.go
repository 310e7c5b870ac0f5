package search

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubQuery is one decomposed search string with its submission position and
// a stable identifier used in provenance reporting.
type SubQuery struct {
	Index int
	ID    string
	Text  string
}

// NewSubQueries assigns ordinals and Q1..Qn identifiers in input order.
func NewSubQueries(texts []string) []SubQuery {
	queries := make([]SubQuery, len(texts))
	for i, text := range texts {
		queries[i] = SubQuery{
			Index: i,
			ID:    fmt.Sprintf("Q%d", i+1),
			Text:  text,
		}
	}
	return queries
}

// RetrievalRecord is one scored passage. Identity is the record ID;
// uniqueness is enforced within and across tracks.
type RetrievalRecord struct {
	ID           uuid.UUID
	Content      string
	SourceURL    string
	PageTitle    string
	TopicHeading string
	Similarity   float64
	RerankScore  float64
}

// TrackSearchResult is the outcome of one dual-track search. It is always
// produced: failures leave Records empty and describe themselves in Err.
type TrackSearchResult struct {
	Query      string
	SearchID   string
	Records    []RetrievalRecord
	SearchTime time.Duration
	Err        string
}

func (r TrackSearchResult) Failed() bool {
	return r.Err != ""
}
