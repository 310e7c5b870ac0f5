package report

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/dedup"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/fusion"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"
)

const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"

	contentBudget  = 800
	ellipsisMarker = "..."
)

// Result is one caller-facing passage with its provenance.
type Result struct {
	Rank               int      `json:"rank"`
	Content            string   `json:"content"`
	SourceURL          string   `json:"source_url"`
	PageTitle          string   `json:"page_title"`
	TopicHeading       string   `json:"topic_heading"`
	Similarity         float64  `json:"similarity"`
	RerankScore        float64  `json:"rerank_score"`
	FinalScore         float64  `json:"final_score"`
	RetrievedByQueries []string `json:"retrieved_by_queries"`
	RetrievalCount     int      `json:"retrieval_count"`
	UniqueQueryCount   int      `json:"unique_query_count"`
	IsDuplicateFound   bool     `json:"is_duplicate_found"`
}

// QueryDetail reports one sub-query's search outcome.
type QueryDetail struct {
	QueryID       string  `json:"query_id"`
	Query         string  `json:"query"`
	ResultCount   int     `json:"result_count"`
	SearchSeconds float64 `json:"search_time_seconds"`
	Error         string  `json:"error,omitempty"`
}

type DedupStats struct {
	TotalBefore              int `json:"total_before"`
	UniqueAfter              int `json:"unique_after"`
	DuplicatesRemoved        int `json:"duplicates_removed"`
	ChunksFoundMultipleTimes int `json:"chunks_found_multiple_times"`
}

type Summary struct {
	TotalQueries int           `json:"total_queries"`
	Queries      []QueryDetail `json:"queries"`
	Dedup        DedupStats    `json:"dedup"`
	TotalSeconds float64       `json:"total_time_seconds"`
}

// Report is the full retrieval report handed back to the controller and
// embedded into the answer prompt.
type Report struct {
	Status       string   `json:"status"`
	Message      string   `json:"message,omitempty"`
	TotalResults int      `json:"total_results"`
	Results      []Result `json:"results"`
	Summary      Summary  `json:"summary"`
}

func (r Report) NotFound() bool {
	return r.Status == StatusNotFound
}

// Build assembles the report. Content is truncated to the character budget,
// scores are rounded to 3 decimals, and retrieved_by_queries surfaces the
// provenance multiset as a set in first-seen order.
func Build(
	queries []search.SubQuery,
	trackResults []search.TrackSearchResult,
	agg *dedup.Aggregate,
	fused []fusion.Result,
	totalTime time.Duration,
) Report {
	results := make([]Result, 0, len(fused))
	for _, f := range fused {
		g := f.Group
		results = append(results, Result{
			Rank:               f.FinalRank,
			Content:            truncate(g.Base.Content),
			SourceURL:          g.Base.SourceURL,
			PageTitle:          g.Base.PageTitle,
			TopicHeading:       g.Base.TopicHeading,
			Similarity:         round3(g.BestSimilarity),
			RerankScore:        round3(g.Base.RerankScore),
			FinalScore:         round3(f.FinalScore),
			RetrievedByQueries: uniqueInOrder(g.SourceQueries),
			RetrievalCount:     g.RetrievalCount(),
			UniqueQueryCount:   g.UniqueQueryCount(),
			IsDuplicateFound:   g.IsDuplicateFound(),
		})
	}

	details := make([]QueryDetail, len(trackResults))
	for i, tr := range trackResults {
		details[i] = QueryDetail{
			QueryID:       tr.SearchID,
			Query:         tr.Query,
			ResultCount:   len(tr.Records),
			SearchSeconds: round3(tr.SearchTime.Seconds()),
			Error:         tr.Err,
		}
	}

	report := Report{
		Status:       StatusOK,
		TotalResults: len(results),
		Results:      results,
		Summary: Summary{
			TotalQueries: len(queries),
			Queries:      details,
			Dedup: DedupStats{
				TotalBefore:              agg.TotalBefore(),
				UniqueAfter:              agg.UniqueCount(),
				DuplicatesRemoved:        agg.DuplicatesRemoved(),
				ChunksFoundMultipleTimes: agg.FoundMultipleTimes(),
			},
			TotalSeconds: round3(totalTime.Seconds()),
		},
	}

	if len(results) == 0 {
		report.Status = StatusNotFound
		report.Message = "No relevant content found for the question."
	}
	return report
}

func truncate(content string) string {
	if len(content) <= contentBudget {
		return content
	}
	// Back off to a rune boundary so the cut never splits a multi-byte rune
	cut := contentBudget
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + ellipsisMarker
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func uniqueInOrder(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	unique := make([]string, 0, len(queries))
	for _, q := range queries {
		if seen[q] {
			continue
		}
		seen[q] = true
		unique = append(unique, q)
	}
	return unique
}
