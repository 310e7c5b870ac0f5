package dedup

import (
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"

	"github.com/google/uuid"
)

// Group aggregates every appearance of one record id across sub-queries.
// SourceQueries and SourceQueryIDs are multisets: one entry per sub-query
// that returned the record, duplicates allowed across sub-queries. Track
// level duplicates never reach here, the executor merges those first.
type Group struct {
	Base            search.RetrievalRecord
	SourceQueries   []string
	SourceQueryIDs  []string
	BestSimilarity  float64
	BestRerankScore float64
}

func (g *Group) RetrievalCount() int {
	return len(g.SourceQueries)
}

func (g *Group) UniqueQueryCount() int {
	seen := make(map[string]bool, len(g.SourceQueries))
	for _, q := range g.SourceQueries {
		seen[q] = true
	}
	return len(seen)
}

func (g *Group) IsDuplicateFound() bool {
	return g.RetrievalCount() > 1
}

// Aggregate is the request-scoped dedup state: groups keyed by record id
// plus first-sighting insertion order.
type Aggregate struct {
	groups      map[uuid.UUID]*Group
	order       []uuid.UUID
	totalBefore int
}

// Merge folds an ordered result list into groups. The first sighting of an
// id copies the record and seeds the best scores; every later sighting
// appends provenance and folds the max in. Seeding matters for negative
// scores, a zero start would report a best that was never observed.
func Merge(results []search.TrackSearchResult) *Aggregate {
	agg := &Aggregate{groups: make(map[uuid.UUID]*Group)}

	for _, result := range results {
		for _, record := range result.Records {
			agg.totalBefore++

			group, exists := agg.groups[record.ID]
			if !exists {
				group = &Group{
					Base:            record,
					BestSimilarity:  record.Similarity,
					BestRerankScore: record.RerankScore,
				}
				agg.groups[record.ID] = group
				agg.order = append(agg.order, record.ID)
			}

			group.SourceQueries = append(group.SourceQueries, result.Query)
			group.SourceQueryIDs = append(group.SourceQueryIDs, result.SearchID)
			if record.Similarity > group.BestSimilarity {
				group.BestSimilarity = record.Similarity
			}
			if record.RerankScore > group.BestRerankScore {
				group.BestRerankScore = record.RerankScore
			}
		}
	}
	return agg
}

// InOrder returns the groups in first-sighting order.
func (a *Aggregate) InOrder() []*Group {
	groups := make([]*Group, len(a.order))
	for i, id := range a.order {
		groups[i] = a.groups[id]
	}
	return groups
}

func (a *Aggregate) Get(id uuid.UUID) (*Group, bool) {
	g, ok := a.groups[id]
	return g, ok
}

func (a *Aggregate) UniqueCount() int {
	return len(a.order)
}

func (a *Aggregate) TotalBefore() int {
	return a.totalBefore
}

func (a *Aggregate) DuplicatesRemoved() int {
	return a.totalBefore - len(a.order)
}

// FoundMultipleTimes counts groups that more than one sub-query returned.
func (a *Aggregate) FoundMultipleTimes() int {
	count := 0
	for _, id := range a.order {
		if a.groups[id].IsDuplicateFound() {
			count++
		}
	}
	return count
}
