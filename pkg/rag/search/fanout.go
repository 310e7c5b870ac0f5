package search

import (
	"context"
	"fmt"

	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"

	"github.com/panjf2000/ants/v2"
)

// SearchExecutor is what the fan-out dispatches. Satisfied by *Executor.
type SearchExecutor interface {
	Execute(ctx context.Context, query SubQuery) TrackSearchResult
}

// FanOut runs one search task per sub-query on a bounded worker pool.
// Results come back in completion order and are reordered to submission
// order before return, so downstream reporting is deterministic.
type FanOut struct {
	executor SearchExecutor
	logger   logger.ILogger
	maxPool  int
}

func NewFanOut(executor SearchExecutor, log logger.ILogger) *FanOut {
	return &FanOut{
		executor: executor,
		logger:   log,
		maxPool:  4,
	}
}

// SearchAll returns exactly one TrackSearchResult per sub-query, regardless
// of how many individual searches fail. A slow or failed task never blocks
// its siblings, and no task is retried here.
func (f *FanOut) SearchAll(ctx context.Context, queries []SubQuery) []TrackSearchResult {
	if len(queries) == 0 {
		return nil
	}

	poolSize := len(queries)
	if poolSize > f.maxPool {
		poolSize = f.maxPool
	}

	type indexed struct {
		index  int
		result TrackSearchResult
	}
	completed := make(chan indexed, len(queries))

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		// Pool construction only fails on invalid size; degrade to serial
		f.logger.Error("FanOut", "Worker pool unavailable, searching serially", map[string]interface{}{
			"error": err.Error(),
		})
		results := make([]TrackSearchResult, len(queries))
		for i, q := range queries {
			results[i] = f.executor.Execute(ctx, q)
		}
		return results
	}
	defer pool.Release()

	for _, q := range queries {
		q := q
		submitErr := pool.Submit(func() {
			completed <- indexed{index: q.Index, result: f.executor.Execute(ctx, q)}
		})
		if submitErr != nil {
			completed <- indexed{index: q.Index, result: TrackSearchResult{
				Query:    q.Text,
				SearchID: q.ID,
				Err:      fmt.Sprintf("task submission failed: %v", submitErr),
			}}
		}
	}

	results := make([]TrackSearchResult, len(queries))
	for range queries {
		done := <-completed
		results[done.index] = done.result
	}

	f.logger.Info("FanOut", "All sub-query searches completed", map[string]interface{}{
		"queries": len(queries),
		"workers": poolSize,
	})
	return results
}
