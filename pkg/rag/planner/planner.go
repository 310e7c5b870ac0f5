package planner

import (
	"context"
	"fmt"

	"github.com/ashebbar-dev/Ojas-EB/internal/constant"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/memory"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/history"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/search"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/subquery"
)

// Planner asks the model to decompose a question into sub-queries. It is a
// boundary collaborator: when decomposition fails for any reason, the whole
// question becomes the single sub-query and the request proceeds.
type Planner struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewPlanner(llmProvider llm.LLMProvider, log logger.ILogger) *Planner {
	return &Planner{
		llmProvider: llmProvider,
		logger:      log,
	}
}

func (p *Planner) Plan(ctx context.Context, question string, turns []memory.Turn) []search.SubQuery {
	prompt := fmt.Sprintf(
		constant.SubQueryGenerationPrompt,
		history.Narrate(turns, history.DefaultWindowPairs),
		question,
	)

	raw, err := p.llmProvider.Generate(ctx, prompt)
	if err != nil {
		p.logger.Warn("Planner", "Sub-query generation failed, searching the question directly", map[string]interface{}{
			"error": err.Error(),
		})
		return search.NewSubQueries([]string{question})
	}

	parsed, err := subquery.Parse(raw)
	if err != nil {
		p.logger.Warn("Planner", "Sub-query output unusable, searching the question directly", map[string]interface{}{
			"error": err.Error(),
		})
		return search.NewSubQueries([]string{question})
	}

	p.logger.Info("Planner", "Question decomposed", map[string]interface{}{
		"shape":   parsed.Shape.String(),
		"queries": len(parsed.Queries),
	})
	return search.NewSubQueries(parsed.Queries)
}
