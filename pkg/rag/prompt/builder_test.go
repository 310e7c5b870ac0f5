package prompt

import (
	"testing"

	"github.com/ashebbar-dev/Ojas-EB/internal/constant"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerMessages_Structure(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	rep := report.Report{
		Status:       report.StatusOK,
		TotalResults: 1,
		Results: []report.Result{{
			Rank:      1,
			Content:   "pgvector stores embeddings in Postgres.",
			PageTitle: "pgvector overview",
			SourceURL: "https://docs.example.com/pgvector",
		}},
	}

	messages := AnswerMessages(history, rep, "what is pgvector?")

	require.Len(t, messages, 4)
	assert.Equal(t, constant.ChatMessageRoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, constant.AnswerMarker)
	assert.Equal(t, "earlier question", messages[1].Content)

	final := messages[3]
	assert.Equal(t, constant.ChatMessageRoleUser, final.Role)
	assert.Contains(t, final.Content, "PASSAGE 1")
	assert.Contains(t, final.Content, "pgvector overview")
	assert.Contains(t, final.Content, "what is pgvector?")
}

func TestAnswerMessages_NotFoundReport(t *testing.T) {
	rep := report.Report{Status: report.StatusNotFound}

	messages := AnswerMessages(nil, rep, "anything")

	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "no passages were found")
}
