package prompt

import (
	"fmt"
	"strings"

	"github.com/ashebbar-dev/Ojas-EB/internal/constant"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
	"github.com/ashebbar-dev/Ojas-EB/pkg/rag/report"
)

// AnswerMessages assembles the chat history for the answer-generation call:
// system instructions, the conversational window, then one user message
// carrying the retrieved passages and the question.
func AnswerMessages(history []llm.Message, rep report.Report, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: constant.AnswerSystemPrompt,
	})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: renderQuestion(rep, question),
	})
	return messages
}

func renderQuestion(rep report.Report, question string) string {
	var b strings.Builder

	b.WriteString("=== RETRIEVED PASSAGES ===\n")
	if rep.NotFound() || len(rep.Results) == 0 {
		b.WriteString("(no passages were found for this question)\n")
	}
	for _, r := range rep.Results {
		b.WriteString(fmt.Sprintf("--- PASSAGE %d ---\n", r.Rank))
		if r.PageTitle != "" {
			b.WriteString(fmt.Sprintf("Page: %s\n", r.PageTitle))
		}
		if r.TopicHeading != "" {
			b.WriteString(fmt.Sprintf("Section: %s\n", r.TopicHeading))
		}
		if r.SourceURL != "" {
			b.WriteString(fmt.Sprintf("Source: %s\n", r.SourceURL))
		}
		b.WriteString(r.Content)
		b.WriteString("\n\n")
	}

	b.WriteString("=== QUESTION ===\n")
	b.WriteString(question)
	return b.String()
}
