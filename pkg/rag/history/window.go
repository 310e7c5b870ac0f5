package history

import (
	"fmt"
	"strings"

	"github.com/ashebbar-dev/Ojas-EB/internal/repository/memory"
	"github.com/ashebbar-dev/Ojas-EB/pkg/llm"
)

// DefaultWindowPairs is how many user/assistant exchanges ride along as
// conversational context.
const DefaultWindowPairs = 6

// Window converts the tail of a session's turns into chat messages,
// keeping at most maxPairs exchanges.
func Window(turns []memory.Turn, maxPairs int) []llm.Message {
	if maxPairs <= 0 {
		maxPairs = DefaultWindowPairs
	}
	maxTurns := maxPairs * 2
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	messages := make([]llm.Message, len(turns))
	for i, turn := range turns {
		messages[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	return messages
}

// Narrate renders turns as a plain-text block for prompts that embed the
// conversation rather than replaying it as chat messages.
func Narrate(turns []memory.Turn, maxPairs int) string {
	messages := Window(turns, maxPairs)
	if len(messages) == 0 {
		return "No prior conversation."
	}

	var b strings.Builder
	for _, m := range messages {
		speaker := "User"
		if m.Role != "user" {
			speaker = "Assistant"
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", speaker, m.Content))
	}
	return b.String()
}
