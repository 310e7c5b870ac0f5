package history

import (
	"fmt"
	"testing"

	"github.com/ashebbar-dev/Ojas-EB/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_KeepsTailPairs(t *testing.T) {
	var turns []memory.Turn
	for i := 0; i < 20; i++ {
		turns = append(turns, memory.Turn{Role: "user", Content: fmt.Sprintf("q%d", i)})
		turns = append(turns, memory.Turn{Role: "assistant", Content: fmt.Sprintf("a%d", i)})
	}

	messages := Window(turns, 6)

	require.Len(t, messages, 12)
	assert.Equal(t, "q14", messages[0].Content)
	assert.Equal(t, "a19", messages[11].Content)
}

func TestWindow_ShortHistoryUnchanged(t *testing.T) {
	turns := []memory.Turn{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}

	messages := Window(turns, 6)

	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestNarrate_EmptyHistory(t *testing.T) {
	assert.Equal(t, "No prior conversation.", Narrate(nil, 6))
}

func TestNarrate_SpeakerLabels(t *testing.T) {
	turns := []memory.Turn{
		{Role: "user", Content: "what is a chunk"},
		{Role: "assistant", Content: "a passage of a page"},
	}

	got := Narrate(turns, 6)

	assert.Contains(t, got, "User: what is a chunk")
	assert.Contains(t, got, "Assistant: a passage of a page")
}
