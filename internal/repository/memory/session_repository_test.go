package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrCreate_SameSessionSameHistory(t *testing.T) {
	repo := NewSessionRepository()

	a := repo.GetOrCreate("chat-1")
	b := repo.GetOrCreate("chat-1")

	assert.Same(t, a, b)
}

func TestGetOrCreate_ConcurrentFirstReference(t *testing.T) {
	repo := NewSessionRepository()

	const goroutines = 32
	histories := make([]*SessionHistory, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			histories[i] = repo.GetOrCreate("chat-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, histories[0], histories[i])
	}
}

func TestAppend_ConcurrentAppendsAllLand(t *testing.T) {
	repo := NewSessionRepository()
	h := repo.GetOrCreate("chat-1")

	const writers = 16
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				h.Append("user", fmt.Sprintf("w%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, h.Turns(), writers*perWriter)
}

func TestTurns_SnapshotIsolatedFromLaterAppends(t *testing.T) {
	repo := NewSessionRepository()
	h := repo.GetOrCreate("chat-1")

	h.Append("user", "first")
	snapshot := h.Turns()
	h.Append("assistant", "second")

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "first", snapshot[0].Content)
	assert.Len(t, h.Turns(), 2)
}

func TestGet_MissingSession(t *testing.T) {
	repo := NewSessionRepository()

	_, found := repo.Get("nope")

	assert.False(t, found)
}
