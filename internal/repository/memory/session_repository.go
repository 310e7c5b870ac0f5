package memory

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// Turn is one conversational exchange half stored in session history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// SessionHistory holds the ordered turns of one chat session. Appends are
// serialized per session so concurrent requests on the same id cannot
// interleave a partial write.
type SessionHistory struct {
	mu    sync.Mutex
	turns []Turn
}

func (h *SessionHistory) Append(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{Role: role, Content: content})
}

// Turns returns a snapshot copy so callers never observe a slice that a
// concurrent append is growing.
func (h *SessionHistory) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	snapshot := make([]Turn, len(h.turns))
	copy(snapshot, h.turns)
	return snapshot
}

// SessionRepository is the process-wide session history store. Sessions are
// created lazily on first reference and live for the process lifetime.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// GetOrCreate returns the history for sessionID, creating it if absent.
// The create path is guarded so two concurrent first references resolve
// to the same history.
func (r *SessionRepository) GetOrCreate(sessionID string) *SessionHistory {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*SessionHistory)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if x, found := r.cache.Get(sessionID); found {
		return x.(*SessionHistory)
	}
	h := &SessionHistory{}
	r.cache.Set(sessionID, h, cache.NoExpiration)
	return h
}

func (r *SessionRepository) Get(sessionID string) (*SessionHistory, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*SessionHistory), true
	}
	return nil, false
}
