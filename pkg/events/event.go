package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ANSWER_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic carrier used when reconstructing events off the bus.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// AnswerCompletedEvent is emitted after a streamed or blocking answer has
// been fully generated for a chat session.
type AnswerCompletedEvent struct {
	ChatID      string
	Query       string
	AnswerChars int
	SubQueries  int
	Streamed    bool
	OccurredAt  time.Time
}

func (e AnswerCompletedEvent) EventType() string {
	return "ANSWER_COMPLETED"
}

func (e AnswerCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"chat_id":      e.ChatID,
		"query":        e.Query,
		"answer_chars": e.AnswerChars,
		"sub_queries":  e.SubQueries,
		"streamed":     e.Streamed,
	}
}

func (e AnswerCompletedEvent) Timestamp() time.Time {
	return e.OccurredAt
}
