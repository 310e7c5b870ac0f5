package dto

import (
	"encoding/json"
	"time"
)

type NewChatResponse struct {
	ChatID string `json:"chat_id"`
}

type AskRequest struct {
	ChatID string `json:"chat_id"`
	Query  string `json:"query" validate:"required,min=1"`
}

type AskResponse struct {
	ChatID string `json:"chat_id"`
	Answer string `json:"answer"`
}

type ChatHistoryMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Sources   json.RawMessage `json:"sources,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ChatExchangeMessage rides the internal event bus from a completed
// exchange to the transcript consumer.
type ChatExchangeMessage struct {
	ChatID  string          `json:"chat_id"`
	Query   string          `json:"query"`
	Answer  string          `json:"answer"`
	Sources json.RawMessage `json:"sources,omitempty"`
}
