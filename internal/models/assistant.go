package models

import (
	"encoding/json"
	"time"
)

// Conversation groups assistant messages for one user thread.
type Conversation struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// AssistantMessage is one turn of an assistant conversation.
// Role is "user" or "assistant".
type AssistantMessage struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	Role           string    `json:"role"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// AgentAction is the logged metadata of one executed tool call. The
// assistant surface renders these; they are records, not behaviour.
type AgentAction struct {
	ID             int             `json:"id"`
	ConversationID int             `json:"conversation_id"`
	Tool           string          `json:"tool"`
	Arguments      json.RawMessage `json:"arguments"`
	Result         json.RawMessage `json:"result"`
	CreatedAt      time.Time       `json:"created_at"`
}
