package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Conversation is a chat thread owned by a single user. Only the title is
// ever mutated; deletion cascades to its messages.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single turn entry. Immutable once persisted; ordering within
// a conversation is (created_at, id), which is stable and monotonic.
type Message struct {
	ID             int64       `json:"id"`
	ConversationID int64       `json:"conversationId"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"createdAt"`
}
