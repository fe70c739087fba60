// Package ai provides the chat completion gateway used by the coaching
// and plan generation services.
package ai

import "context"

// Message is a single turn in a chat completion request
type Message struct {
	Role    string
	Content string
}

// Chat roles understood by the gateway
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemMessage builds a system-role message
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Stream yields completion text incrementally. Callers must call Close
// when done, and check Err after Next returns false.
type Stream interface {
	// Next advances to the next non-empty text delta. It returns false
	// when the stream is exhausted or an error occurred.
	Next() bool
	// Current returns the text delta for the current position.
	Current() string
	// Err returns the terminal error, if any, once Next returns false.
	Err() error
	// Close releases the underlying connection.
	Close() error
}

// Gateway is the interface to a chat completion provider
type Gateway interface {
	// CompleteStreaming starts a streaming completion. An empty model
	// selects the gateway's default.
	CompleteStreaming(ctx context.Context, messages []Message, model string) (Stream, error)
	// CompleteStructured requests a single JSON-object completion and
	// returns the raw response text.
	CompleteStructured(ctx context.Context, messages []Message, model string) (string, error)
}
