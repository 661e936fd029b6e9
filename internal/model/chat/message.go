package chat

import "time"

// Roles a conversation turn can carry. The widget only ever renders
// user and assistant bubbles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. Messages are immutable once finalized;
// the single exception is the content of the assistant message currently
// receiving streamed tokens, which grows in place.
type Message struct {
	ID        int       `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser reports whether the message was submitted by the visitor.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant reports whether the message was produced by the assistant.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}
