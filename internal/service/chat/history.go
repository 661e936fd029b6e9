package chat

import (
	chatmodel "github.com/bluelight/licensekaki/backend/internal/model/chat"
)

// historyLimit caps the context window by message count, not content size,
// so the transport prompt stays a fixed size regardless of conversation
// length.
const historyLimit = 10

// historyWindow maps the most recent messages, including the just-appended
// user message, into the transport's role vocabulary. Order is preserved and
// nothing besides older messages is dropped.
func historyWindow(messages []chatmodel.Message) []HistoryMessage {
	start := 0
	if len(messages) > historyLimit {
		start = len(messages) - historyLimit
	}

	window := make([]HistoryMessage, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		role := HistoryRoleModel
		if msg.IsUser() {
			role = HistoryRoleUser
		}
		window = append(window, HistoryMessage{Role: role, Content: msg.Content})
	}
	return window
}
