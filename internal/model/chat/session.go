package chat

// Snapshot is a read-only copy of the widget conversation state. The UI
// layer renders from snapshots and never mutates session fields directly.
type Snapshot struct {
	SessionID          string    `json:"sessionId"`
	Messages           []Message `json:"messages"`
	IsOpen             bool      `json:"isOpen"`
	IsLoading          bool      `json:"isLoading"`
	IsStreaming        bool      `json:"isStreaming"`
	SuggestedQuestions []string  `json:"suggestedQuestions"`
	HasUnread          bool      `json:"hasUnread"`
}

// DefaultSuggestions returns the prompts offered before the first turn and
// whenever the assistant has nothing better to propose.
func DefaultSuggestions() []string {
	return []string{
		"How do I apply for a new EMA licence?",
		"What documents do I need to submit?",
		"How is the pricing determined?",
	}
}
