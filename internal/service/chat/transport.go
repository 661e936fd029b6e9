package chat

import "context"

// History roles expected by the model side of the wire. The widget's
// "assistant" role is remapped to "model" before a request leaves the store.
const (
	HistoryRoleUser  = "user"
	HistoryRoleModel = "model"
)

// HistoryMessage is one entry of the bounded context sent with each turn.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries a single user turn to the transport.
type Request struct {
	Message   string           `json:"message"`
	SessionID string           `json:"sessionId"`
	History   []HistoryMessage `json:"history"`
}

// Callbacks receive the transport's events for one turn. OnToken fires zero
// or more times, strictly before the terminal callback; exactly one of
// OnDone/OnError fires per turn, in delivery order, never concurrently.
type Callbacks struct {
	OnToken func(text string)
	OnDone  func(fullMessage string, suggestedQuestions []string)
	OnError func(errorText string)
}

// Transport performs the network exchange for one turn and reports progress
// through cb. A non-nil return means the transport failed before invoking
// any callback; after the first callback all failures are reported via
// OnError instead.
type Transport interface {
	StreamChat(ctx context.Context, req Request, cb Callbacks) error
}
