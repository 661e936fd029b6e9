package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/bluelight/licensekaki/backend/internal/model/chat"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// fallbackReply is shown when the transport fails before delivering any
// event for the turn.
const fallbackReply = "Sorry, I am unable to respond right now. Please try again later."

// turn tracks the lifecycle of one user submission. The assistant message id
// is reserved up front so tokens are matched by id, never by list position.
// Late callbacks for an abandoned turn are recognised by pointer identity
// and dropped.
type turn struct {
	id          string
	assistantID int
	started     bool
}

// Store owns the canonical conversation state of one chat widget: the
// message list, busy flags, follow-up suggestions and the unread marker.
// It is the only component that mutates session fields; callers dispatch
// intents and read snapshots.
type Store struct {
	mu        sync.Mutex
	transport Transport
	onChange  func(chatmodel.Snapshot)

	sessionID   string
	messages    []chatmodel.Message
	isOpen      bool
	isLoading   bool
	isStreaming bool
	suggested   []string
	hasUnread   bool

	// nextID never resets, so a message id can never collide across clears.
	nextID int
	active *turn
}

// NewStore creates a session bound to the given transport. The session lives
// until an explicit clear rotates its identifier.
func NewStore(transport Transport) *Store {
	return &Store{
		transport: transport,
		sessionID: uuid.NewString(),
		suggested: chatmodel.DefaultSuggestions(),
	}
}

// OnChange registers an observer invoked with a fresh snapshot after every
// state change. Used by the websocket widget handler to push state.
func (s *Store) OnChange(fn func(chatmodel.Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SendMessage appends the user turn, flips the session to loading and
// dispatches the transport call. It returns once dispatched; the outcome is
// observed through subsequent snapshots, never through this call.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return ErrTurnInFlight
	}

	userMsg := chatmodel.Message{
		ID:        s.allocID(),
		Role:      chatmodel.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}
	s.messages = append(s.messages, userMsg)
	s.isLoading = true
	s.isStreaming = false
	s.suggested = nil

	current := &turn{
		id:          uuid.NewString(),
		assistantID: s.allocID(),
	}
	s.active = current

	req := Request{
		Message:   text,
		SessionID: s.sessionID,
		History:   historyWindow(s.messages),
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	go s.runTurn(ctx, req, current)
	return nil
}

// ToggleChat flips widget visibility; opening marks the conversation read.
func (s *Store) ToggleChat() {
	s.mu.Lock()
	s.isOpen = !s.isOpen
	if s.isOpen {
		s.hasUnread = false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// OpenChat makes the widget visible and clears the unread marker.
func (s *Store) OpenChat() {
	s.mu.Lock()
	s.isOpen = true
	s.hasUnread = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// CloseChat hides the widget.
func (s *Store) CloseChat() {
	s.mu.Lock()
	s.isOpen = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ClearMessages empties the conversation, restores the default suggestions
// and rotates the session identifier so conversational context cannot bleed
// across a reset. An in-flight turn is abandoned; its late callbacks are
// dropped.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	s.messages = nil
	s.suggested = chatmodel.DefaultSuggestions()
	s.sessionID = uuid.NewString()
	s.isLoading = false
	s.isStreaming = false
	s.active = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Snapshot returns a copy of the current session state.
func (s *Store) Snapshot() chatmodel.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// runTurn drives one transport exchange. A synchronous transport failure,
// the path where no callback ever fired, falls back to a fixed apology.
func (s *Store) runTurn(ctx context.Context, req Request, current *turn) {
	err := s.transport.StreamChat(ctx, req, Callbacks{
		OnToken: func(text string) { s.applyToken(current, text) },
		OnDone:  func(full string, suggestions []string) { s.applyDone(current, full, suggestions) },
		OnError: func(errText string) { s.applyError(current, errText) },
	})
	if err != nil {
		log.Printf("[chat] transport failed for session=%s: %v", req.SessionID, err)
		s.applyError(current, fallbackReply)
	}
}

// applyToken creates the assistant message on the first token and grows its
// content on every further one. Tokens for an abandoned turn are dropped.
func (s *Store) applyToken(current *turn, text string) {
	s.mu.Lock()
	if s.active != current {
		s.mu.Unlock()
		return
	}

	if !current.started {
		current.started = true
		s.messages = append(s.messages, chatmodel.Message{
			ID:        current.assistantID,
			Role:      chatmodel.RoleAssistant,
			Content:   text,
			Timestamp: time.Now(),
		})
	} else if idx := s.indexByID(current.assistantID); idx >= 0 {
		s.messages[idx].Content += text
	}
	s.isLoading = false
	s.isStreaming = true

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// applyDone finalizes the turn. When the transport delivered the reply in a
// single terminal event instead of tokens, the full message becomes the
// assistant message.
func (s *Store) applyDone(current *turn, fullMessage string, suggestions []string) {
	s.mu.Lock()
	if s.active != current {
		s.mu.Unlock()
		return
	}

	if !current.started && fullMessage != "" {
		s.messages = append(s.messages, chatmodel.Message{
			ID:        current.assistantID,
			Role:      chatmodel.RoleAssistant,
			Content:   fullMessage,
			Timestamp: time.Now(),
		})
	}
	s.finishTurnLocked()
	if len(suggestions) > 0 {
		s.suggested = append([]string(nil), suggestions...)
	} else {
		s.suggested = chatmodel.DefaultSuggestions()
	}
	if !s.isOpen {
		s.hasUnread = true
	}

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// applyError recovers the turn into a consistent, continuable state. Partial
// content already streamed is kept verbatim; with nothing streamed yet a new
// assistant message carries the error text instead.
func (s *Store) applyError(current *turn, errorText string) {
	s.mu.Lock()
	if s.active != current {
		s.mu.Unlock()
		return
	}

	if !current.started {
		s.messages = append(s.messages, chatmodel.Message{
			ID:        current.assistantID,
			Role:      chatmodel.RoleAssistant,
			Content:   errorText,
			Timestamp: time.Now(),
		})
	}
	s.finishTurnLocked()
	s.suggested = chatmodel.DefaultSuggestions()
	if !s.isOpen {
		s.hasUnread = true
	}

	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) finishTurnLocked() {
	s.isLoading = false
	s.isStreaming = false
	s.active = nil
}

func (s *Store) allocID() int {
	s.nextID++
	return s.nextID
}

func (s *Store) indexByID(id int) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() chatmodel.Snapshot {
	return chatmodel.Snapshot{
		SessionID:          s.sessionID,
		Messages:           append([]chatmodel.Message(nil), s.messages...),
		IsOpen:             s.isOpen,
		IsLoading:          s.isLoading,
		IsStreaming:        s.isStreaming,
		SuggestedQuestions: append([]string(nil), s.suggested...),
		HasUnread:          s.hasUnread,
	}
}

func (s *Store) notify(snap chatmodel.Snapshot) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
