package stream

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/bluelight/licensekaki/backend/internal/service/chat"
	"github.com/bluelight/licensekaki/backend/pkg/utils"
)

// unavailableReply is streamed as an error event when the transport cannot
// deliver any part of the turn.
const unavailableReply = "The AI assistant is currently unavailable."

// Handler streams assistant replies over Server-Sent Events.
type Handler struct {
	transport chatservice.Transport
}

// New creates the stream handler.
func New(transport chatservice.Transport) *Handler {
	return &Handler{transport: transport}
}

// RegisterRoutes registers the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/public/chat/stream", h.handleStream)
}

type streamRequest struct {
	Message   string                       `json:"message"`
	SessionID string                       `json:"sessionId"`
	History   []chatservice.HistoryMessage `json:"history"`
}

// event is one frame of the SSE wire protocol: zero or more token events,
// then exactly one done or error event.
type event struct {
	Type               string   `json:"type"`
	Content            string   `json:"content,omitempty"`
	SuggestedQuestions []string `json:"suggestedQuestions,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var payload streamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.Message = strings.TrimSpace(payload.Message)
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	utils.SetupSSEHeaders(w)

	req := chatservice.Request{
		Message:   payload.Message,
		SessionID: payload.SessionID,
		History:   payload.History,
	}

	err := h.transport.StreamChat(r.Context(), req, chatservice.Callbacks{
		OnToken: func(text string) {
			utils.SendSSEChunk(w, flusher, event{Type: "token", Content: text})
		},
		OnDone: func(full string, suggestions []string) {
			utils.SendSSEChunk(w, flusher, event{
				Type:               "done",
				Content:            full,
				SuggestedQuestions: suggestions,
			})
		},
		OnError: func(errText string) {
			utils.SendSSEChunk(w, flusher, event{Type: "error", Content: errText})
		},
	})
	if err != nil {
		log.Printf("[stream] transport failed for session=%s: %v", payload.SessionID, err)
		utils.SendSSEChunk(w, flusher, event{
			Type:    "error",
			Content: fmt.Sprintf("%s Please try again later.", unavailableReply),
		})
		return
	}

	log.Printf("[stream] completed turn for session=%s", payload.SessionID)
}
