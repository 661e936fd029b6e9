package chat

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/bluelight/licensekaki/backend/internal/model/chat"
	chatservice "github.com/bluelight/licensekaki/backend/internal/service/chat"
)

// unavailableReply is returned when the assistant cannot be reached at all.
// Failures are absorbed into conversation content, never surfaced as
// transport errors to the widget.
const unavailableReply = "Sorry, the AI service is temporarily unavailable. Please try again later."

// Handler serves the non-streaming chat exchange.
type Handler struct {
	transport chatservice.Transport
}

// New creates the chat handler.
func New(transport chatservice.Transport) *Handler {
	return &Handler{transport: transport}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/public/chat", h.handleChat)
}

type chatRequest struct {
	Message   string                       `json:"message"`
	SessionID string                       `json:"sessionId"`
	History   []chatservice.HistoryMessage `json:"history"`
}

type chatResponse struct {
	Message            string   `json:"message"`
	SuggestedQuestions []string `json:"suggestedQuestions"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload.Message = strings.TrimSpace(payload.Message)
	if payload.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	req := chatservice.Request{
		Message:   payload.Message,
		SessionID: payload.SessionID,
		History:   payload.History,
	}

	var reply string
	var suggestions []string
	err := h.transport.StreamChat(r.Context(), req, chatservice.Callbacks{
		OnToken: func(string) {},
		OnDone: func(full string, sugg []string) {
			reply = full
			suggestions = sugg
		},
		OnError: func(errText string) {
			reply = errText
			suggestions = nil
		},
	})
	if err != nil {
		log.Printf("[chat] exchange failed for session=%s: %v", payload.SessionID, err)
		reply = unavailableReply
		suggestions = nil
	}
	if len(suggestions) == 0 {
		suggestions = chatmodel.DefaultSuggestions()
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Message:            reply,
		SuggestedQuestions: suggestions,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
