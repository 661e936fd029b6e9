package widget

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatmodel "github.com/bluelight/licensekaki/backend/internal/model/chat"
	chatservice "github.com/bluelight/licensekaki/backend/internal/service/chat"
)

// Handler owns one conversation Store per websocket connection. Inbound
// frames are widget intents; every state change is pushed back as a
// snapshot frame.
type Handler struct {
	transport chatservice.Transport
	upgrader  websocket.Upgrader
}

// New creates the widget handler.
func New(transport chatservice.Transport) *Handler {
	return &Handler{
		transport: transport,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the widget websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/widget/ws", h.handleWebSocket)
}

// Intent names accepted from the widget.
const (
	intentSend   = "send"
	intentClear  = "clear"
	intentOpen   = "open"
	intentClose  = "close"
	intentToggle = "toggle"
)

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outboundFrame struct {
	Type  string              `json:"type"`
	Data  *chatmodel.Snapshot `json:"data,omitempty"`
	Error string              `json:"error,omitempty"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[widget] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Snapshot pushes come from the transport goroutine while intents are
	// read here, so writes must be serialized.
	var writeMu sync.Mutex
	writeFrame := func(frame outboundFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("[widget] write failed: %v", err)
		}
	}

	store := chatservice.NewStore(h.transport)
	store.OnChange(func(snap chatmodel.Snapshot) {
		writeFrame(outboundFrame{Type: "state", Data: &snap})
	})

	initial := store.Snapshot()
	log.Printf("[widget] connection opened, session=%s", initial.SessionID)
	writeFrame(outboundFrame{Type: "state", Data: &initial})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[widget] read failed: %v", err)
			}
			return
		}

		switch frame.Type {
		case intentSend:
			if err := store.SendMessage(r.Context(), frame.Text); err != nil {
				writeFrame(outboundFrame{Type: "error", Error: intentError(err)})
			}
		case intentClear:
			store.ClearMessages()
		case intentOpen:
			store.OpenChat()
		case intentClose:
			store.CloseChat()
		case intentToggle:
			store.ToggleChat()
		default:
			writeFrame(outboundFrame{Type: "error", Error: "unknown intent"})
		}
	}
}

func intentError(err error) string {
	switch {
	case errors.Is(err, chatservice.ErrEmptyMessage):
		return "message is empty"
	case errors.Is(err, chatservice.ErrTurnInFlight):
		return "a reply is still in progress"
	default:
		return "send failed"
	}
}
