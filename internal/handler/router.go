package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/bluelight/licensekaki/backend/internal/handler/chat"
	streamhandler "github.com/bluelight/licensekaki/backend/internal/handler/stream"
	widgethandler "github.com/bluelight/licensekaki/backend/internal/handler/widget"
	"github.com/bluelight/licensekaki/backend/internal/middleware"
	chatservice "github.com/bluelight/licensekaki/backend/internal/service/chat"
	"github.com/bluelight/licensekaki/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the assistant transport. A nil transport
// keeps the server up with the chat surfaces reporting unavailability.
func NewRouter(transport chatservice.Transport) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		if transport == nil {
			unavailable := func(w http.ResponseWriter, _ *http.Request) {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai assistant unavailable")
			}
			api.Post("/public/chat", unavailable)
			api.Post("/public/chat/stream", unavailable)
			api.Get("/widget/ws", unavailable)
			return
		}

		chathandler.New(transport).RegisterRoutes(api)
		streamhandler.New(transport).RegisterRoutes(api)
		widgethandler.New(transport).RegisterRoutes(api)
	})

	return r
}
