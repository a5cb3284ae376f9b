package server

import (
	"net/http"

	"designify/internal/gateway/handler"
	"designify/internal/gateway/middleware"
)

func NewMux(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", h.HandleCreateSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/messages", h.HandleMessage)
	mux.HandleFunc("POST /sessions/{id}/attachments", h.HandleAttachment)
	mux.HandleFunc("GET /sessions/{id}/history", h.HandleHistory)
	mux.HandleFunc("GET /sessions/{id}/design", h.HandleDesign)

	mux.HandleFunc("GET /ws/chat", h.HandleChatWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return middleware.CORS(mux)
}
