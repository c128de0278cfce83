package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/signedchess/internal/api/apierr"
	"github.com/mcoot/signedchess/internal/api/handler"
	"github.com/mcoot/signedchess/internal/api/middleware"
	"github.com/mcoot/signedchess/internal/realtime"
	"github.com/mcoot/signedchess/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Engine      *session.Engine
	Broadcaster *realtime.Broadcaster
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	sessionHandler := handler.NewSessionHandler(cfg.Engine, cfg.Broadcaster, cfg.Logger)
	wsHandler := realtime.NewWebSocketHandler(cfg.Broadcaster, cfg.Logger)

	r.HandleFunc("/session", sessionHandler.Create).Methods(http.MethodPost)

	sessions := r.PathPrefix("/session/{id}").Subrouter()
	sessions.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	sessions.HandleFunc("/join", sessionHandler.Join).Methods(http.MethodPost)
	sessions.HandleFunc("/move", sessionHandler.Move).Methods(http.MethodPost)
	sessions.HandleFunc("/undo", sessionHandler.Undo).Methods(http.MethodPost)
	sessions.HandleFunc("/redo", sessionHandler.Redo).Methods(http.MethodPost)
	sessions.HandleFunc("/reset", sessionHandler.Reset).Methods(http.MethodPost)
	sessions.HandleFunc("/events", sessionHandler.Events).Methods(http.MethodGet)

	// Realtime channel
	r.Handle("/ws", wsHandler).Methods(http.MethodGet)

	// Health check endpoint
	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError("Not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	return r
}
