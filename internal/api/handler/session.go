package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/signedchess/internal/api/apierr"
	"github.com/mcoot/signedchess/internal/api/request"
	"github.com/mcoot/signedchess/internal/api/response"
	"github.com/mcoot/signedchess/internal/model"
	"github.com/mcoot/signedchess/internal/realtime"
	"github.com/mcoot/signedchess/internal/services/session"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	engine      *session.Engine
	broadcaster *realtime.Broadcaster
	logger      *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(engine *session.Engine, broadcaster *realtime.Broadcaster, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		engine:      engine,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["id"])
}

// Create handles POST /session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	s, err := h.engine.Create(r.Context(), req.WhitePublicKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.Created(s))
}

// Get handles GET /session/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Get(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Session(w, s)
}

// Join handles POST /session/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	s, err := h.engine.Join(r.Context(), sessionID(r), req.BlackPublicKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Session(w, s)
}

// Move handles POST /session/{id}/move
func (h *SessionHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	s, err := h.engine.SubmitMove(r.Context(), sessionID(r), req.Move, req.PublicKey, req.Signature)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Session(w, s)
}

// Undo handles POST /session/{id}/undo
func (h *SessionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Undo(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Session(w, s)
}

// Redo handles POST /session/{id}/redo
func (h *SessionHandler) Redo(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Redo(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Session(w, s)
}

// Reset handles POST /session/{id}/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Reset(r.Context(), sessionID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Session(w, s)
}

// Events handles GET /session/{id}/events as a server-sent event stream
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	err := realtime.ServeSSE(w, r, h.broadcaster, sessionID(r))
	if err == nil {
		return
	}
	if errors.Is(err, realtime.ErrStreamingUnsupported) {
		h.logger.Error("sse not supported by response writer")
		WriteError(w, apierr.NewInternalError())
		return
	}
	WriteError(w, err)
}

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{OK: true})
}
