package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/signedchess/internal/model"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeSessionFull      = "SESSION_FULL"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeMoveRejected     = "MOVE_REJECTED"
	CodeForbidden        = "FORBIDDEN"
	CodeNothingToRedo    = "NOTHING_TO_REDO"
	CodeConflict         = "CONFLICT"
	CodeExternalFailure  = "EXTERNAL_FAILURE"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an error code and message
type httpError struct {
	status  int
	code    string
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{OK: false, Error: he.message, Code: he.code})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError. Messages of client errors
// keep the wrapped detail; server errors are reported generically.
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return &httpError{http.StatusBadRequest, CodeInvalidRequest, err.Error()}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, CodeSessionNotFound, "Session not found"}
	case errors.Is(err, model.ErrSessionFull):
		return &httpError{http.StatusForbidden, CodeSessionFull, "Session is already full"}
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusForbidden, CodeUnauthorized, err.Error()}
	case errors.Is(err, model.ErrMoveRejected):
		return &httpError{http.StatusUnprocessableEntity, CodeMoveRejected, err.Error()}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, CodeForbidden, err.Error()}
	case errors.Is(err, model.ErrNothingToRedo):
		return &httpError{http.StatusBadRequest, CodeNothingToRedo, "No moves to redo"}
	case errors.Is(err, model.ErrConflict):
		return &httpError{http.StatusConflict, CodeConflict, "Session was modified concurrently, retry"}
	case errors.Is(err, model.ErrExternalFailure):
		return &httpError{http.StatusBadGateway, CodeExternalFailure, "Move history authority failed"}
	default:
		return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, CodeInvalidRequest, message}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError(message string) error {
	return &httpError{http.StatusNotFound, CodeNotFound, message}
}

// NewMethodNotAllowedError creates an error for a known route with the wrong method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed"}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}
