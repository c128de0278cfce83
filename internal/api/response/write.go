package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/signedchess/internal/model"
)

// JSON writes data with the given status. Session state changes with every
// move, so no response is cacheable.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Session writes the state of s after a successful read or mutation
func Session(w http.ResponseWriter, s *model.Session) {
	JSON(w, http.StatusOK, Of(s))
}
