package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/signedchess/internal/model"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid request", fmt.Errorf("%w: move is required", model.ErrInvalidRequest), http.StatusBadRequest, CodeInvalidRequest},
		{"not found", model.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
		{"full", model.ErrSessionFull, http.StatusForbidden, CodeSessionFull},
		{"unauthorized", fmt.Errorf("%w: signature does not verify", model.ErrUnauthorized), http.StatusForbidden, CodeUnauthorized},
		{"rejected", fmt.Errorf("%w: ply 1 \"e5\"", model.ErrMoveRejected), http.StatusUnprocessableEntity, CodeMoveRejected},
		{"forbidden", model.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"nothing to redo", model.ErrNothingToRedo, http.StatusBadRequest, CodeNothingToRedo},
		{"conflict", model.ErrConflict, http.StatusConflict, CodeConflict},
		{"external", fmt.Errorf("%w: timeout", model.ErrExternalFailure), http.StatusBadGateway, CodeExternalFailure},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternalError},
		{"explicit", NewInvalidRequestError("bad json"), http.StatusBadRequest, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus, Status(tt.err))
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.False(t, body.OK)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestInternalErrorsHideDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("redis: connection refused at 10.0.0.3"))

	assert.NotContains(t, rr.Body.String(), "10.0.0.3")
}
