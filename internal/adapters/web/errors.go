package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"desathor/internal/app"
	"desathor/internal/config"
	"desathor/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps ApplicationService errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	switch {
	case errors.Is(err, core.ErrMissingInput):
		writeError(w, r, err.Error(), "MISSING_INPUT", http.StatusBadRequest)
	case errors.Is(err, app.ErrSessionNotFound):
		writeError(w, r, "session expired, please log in again", "SESSION_EXPIRED", http.StatusUnauthorized)
	case errors.Is(err, app.ErrRunNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, app.ErrForbidden):
		writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
	default:
		config.LogError(h.logger, "web", funcName, r.URL.Path, map[string]string{"request_id": requestIDFromContext(r.Context())}, err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
