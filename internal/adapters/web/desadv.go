package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"desathor/internal/app"
	"desathor/internal/desadv"
)

// checkDESADV handles POST /api/desadv/check. The optional JSON body {"date":"dd/mm/yyyy"}
// selects the delivery day; without it tomorrow is checked.
func (h *Handler) checkDESADV(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil || !claims.WebAccess {
		h.writeServiceError(w, r, "checkDESADV", app.ErrForbidden)
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "read body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	var day time.Time
	if req.Date != "" {
		day, err = desadv.ParseDay(req.Date)
		if err != nil {
			writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}

	rep, err := h.svc.CheckDESADV(r.Context(), claims.SessionID, day)
	if err != nil {
		h.writeServiceError(w, r, "checkDESADV", err)
		return
	}
	writeJSON(w, rep)
}

// clearDESADV handles DELETE /api/desadv.
func (h *Handler) clearDESADV(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearDESADV(r.Context(), sessionID(r)); err != nil {
		h.writeServiceError(w, r, "clearDESADV", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
