package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"desathor/internal/app"
	"desathor/internal/config"
	"desathor/internal/core"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// createRun handles POST /api/runs: multipart fields orders, deliveries and hide_unmatched.
func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeError(w, r, "upload too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "upload too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "invalid multipart body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	orders, err := readDocuments(r.MultipartForm.File["orders"])
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	deliveries, err := readDocuments(r.MultipartForm.File["deliveries"])
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	hide := true
	if v := r.FormValue("hide_unmatched"); v != "" {
		hide = config.ParseBool(v)
	}

	run, err := h.svc.RunComparison(r.Context(), sessionID(r), app.CompareRequest{
		Orders:        orders,
		Deliveries:    deliveries,
		HideUnmatched: hide,
	})
	if err != nil {
		h.writeServiceError(w, r, "createRun", err)
		return
	}
	w.Header().Set("Location", "/api/runs/"+run.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, run)
}

func readDocuments(files []*multipart.FileHeader) ([]core.Document, error) {
	docs := make([]core.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		docs = append(docs, core.Document{Name: fh.Filename, Data: data})
	}
	return docs, nil
}

// listRuns handles GET /api/runs.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	hist, err := h.svc.History(r.Context(), sessionID(r))
	if err != nil {
		h.writeServiceError(w, r, "listRuns", err)
		return
	}
	writeJSON(w, hist)
}

// clearRuns handles DELETE /api/runs.
func (h *Handler) clearRuns(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearHistory(r.Context(), sessionID(r)); err != nil {
		h.writeServiceError(w, r, "clearRuns", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) latestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context(), sessionID(r))
	if err != nil {
		h.writeServiceError(w, r, "latestRun", err)
		return
	}
	writeJSON(w, run)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetRun(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "getRun", err)
		return
	}
	writeJSON(w, run)
}

// exportRun handles GET /api/runs/{id}/export. The id "latest" exports the most recent run.
func (h *Handler) exportRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "latest" {
		id = ""
	}
	var buf bytes.Buffer
	name, err := h.svc.ExportRun(r.Context(), sessionID(r), id, &buf)
	if err != nil {
		h.writeServiceError(w, r, "exportRun", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// resetSession handles POST /api/session/reset.
func (h *Handler) resetSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetSession(r.Context(), sessionID(r)); err != nil {
		h.writeServiceError(w, r, "resetSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
