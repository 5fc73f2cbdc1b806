package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"desathor/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins []string
	JWTSecret      string
	// MaxUploadBytes caps one multipart run upload.
	MaxUploadBytes int64
	UploadRate     rate.Limit
	UploadBurst    int
	Logger         *logrus.Logger
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	maxUpload int64
	logger    *logrus.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.UploadRate <= 0 {
		opts.UploadRate = 2
	}
	if opts.UploadBurst <= 0 {
		opts.UploadBurst = 5
	}

	h := &Handler{
		svc:       svc,
		jwtSecret: opts.JWTSecret,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger,
	}
	limiter := rate.NewLimiter(opts.UploadRate, opts.UploadBurst)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.With(RequestBodyLimit(1<<20)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Run upload: multipart PDFs, own body limit and rate limit.
		r.With(RateLimit(limiter), RequestBodyLimit(h.maxUpload)).Post("/api/runs", h.createRun)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20))

			r.Get("/api/auth/me", h.me)

			r.Get("/api/runs", h.listRuns)
			r.Delete("/api/runs", h.clearRuns)
			r.Get("/api/runs/latest", h.latestRun)
			r.Get("/api/runs/{id}", h.getRun)
			r.Get("/api/runs/{id}/export", h.exportRun)

			r.Post("/api/session/reset", h.resetSession)

			r.Post("/api/desadv/check", h.checkDESADV)
			r.Delete("/api/desadv", h.clearDESADV)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// sessionID returns the session of the authenticated caller.
func sessionID(r *http.Request) string {
	if c := authFromContext(r.Context()); c != nil {
		return c.SessionID
	}
	return ""
}
