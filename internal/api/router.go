package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/mdtree/internal/fileservice"
)

// Options tunes the server handler.
type Options struct {
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler
	// RequestLog enables chi's request logger.
	RequestLog bool
}

// NewRouter creates a chi router with the /files routes.
func NewRouter(svc *fileservice.Service, events http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/files", h.ListFiles)
	r.Post("/files", h.CreateFile)
	r.Put("/files/{id}", h.UpdateFile)
	r.Delete("/files/{id}", h.DeleteFile)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}
	return r
}

// NewServer builds the root handler: CORS, preflight short-circuit, panic
// recovery, health checks and the API mounted under /api.
func NewServer(svc *fileservice.Service, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(Recover)
	r.Use(CORS())
	r.Use(Preflight)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	health := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", NewRouter(svc, opts.Events))
	return r
}
