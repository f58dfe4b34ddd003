package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// RouterOptions configures NewRouter. Metrics and MetricsHandler are optional.
type RouterOptions struct {
	Logger         *slog.Logger
	Metrics        RequestObserver
	MetricsHandler http.Handler
}

// NewRouter mounts the tool endpoints, /stats and /healthz behind the
// standard middleware stack.
func NewRouter(h *ToolsHandler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(MetricsMiddleware(opts.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler)
	}

	r.Mount("/tools", h.Routes())
	r.Get("/stats", h.Stats)

	return r
}
