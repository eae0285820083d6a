package server

import (
	"net/http"

	"github.com/coursepilot/coursepilot/internal/api"
	"github.com/coursepilot/coursepilot/internal/api/handlers"
	"github.com/coursepilot/coursepilot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AskHandler          *handlers.AskHandler
	IngestHandler       *handlers.IngestHandler
	EscalationHandler   *handlers.EscalationHandler
	AnnouncementHandler *handlers.AnnouncementHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 10 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ask", cfg.AskHandler.Ask)
	r.Post("/documents", cfg.IngestHandler.Ingest)

	r.Route("/escalations", func(r chi.Router) {
		r.Post("/", cfg.EscalationHandler.Create)
		r.Post("/{id}/response", cfg.EscalationHandler.Respond)
		r.Post("/{id}/resolve", cfg.EscalationHandler.Resolve)
		r.Post("/{id}/reopen", cfg.EscalationHandler.Reopen)
		r.Get("/{id}/suggestion", cfg.EscalationHandler.Suggest)
	})

	r.Route("/courses/{courseID}", func(r chi.Router) {
		r.Get("/escalations", cfg.EscalationHandler.List)
		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", cfg.AnnouncementHandler.List)
			r.Post("/", cfg.AnnouncementHandler.Generate)
		})
	})

	r.Post("/announcements/{id}/publish", cfg.AnnouncementHandler.Publish)

	return r
}
