package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"memoria/internal/http/handlers"
	"memoria/internal/infra"
	"memoria/internal/middleware"
)

// NewRouter assembles the HTTP surface exposed to the platform's edge layer.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Auth-Subject", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Identity)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/pets/{pet_id}/videos", app.VideosGenerate)
		r.Get("/videos", app.VideosList)
		r.Get("/videos/{job_id}", app.VideoStatus)
	})

	return r
}
