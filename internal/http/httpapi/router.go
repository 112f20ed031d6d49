package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"socialgen/internal/http/handlers"
	"socialgen/internal/infra"
	"socialgen/internal/middleware"
)

func NewRouter(app *handlers.App, logger infra.Logger, cfg *infra.Config) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if cfg.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
	}

	r.Get("/api/health", app.Health)

	r.Route("/api/images", func(r chi.Router) {
		r.Post("/generate", app.GenerateImage)
		r.Post("/upload", app.UploadImage)
		r.Post("/edit", app.EditImage)
		r.Post("/resize", app.ResizeImage)
		r.Get("/download/{bucket}/{filename}", app.DownloadImage)
		r.Get("/download/*", app.DownloadImageLegacy)
	})

	r.Route("/api/captions", func(r chi.Router) {
		r.Post("/generate", app.GenerateCaption)
		r.Post("/regenerate", app.RegenerateCaption)
	})

	return r
}
