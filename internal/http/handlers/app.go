package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"socialgen/internal/domain"
	"socialgen/internal/infra"
	"socialgen/internal/providers/genai"
	"socialgen/internal/storage"
)

// Gateway is the generative capability the handlers depend on. A nil
// ImageResult with a nil error means the upstream produced no usable
// artifact; handlers translate that into a gateway-failure response.
type Gateway interface {
	GenerateImage(ctx context.Context, prompt, style string) (*genai.ImageResult, error)
	EditImage(ctx context.Context, data []byte, mimeType, editPrompt string) (*genai.ImageResult, error)
	Caption(ctx context.Context, data []byte, mimeType, platform, tone string) (string, error)
}

// App bundles the handlers' collaborators. The gateway client and store are
// constructed once at process start and shared read-only across requests.
type App struct {
	Config  *infra.Config
	Logger  infra.Logger
	Store   *storage.Store
	Gateway Gateway
}

func NewApp(cfg *infra.Config, logger infra.Logger, store *storage.Store, gateway Gateway) *App {
	return &App{Config: cfg, Logger: logger, Store: store, Gateway: gateway}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// fail maps a taxonomy error onto its HTTP status. Anything outside the
// taxonomy is an internal failure.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "File not found")
	case errors.Is(err, domain.ErrInvalidFilename):
		a.error(w, http.StatusBadRequest, "Invalid filename")
	case errors.Is(err, domain.ErrInvalidBucket):
		a.error(w, http.StatusBadRequest, "Invalid folder")
	case errors.Is(err, domain.ErrInvalidImage):
		a.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, err.Error())
	default:
		a.Logger.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, err.Error())
	}
}

type artifactResponse struct {
	Success     bool   `json:"success"`
	ImagePath   string `json:"image_path"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}

func (a *App) artifact(w http.ResponseWriter, art *storage.Artifact, message string) {
	a.json(w, http.StatusOK, artifactResponse{
		Success:     true,
		ImagePath:   art.ImagePath(),
		DownloadURL: art.DownloadURL(),
		Message:     message,
	})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Social Media Generator API is running",
	})
}
