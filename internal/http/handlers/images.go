package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"

	"socialgen/internal/storage"
	"socialgen/internal/transform"
)

type generateImageRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// GenerateImage turns a text prompt into a stored artifact in the generated
// bucket. Validation happens before any gateway call.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	style := req.Style
	if style == "" {
		style = "realistic"
	}

	result, err := a.Gateway.GenerateImage(r.Context(), req.Prompt, style)
	if err != nil {
		a.Logger.Error().Err(err).Msg("image generation failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		a.error(w, http.StatusInternalServerError, "Failed to generate image")
		return
	}

	art, err := a.Store.SaveGenerated(0, result.MimeType, result.Data)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.artifact(w, art, "Image generated successfully")
}

// UploadImage stores a multipart upload under the uploads bucket.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		a.error(w, http.StatusBadRequest, "No file selected")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	art, err := a.Store.SaveUpload(header.Filename, data)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.artifact(w, art, "Image uploaded successfully")
}

type editImageRequest struct {
	ImagePath  string `json:"image_path"`
	EditPrompt string `json:"edit_prompt"`
}

// EditImage sends an existing artifact through the gateway with an edit
// prompt and stores the result as a new artifact. The source is immutable.
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	var req editImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.ImagePath == "" || req.EditPrompt == "" {
		a.error(w, http.StatusBadRequest, "Image path and edit prompt are required")
		return
	}

	f, err := a.Store.OpenLegacy(req.ImagePath)
	if err != nil {
		a.fail(w, err)
		return
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to read source image")
		return
	}

	result, err := a.Gateway.EditImage(r.Context(), data, f.ContentType, req.EditPrompt)
	if err != nil {
		a.Logger.Error().Err(err).Str("image_path", req.ImagePath).Msg("image edit failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result == nil {
		a.error(w, http.StatusInternalServerError, "Failed to edit image")
		return
	}

	art, err := a.Store.SaveEdited(0, result.MimeType, result.Data)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.artifact(w, art, "Image edited successfully")
}

type resizeImageRequest struct {
	ImagePath string `json:"image_path"`
	Platform  string `json:"platform"`
}

// ResizeImage produces a platform-sized, padded JPEG as a new artifact.
func (a *App) ResizeImage(w http.ResponseWriter, r *http.Request) {
	var req resizeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.ImagePath == "" {
		a.error(w, http.StatusBadRequest, "Image path is required")
		return
	}
	platform := req.Platform
	if platform == "" {
		platform = "instagram"
	}

	f, err := a.Store.OpenLegacy(req.ImagePath)
	if err != nil {
		a.fail(w, err)
		return
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to read source image")
		return
	}

	resized, err := transform.ResizeForPlatform(data, platform)
	if err != nil {
		a.fail(w, err)
		return
	}

	art, err := a.Store.SaveResized(resized)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.artifact(w, art, fmt.Sprintf("Image resized for %s", platform))
}

// DownloadImage is the stable two-segment download endpoint.
func (a *App) DownloadImage(w http.ResponseWriter, r *http.Request) {
	bucket, err := storage.ParseBucket(routeParam(r, "bucket"))
	if err != nil {
		a.fail(w, err)
		return
	}
	f, err := a.Store.Open(bucket, routeParam(r, "filename"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.serveArtifact(w, r, f)
}

// DownloadImageLegacy accepts pre-bucket-scheme paths: either separator
// convention, with or without a bucket prefix.
func (a *App) DownloadImageLegacy(w http.ResponseWriter, r *http.Request) {
	f, err := a.Store.OpenLegacy(routeParam(r, "*"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.serveArtifact(w, r, f)
}

// routeParam returns a chi URL parameter in unescaped form. chi leaves
// percent-encoding in place when the request carried a RawPath, which is
// exactly how legacy backslash-separated paths arrive.
func routeParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

func (a *App) serveArtifact(w http.ResponseWriter, r *http.Request, f *storage.File) {
	file, err := os.Open(f.Path)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to open file")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to stat file")
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	http.ServeContent(w, r, f.Filename, info.ModTime(), file)
}
