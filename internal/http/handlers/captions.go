package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"socialgen/internal/transform"
)

type captionRequest struct {
	ImagePath    string `json:"image_path"`
	Platform     string `json:"platform"`
	Tone         string `json:"tone"`
	CustomPrompt string `json:"custom_prompt"`
}

type captionResponse struct {
	Success bool   `json:"success"`
	Caption string `json:"caption"`
	Message string `json:"message"`
}

// GenerateCaption captions an existing artifact. The image is verified to be
// decodable locally before any gateway call; the gateway guarantees a
// non-empty caption.
func (a *App) GenerateCaption(w http.ResponseWriter, r *http.Request) {
	a.caption(w, r, false, "Caption generated successfully")
}

// RegenerateCaption re-captions with different parameters; a custom prompt,
// when present, replaces the tone.
func (a *App) RegenerateCaption(w http.ResponseWriter, r *http.Request) {
	a.caption(w, r, true, "Caption regenerated successfully")
}

func (a *App) caption(w http.ResponseWriter, r *http.Request, allowCustomPrompt bool, message string) {
	var req captionRequest
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
		platform = "general"
	}
	tone := req.Tone
	if tone == "" {
		tone = "engaging"
	}
	if allowCustomPrompt && req.CustomPrompt != "" {
		tone = req.CustomPrompt
	}

	f, err := a.Store.OpenLegacy(req.ImagePath)
	if err != nil {
		a.fail(w, err)
		return
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Failed to read image")
		return
	}
	if err := transform.Decodable(data); err != nil {
		a.fail(w, err)
		return
	}

	caption, err := a.Gateway.Caption(r.Context(), data, f.ContentType, platform, tone)
	if err != nil {
		a.Logger.Error().Err(err).Str("image_path", req.ImagePath).Msg("caption generation failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.json(w, http.StatusOK, captionResponse{
		Success: true,
		Caption: caption,
		Message: message,
	})
}
