package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"socialgen/internal/http/handlers"
	"socialgen/internal/infra"
	"socialgen/internal/providers/genai"
	"socialgen/internal/storage"
)

type stubGateway struct {
	generateFn func(ctx context.Context, prompt, style string) (*genai.ImageResult, error)
}

func (s *stubGateway) GenerateImage(ctx context.Context, prompt, style string) (*genai.ImageResult, error) {
	if s.generateFn == nil {
		return nil, errors.New("unexpected GenerateImage call")
	}
	return s.generateFn(ctx, prompt, style)
}

func (s *stubGateway) EditImage(ctx context.Context, data []byte, mimeType, editPrompt string) (*genai.ImageResult, error) {
	return nil, errors.New("unexpected EditImage call")
}

func (s *stubGateway) Caption(ctx context.Context, data []byte, mimeType, platform, tone string) (string, error) {
	return "", errors.New("unexpected Caption call")
}

func newTestServer(t *testing.T) (http.Handler, *handlers.App, *stubGateway) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.New(filepath.Join(root, "uploads"), filepath.Join(root, "generated"))
	if err != nil {
		t.Fatalf("storage.New returned error: %v", err)
	}
	cfg := &infra.Config{
		AppEnv:             "test",
		MaxUploadBytes:     16 << 20,
		CORSAllowedOrigins: []string{"*"},
	}
	gateway := &stubGateway{}
	logger := zerolog.New(io.Discard)
	app := handlers.NewApp(cfg, logger, store, gateway)
	return NewRouter(app, logger, cfg), app, gateway
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := get(t, router, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status field = %q", body["status"])
	}
}

func TestUploadRoundTrip(t *testing.T) {
	router, _, _ := newTestServer(t)
	original := []byte("\x89PNG fake image payload")

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(original); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Success     bool   `json:"success"`
		ImagePath   string `json:"image_path"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false")
	}

	download := get(t, router, resp.DownloadURL)
	if download.Code != http.StatusOK {
		t.Fatalf("download status = %d: %s", download.Code, download.Body)
	}
	if !bytes.Equal(download.Body.Bytes(), original) {
		t.Fatalf("downloaded bytes differ from upload")
	}
	if ct := download.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestGenerateThenDownload(t *testing.T) {
	router, _, gateway := newTestServer(t)
	gateway.generateFn = func(ctx context.Context, prompt, style string) (*genai.ImageResult, error) {
		return &genai.ImageResult{Data: []byte("generated-bytes"), MimeType: "image/jpeg"}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/images/generate",
		strings.NewReader(`{"prompt":"a lighthouse at dusk"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}

	download := get(t, router, resp.DownloadURL)
	if download.Code != http.StatusOK {
		t.Fatalf("download status = %d", download.Code)
	}
	if download.Body.String() != "generated-bytes" {
		t.Fatalf("downloaded bytes = %q", download.Body.String())
	}
}

func TestLegacyDownloadEquivalence(t *testing.T) {
	router, app, _ := newTestServer(t)
	art, err := app.Store.SaveGenerated(0, "image/jpeg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("seed generated artifact: %v", err)
	}

	canonical := get(t, router, "/api/images/download/generated/"+art.Filename)
	if canonical.Code != http.StatusOK {
		t.Fatalf("canonical status = %d", canonical.Code)
	}

	backslash := get(t, router, "/api/images/download/generated%5C"+art.Filename)
	if backslash.Code != http.StatusOK {
		t.Fatalf("backslash status = %d: %s", backslash.Code, backslash.Body)
	}
	if !bytes.Equal(canonical.Body.Bytes(), backslash.Body.Bytes()) {
		t.Fatalf("canonical and legacy responses differ")
	}
}

func TestLegacyDownloadBasenameFallback(t *testing.T) {
	router, app, _ := newTestServer(t)
	art, err := app.Store.SaveGenerated(0, "image/png", []byte("only-in-generated"))
	if err != nil {
		t.Fatalf("seed generated artifact: %v", err)
	}

	rec := get(t, router, "/api/images/download/"+art.Filename)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if rec.Body.String() != "only-in-generated" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestLegacyDownloadUnresolvable(t *testing.T) {
	router, _, _ := newTestServer(t)
	rec := get(t, router, "/api/images/download/nope.jpg")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGenerateMissingPromptThroughRouter(t *testing.T) {
	router, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/images/generate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/images/generate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
