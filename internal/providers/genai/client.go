// Package genai is a lightweight facade over the Gemini generateContent API
// for image generation, image editing and captioning. Responses are decoded
// into a tagged part variant (image, text or empty) so callers never probe
// optional fields.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialgen/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	ImageModel   string
	CaptionModel string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client is a long-lived Gemini facade shared across requests. It holds no
// per-request state; a single instance is constructed at process start and
// passed by reference into handlers.
type Client struct {
	apiKey       string
	baseURL      string
	imageModel   string
	captionModel string
	httpClient   *http.Client
	logger       *infra.Logger
}

// ImageResult carries one artifact returned by the model.
type ImageResult struct {
	Data     []byte
	MimeType string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image-preview"
	}
	captionModel := opts.CaptionModel
	if captionModel == "" {
		captionModel = "gemini-1.5-flash"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		imageModel:   imageModel,
		captionModel: captionModel,
		httpClient:   client,
		logger:       logger,
	}, nil
}

// GenerateImage asks the image model to synthesize one image for the prompt.
// A nil result with a nil error means the model produced no usable artifact;
// that outcome is ordinary, not exceptional.
func (c *Client) GenerateImage(ctx context.Context, prompt, style string) (*ImageResult, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildGeneratePrompt(prompt, style)}},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, c.imageModel, payload, &response); err != nil {
		return nil, err
	}

	result := firstImage(response)
	c.logger.Debug().
		Str("model", c.imageModel).
		Bool("artifact", result != nil).
		Msg("genai: image generation completed")
	return result, nil
}

// EditImage asks the image model to rework an existing image per the edit
// prompt. The source bytes are sent inline; the source itself is untouched.
func (c *Client) EditImage(ctx context.Context, data []byte, mimeType, editPrompt string) (*ImageResult, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: buildEditPrompt(editPrompt)},
				{InlineData: &geminiInlineData{
					MimeType: imageMIME(mimeType),
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, c.imageModel, payload, &response); err != nil {
		return nil, err
	}

	result := firstImage(response)
	c.logger.Debug().
		Str("model", c.imageModel).
		Bool("artifact", result != nil).
		Msg("genai: image edit completed")
	return result, nil
}

// FallbackCaption is returned whenever the caption model yields no
// extractable text. Availability beats accuracy here: callers must always
// receive some caption.
const FallbackCaption = "Captured the moment beautifully. ✨ #photography #aesthetics #moments #inspo"

// Caption asks the caption model to describe an image for a platform and
// tone. The returned text is never empty.
func (c *Client) Caption(ctx context.Context, data []byte, mimeType, platform, tone string) (string, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: buildCaptionPrompt(platform, tone)},
				{InlineData: &geminiInlineData{
					MimeType: imageMIME(mimeType),
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			},
		}},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, c.captionModel, payload, &response); err != nil {
		return "", err
	}

	text := collectText(response)
	if text == "" {
		c.logger.Warn().
			Str("model", c.captionModel).
			Msg("genai: caption response had no text; using fallback")
		return FallbackCaption, nil
	}
	return text, nil
}

// firstImage returns the first non-empty image part across candidates, in
// response order. Later artifacts in a multi-image response are discarded.
func firstImage(response geminiGenerateContentResponse) *ImageResult {
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			value, err := decodePart(part)
			if err != nil {
				continue
			}
			if value.kind == partImage && len(value.data) > 0 {
				return &ImageResult{Data: value.data, MimeType: value.mime}
			}
		}
	}
	return nil
}

func collectText(response geminiGenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			value, err := decodePart(part)
			if err != nil {
				continue
			}
			if value.kind == partText {
				b.WriteString(value.text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

type partKind int

const (
	partEmpty partKind = iota
	partImage
	partText
)

// partValue is the tagged form of a response part.
type partValue struct {
	kind partKind
	data []byte
	mime string
	text string
}

func decodePart(part geminiPart) (partValue, error) {
	if part.InlineData != nil && part.InlineData.Data != "" {
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return partValue{}, fmt.Errorf("decode inline data: %w", err)
		}
		return partValue{kind: partImage, data: data, mime: part.InlineData.MimeType}, nil
	}
	if part.Text != "" {
		return partValue{kind: partText, text: part.Text}, nil
	}
	return partValue{kind: partEmpty}, nil
}

func (c *Client) invoke(ctx context.Context, model string, payload any, out any) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// imageMIME keeps gateway payloads honest when the caller could only infer
// application/octet-stream from an unknown extension.
func imageMIME(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return "image/png"
}
