package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-image-service/internal/models"
)

// HTTPGenerator drives a remote inference server over its /generate endpoint.
// The call is synchronous and long; progress granularity is whatever the
// remote reports, which for a plain POST is start and finish.
type HTTPGenerator struct {
	client  *http.Client
	baseURL string
}

// NewHTTPGenerator builds a client for the given inference server.
func NewHTTPGenerator(baseURL string, timeout time.Duration) *HTTPGenerator {
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	return &HTTPGenerator{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type generateResponse struct {
	Status    string         `json:"status"`
	ImageData string         `json:"image_data"`
	Metadata  map[string]any `json:"metadata"`
	Error     string         `json:"error"`
}

// Generate posts the params and decodes the completed/failed response body.
func (g *HTTPGenerator) Generate(ctx context.Context, params models.GenerationParams, onProgress ProgressFunc) (models.GenerationResult, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return models.GenerationResult{}, fmt.Errorf("marshal params: %w", err)
	}

	if onProgress != nil {
		onProgress(0, "dispatched to inference server")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return models.GenerationResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return models.GenerationResult{}, fmt.Errorf("call inference server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024*1024))
	if err != nil {
		return models.GenerationResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return models.GenerationResult{}, fmt.Errorf("inference server status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.GenerationResult{}, fmt.Errorf("decode response: %w", err)
	}
	if out.Status != models.StatusCompleted {
		if out.Error == "" {
			out.Error = "image generation failed"
		}
		return models.GenerationResult{}, errors.New(out.Error)
	}

	png, err := base64.StdEncoding.DecodeString(out.ImageData)
	if err != nil {
		return models.GenerationResult{}, fmt.Errorf("decode image data: %w", err)
	}

	if onProgress != nil {
		onProgress(100, "generation complete")
	}
	return models.GenerationResult{ImagePNG: png, Metadata: out.Metadata}, nil
}
