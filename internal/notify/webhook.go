package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ai-image-service/internal/models"
)

// WebhookChannel makes a best-effort POST to the backend progress callback.
// Only progress events are forwarded; everything else is a silent success.
type WebhookChannel struct {
	client *http.Client
	url    string
}

// NewWebhook builds the channel for the given backend base URL.
func NewWebhook(baseURL string, timeout time.Duration) *WebhookChannel {
	if timeout == 0 {
		timeout = time.Second
	}
	return &WebhookChannel{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(baseURL, "/") + "/api/internal/progress",
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

// Send fires the progress callback and swallows any transport failure.
func (c *WebhookChannel) Send(ctx context.Context, ev models.Event) bool {
	progress, ok := ev.(models.ProgressEvent)
	if !ok {
		return true
	}

	body, err := json.Marshal(map[string]any{
		"user_id":  progress.UserID,
		"job_id":   progress.JobID,
		"progress": progress.Percent,
		"message":  progress.Message,
	})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Debug("webhook progress post failed", "job_id", progress.JobID, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode < http.StatusBadRequest
}
