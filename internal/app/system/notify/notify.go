// Package notify posts upload events to the back-office system.
//
// Notification is strictly best-effort: failures are logged and swallowed so
// the primary action (the upload) succeeds or fails independently of the
// back office being reachable. An unset base URL disables the client.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// UploadEvent describes one completed customer upload.
type UploadEvent struct {
	ProjectID  string `json:"project_id"`
	FilePath   string `json:"file_path"`
	FolderPath string `json:"folder_path"`
	FileName   string `json:"file_name"`
	IsReport   bool   `json:"is_report"`
}

// Client posts events to the admin notification endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a notification client. An empty baseURL yields a disabled
// client whose methods are no-ops.
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// Enabled reports whether a notification endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// UploadCompleted posts an upload event. Errors are logged, never returned;
// callers fire this from a goroutine after the upload has been committed.
func (c *Client) UploadCompleted(ctx context.Context, ev UploadEvent) {
	if !c.Enabled() {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		c.logger.Warn("failed to encode upload notification", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/portal/upload-events", bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("failed to build upload notification request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upload notification failed",
			zap.String("project_id", ev.ProjectID),
			zap.String("file_name", ev.FileName),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("upload notification rejected",
			zap.String("project_id", ev.ProjectID),
			zap.String("file_name", ev.FileName),
			zap.Int("status", resp.StatusCode))
		return
	}

	c.logger.Debug("upload notification delivered",
		zap.String("project_id", ev.ProjectID),
		zap.String("file_name", ev.FileName))
}
