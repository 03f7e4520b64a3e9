// Package diarize provides the external diarization engine client and
// the post-recording speaker reconciliation pass.
package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"meeting-transcription-service/internal/models"
)

const (
	defaultBaseURL = "http://localhost:8388"
	defaultTimeout = 300 * time.Second
)

// ClientConfig holds diarization engine connection settings.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the diarization sidecar's REST API.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// NewClient creates a diarization client. The HTTP timeout bounds the
// whole engine call; it is not retried.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Health checks whether the diarization engine is reachable.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type diarizeRequest struct {
	FilePath string `json:"file_path"`
}

type diarizeResponse struct {
	Segments    []models.DiarizationSpan `json:"segments"`
	NumSpeakers int                      `json:"num_speakers"`
}

// Diarize submits an audio file on the shared volume and returns the
// engine's speaker spans in temporal order.
func (c *Client) Diarize(ctx context.Context, filePath string) ([]models.DiarizationSpan, error) {
	body, err := json.Marshal(diarizeRequest{FilePath: filePath})
	if err != nil {
		return nil, fmt.Errorf("marshal diarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/diarize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create diarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarize call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("diarize call: status %d: %s", resp.StatusCode, payload)
	}

	var out diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode diarize response: %w", err)
	}
	return out.Segments, nil
}
