package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// finishReasonFiltered is how the API reports a safety-filter block
	finishReasonFiltered = "CONTENT_FILTERED"

	defaultTimeout = 60 * time.Second
)

// Config holds the image generation backend configuration
type Config struct {
	Endpoint string // e.g. https://api.stability.ai
	APIKey   string
	Engine   string // e.g. stable-diffusion-v1-6
	Timeout  time.Duration
}

// StabilityClient renders phrases through the Stability text-to-image API
type StabilityClient struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewStabilityClient creates a client for the configured backend
func NewStabilityClient(cfg Config, logger *slog.Logger) *StabilityClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &StabilityClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type generateRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	Samples     int          `json:"samples"`
}

type textPrompt struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Artifacts []artifact `json:"artifacts"`
}

type artifact struct {
	Base64       string `json:"base64"`
	FinishReason string `json:"finishReason"`
}

// Render implements domain.Renderer. It returns the raw image bytes for the
// phrase, ErrContentRejected when the safety filter blocks it, or a
// transport error.
func (c *StabilityClient) Render(ctx context.Context, phrase string) ([]byte, error) {
	body, err := json.Marshal(&generateRequest{
		TextPrompts: []textPrompt{{Text: phrase}},
		Samples:     1,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.cfg.Endpoint, c.cfg.Engine)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("render backend returned %d: %s", resp.StatusCode, msg)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding render response: %w", err)
	}

	for _, a := range decoded.Artifacts {
		if a.FinishReason == finishReasonFiltered {
			return nil, ErrContentRejected
		}
		if a.Base64 == "" {
			continue
		}
		img, err := base64.StdEncoding.DecodeString(a.Base64)
		if err != nil {
			return nil, fmt.Errorf("decoding render artifact: %w", err)
		}
		c.logger.Debug("phrase rendered",
			"bytes", len(img),
			"duration", time.Since(start),
		)
		return img, nil
	}

	return nil, fmt.Errorf("render response contained no image artifact")
}
