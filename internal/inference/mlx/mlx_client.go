// Package mlx talks to a local mlx-vlm sidecar that hosts the DocTags model.
// The sidecar exposes one JSON endpoint: POST /generate with a prompt and a
// base64 page image, answering with the generated tag text.
package mlx

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docstruct/internal/config"
	"docstruct/internal/inference"
	"docstruct/internal/port"
)

const closeTag = "</doctag>"

// Client implements port.PageInference against the mlx-vlm sidecar.
type Client struct {
	endpoint   string
	token      string
	model      string
	maxRetries int
	client     *http.Client
}

// NewClient creates an mlx sidecar client.
func NewClient(cfg *config.InferenceProviderConfig) *Client {
	return newClient(cfg, "")
}

// NewClientWithEndpoint creates a client pointing at a custom endpoint (for testing).
func NewClientWithEndpoint(cfg *config.InferenceProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.InferenceProviderConfig, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if endpoint == "" {
		endpoint = strings.TrimSuffix(cfg.BaseURL, "/") + "/generate"
	}
	return &Client{
		endpoint:   endpoint,
		token:      cfg.APIKey,
		model:      cfg.Model,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	ImageB64  string `json:"image_b64"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// Infer sends the page image to the sidecar. An empty generation is retried
// a few times before failing; the model occasionally stalls on the first
// token after a cold start.
func (c *Client) Infer(ctx context.Context, input port.InferInput) (*port.InferOutput, error) {
	var lastText string
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, model, err := c.generate(ctx, input)
		if err != nil {
			return nil, err
		}
		lastText = text
		if strings.TrimSpace(text) != "" {
			if model == "" {
				model = c.model
			}
			return &port.InferOutput{TagText: truncateAtClose(text), ModelUsed: model}, nil
		}
		if attempt < c.maxRetries {
			time.Sleep(200 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("empty generation after %d attempts (last %q)", c.maxRetries, lastText)
}

func (c *Client) generate(ctx context.Context, input port.InferInput) (string, string, error) {
	reqBody := generateRequest{
		Prompt:    input.Prompt,
		ImageB64:  base64.StdEncoding.EncodeToString(input.ImageBytes),
		MaxTokens: input.MaxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("calling mlx sidecar: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs := inference.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return "", "", inference.NewRateLimitError("mlx", fmt.Errorf("status 429"), secs)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", "", fmt.Errorf("mlx sidecar error (status %d): %s", resp.StatusCode, string(data))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", "", fmt.Errorf("decoding response: %w", err)
	}
	return parsed.Text, parsed.Model, nil
}

// truncateAtClose cuts the generation at the closing doctag; some runs keep
// sampling past it.
func truncateAtClose(text string) string {
	if idx := strings.Index(text, closeTag); idx >= 0 {
		return text[:idx+len(closeTag)]
	}
	return text
}
