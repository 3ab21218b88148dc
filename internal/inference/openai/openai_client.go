// Package openai implements page inference against an OpenAI-compatible
// chat-completions endpoint, the API surface vLLM exposes when it hosts the
// DocTags model.
package openai

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

// Client implements port.PageInference over chat completions.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewClient creates an OpenAI-compatible inference client.
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
	if endpoint == "" {
		endpoint = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/chat/completions"
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Infer(ctx context.Context, input port.InferInput) (*port.InferOutput, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", input.ContentType, base64.StdEncoding.EncodeToString(input.ImageBytes))

	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type":      "image_url",
						"image_url": map[string]interface{}{"url": dataURL},
					},
					{
						"type": "text",
						"text": input.Prompt,
					},
				},
			},
		},
		"max_tokens":  input.MaxTokens,
		"temperature": 0.0,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat completions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		secs := inference.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return nil, inference.NewRateLimitError("openai", fmt.Errorf("status 429"), secs)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completions error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return parseResponse(respBody, c.model)
}

// chatResponse models the completions response.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, fallbackModel string) (*port.InferOutput, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("empty response from API: no content")
	}
	model := resp.Model
	if model == "" {
		model = fallbackModel
	}
	return &port.InferOutput{TagText: text, ModelUsed: model}, nil
}
