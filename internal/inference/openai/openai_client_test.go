package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstruct/internal/config"
	"docstruct/internal/inference"
	"docstruct/internal/port"
)

func testConfig() *config.InferenceProviderConfig {
	return &config.InferenceProviderConfig{
		Provider:    "openai",
		APIKey:      "sk-test",
		Model:       "smoldocling-256m",
		TimeoutSecs: 5,
	}
}

func completionBody(content string) string {
	return `{"model":"smoldocling-256m-v2","choices":[{"message":{"content":"` + content + `"},"finish_reason":"stop"}]}`
}

func TestInfer_Success(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(completionBody("<doctag><text>parsed</text></doctag>")))
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	out, err := client.Infer(context.Background(), port.InferInput{
		ImageBytes:  []byte("img"),
		ContentType: "image/jpeg",
		Prompt:      "Convert this page to docling.",
		MaxTokens:   4096,
	})
	require.NoError(t, err)

	assert.Equal(t, "<doctag><text>parsed</text></doctag>", out.TagText)
	assert.Equal(t, "smoldocling-256m-v2", out.ModelUsed)
	assert.Equal(t, "smoldocling-256m", gotBody["model"])

	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 1)
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 2)
	imagePart := content[0].(map[string]interface{})
	assert.Equal(t, "image_url", imagePart["type"])
	url := imagePart["image_url"].(map[string]interface{})["url"].(string)
	assert.Contains(t, url, "data:image/jpeg;base64,")
}

func TestInfer_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestInfer_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("   ")))
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestInfer_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "15")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)

	var rlErr *inference.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "openai", rlErr.Provider)
	assert.Equal(t, float64(15), rlErr.RetryAfter.Seconds())
}

func TestInfer_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
