package mlx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstruct/internal/config"
	"docstruct/internal/inference"
	"docstruct/internal/port"
)

func testConfig() *config.InferenceProviderConfig {
	return &config.InferenceProviderConfig{
		Provider:    "mlx",
		APIKey:      "test-token",
		Model:       "smoldocling-test",
		TimeoutSecs: 5,
		MaxRetries:  3,
	}
}

func TestInfer_Success(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "<doctag><text>hello</text></doctag>", Model: "smoldocling-v1"})
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	out, err := client.Infer(context.Background(), port.InferInput{
		ImageBytes: []byte("image-data"),
		Prompt:     "Convert this page to docling.",
		MaxTokens:  4096,
	})
	require.NoError(t, err)

	assert.Equal(t, "<doctag><text>hello</text></doctag>", out.TagText)
	assert.Equal(t, "smoldocling-v1", out.ModelUsed)
	assert.Equal(t, "Convert this page to docling.", gotReq.Prompt)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("image-data")), gotReq.ImageB64)
	assert.Equal(t, 4096, gotReq.MaxTokens)
}

func TestInfer_TruncatesPastCloseTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "<doctag><text>x</text></doctag>garbage after the end"})
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	out, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, "<doctag><text>x</text></doctag>", out.TagText)
}

func TestInfer_RetriesEmptyGeneration(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		text := ""
		if n >= 2 {
			text = "<doctag><text>second try</text></doctag>"
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Text: text})
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	out, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Contains(t, out.TagText, "second try")
	// Fallback to the configured model name when the sidecar omits it.
	assert.Equal(t, "smoldocling-test", out.ModelUsed)
}

func TestInfer_EmptyGenerationExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(generateResponse{Text: "   "})
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "empty generation")
}

func TestInfer_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)

	var rlErr *inference.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "mlx", rlErr.Provider)
	assert.Equal(t, float64(30), rlErr.RetryAfter.Seconds())
}

func TestInfer_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithEndpoint(testConfig(), srv.URL)
	_, err := client.Infer(context.Background(), port.InferInput{ImageBytes: []byte("img")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
