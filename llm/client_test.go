package llm_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/prodtrap/llm"
	_ "github.com/c360studio/prodtrap/llm/providers"
	"github.com/c360studio/prodtrap/model"
)

// fastRetry removes the backoff delays so retry tests run instantly.
func fastRetry() llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 1.0,
		MaxBackoff:        time.Millisecond,
	}
}

func singleEndpointRegistry(url string) *model.Registry {
	return model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityReviewing: {Preferred: []string{"test"}},
		},
		map[string]*model.EndpointConfig{
			"test": {Provider: "ollama", URL: url, Model: "test-model"},
		},
	)
}

func completionBody(content string) string {
	return fmt.Sprintf(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, content)
}

func reviewRequest() llm.Request {
	return llm.Request{
		Capability: "reviewing",
		Messages:   []llm.Message{{Role: "user", Content: "review this"}},
	}
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		fmt.Fprint(w, completionBody("looks good"))
	}))
	defer server.Close()

	client := llm.NewClient(singleEndpointRegistry(server.URL+"/v1"),
		llm.WithRetryConfig(fastRetry()))

	resp, err := client.Complete(context.Background(), reviewRequest())
	require.NoError(t, err)

	assert.Equal(t, "looks good", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.NotEmpty(t, resp.RequestID)
}

func TestCompleteValidation(t *testing.T) {
	client := llm.NewClient(model.NewDefaultRegistry())

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	assert.Error(t, err, "capability is required")

	_, err = client.Complete(context.Background(), llm.Request{Capability: "reviewing"})
	assert.Error(t, err, "at least one message is required")
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, completionBody("recovered"))
	}))
	defer server.Close()

	client := llm.NewClient(singleEndpointRegistry(server.URL+"/v1"),
		llm.WithRetryConfig(fastRetry()))

	resp, err := client.Complete(context.Background(), reviewRequest())
	require.NoError(t, err)

	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteRateLimitIsTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, completionBody("after backoff"))
	}))
	defer server.Close()

	client := llm.NewClient(singleEndpointRegistry(server.URL+"/v1"),
		llm.WithRetryConfig(fastRetry()))

	resp, err := client.Complete(context.Background(), reviewRequest())
	require.NoError(t, err)

	assert.Equal(t, "after backoff", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteFatalErrorStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := llm.NewClient(singleEndpointRegistry(server.URL+"/v1"),
		llm.WithRetryConfig(fastRetry()))

	_, err := client.Complete(context.Background(), reviewRequest())
	require.Error(t, err)

	assert.True(t, llm.IsFatal(err))
	assert.Equal(t, int32(1), calls.Load(), "fatal errors are not retried")
}

func TestCompleteFallsBackToNextEndpoint(t *testing.T) {
	var primaryCalls, fallbackCalls atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		primaryCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fallbackCalls.Add(1)
		fmt.Fprint(w, completionBody("fallback wins"))
	}))
	defer fallback.Close()

	registry := model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityReviewing: {
				Preferred: []string{"primary"},
				Fallback:  []string{"secondary"},
			},
		},
		map[string]*model.EndpointConfig{
			"primary":   {Provider: "ollama", URL: primary.URL + "/v1", Model: "test-model"},
			"secondary": {Provider: "ollama", URL: fallback.URL + "/v1", Model: "test-model"},
		},
	)

	client := llm.NewClient(registry, llm.WithRetryConfig(fastRetry()))

	resp, err := client.Complete(context.Background(), reviewRequest())
	require.NoError(t, err)

	assert.Equal(t, "fallback wins", resp.Content)
	assert.Equal(t, int32(3), primaryCalls.Load(), "primary exhausts its retries first")
	assert.Equal(t, int32(1), fallbackCalls.Load())
}

func TestCompleteAllEndpointsFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := llm.NewClient(singleEndpointRegistry(server.URL+"/v1"),
		llm.WithRetryConfig(fastRetry()))

	_, err := client.Complete(context.Background(), reviewRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all endpoints failed")
}

func TestCompleteTemperatureForwarded(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer server.Close()

	client := llm.NewClient(singleEndpointRegistry(server.URL+"/v1"),
		llm.WithRetryConfig(fastRetry()))

	temperature := 0.3
	req := reviewRequest()
	req.Temperature = &temperature

	_, err := client.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, string(gotBody), `"temperature":0.3`)
}
