package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factcheck/internal/resilience"
)

func TestAnthropicClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-5", req["model"])
		system := req["system"].([]any)
		assert.Equal(t, "rubric", system[0].(map[string]any)["text"])

		msgs := req["messages"].([]any)
		content := msgs[0].(map[string]any)["content"].([]any)
		require.Len(t, content, 2)
		img := content[0].(map[string]any)
		assert.Equal(t, "image", img["type"])
		src := img["source"].(map[string]any)
		assert.Equal(t, "image/jpeg", src["media_type"])
		assert.Equal(t, "QUJD", src["data"])
		assert.Equal(t, "text", content[1].(map[string]any)["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "looks real"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 40, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", option.WithBaseURL(srv.URL))
	resp, err := c.Complete(context.Background(), Request{
		Model:        "claude-sonnet-4-5",
		System:       "rubric",
		User:         "analyze",
		ImageDataURL: "data:image/jpeg;base64,QUJD",
	})

	require.NoError(t, err)
	assert.Equal(t, "looks real", resp.Content)
	assert.Equal(t, int64(40), resp.Usage.InputTokens)
}

func TestAnthropicClient_Complete_ServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "busy"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", option.WithBaseURL(srv.URL))
	_, err := c.Complete(context.Background(), Request{Model: "m", User: "u"})

	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnthropicClient_Complete_BadDataURL(t *testing.T) {
	c := NewAnthropicClient("test-key", option.WithBaseURL("http://127.0.0.1:0"))
	_, err := c.Complete(context.Background(), Request{Model: "m", User: "u", ImageDataURL: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a data url")
}
