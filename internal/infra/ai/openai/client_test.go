package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/bryanwahyu/repo-audit/internal/domain/ai"
)

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_ReturnsContent(t *testing.T) {
	var req map[string]any
	srv := newTestServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" High Risk: none "},"finish_reason":"stop"}]}`, &req)

	c := NewClientWithBaseURL("test-key", "gpt-4o-mini", srv.URL+"/v1")
	out, err := c.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "High Risk: none", out)

	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.EqualValues(t, maxTokens, req["max_tokens"])
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "summarize this", msgs[1].(map[string]any)["content"])
}

func TestGenerate_ReasoningModelUsesMaxCompletionTokens(t *testing.T) {
	var req map[string]any
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &req)

	_, err := NewClientWithBaseURL("k", "o3-mini", srv.URL+"/v1").Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.EqualValues(t, maxTokens, req["max_completion_tokens"])
	assert.NotContains(t, req, "max_tokens")
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`, nil)

	_, err := NewClientWithBaseURL("k", "gpt-4o-mini", srv.URL+"/v1").Generate(context.Background(), "p")
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"choices":[]}`, nil)

	_, err := NewClientWithBaseURL("k", "gpt-4o-mini", srv.URL+"/v1").Generate(context.Background(), "p")
	assert.ErrorIs(t, err, domai.ErrEmptyResponse)
}
