package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papercrew/papercrew/llm"
	"github.com/papercrew/papercrew/llm/providers"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(Config{
		ProviderName:  "test",
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		DefaultModel:  "default-model",
		FallbackModel: "fallback-model",
	}, nil)
	return p, srv
}

func TestCompletion_Success(t *testing.T) {
	var gotAuth string
	var gotBody providers.OpenAICompatRequest

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		resp := providers.OpenAICompatResponse{
			ID:    "resp-1",
			Model: "default-model",
			Choices: []providers.OpenAICompatChoice{{
				Index:        0,
				FinishReason: "stop",
				Message:      providers.OpenAICompatMessage{Role: "assistant", Content: "hello"},
			}},
			Usage: &providers.OpenAICompatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "default-model", gotBody.Model)
	assert.Equal(t, "hello", llm.FirstText(resp))
	assert.Equal(t, "test", resp.Provider)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestCompletion_ModelSelection(t *testing.T) {
	var gotModel string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body providers.OpenAICompatRequest
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		json.NewEncoder(w).Encode(providers.OpenAICompatResponse{Model: body.Model})
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Model:    "explicit-model",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "explicit-model", gotModel)
}

func TestCompletion_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  llm.ErrorCode
		retryable bool
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"bad key"}}`,
			wantCode: llm.ErrUnauthorized,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"message":"slow down"}}`,
			wantCode:  llm.ErrRateLimited,
			retryable: true,
		},
		{
			name:     "quota keyword in 400",
			status:   http.StatusBadRequest,
			body:     `{"error":{"message":"monthly quota exhausted"}}`,
			wantCode: llm.ErrQuotaExceeded,
		},
		{
			name:      "bad gateway",
			status:    http.StatusBadGateway,
			body:      `{"error":{"message":"upstream down"}}`,
			wantCode:  llm.ErrUpstreamError,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
			})
			require.Error(t, err)

			var llmErr *llm.Error
			require.ErrorAs(t, err, &llmErr)
			assert.Equal(t, tt.wantCode, llmErr.Code)
			assert.Equal(t, tt.retryable, llmErr.Retryable)
			assert.Equal(t, "test", llmErr.Provider)
		})
	}
}

func TestStream_SSE(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(
			"data: {\"id\":\"s1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"hel\"}}]}\n\n" +
				"data: {\"id\":\"s1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n" +
				"data: [DONE]\n\n"))
	})

	ch, err := p.Stream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	var content string
	var finish string
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		content += chunk.Delta.Content
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	assert.Equal(t, "hello", content)
	assert.Equal(t, "stop", finish)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.Write([]byte(`{"object":"list","data":[]}`))
		})

		status, err := p.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	})

	t.Run("unhealthy", func(t *testing.T) {
		p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		status, err := p.HealthCheck(context.Background())
		require.Error(t, err)
		assert.False(t, status.Healthy)
	})
}

func TestRequestHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body providers.OpenAICompatRequest
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "hooked-model", body.Model)
		json.NewEncoder(w).Encode(providers.OpenAICompatResponse{})
	}))
	defer srv.Close()

	p := New(Config{
		ProviderName: "test",
		APIKey:       "k",
		BaseURL:      srv.URL,
		DefaultModel: "default-model",
		RequestHook: func(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
			body.Model = "hooked-model"
		},
	}, nil)

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
}
