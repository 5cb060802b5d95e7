package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papercrew/papercrew/llm"
	"github.com/papercrew/papercrew/llm/providers"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := providers.GeminiConfig{}
	cfg.APIKey = "gem-key"
	cfg.BaseURL = srv.URL
	return NewGeminiProvider(cfg, nil)
}

func TestGeminiCompletion(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest

	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(geminiResponse{
			ResponseID: "g-1",
			Candidates: []geminiCandidate{{
				Content:      geminiContent{Role: "model", Parts: []geminiPart{{Text: "result"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: &geminiUsageMetadata{PromptTokenCount: 7, CandidatesTokenCount: 3, TotalTokenCount: 10},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "be terse"},
			{Role: llm.RoleUser, Content: "question"},
			{Role: llm.RoleAssistant, Content: "earlier answer"},
		},
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-pro:generateContent", gotPath)
	assert.Equal(t, "gem-key", gotKey)

	// system 消息转入 systemInstruction，assistant 角色改名 model
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "be terse", gotReq.SystemInstruction.Parts[0].Text)
	require.Len(t, gotReq.Contents, 2)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	assert.Equal(t, "model", gotReq.Contents[1].Role)
	require.NotNil(t, gotReq.GenerationConfig)
	assert.InDelta(t, 0.7, float64(gotReq.GenerationConfig.Temperature), 0.001)

	assert.Equal(t, "result", llm.FirstText(resp))
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
	assert.Equal(t, "gemini", resp.Provider)
}

func TestGeminiCompletion_Error(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"rate exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrRateLimited, llmErr.Code)
	assert.True(t, llmErr.Retryable)
	assert.Contains(t, llmErr.Message, "RESOURCE_EXHAUSTED")
}

func TestGeminiStream(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":streamGenerateContent"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"par\"}]},\"index\":0}]}\n\n" +
				"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"tial\"}]},\"finishReason\":\"STOP\",\"index\":0}]}\n\n"))
	})

	ch, err := p.Stream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.NoError(t, err)

	var content string
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		content += chunk.Delta.Content
	}
	assert.Equal(t, "partial", content)
}

func TestGeminiCompletion_ToolCalls(t *testing.T) {
	var gotReq geminiRequest

	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(geminiResponse{
			ResponseID: "g-2",
			Candidates: []geminiCandidate{{
				Content: geminiContent{Role: "model", Parts: []geminiPart{{
					FunctionCall: &geminiFunctionCall{
						Name: "academic_search",
						Args: map[string]interface{}{"query": "sleep and memory"},
					},
				}}},
				FinishReason: "STOP",
			}},
		})
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "find sources"}},
		Tools: []llm.ToolSchema{{
			Name:        "academic_search",
			Description: "search scholarly databases",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}}}`),
		}},
	})
	require.NoError(t, err)

	// 工具模式序列化为 functionDeclarations
	require.Len(t, gotReq.Tools, 1)
	require.Len(t, gotReq.Tools[0].FunctionDeclarations, 1)
	decl := gotReq.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, "academic_search", decl.Name)
	assert.Equal(t, "search scholarly databases", decl.Description)
	assert.Equal(t, "object", decl.Parameters["type"])

	// functionCall part 映射为 ToolCalls
	require.Len(t, resp.Choices, 1)
	require.Len(t, resp.Choices[0].Message.ToolCalls, 1)
	tc := resp.Choices[0].Message.ToolCalls[0]
	assert.Equal(t, "call_g-2_academic_search_0", tc.ID)
	assert.Equal(t, "academic_search", tc.Name)
	assert.JSONEq(t, `{"query":"sleep and memory"}`, string(tc.Arguments))
}

func TestGeminiCompletion_ToolResultMessages(t *testing.T) {
	var gotReq geminiRequest

	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content:      geminiContent{Role: "model", Parts: []geminiPart{{Text: "done"}}},
				FinishReason: "STOP",
			}},
		})
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "find sources"},
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
				ID:        "call_academic_search_0",
				Name:      "academic_search",
				Arguments: json.RawMessage(`{"query":"q"}`),
			}}},
			{Role: llm.RoleTool, Name: "academic_search", ToolCallID: "call_academic_search_0",
				Content: `{"total_results":3}`},
			{Role: llm.RoleTool, Name: "citation_check", ToolCallID: "call_citation_check_1",
				Content: "plain text result"},
		},
	})
	require.NoError(t, err)

	require.Len(t, gotReq.Contents, 4)

	// 助手的历史工具调用还原为 functionCall part
	call := gotReq.Contents[1]
	assert.Equal(t, "model", call.Role)
	require.NotNil(t, call.Parts[0].FunctionCall)
	assert.Equal(t, "academic_search", call.Parts[0].FunctionCall.Name)
	assert.Equal(t, "q", call.Parts[0].FunctionCall.Args["query"])

	// JSON 工具结果原样传入 functionResponse
	fr := gotReq.Contents[2]
	assert.Equal(t, "user", fr.Role)
	require.NotNil(t, fr.Parts[0].FunctionResponse)
	assert.Equal(t, "academic_search", fr.Parts[0].FunctionResponse.Name)
	assert.Equal(t, float64(3), fr.Parts[0].FunctionResponse.Response["total_results"])

	// 非 JSON 结果包一层 result
	plain := gotReq.Contents[3].Parts[0].FunctionResponse
	require.NotNil(t, plain)
	assert.Equal(t, "plain text result", plain.Response["result"])
}

func TestGeminiCompletion_SafetyBlocked(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{
			PromptFeedback: &geminiPromptFeedback{BlockReason: "SAFETY"},
		})
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrForbidden, llmErr.Code)
	assert.False(t, llmErr.Retryable)
	assert.Contains(t, llmErr.Message, "SAFETY")
}

func TestGeminiHealthCheck(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	})

	status, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
