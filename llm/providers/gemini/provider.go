package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
	"github.com/papercrew/papercrew/llm/providers"
)

// GeminiProvider 实现 Google Gemini 的 LLM Provider
// Gemini API 特点：
// 1. 使用 x-goog-api-key 请求头认证
// 2. system 消息通过 systemInstruction 字段单独传递
// 3. assistant 角色在 Gemini 中称为 "model"
type GeminiProvider struct {
	cfg    providers.GeminiConfig
	client *http.Client
	logger *zap.Logger
}

// NewGeminiProvider 创建 Gemini Provider
func NewGeminiProvider(cfg providers.GeminiConfig, logger *zap.Logger) *GeminiProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	endpoint := fmt.Sprintf("%s/v1beta/models", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg := readGeminiErrMsg(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("gemini health check failed: status=%d msg=%s", resp.StatusCode, msg)
	}
	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// Gemini 消息结构
type geminiContent struct {
	Role  string       `json:"role,omitempty"` // user, model
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type geminiFunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations,omitempty"`
}

type geminiFunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float32  `json:"temperature,omitempty"`
	TopP            float32  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	UsageMetadata  *geminiUsageMetadata  `json:"usageMetadata,omitempty"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	ModelVersion   string                `json:"modelVersion,omitempty"`
	ResponseID     string                `json:"responseId,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *GeminiProvider) buildHeaders(req *http.Request, apiKey string) {
	// Gemini 使用 x-goog-api-key 认证
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// convertToGeminiContents 将统一格式转换为 Gemini 格式
func convertToGeminiContents(msgs []llm.Message) (*geminiContent, []geminiContent) {
	var systemInstruction *geminiContent
	var contents []geminiContent

	for _, m := range msgs {
		// 提取 system 消息
		if m.Role == llm.RoleSystem {
			systemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: m.Content}},
			}
			continue
		}

		role := string(m.Role)
		if role == "assistant" {
			role = "model" // Gemini 使用 "model" 而不是 "assistant"
		}

		content := geminiContent{Role: role}

		// 工具结果消息转换为 functionResponse part
		if m.Role == llm.RoleTool && m.ToolCallID != "" {
			var response map[string]interface{}
			if err := json.Unmarshal([]byte(m.Content), &response); err != nil {
				response = map[string]interface{}{"result": m.Content}
			}
			name := m.Name
			if name == "" {
				name = functionNameFromCallID(m.ToolCallID)
			}
			content.Role = "user" // Gemini 要求 functionResponse 来自 user 侧
			content.Parts = append(content.Parts, geminiPart{
				FunctionResponse: &geminiFunctionResponse{
					Name:     name,
					Response: response,
				},
			})
			contents = append(contents, content)
			continue
		}

		if m.Content != "" {
			content.Parts = append(content.Parts, geminiPart{Text: m.Content})
		}
		// 助手的历史工具调用转换为 functionCall part
		for _, tc := range m.ToolCalls {
			var args map[string]interface{}
			if err := json.Unmarshal(tc.Arguments, &args); err != nil {
				args = map[string]interface{}{}
			}
			content.Parts = append(content.Parts, geminiPart{
				FunctionCall: &geminiFunctionCall{Name: tc.Name, Args: args},
			})
		}
		if len(content.Parts) > 0 {
			contents = append(contents, content)
		}
	}

	return systemInstruction, contents
}

// convertToGeminiTools 将统一工具模式转换为 functionDeclarations
func convertToGeminiTools(schemas []llm.ToolSchema) []geminiTool {
	if len(schemas) == 0 {
		return nil
	}
	decls := make([]geminiFunctionDeclaration, 0, len(schemas))
	for _, s := range schemas {
		decl := geminiFunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
		}
		if len(s.Parameters) > 0 {
			var params map[string]interface{}
			if err := json.Unmarshal(s.Parameters, &params); err == nil {
				decl.Parameters = params
			}
		}
		decls = append(decls, decl)
	}
	return []geminiTool{{FunctionDeclarations: decls}}
}

// functionNameFromCallID 从 call_<name>_<i> 形式的合成调用 ID 中还原函数名.
// Gemini 不返回调用 ID, 当消息缺少 Name 字段时用它兜底.
func functionNameFromCallID(callID string) string {
	trimmed := strings.TrimPrefix(callID, "call_")
	if idx := strings.LastIndex(trimmed, "_"); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func (p *GeminiProvider) buildRequest(req *llm.ChatRequest) geminiRequest {
	systemInstruction, contents := convertToGeminiContents(req.Messages)

	body := geminiRequest{
		Contents:          contents,
		SystemInstruction: systemInstruction,
		Tools:             convertToGeminiTools(req.Tools),
	}
	if req.Temperature != 0 || req.TopP != 0 || req.MaxTokens != 0 || len(req.Stop) > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
			StopSequences:   req.Stop,
		}
	}
	return body
}

func (p *GeminiProvider) model(req *llm.ChatRequest) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return p.cfg.Model
}

// Completion 发起同步生成请求（generateContent）
func (p *GeminiProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := p.model(req)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(p.cfg.BaseURL, "/"), model)

	payload, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := readGeminiErrMsg(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	// 安全过滤拦截：提示被拒时没有 candidates, 原因在 promptFeedback 里
	if len(gResp.Candidates) == 0 && gResp.PromptFeedback != nil && gResp.PromptFeedback.BlockReason != "" {
		return nil, &llm.Error{
			Code:       llm.ErrForbidden,
			Message:    fmt.Sprintf("prompt blocked by gemini safety filter: %s", gResp.PromptFeedback.BlockReason),
			HTTPStatus: http.StatusForbidden, Retryable: false, Provider: p.Name(),
		}
	}

	return p.toChatResponse(gResp, model), nil
}

func (p *GeminiProvider) toChatResponse(gResp geminiResponse, model string) *llm.ChatResponse {
	choices := make([]llm.ChatChoice, 0, len(gResp.Candidates))
	for _, c := range gResp.Candidates {
		choices = append(choices, llm.ChatChoice{
			Index:        c.Index,
			FinishReason: strings.ToLower(c.FinishReason),
			Message:      candidateToMessage(c, gResp.ResponseID),
		})
	}

	resp := &llm.ChatResponse{
		ID:       gResp.ResponseID,
		Provider: p.Name(),
		Model:    model,
		Choices:  choices,
	}
	if gResp.UsageMetadata != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     gResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: gResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gResp.UsageMetadata.TotalTokenCount,
		}
	}
	return resp
}

// candidateToMessage 汇集候选的文本与 functionCall parts.
// Gemini 不下发调用 ID, 这里合成 call_<respID>_<name>_<i> 供工具结果回传对账.
func candidateToMessage(c geminiCandidate, responseID string) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant}
	var text strings.Builder
	toolCallIndex := 0
	for _, part := range c.Content.Parts {
		text.WriteString(part.Text)
		if part.FunctionCall == nil {
			continue
		}
		args, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			args = []byte("{}")
		}
		id := fmt.Sprintf("call_%s_%d", part.FunctionCall.Name, toolCallIndex)
		if responseID != "" {
			id = fmt.Sprintf("call_%s_%s_%d", responseID, part.FunctionCall.Name, toolCallIndex)
		}
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			ID:        id,
			Name:      part.FunctionCall.Name,
			Arguments: args,
		})
		toolCallIndex++
	}
	msg.Content = text.String()
	return msg
}

// Stream 发起流式生成请求（streamGenerateContent，SSE 格式）
func (p *GeminiProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	model := p.model(req)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		strings.TrimRight(p.cfg.BaseURL, "/"), model)

	payload, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq, p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &llm.Error{
			Code: llm.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := readGeminiErrMsg(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
					case ch <- llm.StreamChunk{Err: &llm.Error{
						Code: llm.ErrUpstreamError, Message: err.Error(),
						HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
					}}:
					}
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var gResp geminiResponse
			if err := json.Unmarshal([]byte(data), &gResp); err != nil {
				continue
			}

			for _, c := range gResp.Candidates {
				chunk := llm.StreamChunk{
					ID:           gResp.ResponseID,
					Provider:     p.Name(),
					Model:        model,
					Index:        c.Index,
					FinishReason: strings.ToLower(c.FinishReason),
					Delta:        candidateToMessage(c, gResp.ResponseID),
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
		}
	}()
	return ch, nil
}

// readGeminiErrMsg 解析 Gemini 风格的错误响应体
func readGeminiErrMsg(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}
	var errResp geminiErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Status != "" {
			return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
		}
		return errResp.Error.Message
	}
	return string(data)
}
