package openrouter

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm/providers"
	"github.com/papercrew/papercrew/llm/providers/openaicompat"
)

// OpenRouterProvider 实现 OpenRouter 聚合网关的 LLM 提供者.
// OpenRouter 使用 OpenAI 兼容的 API 格式，模型名带厂商前缀
// （如 "openai/gpt-4"、"anthropic/claude-3.5-sonnet"）.
type OpenRouterProvider struct {
	*openaicompat.Provider
}

// NewOpenRouterProvider 创建新的 OpenRouter 提供者实例.
func NewOpenRouterProvider(cfg providers.OpenRouterConfig, logger *zap.Logger) *OpenRouterProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api"
	}

	return &OpenRouterProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "openrouter",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "openai/gpt-4",
			Timeout:       cfg.Timeout,
			BuildHeaders: func(req *http.Request, apiKey string) {
				providers.BearerTokenHeaders(req, apiKey)
				// OpenRouter 的应用归属 header，用于请求排名统计。
				if cfg.Referer != "" {
					req.Header.Set("HTTP-Referer", cfg.Referer)
				}
				if cfg.Title != "" {
					req.Header.Set("X-Title", cfg.Title)
				}
			},
		}, logger),
	}
}
