package groq

import (
	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm/providers"
	"github.com/papercrew/papercrew/llm/providers/openaicompat"
)

// GroqProvider 实现 Groq LPU 推理服务的 LLM 提供者.
// Groq 使用 OpenAI 兼容的 API 格式，挂载在 /openai 路径下.
type GroqProvider struct {
	*openaicompat.Provider
}

// NewGroqProvider 创建新的 Groq 提供者实例.
func NewGroqProvider(cfg providers.GroqConfig, logger *zap.Logger) *GroqProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai"
	}

	return &GroqProvider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "groq",
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "llama-3.3-70b-versatile",
			Timeout:       cfg.Timeout,
		}, logger),
	}
}
