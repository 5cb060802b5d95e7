package providers

import "time"

// BaseProviderConfig 所有 Provider 共享的基础配置字段。
// 通过嵌入此结构体，各 Provider 的 Config 自动获得 APIKey、BaseURL、Model、Timeout 四个字段，
// 避免重复定义。
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OpenRouterConfig OpenRouter Provider 配置
type OpenRouterConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// Referer 与 Title 写入 OpenRouter 的应用归属 header（可选）。
	Referer string `json:"referer,omitempty" yaml:"referer,omitempty"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
}

// GroqConfig Groq Provider 配置
type GroqConfig struct {
	BaseProviderConfig `yaml:",inline"`
}

// GeminiConfig Google Gemini Provider 配置
type GeminiConfig struct {
	BaseProviderConfig `yaml:",inline"`
}
