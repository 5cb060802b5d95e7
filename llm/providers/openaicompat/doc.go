// Package openaicompat provides a shared base implementation for
// OpenAI-compatible LLM providers.
//
// OpenRouter and Groq share the same API format (OpenAI Chat Completions).
// Instead of duplicating HTTP handling, SSE parsing, message conversion, and
// error mapping in each provider, they embed openaicompat.Provider and only
// override what differs:
//
//   - Provider name and default model
//   - Base URL
//   - Custom headers (if any)
//   - Request hooks for provider-specific fields
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName:  "groq",
//	    APIKey:        cfg.APIKey,
//	    BaseURL:       "https://api.groq.com/openai",
//	    DefaultModel:  "llama-3.3-70b-versatile",
//	    FallbackModel: "llama-3.3-70b-versatile",
//	}, logger)
package openaicompat
