// Package providers 承载各 LLM Provider 的共享类型与工具函数：
// OpenAI 兼容的请求/响应结构、消息与工具格式转换、HTTP 错误映射。
// 具体的 Provider 适配器位于各自的子包（openrouter、groq、gemini）。
package providers
