// Package llm 定义统一的 LLM Provider 抽象与错误模型。
//
// 各 Provider 适配器位于 llm/providers 子包；本包只承载接口、请求/响应
// 类型与错误码。限流包装器 RateLimitedProvider 用于约束对上游 API 的
// 请求速率。
package llm
