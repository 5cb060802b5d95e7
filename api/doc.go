// Package api 定义 HTTP API 的请求/响应数据结构。
// 具体的处理器实现在 api/handlers 子包中。
package api
