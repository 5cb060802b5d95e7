// Package handlers 实现 HTTP API 处理器：
// 研究运行的创建/查询/报告/下载/进度推送、批量引用格式化, 以及健康检查。
package handlers
