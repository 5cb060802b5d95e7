// Package report 把流水线的阶段产出重塑为结构化报告：
// 元数据、各阶段小节（含工具产物解析）、完成度概览与改进建议,
// 并提供下载用的 ZIP 打包。
package report
