// Package tokenizer 提供统一的 token 计数接口。
//
// OpenAI 系模型走 tiktoken 精确计数；其余模型回退到基于字符统计的
// 估计器。注册表按模型名（含前缀匹配）解析分词器。
package tokenizer
