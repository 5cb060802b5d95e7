// Package tools implements the tool registry, executor, and the research
// tool set exposed to agents: academic search, literature review, citation
// checking, plagiarism scoring, presentation building, visual design, and
// data visualization.
//
// Tools are plain functions over JSON arguments (ToolFunc). The registry
// holds per-tool metadata (schema, timeout, rate limit); the executor runs
// calls concurrently with timeout control and never panics the caller — all
// failures are reported through ToolResult.Error.
package tools
