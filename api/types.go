package api

import (
	"time"

	"github.com/papercrew/papercrew/citation"
	"github.com/papercrew/papercrew/workflow"
)

// =============================================================================
// 研究流水线类型
// =============================================================================

// ResearchRequest 表示创建研究运行的请求。
// @Description 研究运行创建请求结构
type ResearchRequest struct {
	// 研究主题
	Topic string `json:"topic" example:"AI Ethics in Healthcare"`
	// 论文要求（引用格式、篇幅、阶段开关等）
	Requirements workflow.Requirements `json:"requirements"`
}

// ResearchAccepted 表示运行已受理的响应。
type ResearchAccepted struct {
	// 运行 ID
	RunID string `json:"run_id"`
	// 运行状态
	Status string `json:"status"`
	// 创建时间
	CreatedAt time.Time `json:"created_at"`
}

// ProgressMessage 是 WebSocket 进度推送的消息帧。
type ProgressMessage struct {
	// 运行 ID
	RunID string `json:"run_id"`
	// 阶段事件
	Event workflow.StageEvent `json:"event"`
}

// =============================================================================
// 引用格式化类型
// =============================================================================

// CitationFormatRequest 表示批量引用格式化请求。
// @Description 引用格式化请求结构
type CitationFormatRequest struct {
	// 引用格式: APA, MLA, CHICAGO
	Style string `json:"style" example:"APA"`
	// 文献记录列表
	Records []citation.Record `json:"records"`
}

// CitationFormatResponse 表示批量引用格式化响应。
type CitationFormatResponse struct {
	// 实际使用的引用格式
	Style string `json:"style"`
	// 每条记录的格式化与校验结果
	Results []citation.BatchResult `json:"results"`
}
