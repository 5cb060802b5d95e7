package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/api"
	"github.com/papercrew/papercrew/citation"
)

// =============================================================================
// 📚 引用格式化 Handler
// =============================================================================

// CitationHandler 引用格式化接口处理器
type CitationHandler struct {
	engine       *citation.Engine
	defaultStyle string
	logger       *zap.Logger
}

// NewCitationHandler 创建引用格式化处理器
// defaultStyle 为空时使用 APA。
func NewCitationHandler(engine *citation.Engine, defaultStyle string, logger *zap.Logger) *CitationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultStyle == "" {
		defaultStyle = string(citation.StyleAPA)
	}
	return &CitationHandler{
		engine:       engine,
		defaultStyle: strings.ToUpper(defaultStyle),
		logger:       logger.With(zap.String("component", "citation_handler")),
	}
}

// HandleFormat 批量格式化并校验引用
// @Summary 引用格式化
// @Description 按指定格式批量格式化文献记录并返回校验结果
// @Tags 引用
// @Accept json
// @Produce json
// @Param request body api.CitationFormatRequest true "格式化请求"
// @Success 200 {object} Response "格式化结果"
// @Failure 400 {object} Response "无效请求"
// @Router /api/v1/citations/format [post]
func (h *CitationHandler) HandleFormat(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.CitationFormatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if len(req.Records) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, CodeInvalidRequest, "records cannot be empty", h.logger)
		return
	}

	style := strings.ToUpper(strings.TrimSpace(req.Style))
	if style == "" {
		style = h.defaultStyle
	}
	switch style {
	case string(citation.StyleAPA), string(citation.StyleMLA), string(citation.StyleChicago):
	default:
		WriteErrorMessage(w, http.StatusBadRequest, CodeInvalidRequest,
			"style must be APA, MLA or CHICAGO", h.logger)
		return
	}

	results := h.engine.FormatAndValidateBatch(req.Records, style)

	h.logger.Debug("citations formatted",
		zap.String("style", style),
		zap.Int("records", len(req.Records)),
	)

	WriteSuccess(w, api.CitationFormatResponse{
		Style:   style,
		Results: results,
	})
}
